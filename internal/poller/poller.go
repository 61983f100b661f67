// Package poller runs a task on a fixed interval for as long as its
// owner's context lives.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
)

type Task func(ctx context.Context) error

type Poller struct {
	name     string
	interval time.Duration
	task     Task
	clock    clock.Clock
	logger   *logger.Logger

	mu       sync.Mutex
	runs     int
	failures int
	lastErr  error
}

func New(name string, interval time.Duration, task Task, clk clock.Clock, log *logger.Logger) *Poller {
	if clk == nil {
		clk = clock.Real()
	}
	return &Poller{
		name:     name,
		interval: interval,
		task:     task,
		clock:    clk,
		logger:   log,
	}
}

// Run executes the task once right away and then on every tick until ctx
// is cancelled. A failing run is logged and does not stop the loop.
func (p *Poller) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Warn("POLLER", fmt.Sprintf("%s has no interval, not polling", p.name))
		return
	}

	p.runOnce(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("POLLER", fmt.Sprintf("%s stopped", p.name))
			return
		case <-ticker.C():
		}
		p.runOnce(ctx)
	}
}

// Start runs the poller in its own goroutine. The returned channel closes
// once the loop has exited.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return done
}

// Runs reports how many times the task has executed.
func (p *Poller) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

// LastError is the error of the most recent run, nil after a success.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) runOnce(ctx context.Context) {
	err := p.task(ctx)

	p.mu.Lock()
	p.runs++
	p.lastErr = err
	if err == nil {
		if p.failures > 0 {
			p.logger.Info("POLLER", fmt.Sprintf("%s recovered after %d failures", p.name, p.failures))
		}
		p.failures = 0
		p.mu.Unlock()
		return
	}
	p.failures++
	failures := p.failures
	p.mu.Unlock()

	if ctx.Err() == nil {
		p.logger.Warn("POLLER", fmt.Sprintf("%s failed (%d consecutive): %v", p.name, failures, err))
	}
}
