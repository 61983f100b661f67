package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/poller"
)

func TestPollerRunsImmediatelyAndOnEachTick(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	var calls int32
	p := poller.New("unread-count", 30*time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, fake, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)

	require.Eventually(t, func() bool { return fake.Tickers() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	fake.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, time.Millisecond)
	fake.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, fake.Tickers())
	assert.Equal(t, 3, p.Runs())
}

func TestPollerKeepsGoingAfterFailure(t *testing.T) {
	fake := clock.NewFake(time.Now())
	boom := errors.New("backend down")
	var calls int32
	p := poller.New("unread-count", time.Minute, func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return boom
		}
		return nil
	}, fake, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	require.Eventually(t, func() bool { return fake.Tickers() == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, p.LastError(), boom)

	fake.Advance(time.Minute)
	require.Eventually(t, func() bool { return p.Runs() == 2 }, time.Second, time.Millisecond)
	assert.NoError(t, p.LastError())
}

func TestPollerWithoutIntervalReturns(t *testing.T) {
	p := poller.New("disabled", 0, func(ctx context.Context) error { return nil }, nil, logger.Discard())
	done := p.Start(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller without interval should return")
	}
	assert.Equal(t, 0, p.Runs())
}
