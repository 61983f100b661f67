package purchase

import (
	"context"
	"errors"
	"sync"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/querycache"
)

// Cancellable reports whether a view should offer to cancel t.
func Cancellable(t models.Ticket) bool {
	return t.Status() == models.TicketActive
}

// Cancellation cancels tickets one request at a time per ticket. Ticket
// state is never edited locally; the refetched list shows the result.
type Cancellation struct {
	tickets TicketService
	cache   Invalidator
	logger  *logger.Logger

	mu      sync.Mutex
	pending map[models.ID]bool
}

func NewCancellation(svc TicketService, cache Invalidator, log *logger.Logger) *Cancellation {
	return &Cancellation{tickets: svc, cache: cache, logger: log, pending: make(map[models.ID]bool)}
}

func (c *Cancellation) InFlight(ticketID models.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[ticketID]
}

func (c *Cancellation) CancelTicket(ctx context.Context, t models.Ticket) (*models.Ticket, error) {
	if !Cancellable(t) {
		return nil, ErrNotCancellable
	}

	c.mu.Lock()
	if c.pending[t.ID] {
		c.mu.Unlock()
		return nil, ErrCancellationInFlight
	}
	c.pending[t.ID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, t.ID)
		c.mu.Unlock()
	}()

	updated, err := c.tickets.CancelTicket(ctx, t.ID)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
		failure := newError("cancel", err, FallbackCancelReason)
		c.logger.Warn("TICKETS", "Cancellation of ticket "+t.ID.String()+" failed: "+failure.Reason)
		return nil, failure
	}

	c.cache.Invalidate(querycache.KeyMyTickets, querycache.KeyTickets)
	c.logger.Info("TICKETS", "Ticket "+t.ID.String()+" cancelled")
	return updated, nil
}
