// Package purchase turns a selection into a purchase request and handles
// ticket cancellation, keeping the query cache in step with both.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/selection"
	tickets "ticketly-client/internal/tickets/service"
)

// TicketService is the part of the tickets service the workflows call.
type TicketService interface {
	PurchaseTickets(ctx context.Context, eventID models.ID, lines []models.PurchaseLine) (*tickets.PurchaseResult, error)
	CancelTicket(ctx context.Context, ticketID models.ID) (*models.Ticket, error)
}

type Invalidator interface {
	Invalidate(keys ...string)
}

// Confirmed describes a purchase the backend accepted.
type Confirmed struct {
	EventID models.ID
	Lines   []selection.Line
	Total   float64
	Tickets []models.Ticket
	Message string
}

// Workflow submits the selection of one event view. Callbacks run on the
// submitting goroutine after the workflow state has been updated.
type Workflow struct {
	selection *selection.Manager
	tickets   TicketService
	cache     Invalidator
	logger    *logger.Logger

	OnSuccess func(Confirmed)
	OnFailure func(*Error)

	mu         sync.Mutex
	inFlight   bool
	generation uint64
	abandoned  bool
}

func New(sel *selection.Manager, svc TicketService, cache Invalidator, log *logger.Logger) *Workflow {
	return &Workflow{selection: sel, tickets: svc, cache: cache, logger: log}
}

// InFlight reports whether a submission is waiting for the backend.
func (w *Workflow) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Submit buys the current selection. The request is built from a snapshot
// taken on entry, so later edits cannot change it. On failure the
// selection is left exactly as it was.
func (w *Workflow) Submit(ctx context.Context) (*Confirmed, error) {
	w.mu.Lock()
	if w.abandoned {
		w.mu.Unlock()
		return nil, ErrAbandoned
	}
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	snap := w.selection.Snapshot()
	if snap.IsEmpty() {
		w.mu.Unlock()
		return nil, ErrNothingSelected
	}
	w.inFlight = true
	gen := w.generation
	w.mu.Unlock()

	eventID := snap.EventID.String()
	w.logger.LogPurchase("SUBMIT", eventID, fmt.Sprintf("%d entries across %d tiers", countEntries(snap), len(snap.Lines)))

	result, err := w.tickets.PurchaseTickets(ctx, snap.EventID, snap.PurchaseLines())

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		if err == nil {
			// the tickets exist even though nobody is waiting for them
			w.cache.Invalidate(querycache.KeyMyTickets, querycache.KeyTickets, querycache.AvailableTicketsKey(eventID))
		}
		w.logger.LogPurchase("STALE", eventID, "Ignoring result of an abandoned submission")
		return nil, ErrAbandoned
	}
	w.inFlight = false

	if err != nil {
		w.mu.Unlock()
		if errors.Is(err, api.ErrUnauthorized) {
			w.logger.LogPurchase("UNAUTHORIZED", eventID, "Session ended during purchase")
			return nil, err
		}
		failure := newError("purchase", err, FallbackPurchaseReason)
		w.logger.LogPurchase("FAILED", eventID, failure.Reason)
		if w.OnFailure != nil {
			w.OnFailure(failure)
		}
		return nil, failure
	}

	w.selection.Clear()
	w.cache.Invalidate(querycache.KeyMyTickets, querycache.KeyTickets, querycache.AvailableTicketsKey(eventID))
	w.mu.Unlock()

	confirmed := Confirmed{
		EventID: snap.EventID,
		Lines:   snap.Lines,
		Total:   snap.TotalPrice(),
	}
	if result != nil {
		confirmed.Tickets = result.Tickets
		confirmed.Message = result.Message
	}
	w.logger.LogPurchase("CONFIRMED", eventID, fmt.Sprintf("%d tickets issued", len(confirmed.Tickets)))
	if w.OnSuccess != nil {
		w.OnSuccess(confirmed)
	}
	return &confirmed, nil
}

// Clear empties the selection. A submission still in flight is dropped:
// its result fires no callbacks and leaves the selection alone, though a
// purchase the backend accepted still marks the ticket lists stale.
func (w *Workflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.inFlight = false
	w.selection.Clear()
}

// Abandon is called when the owning view goes away. Pending and later
// submissions return ErrAbandoned.
func (w *Workflow) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.generation++
	w.inFlight = false
	w.abandoned = true
	w.selection.Clear()
}

func countEntries(snap selection.Snapshot) int {
	n := 0
	for _, l := range snap.Lines {
		n += l.Quantity
	}
	return n
}
