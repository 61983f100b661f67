package purchase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/api"
	"ticketly-client/internal/apitest"
	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/purchase"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/selection"
	tickets "ticketly-client/internal/tickets/service"
)

// MockTicketService is a mock implementation of purchase.TicketService
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) PurchaseTickets(ctx context.Context, eventID models.ID, lines []models.PurchaseLine) (*tickets.PurchaseResult, error) {
	args := m.Called(eventID, lines)
	result, _ := args.Get(0).(*tickets.PurchaseResult)
	return result, args.Error(1)
}

func (m *MockTicketService) CancelTicket(ctx context.Context, ticketID models.ID) (*models.Ticket, error) {
	args := m.Called(ticketID)
	ticket, _ := args.Get(0).(*models.Ticket)
	return ticket, args.Error(1)
}

type invalidations struct {
	mu   sync.Mutex
	keys []string
}

func (i *invalidations) Invalidate(keys ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys = append(i.keys, keys...)
}

func (i *invalidations) all() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.keys...)
}

func generalAndVIP() []models.Tier {
	return []models.Tier{
		{ID: "general", Name: "Entrada General", Price: 25000, Available: 150, Total: 200},
		{ID: "vip", Name: "Entrada VIP", Price: 45000, Available: 25, Total: 50},
	}
}

func TestSubmitWithEmptySelectionMakesNoCall(t *testing.T) {
	svc := new(MockTicketService)
	w := purchase.New(selection.New("42", generalAndVIP(), nil), svc, &invalidations{}, logger.Discard())

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, purchase.ErrNothingSelected)
	svc.AssertNotCalled(t, "PurchaseTickets", mock.Anything, mock.Anything)
}

func TestSubmitSuccessClearsSelectionAndInvalidates(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)

	issued := []models.Ticket{{ID: "100", EventID: "42"}, {ID: "101", EventID: "42"}}
	svc.On("PurchaseTickets", models.ID("42"), []models.PurchaseLine{{TierID: "general", Quantity: 2}}).
		Return(&tickets.PurchaseResult{Message: "ok", Tickets: issued}, nil)

	w := purchase.New(sel, svc, cache, logger.Discard())
	var delivered *purchase.Confirmed
	w.OnSuccess = func(c purchase.Confirmed) { delivered = &c }
	w.OnFailure = func(*purchase.Error) { t.Fatal("unexpected failure callback") }

	confirmed, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, issued, confirmed.Tickets)
	assert.Equal(t, 50000.0, confirmed.Total)
	require.NotNil(t, delivered)
	assert.Equal(t, models.ID("42"), delivered.EventID)

	assert.True(t, sel.IsEmpty())
	assert.Zero(t, sel.TotalQuantity())
	assert.ElementsMatch(t, []string{querycache.KeyMyTickets, querycache.KeyTickets, querycache.AvailableTicketsKey("42")}, cache.all())
	assert.False(t, w.InFlight())
	svc.AssertExpectations(t)
}

func TestSubmitFailureKeepsSelectionAndReason(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)
	before := sel.Snapshot()

	backendErr := &api.Error{Status: 400, Detail: "Aforo insuficiente"}
	svc.On("PurchaseTickets", models.ID("42"), mock.Anything).Return(nil, backendErr)

	w := purchase.New(sel, svc, cache, logger.Discard())
	var reported *purchase.Error
	w.OnFailure = func(e *purchase.Error) { reported = e }

	_, err := w.Submit(context.Background())
	var pe *purchase.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Aforo insuficiente", pe.Reason)
	assert.Equal(t, "Aforo insuficiente", err.Error())
	assert.ErrorIs(t, err, backendErr)
	require.NotNil(t, reported)
	assert.Equal(t, pe, reported)

	assert.Equal(t, before, sel.Snapshot())
	assert.Empty(t, cache.all())
	assert.False(t, w.InFlight())
}

func TestSubmitFailureFallsBackToGenericReason(t *testing.T) {
	svc := new(MockTicketService)
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("vip", 1)

	svc.On("PurchaseTickets", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	svc.On("PurchaseTickets", mock.Anything, mock.Anything).Return(nil, &api.Error{Status: 500}).Once()

	w := purchase.New(sel, svc, &invalidations{}, logger.Discard())

	_, err := w.Submit(context.Background())
	assert.Equal(t, purchase.FallbackPurchaseReason, err.Error())
	_, err = w.Submit(context.Background())
	assert.Equal(t, purchase.FallbackPurchaseReason, err.Error())
	assert.Equal(t, 1, sel.Quantity("vip"))
}

func TestSubmitUnauthorizedSkipsWorkflowHandling(t *testing.T) {
	svc := new(MockTicketService)
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("vip", 1)

	svc.On("PurchaseTickets", mock.Anything, mock.Anything).Return(nil, &api.Error{Status: 401, Detail: "No autenticado"})

	w := purchase.New(sel, svc, &invalidations{}, logger.Discard())
	w.OnFailure = func(*purchase.Error) { t.Fatal("failure callback must not run on 401") }

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	var pe *purchase.Error
	assert.False(t, errors.As(err, &pe))
	assert.False(t, sel.IsEmpty())
}

func TestSecondSubmitWhileInFlightIsSuppressed(t *testing.T) {
	svc := new(MockTicketService)
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("PurchaseTickets", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&tickets.PurchaseResult{}, nil).Once()

	w := purchase.New(sel, svc, &invalidations{}, logger.Discard())

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, w.InFlight())
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, purchase.ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, w.InFlight())
	svc.AssertNumberOfCalls(t, "PurchaseTickets", 1)
}

func TestSnapshotFixedAtSubmit(t *testing.T) {
	svc := new(MockTicketService)
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("PurchaseTickets", models.ID("42"), []models.PurchaseLine{{TierID: "general", Quantity: 2}}).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil, &api.Error{Status: 400, Detail: "Aforo insuficiente"})

	w := purchase.New(sel, svc, &invalidations{}, logger.Discard())
	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-entered

	sel.UpdateOffering([]models.Tier{{ID: "general", Price: 25000, Available: 1}})
	close(release)

	assert.Error(t, <-done)
	svc.AssertExpectations(t)
}

func TestLateResultAfterClearIsIgnored(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("PurchaseTickets", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&tickets.PurchaseResult{}, nil)

	w := purchase.New(sel, svc, cache, logger.Discard())
	w.OnSuccess = func(purchase.Confirmed) { t.Error("success callback after clear") }

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-entered

	w.Clear()
	assert.False(t, w.InFlight())
	sel.SetQuantity("vip", 1)

	close(release)
	assert.ErrorIs(t, <-done, purchase.ErrAbandoned)
	assert.Equal(t, 1, sel.Quantity("vip"))
	assert.ElementsMatch(t, []string{querycache.KeyMyTickets, querycache.KeyTickets, querycache.AvailableTicketsKey("42")}, cache.all())
}

func TestLateFailureAfterAbandonIsIgnored(t *testing.T) {
	svc := new(MockTicketService)
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("PurchaseTickets", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil, &api.Error{Status: 400, Detail: "Aforo insuficiente"})

	w := purchase.New(sel, svc, &invalidations{}, logger.Discard())
	w.OnFailure = func(*purchase.Error) { t.Error("failure callback after abandon") }

	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-entered

	w.Abandon()
	close(release)
	assert.ErrorIs(t, <-done, purchase.ErrAbandoned)

	sel.SetQuantity("general", 1)
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, purchase.ErrAbandoned)
	svc.AssertNumberOfCalls(t, "PurchaseTickets", 1)
}

func TestPurchaseAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.AddEvent(models.Event{ID: "42", Title: "Festival", Status: models.EventPublished, Price: 25000}, generalAndVIP())
	client, _ := backend.Client(t, "ana")
	svc := tickets.NewTicketService(client, logger.Discard())

	cache := querycache.New(time.Minute, clock.NewFake(time.Now()), logger.Discard())
	ctx := context.Background()
	_, err := querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)
	assert.False(t, cache.State(querycache.KeyMyTickets).Stale)

	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)
	w := purchase.New(sel, svc, cache, logger.Discard())

	confirmed, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Len(t, confirmed.Tickets, 2)
	assert.Equal(t, "Compra realizada con éxito", confirmed.Message)
	assert.True(t, sel.IsEmpty())
	assert.True(t, cache.State(querycache.KeyMyTickets).Stale)

	require.Len(t, backend.PurchaseRequests(), 1)
	assert.Equal(t, models.PurchaseRequest{EventID: "42", Entries: []models.PurchaseLine{{TierID: "general", Quantity: 2}}}, backend.PurchaseRequests()[0])

	stale, err := querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)
	assert.Empty(t, stale)
	cache.Wait()

	mine, err := querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestLateSuccessAfterAbandonMarksTicketsStale(t *testing.T) {
	backend := apitest.New(t)
	backend.AddEvent(models.Event{ID: "42", Title: "Festival", Status: models.EventPublished, Price: 25000}, generalAndVIP())
	client, _ := backend.Client(t, "ana")
	svc := tickets.NewTicketService(client, logger.Discard())

	cache := querycache.New(time.Minute, clock.NewFake(time.Now()), logger.Discard())
	ctx := context.Background()
	_, err := querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)

	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)
	w := purchase.New(sel, svc, cache, logger.Discard())
	w.OnSuccess = func(purchase.Confirmed) { t.Error("success callback after abandon") }

	arrived, release := backend.Hold("POST", "/entradas/entradas/comprar")
	defer release()
	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(ctx)
		done <- err
	}()
	<-arrived

	w.Abandon()
	release()
	assert.ErrorIs(t, <-done, purchase.ErrAbandoned)
	require.Len(t, backend.PurchaseRequests(), 1)
	assert.True(t, cache.State(querycache.KeyMyTickets).Stale)

	_, err = querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)
	cache.Wait()
	mine, err := querycache.Query(ctx, cache, querycache.KeyMyTickets, svc.GetMyTickets)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestLateFailureLeavesTicketsFresh(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("PurchaseTickets", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil, &api.Error{Status: 400, Detail: "Evento agotado"})

	w := purchase.New(sel, svc, cache, logger.Discard())
	done := make(chan error, 1)
	go func() {
		_, err := w.Submit(context.Background())
		done <- err
	}()
	<-entered

	w.Clear()
	close(release)
	assert.ErrorIs(t, <-done, purchase.ErrAbandoned)
	assert.Empty(t, cache.all())
}

func TestPurchaseFailureAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.AddEvent(models.Event{ID: "42", Title: "Festival", Status: models.EventPublished}, generalAndVIP())
	backend.Fail("POST", "/entradas/entradas/comprar", 400, `{"detail":"Aforo insuficiente"}`)
	client, _ := backend.Client(t, "ana")

	sel := selection.New("42", generalAndVIP(), nil)
	sel.SetQuantity("general", 2)
	w := purchase.New(sel, tickets.NewTicketService(client, logger.Discard()), &invalidations{}, logger.Discard())

	_, err := w.Submit(context.Background())
	assert.EqualError(t, err, "Aforo insuficiente")
	assert.Equal(t, []selection.Line{{TierID: "general", Quantity: 2, Price: 25000}}, sel.Lines())
}
