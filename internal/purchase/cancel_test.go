package purchase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/api"
	"ticketly-client/internal/apitest"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/purchase"
	"ticketly-client/internal/querycache"
	tickets "ticketly-client/internal/tickets/service"
)

func TestCancellable(t *testing.T) {
	assert.True(t, purchase.Cancellable(models.Ticket{State: "vendida"}))
	assert.True(t, purchase.Cancellable(models.Ticket{State: "activa"}))
	assert.False(t, purchase.Cancellable(models.Ticket{State: "cancelada"}))
	assert.False(t, purchase.Cancellable(models.Ticket{State: "usada"}))
	assert.False(t, purchase.Cancellable(models.Ticket{State: ""}))
}

func TestCancelNonActiveMakesNoCall(t *testing.T) {
	svc := new(MockTicketService)
	c := purchase.NewCancellation(svc, &invalidations{}, logger.Discard())

	for _, state := range []string{"cancelada", "usada"} {
		_, err := c.CancelTicket(context.Background(), models.Ticket{ID: "9", State: state})
		assert.ErrorIs(t, err, purchase.ErrNotCancellable)
	}
	svc.AssertNotCalled(t, "CancelTicket", mock.Anything)
}

func TestCancelSuccessInvalidatesTicketLists(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	svc.On("CancelTicket", models.ID("9")).Return(&models.Ticket{ID: "9", State: "cancelada"}, nil)

	c := purchase.NewCancellation(svc, cache, logger.Discard())
	updated, err := c.CancelTicket(context.Background(), models.Ticket{ID: "9", State: "vendida"})
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, updated.Status())
	assert.ElementsMatch(t, []string{querycache.KeyMyTickets, querycache.KeyTickets}, cache.all())
	assert.False(t, c.InFlight("9"))
}

func TestCancelFailureReasons(t *testing.T) {
	svc := new(MockTicketService)
	cache := &invalidations{}
	svc.On("CancelTicket", models.ID("9")).Return(nil, &api.Error{Status: 400, Detail: "La entrada ya está cancelada"}).Once()
	svc.On("CancelTicket", models.ID("9")).Return(nil, &api.Error{Status: 502}).Once()

	c := purchase.NewCancellation(svc, cache, logger.Discard())
	ticket := models.Ticket{ID: "9", State: "vendida"}

	_, err := c.CancelTicket(context.Background(), ticket)
	assert.EqualError(t, err, "La entrada ya está cancelada")
	_, err = c.CancelTicket(context.Background(), ticket)
	assert.EqualError(t, err, purchase.FallbackCancelReason)
	assert.Empty(t, cache.all())
}

func TestCancelSuppressesDuplicateWhileInFlight(t *testing.T) {
	svc := new(MockTicketService)
	entered := make(chan struct{})
	release := make(chan struct{})
	svc.On("CancelTicket", models.ID("9")).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&models.Ticket{ID: "9", State: "cancelada"}, nil).Once()
	svc.On("CancelTicket", models.ID("10")).Return(&models.Ticket{ID: "10", State: "cancelada"}, nil).Once()

	c := purchase.NewCancellation(svc, &invalidations{}, logger.Discard())
	done := make(chan error, 1)
	go func() {
		_, err := c.CancelTicket(context.Background(), models.Ticket{ID: "9", State: "vendida"})
		done <- err
	}()
	<-entered

	assert.True(t, c.InFlight("9"))
	_, err := c.CancelTicket(context.Background(), models.Ticket{ID: "9", State: "vendida"})
	assert.ErrorIs(t, err, purchase.ErrCancellationInFlight)

	_, err = c.CancelTicket(context.Background(), models.Ticket{ID: "10", State: "vendida"})
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	svc.AssertExpectations(t)
}

func TestCancelAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	mine := backend.AddTicket("1", "1", "vendida", 25000)
	other := backend.AddTicket("2", "1", "vendida", 25000)
	client, _ := backend.Client(t, "ana")
	c := purchase.NewCancellation(tickets.NewTicketService(client, logger.Discard()), &invalidations{}, logger.Discard())
	ctx := context.Background()

	_, err := c.CancelTicket(ctx, other)
	assert.EqualError(t, err, "No puedes cancelar una entrada que no es tuya")

	_, err = c.CancelTicket(ctx, mine)
	require.NoError(t, err)
	stored, ok := backend.Ticket(mine.ID)
	require.True(t, ok)
	assert.Equal(t, models.TicketCancelled, stored.Status())
	assert.Equal(t, "vendida", mine.State)
}
