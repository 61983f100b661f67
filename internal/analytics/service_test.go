package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketly-client/internal/analytics"
	"ticketly-client/internal/apitest"
	"ticketly-client/internal/events"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/users"
)

func TestSummarizeWithoutSales(t *testing.T) {
	evs := []models.Event{
		{ID: "1", Category: "Música", Price: 20000, Status: "publicado"},
		{ID: "2", Category: "Música", Price: 40000, Status: "no_publicado"},
		{ID: "3", Category: "Teatro", Price: 30000, Status: "cancelado"},
		{ID: "4", Price: 10000, Status: "borrador"},
	}
	us := []models.User{
		{ID: "1", Role: models.RoleUser, State: "activo"},
		{ID: "2", Role: models.RoleAdmin, State: "activo"},
		{ID: "3", Role: models.RoleUser, State: "desactivado"},
	}

	d := analytics.Summarize(evs, us, nil)

	assert.Equal(t, 4, d.TotalEvents)
	assert.Equal(t, 1, d.Status(models.EventPublished))
	assert.Equal(t, 2, d.Status(models.EventUnpublished))
	assert.Equal(t, 1, d.Status(models.EventCancelled))
	assert.Equal(t, 0, d.Status(models.EventFinalized))

	assert.Equal(t, 3, d.TotalUsers)
	assert.Equal(t, 1, d.Admins)
	assert.Equal(t, 2, d.RegularUsers)
	assert.Equal(t, 1, d.InactiveUsers)

	assert.False(t, d.RevenueFromSales)
	assert.Equal(t, 100000.0, d.TotalRevenue)
	assert.Equal(t, 25000.0, d.AverageEventPrice)

	require.Len(t, d.TopCategories, 3)
	assert.Equal(t, analytics.CategoryCount{Name: "Música", Count: 2, Percentage: 50}, d.TopCategories[0])
	assert.Equal(t, "Sin categoría", d.TopCategories[1].Name)
	assert.Equal(t, 25.0, d.TopCategories[2].Percentage)
}

func TestSummarizeUsesSales(t *testing.T) {
	evs := []models.Event{{ID: "1", Price: 20000}, {ID: "2", Price: 50000}}
	sales := []models.EventSales{
		{EventID: "1", TotalSales: 3, TotalRevenue: 60000},
		{EventID: "2", TotalSales: 2, TotalRevenue: 100000},
	}

	d := analytics.Summarize(evs, nil, sales)
	assert.True(t, d.RevenueFromSales)
	assert.Equal(t, 160000.0, d.TotalRevenue)
	assert.Equal(t, 5, d.TicketsSold)
	assert.Equal(t, models.ID("2"), d.SalesByEvent[0].EventID)
	assert.Equal(t, models.ID("1"), sales[0].EventID)
}

func TestSummarizeEmpty(t *testing.T) {
	d := analytics.Summarize(nil, nil, nil)
	assert.Zero(t, d.TotalEvents)
	assert.Zero(t, d.AverageEventPrice)
	assert.Empty(t, d.TopCategories)
}

func TestTopCategoriesLimited(t *testing.T) {
	var evs []models.Event
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "a"} {
		evs = append(evs, models.Event{Category: c})
	}
	d := analytics.Summarize(evs, nil, nil)
	require.Len(t, d.TopCategories, 5)
	assert.Equal(t, "a", d.TopCategories[0].Name)
	assert.Equal(t, "e", d.TopCategories[4].Name)
}

func TestGetDashboardAgainstBackend(t *testing.T) {
	backend := apitest.New(t)
	backend.AddTicket("1", "1", "vendida", 25000)
	backend.AddTicket("1", "1", "vendida", 25000)
	client, _ := backend.Client(t, "admin")

	svc := analytics.NewService(
		events.NewEventService(client, logger.Discard()),
		users.NewUserService(client, logger.Discard()),
		logger.Discard(),
	)
	d, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalEvents)
	assert.Equal(t, 2, d.TotalUsers)
	assert.True(t, d.RevenueFromSales)
	assert.Equal(t, 50000.0, d.TotalRevenue)
	assert.Equal(t, 2, d.TicketsSold)
}

func TestGetDashboardRequiresAdmin(t *testing.T) {
	backend := apitest.New(t)
	client, _ := backend.Client(t, "ana")

	svc := analytics.NewService(
		events.NewEventService(client, logger.Discard()),
		users.NewUserService(client, logger.Discard()),
		logger.Discard(),
	)
	_, err := svc.GetDashboard(context.Background())
	assert.Error(t, err)
}
