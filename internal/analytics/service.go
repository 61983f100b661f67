package analytics

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

const (
	topCategoryLimit  = 5
	uncategorizedName = "Sin categoría"
)

// Dashboard holds the aggregated figures of the admin statistics view
type Dashboard struct {
	TotalEvents       int                 `json:"total_events"`
	EventsByStatus    map[string]int      `json:"events_by_status"`
	TotalUsers        int                 `json:"total_users"`
	Admins            int                 `json:"admins"`
	RegularUsers      int                 `json:"regular_users"`
	InactiveUsers     int                 `json:"inactive_users"`
	TicketsSold       int                 `json:"tickets_sold"`
	TotalRevenue      float64             `json:"total_revenue"`
	RevenueFromSales  bool                `json:"revenue_from_sales"`
	AverageEventPrice float64             `json:"average_event_price"`
	TopCategories     []CategoryCount     `json:"top_categories"`
	SalesByEvent      []models.EventSales `json:"sales_by_event"`
}

// CategoryCount is the number of events in one category
type CategoryCount struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func (d Dashboard) Status(s models.EventStatus) int {
	return d.EventsByStatus[string(s)]
}

// Summarize aggregates the admin dashboard. Revenue comes from sales when
// there are any and falls back to the sum of event prices otherwise.
func Summarize(events []models.Event, users []models.User, sales []models.EventSales) Dashboard {
	d := Dashboard{
		TotalEvents:    len(events),
		EventsByStatus: make(map[string]int),
		TotalUsers:     len(users),
	}

	var priceSum float64
	categories := make(map[string]int)
	for _, ev := range events {
		d.EventsByStatus[string(ev.Lifecycle())]++
		priceSum += ev.Price
		name := ev.Category
		if name == "" {
			name = uncategorizedName
		}
		categories[name]++
	}
	if len(events) > 0 {
		d.AverageEventPrice = priceSum / float64(len(events))
	}

	for _, u := range users {
		if u.IsAdmin() {
			d.Admins++
		} else {
			d.RegularUsers++
		}
		if !u.Active() {
			d.InactiveUsers++
		}
	}

	if len(sales) > 0 {
		d.RevenueFromSales = true
		d.SalesByEvent = append([]models.EventSales(nil), sales...)
		sort.SliceStable(d.SalesByEvent, func(i, j int) bool {
			return d.SalesByEvent[i].TotalRevenue > d.SalesByEvent[j].TotalRevenue
		})
		for _, s := range sales {
			d.TotalRevenue += s.TotalRevenue
			d.TicketsSold += s.TotalSales
		}
	} else {
		d.TotalRevenue = priceSum
	}

	d.TopCategories = topCategories(categories, len(events))
	return d
}

func topCategories(counts map[string]int, total int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{
			Name:       name,
			Count:      n,
			Percentage: math.Round(float64(n)*1000/float64(total)) / 10,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topCategoryLimit {
		out = out[:topCategoryLimit]
	}
	return out
}

type EventSource interface {
	GetAllEvents(ctx context.Context) ([]models.Event, error)
	GetSales(ctx context.Context, eventID models.ID) ([]models.EventSales, error)
}

type UserSource interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
}

// Service loads the dashboard inputs from the backend
type Service struct {
	events EventSource
	users  UserSource
	logger *logger.Logger
}

// NewService creates a new analytics service
func NewService(events EventSource, users UserSource, log *logger.Logger) *Service {
	return &Service{events: events, users: users, logger: log}
}

// GetDashboard fetches events, users and sales concurrently. Sales are
// optional: when they cannot be loaded the revenue falls back to prices.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var (
		events []models.Event
		users  []models.User
		sales  []models.EventSales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.events.GetAllEvents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users.GetAllUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if sales, err = s.events.GetSales(gctx, ""); err != nil {
			s.logger.Warn("ANALYTICS", "Sales unavailable, using event prices: "+err.Error())
			sales = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := Summarize(events, users, sales)
	return &d, nil
}
