package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

const basePath = "/eventos/eventos"

type EventService struct {
	API    api.Requester
	Logger *logger.Logger
}

func NewEventService(requester api.Requester, log *logger.Logger) *EventService {
	return &EventService{API: requester, Logger: log}
}

func (s *EventService) CreateEvent(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	var ev models.Event
	if err := s.API.Post(ctx, basePath+"/post-evento", req, &ev); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event created: %s (%s)", ev.Title, ev.ID))
	return &ev, nil
}

func (s *EventService) GetPublishedEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.API.Get(ctx, basePath+"/get-eventospublicados", nil, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch published events: %w", err)
	}
	return events, nil
}

func (s *EventService) GetAllEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := s.API.Get(ctx, basePath+"/get-eventos", nil, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

func (s *EventService) GetPublishedEventByID(ctx context.Context, id models.ID) (*models.Event, error) {
	var ev models.Event
	if err := s.API.Get(ctx, basePath+"/get-eventopublicado/"+url.PathEscape(id.String()), nil, &ev); err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
	}
	return &ev, nil
}

func (s *EventService) GetEventByID(ctx context.Context, id models.ID) (*models.Event, error) {
	var ev models.Event
	if err := s.API.Get(ctx, basePath+"/get-evento/"+url.PathEscape(id.String()), nil, &ev); err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
	}
	return &ev, nil
}

func (s *EventService) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := s.API.Get(ctx, basePath+"/get-categorias", nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// SearchEvents filters published events by category and keyword. Empty
// parameters are left out of the query.
func (s *EventService) SearchEvents(ctx context.Context, params models.EventSearchParams) ([]models.Event, error) {
	query := url.Values{}
	if params.Category != "" {
		query.Set("categoria", params.Category)
	}
	if params.Keyword != "" {
		query.Set("palabra", params.Keyword)
	}

	var events []models.Event
	if err := s.API.Get(ctx, basePath+"/buscar-eventos", query, &events); err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	return events, nil
}

func (s *EventService) GetStatistics(ctx context.Context) (*models.EventStats, error) {
	var stats models.EventStats
	if err := s.API.Get(ctx, basePath+"/estadisticas", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch event statistics: %w", err)
	}
	return &stats, nil
}

// GetSales returns sales per event, restricted to eventID when it is set.
func (s *EventService) GetSales(ctx context.Context, eventID models.ID) ([]models.EventSales, error) {
	var query url.Values
	if !eventID.IsZero() {
		query = url.Values{"evento_id": {eventID.String()}}
	}
	var sales []models.EventSales
	if err := s.API.Get(ctx, basePath+"/ventas", query, &sales); err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	return sales, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id models.ID, req models.EventRequest) (*models.Event, error) {
	var ev models.Event
	if err := s.API.Put(ctx, basePath+"/update-evento/"+url.PathEscape(id.String()), req, &ev); err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event updated: %s", id))
	return &ev, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id models.ID) error {
	if err := s.API.Delete(ctx, basePath+"/delete-evento/"+url.PathEscape(id.String()), nil); err != nil {
		return translate(err, deleteOp)
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event deleted: %s", id))
	return nil
}

func (s *EventService) PublishEvent(ctx context.Context, id models.ID) (*models.Event, error) {
	return s.transition(ctx, "/publicar-evento/", id, publishOp)
}

func (s *EventService) CancelEvent(ctx context.Context, id models.ID) (*models.Event, error) {
	return s.transition(ctx, "/cancelar-evento/", id, cancelOp)
}

// transition runs a lifecycle change. An empty 2xx body means the backend
// refused the change without saying why.
func (s *EventService) transition(ctx context.Context, route string, id models.ID, op operation) (*models.Event, error) {
	var ev *models.Event
	if err := s.API.Put(ctx, basePath+route+url.PathEscape(id.String()), nil, &ev); err != nil {
		return nil, translate(err, op)
	}
	if ev == nil {
		return nil, &Error{Message: op.empty}
	}
	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s is now %s", id, ev.Lifecycle()))
	return ev, nil
}

// GetTiers loads the entry options of ev. When the backend has none the
// default offering is used. Tiers without a price take the event's price.
func (s *EventService) GetTiers(ctx context.Context, ev models.Event) ([]models.Tier, error) {
	var tiers []models.Tier
	err := s.API.Get(ctx, basePath+"/get-entradas/"+url.PathEscape(ev.ID.String()), nil, &tiers)
	if err != nil {
		if api.StatusOf(err) != http.StatusNotFound {
			return nil, fmt.Errorf("failed to fetch tiers for event %s: %w", ev.ID, err)
		}
		s.Logger.Debug("EVENTS", fmt.Sprintf("No tiers for event %s, using defaults", ev.ID))
	}
	if len(tiers) == 0 {
		tiers = models.DefaultTiers()
	}
	for i := range tiers {
		if tiers[i].Price == 0 {
			tiers[i].Price = ev.Price
		}
	}
	return tiers, nil
}

// IsNotFound reports whether err came from a 404.
func IsNotFound(err error) bool {
	var evErr *Error
	if errors.As(err, &evErr) && evErr.NotFound {
		return true
	}
	return api.StatusOf(err) == http.StatusNotFound
}
