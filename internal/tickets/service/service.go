package tickets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

const basePath = "/entradas/entradas"

type TicketService struct {
	API    api.Requester
	Logger *logger.Logger
}

func NewTicketService(requester api.Requester, log *logger.Logger) *TicketService {
	return &TicketService{API: requester, Logger: log}
}

// PurchaseResult is what the backend answers to a purchase.
type PurchaseResult struct {
	Message string          `json:"mensaje,omitempty"`
	Tickets []models.Ticket `json:"entradas"`
}

// UnmarshalJSON accepts either {mensaje, entradas} or a bare ticket list.
func (p *PurchaseResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.Tickets)
	}
	type plain PurchaseResult
	return json.Unmarshal(data, (*plain)(p))
}

func (s *TicketService) GetMyTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.list(ctx, "/mis-entradas", nil, "your tickets")
}

func (s *TicketService) GetUserTicketHistory(ctx context.Context, userID models.ID) ([]models.Ticket, error) {
	return s.list(ctx, "/historial-usuario/"+url.PathEscape(userID.String()), nil, "history of user "+userID.String())
}

func (s *TicketService) GetAvailableTickets(ctx context.Context, eventID models.ID) ([]models.Ticket, error) {
	return s.list(ctx, "/get-disponibles/"+url.PathEscape(eventID.String()), nil, "available tickets of event "+eventID.String())
}

func (s *TicketService) GetUnavailableTickets(ctx context.Context, eventID models.ID) ([]models.Ticket, error) {
	return s.list(ctx, "/get-nodisponibles/"+url.PathEscape(eventID.String()), nil, "sold tickets of event "+eventID.String())
}

func (s *TicketService) GetAllTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.list(ctx, "/get-todas", nil, "all tickets")
}

func (s *TicketService) GetTicketsByEvent(ctx context.Context, eventID models.ID) ([]models.Ticket, error) {
	return s.list(ctx, "/get-por-evento/"+url.PathEscape(eventID.String()), nil, "tickets of event "+eventID.String())
}

// GetCancelledTickets lists cancelled tickets, for one event when eventID is set.
func (s *TicketService) GetCancelledTickets(ctx context.Context, eventID models.ID) ([]models.Ticket, error) {
	var query url.Values
	if !eventID.IsZero() {
		query = url.Values{"evento_id": {eventID.String()}}
	}
	return s.list(ctx, "/get-canceladas", query, "cancelled tickets")
}

func (s *TicketService) GetEventByTicket(ctx context.Context, ticketID models.ID) (*models.Event, error) {
	var ev models.Event
	if err := s.API.Get(ctx, basePath+"/evento-por-entrada/"+url.PathEscape(ticketID.String()), nil, &ev); err != nil {
		return nil, fmt.Errorf("failed to fetch event of ticket %s: %w", ticketID, err)
	}
	return &ev, nil
}

func (s *TicketService) GetTicketSales(ctx context.Context) ([]models.TicketSales, error) {
	var sales []models.TicketSales
	if err := s.API.Get(ctx, basePath+"/estadisticas-ventas", nil, &sales); err != nil {
		return nil, fmt.Errorf("failed to fetch ticket sales: %w", err)
	}
	return sales, nil
}

// PurchaseTickets buys the given quantities of each tier. Only ids and
// quantities are sent; the backend prices the order.
func (s *TicketService) PurchaseTickets(ctx context.Context, eventID models.ID, lines []models.PurchaseLine) (*PurchaseResult, error) {
	req := models.PurchaseRequest{EventID: eventID, Entries: lines}

	var result PurchaseResult
	if err := s.API.Post(ctx, basePath+"/comprar", req, &result); err != nil {
		return nil, fmt.Errorf("failed to purchase tickets for event %s: %w", eventID, err)
	}
	s.Logger.LogPurchase("PURCHASED", eventID.String(), fmt.Sprintf("%d tickets issued", len(result.Tickets)))
	return &result, nil
}

func (s *TicketService) CancelTicket(ctx context.Context, ticketID models.ID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.API.Put(ctx, basePath+"/cancelar/"+url.PathEscape(ticketID.String()), nil, &ticket); err != nil {
		return nil, fmt.Errorf("failed to cancel ticket %s: %w", ticketID, err)
	}
	s.Logger.Info("TICKETS", fmt.Sprintf("Ticket cancelled: %s", ticketID))
	return &ticket, nil
}

func (s *TicketService) list(ctx context.Context, route string, query url.Values, what string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.API.Get(ctx, basePath+route, query, &tickets); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return tickets, nil
}
