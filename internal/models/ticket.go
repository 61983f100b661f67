package models

import "strings"

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketCancelled TicketStatus = "cancelled"
	TicketUsed      TicketStatus = "used"
	TicketPending   TicketStatus = "pending"
)

type Ticket struct {
	ID          ID      `json:"id"`
	Code        string  `json:"codigo"`
	EventID     ID      `json:"evento_id"`
	UserID      ID      `json:"usuario_id,omitempty"`
	Price       float64 `json:"precio"`
	EventName   string  `json:"evento_nombre,omitempty"`
	State       string  `json:"estado,omitempty"`
	EventDate   string  `json:"fecha_evento,omitempty"`
	PurchasedAt string  `json:"fecha_compra,omitempty"`
}

// Status maps the backend's estado onto active, cancelled or used.
// Anything unrecognised, including an empty estado, is pending.
func (t Ticket) Status() TicketStatus {
	switch strings.ToLower(strings.TrimSpace(t.State)) {
	case "activa", "válida", "valida", "vendida", "active":
		return TicketActive
	case "cancelada", "cancelled", "canceled":
		return TicketCancelled
	case "usada", "used":
		return TicketUsed
	default:
		return TicketPending
	}
}

// PurchaseLine is one {tier, quantity} pair of a purchase request.
// Prices are never sent; the backend owns them.
type PurchaseLine struct {
	TierID   ID  `json:"entrada_id"`
	Quantity int `json:"cantidad"`
}

type PurchaseRequest struct {
	EventID ID             `json:"evento_id"`
	Entries []PurchaseLine `json:"entradas"`
}

type TicketSales struct {
	EventID   ID      `json:"evento_id"`
	EventName string  `json:"evento_nombre,omitempty"`
	Sold      int     `json:"vendidas"`
	Cancelled int     `json:"canceladas"`
	Available int     `json:"disponibles"`
	Revenue   float64 `json:"ingresos"`
}
