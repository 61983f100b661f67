package models

import "strings"

type EventStatus string

const (
	EventUnpublished EventStatus = "borrador"
	EventPublished   EventStatus = "publicado"
	EventFinalized   EventStatus = "finalizado"
	EventCancelled   EventStatus = "cancelado"
)

type VenueType string

const (
	VenueInPerson VenueType = "presencial"
	VenueVirtual  VenueType = "virtual"
)

type Event struct {
	ID          ID          `json:"id"`
	Title       string      `json:"titulo"`
	Description string      `json:"descripcion"`
	Date        string      `json:"fecha"`
	Category    string      `json:"categoria"`
	Venue       VenueType   `json:"tipo"`
	Capacity    int         `json:"aforo"`
	Status      EventStatus `json:"estado"`
	Price       float64     `json:"precio"`
	ImageURL    string      `json:"imagen_url,omitempty"`
}

// Lifecycle folds the spellings the event service has used over time
// into the four lifecycle states. Unknown values are returned unchanged.
func (e Event) Lifecycle() EventStatus {
	switch strings.ToLower(strings.TrimSpace(string(e.Status))) {
	case "borrador", "no_publicado", "no publicado", "unpublished", "draft":
		return EventUnpublished
	case "publicado", "published":
		return EventPublished
	case "finalizado", "finalized":
		return EventFinalized
	case "cancelado", "cancelled", "canceled":
		return EventCancelled
	default:
		return e.Status
	}
}

type EventRequest struct {
	Title       string    `json:"titulo,omitempty"`
	Description string    `json:"descripcion,omitempty"`
	Date        string    `json:"fecha,omitempty"`
	Category    string    `json:"categoria,omitempty"`
	Venue       VenueType `json:"tipo,omitempty"`
	Capacity    int       `json:"aforo,omitempty"`
	Price       float64   `json:"precio,omitempty"`
	ImageURL    string    `json:"imagen_url,omitempty"`
}

type EventSearchParams struct {
	Category string
	Keyword  string
}

type EventStats struct {
	Total       int `json:"total_eventos"`
	Published   int `json:"eventos_publicados"`
	Unpublished int `json:"eventos_borradores"`
	Finalized   int `json:"eventos_finalizados"`
}

type EventSales struct {
	EventID      ID      `json:"evento_id"`
	EventName    string  `json:"evento_nombre"`
	TotalSales   int     `json:"total_ventas"`
	TotalRevenue float64 `json:"ingresos_totales"`
}
