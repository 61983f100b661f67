package models

// Tier is one priced category of entry for an event, with its own pool.
type Tier struct {
	ID          ID      `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Price       float64 `json:"precio"`
	Available   int     `json:"disponibles"`
	Total       int     `json:"total"`
}

// DefaultTiers is the offering shown when the backend has no tier data
// for an event.
func DefaultTiers() []Tier {
	return []Tier{
		{
			ID:          "general",
			Name:        "Entrada General",
			Description: "Acceso general al evento con todas las comodidades básicas",
			Price:       25000,
			Available:   150,
			Total:       200,
		},
		{
			ID:          "vip",
			Name:        "Entrada VIP",
			Description: "Acceso VIP con zona preferencial, bebida de bienvenida y parking",
			Price:       45000,
			Available:   25,
			Total:       50,
		},
		{
			ID:          "estudiante",
			Name:        "Entrada Estudiante",
			Description: "Tarifa especial para estudiantes (requiere carnet estudiantil)",
			Price:       15000,
			Available:   75,
			Total:       100,
		},
	}
}
