// Package selection tracks the tiers and quantities a user has picked for
// one event before buying.
package selection

import (
	"math/rand"
	"sync"

	"ticketly-client/internal/models"
)

const maxRandomTiers = 3

// Line is one selected tier. Price is the unit price captured when the tier
// was first selected.
type Line struct {
	TierID   models.ID
	Quantity int
	Price    float64
}

func (l Line) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// Manager is owned by a single event view. The mutex only guards against
// background offering refreshes racing the user's edits.
type Manager struct {
	mu       sync.Mutex
	eventID  models.ID
	offering map[models.ID]models.Tier
	order    []models.ID // offering order
	lines    []Line      // insertion order
	rng      *rand.Rand
}

// New creates a manager for eventID. A nil rng is seeded from the clock.
func New(eventID models.ID, tiers []models.Tier, rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	m := &Manager{eventID: eventID, rng: rng}
	m.setOffering(tiers)
	return m
}

func (m *Manager) EventID() models.ID { return m.eventID }

// Offering returns the live tiers in their original order.
func (m *Manager) Offering() []models.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Tier, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.offering[id])
	}
	return out
}

// SetQuantity records quantity for tierID and returns what was recorded.
// Unknown tiers are ignored, quantities above availability are clamped and
// anything at or below zero removes the tier.
func (m *Manager) SetQuantity(tierID models.ID, quantity int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(tierID, quantity)
}

func (m *Manager) Increment(tierID models.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(tierID, m.quantity(tierID)+1)
}

func (m *Manager) Decrement(tierID models.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(tierID, m.quantity(tierID)-1)
}

// Toggle selects one entry of an unselected tier and drops a selected one.
func (m *Manager) Toggle(tierID models.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quantity(tierID) > 0 {
		return m.set(tierID, 0)
	}
	return m.set(tierID, 1)
}

func (m *Manager) Quantity(tierID models.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quantity(tierID)
}

func (m *Manager) TotalQuantity() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, l := range m.lines {
		total += l.Quantity
	}
	return total
}

func (m *Manager) TotalPrice() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, l := range m.lines {
		total += l.Subtotal()
	}
	return total
}

// Lines returns the selection in insertion order.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Line(nil), m.lines...)
}

func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines) == 0
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}

// UpdateOffering swaps in fresh tier data. Captured prices are kept;
// selections are clamped to the new availability and dropped for tiers
// that are gone or sold out.
func (m *Manager) UpdateOffering(tiers []models.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setOffering(tiers)

	kept := m.lines[:0]
	for _, l := range m.lines {
		tier, ok := m.offering[l.TierID]
		if !ok || tier.Available <= 0 {
			continue
		}
		if l.Quantity > tier.Available {
			l.Quantity = tier.Available
		}
		kept = append(kept, l)
	}
	m.lines = kept
}

// Randomize replaces the selection with 1 to 3 distinct tiers that still
// have availability, each with a quantity between 1 and that availability.
// With nothing available the selection ends up empty.
func (m *Manager) Randomize() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	var eligible []models.Tier
	for _, id := range m.order {
		if t := m.offering[id]; t.Available > 0 {
			eligible = append(eligible, t)
		}
	}

	m.lines = nil
	if len(eligible) == 0 {
		return nil
	}

	limit := min(maxRandomTiers, len(eligible))
	count := m.rng.Intn(limit) + 1
	m.rng.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	for _, t := range eligible[:count] {
		m.lines = append(m.lines, Line{TierID: t.ID, Quantity: m.rng.Intn(t.Available) + 1, Price: t.Price})
	}
	return append([]Line(nil), m.lines...)
}

// Snapshot is an immutable copy of the selection at one instant.
type Snapshot struct {
	EventID models.ID
	Lines   []Line
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{EventID: m.eventID, Lines: append([]Line(nil), m.lines...)}
}

func (s Snapshot) IsEmpty() bool { return len(s.Lines) == 0 }

// PurchaseLines drops prices; the backend prices the order itself.
func (s Snapshot) PurchaseLines() []models.PurchaseLine {
	out := make([]models.PurchaseLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, models.PurchaseLine{TierID: l.TierID, Quantity: l.Quantity})
	}
	return out
}

func (s Snapshot) TotalPrice() float64 {
	total := 0.0
	for _, l := range s.Lines {
		total += l.Subtotal()
	}
	return total
}

func (m *Manager) setOffering(tiers []models.Tier) {
	m.offering = make(map[models.ID]models.Tier, len(tiers))
	m.order = m.order[:0]
	for _, t := range tiers {
		if _, dup := m.offering[t.ID]; !dup {
			m.order = append(m.order, t.ID)
		}
		m.offering[t.ID] = t
	}
}

func (m *Manager) quantity(tierID models.ID) int {
	for _, l := range m.lines {
		if l.TierID == tierID {
			return l.Quantity
		}
	}
	return 0
}

func (m *Manager) set(tierID models.ID, quantity int) int {
	tier, ok := m.offering[tierID]
	if !ok {
		return m.quantity(tierID)
	}
	if quantity > tier.Available {
		quantity = tier.Available
	}

	for i, l := range m.lines {
		if l.TierID != tierID {
			continue
		}
		if quantity <= 0 {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return 0
		}
		m.lines[i].Quantity = quantity
		return quantity
	}

	if quantity <= 0 {
		return 0
	}
	m.lines = append(m.lines, Line{TierID: tierID, Quantity: quantity, Price: tier.Price})
	return quantity
}
