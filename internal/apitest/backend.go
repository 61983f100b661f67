// Package apitest runs an in-process fake of the ticketing backend for tests.
// It keeps events, tiers, tickets, users and notifications in memory and
// serves them on the same routes the real services expose.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"ticketly-client/internal/models"
)

const signingKey = "apitest-secret"

type failure struct {
	status int
	body   string
}

type Backend struct {
	mu sync.Mutex

	Events        map[models.ID]models.Event
	Tiers         map[models.ID][]models.Tier
	Tickets       []models.Ticket
	Users         map[models.ID]models.User
	Notifications []models.Notification
	Categories    []string
	Purchases     []models.PurchaseRequest

	passwords map[string]string
	tokens    map[string]models.ID
	failures  map[string]failure
	gates     map[string]chan struct{}
	arrived   map[string]chan struct{}
	calls     map[string]int
	uploads   []string
	nextID    int
	now       func() time.Time

	server *httptest.Server
}

// New starts a backend seeded with one user ("ana"/"secret"), one admin
// ("admin"/"admin") and one published event with id 1. The server is
// closed when the test ends.
func New(t testing.TB) *Backend {
	b := &Backend{
		Events:    make(map[models.ID]models.Event),
		Tiers:     make(map[models.ID][]models.Tier),
		Users:     make(map[models.ID]models.User),
		passwords: make(map[string]string),
		tokens:    make(map[string]models.ID),
		failures:  make(map[string]failure),
		gates:     make(map[string]chan struct{}),
		arrived:   make(map[string]chan struct{}),
		calls:     make(map[string]int),
		nextID:    100,
		now:       time.Now,
		Categories: []string{
			"Música", "Teatro", "Deportes",
		},
	}
	b.seed()

	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL to hand to api.NewClient.
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) seed() {
	b.Users["1"] = models.User{ID: "1", Username: "ana", Email: "ana@example.com", Role: models.RoleUser, State: "activo"}
	b.Users["2"] = models.User{ID: "2", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, State: "activo"}
	b.passwords["ana"] = "secret"
	b.passwords["admin"] = "admin"

	b.Events["1"] = models.Event{
		ID:          "1",
		Title:       "Concierto de Rock",
		Description: "Bandas locales en vivo",
		Date:        "2025-12-15T20:00:00",
		Category:    "Música",
		Venue:       models.VenueInPerson,
		Capacity:    300,
		Status:      models.EventPublished,
		Price:       25000,
	}
	b.Tiers["1"] = models.DefaultTiers()
}

// Fail makes the next request to method+path answer with status and body.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, body: body}
}

// Hold blocks requests to method+path until the returned release func is
// called. Arrived is closed when the first held request reaches the server.
func (b *Backend) Hold(method, path string) (arrived <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	gate := make(chan struct{})
	in := make(chan struct{})
	b.gates[key] = gate
	b.arrived[key] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

// Calls reports how many requests method+path received.
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// Login issues a token for username without going through HTTP.
func (b *Backend) Login(t testing.TB, username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, u := range b.Users {
		if u.Username == username {
			token, err := b.issueToken(u)
			if err != nil {
				t.Fatalf("failed to issue token: %v", err)
			}
			b.tokens[token] = id
			return token
		}
	}
	t.Fatalf("unknown user %s", username)
	return ""
}

// RevokeAll invalidates every issued token, as a backend restart with a new key would.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]models.ID)
}

// AddTicket stores a ticket owned by userID and returns it.
func (b *Backend) AddTicket(userID, eventID models.ID, state string, price float64) models.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	ticket := b.newTicket(userID, eventID, price)
	ticket.State = state
	b.Tickets = append(b.Tickets, ticket)
	return ticket
}

func (b *Backend) Ticket(id models.ID) (models.Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.Tickets {
		if t.ID == id {
			return t, true
		}
	}
	return models.Ticket{}, false
}

// User looks a user up by username.
func (b *Backend) User(username string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.Users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

// AddEvent stores ev with its entry options.
func (b *Backend) AddEvent(ev models.Event, tiers []models.Tier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events[ev.ID] = ev
	if tiers != nil {
		b.Tiers[ev.ID] = tiers
	}
}

// SetTiers replaces the entry options of an event.
func (b *Backend) SetTiers(eventID models.ID, tiers []models.Tier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Tiers[eventID] = tiers
}

// Tier returns the current state of one entry option.
func (b *Backend) Tier(eventID, tierID models.ID) (models.Tier, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.Tiers[eventID] {
		if t.ID == tierID {
			return t, true
		}
	}
	return models.Tier{}, false
}

// PurchaseRequests returns the purchases the backend accepted.
func (b *Backend) PurchaseRequests() []models.PurchaseRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.PurchaseRequest(nil), b.Purchases...)
}

func (b *Backend) Uploads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploads...)
}

func (b *Backend) issueToken(u models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  u.ID.String(),
		"rol": string(u.Role),
		"exp": b.now().Add(time.Hour).Unix(),
		"jti": strconv.FormatInt(b.now().UnixNano(), 10),
	})
	return token.SignedString([]byte(signingKey))
}

func (b *Backend) newTicket(userID, eventID models.ID, price float64) models.Ticket {
	b.nextID++
	id := models.ID(strconv.Itoa(b.nextID))
	ev := b.Events[eventID]
	return models.Ticket{
		ID:          id,
		Code:        fmt.Sprintf("TKT-%s-%06d", eventID, b.nextID),
		EventID:     eventID,
		UserID:      userID,
		Price:       price,
		EventName:   ev.Title,
		EventDate:   ev.Date,
		PurchasedAt: b.now().Format("2006-01-02T15:04:05"),
	}
}

func (b *Backend) nextModelID() models.ID {
	b.nextID++
	return models.ID(strconv.Itoa(b.nextID))
}

// intercept counts the call, applies an injected failure and waits on a hold.
func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.calls[key]++
		f, failing := b.failures[key]
		delete(b.failures, key)
		gate := b.gates[key]
		in := b.arrived[key]
		delete(b.gates, key)
		delete(b.arrived, key)
		b.mu.Unlock()

		if gate != nil {
			close(in)
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated resolves the bearer token to a user, answering 401 otherwise.
func (b *Backend) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		b.mu.Lock()
		id, ok := b.tokens[token]
		b.mu.Unlock()

		if header == "" || !ok {
			writeDetail(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func (b *Backend) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		u := b.Users[userFrom(r.Context())]
		b.mu.Unlock()
		if !u.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "Se requieren permisos de administrador")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func idParam(r *http.Request, name string) models.ID {
	return models.ID(chi.URLParam(r, name))
}
