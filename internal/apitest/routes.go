package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"ticketly-client/internal/models"
)

type ctxKey struct{}

func withUser(ctx context.Context, id models.ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func userFrom(ctx context.Context) models.ID {
	id, _ := ctx.Value(ctxKey{}).(models.ID)
	return id
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.intercept)

	r.Route("/usuarios/usuarios", func(r chi.Router) {
		r.Post("/login", b.login)
		r.Post("/registro", b.register)
		r.Group(func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/get-mi-perfil", b.profile)
			r.Put("/update-usuarios/{id}", b.updateUser)
			r.Put("/update-password/{id}", b.updatePassword)
			r.Group(func(r chi.Router) {
				r.Use(b.adminOnly)
				r.Post("/crear-admin", b.createAdmin)
				r.Get("/get-usuarios", b.listUsers)
				r.Get("/get-usuario/{id}", b.getUser)
				r.Delete("/delete-usuario/{id}", b.deleteUser)
				r.Put("/deactivate-usuario/{id}", b.setUserState("desactivado"))
				r.Put("/activate-usuario/{id}", b.setUserState("activo"))
			})
		})
	})

	r.Route("/eventos/eventos", func(r chi.Router) {
		r.Get("/get-eventospublicados", b.publishedEvents)
		r.Get("/get-eventopublicado/{id}", b.publishedEvent)
		r.Get("/get-categorias", b.categories)
		r.Get("/buscar-eventos", b.searchEvents)
		r.Get("/get-entradas/{id}", b.eventTiers)
		r.Group(func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/get-evento/{id}", b.getEvent)
			r.Group(func(r chi.Router) {
				r.Use(b.adminOnly)
				r.Get("/get-eventos", b.allEvents)
				r.Post("/post-evento", b.createEvent)
				r.Put("/update-evento/{id}", b.updateEvent)
				r.Delete("/delete-evento/{id}", b.deleteEvent)
				r.Put("/publicar-evento/{id}", b.setEventStatus(models.EventPublished))
				r.Put("/cancelar-evento/{id}", b.setEventStatus(models.EventCancelled))
				r.Get("/estadisticas", b.eventStats)
				r.Get("/ventas", b.eventSales)
				r.Post("/upload-image", b.uploadImage)
			})
		})
	})

	r.Route("/entradas/entradas", func(r chi.Router) {
		r.Get("/get-disponibles/{id}", b.availableTickets)
		r.Get("/get-nodisponibles/{id}", b.unavailableTickets)
		r.Get("/get-por-evento/{id}", b.ticketsByEvent)
		r.Get("/evento-por-entrada/{id}", b.eventByTicket)
		r.Group(func(r chi.Router) {
			r.Use(b.authenticated)
			r.Get("/mis-entradas", b.myTickets)
			r.Post("/comprar", b.purchase)
			r.Put("/cancelar/{id}", b.cancelTicket)
			r.Group(func(r chi.Router) {
				r.Use(b.adminOnly)
				r.Get("/historial-usuario/{id}", b.userHistory)
				r.Get("/get-todas", b.allTickets)
				r.Get("/estadisticas-ventas", b.ticketSales)
				r.Get("/get-canceladas", b.cancelledTickets)
			})
		})
	})

	r.Route("/notificaciones", func(r chi.Router) {
		r.Use(b.authenticated)
		r.Route("/notificaciones", func(r chi.Router) {
			r.Get("/mis-notificaciones", b.myNotifications)
			r.Get("/contador-no-leidas", b.unreadCount)
			r.Put("/marcar-leida/{id}", b.markRead)
			r.Put("/marcar-todas-leidas", b.markAllRead)
			r.Delete("/delete/{id}", b.deleteNotification)
			r.With(b.adminOnly).Post("/crear", b.createNotification)
			r.With(b.adminOnly).Post("/broadcast", b.broadcast)
		})
		r.With(b.adminOnly).Get("/todas", b.allNotifications)
	})

	return r
}

// --- usuarios ---

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Formulario inválido")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.passwords[username] == "" || b.passwords[username] != password {
		writeDetail(w, http.StatusUnauthorized, "Credenciales incorrectas")
		return
	}
	for id, u := range b.Users {
		if u.Username != username {
			continue
		}
		if !u.Active() {
			writeDetail(w, http.StatusForbidden, "Usuario desactivado")
			return
		}
		token, err := b.issueToken(u)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		b.tokens[token] = id
		writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: token, TokenType: "bearer"})
		return
	}
	writeDetail(w, http.StatusUnauthorized, "Credenciales incorrectas")
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{{"loc": []string{"body", "usuario"}, "msg": "field required"}},
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.passwords[req.Username]; taken {
		writeDetail(w, http.StatusBadRequest, "El usuario ya existe")
		return
	}
	u := models.User{ID: b.nextModelID(), Username: req.Username, Email: req.Email, Role: models.RoleUser, State: "activo"}
	b.Users[u.ID] = u
	b.passwords[req.Username] = req.Password
	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeDetail(w, http.StatusBadRequest, "Datos inválidos")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.passwords[req.Username]; taken {
		writeDetail(w, http.StatusBadRequest, "El usuario ya existe")
		return
	}
	u := models.User{ID: b.nextModelID(), Username: req.Username, Email: req.Email, Role: models.RoleAdmin, State: "activo"}
	b.Users[u.ID] = u
	b.passwords[req.Username] = req.Password
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Users[userFrom(r.Context())])
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]models.User, 0, len(b.Users))
	for _, u := range b.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.Users[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Datos inválidos")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.Users[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if req.Username != "" {
		b.passwords[req.Username] = b.passwords[u.Username]
		delete(b.passwords, u.Username)
		u.Username = req.Username
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	b.Users[u.ID] = u
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Datos inválidos")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.Users[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	if b.passwords[u.Username] != req.Current {
		writeDetail(w, http.StatusBadRequest, "La contraseña actual es incorrecta")
		return
	}
	b.passwords[u.Username] = req.New
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contraseña actualizada"})
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.Users[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	delete(b.Users, u.ID)
	delete(b.passwords, u.Username)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) setUserState(state string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		u, ok := b.Users[idParam(r, "id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		u.State = state
		b.Users[u.ID] = u
		writeJSON(w, http.StatusOK, u)
	}
}

// --- eventos ---

func (b *Backend) sortedEvents(keep func(models.Event) bool) []models.Event {
	events := make([]models.Event, 0, len(b.Events))
	for _, ev := range b.Events {
		if keep(ev) {
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (b *Backend) publishedEvents(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedEvents(func(ev models.Event) bool {
		return ev.Lifecycle() == models.EventPublished
	}))
}

func (b *Backend) allEvents(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedEvents(func(models.Event) bool { return true }))
}

func (b *Backend) publishedEvent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.Events[idParam(r, "id")]
	if !ok || ev.Lifecycle() != models.EventPublished {
		writeDetail(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (b *Backend) getEvent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.Events[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (b *Backend) categories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Categories)
}

func (b *Backend) searchEvents(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("categoria")
	keyword := strings.ToLower(r.URL.Query().Get("palabra"))

	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedEvents(func(ev models.Event) bool {
		if ev.Lifecycle() != models.EventPublished {
			return false
		}
		if category != "" && ev.Category != category {
			return false
		}
		if keyword != "" && !strings.Contains(strings.ToLower(ev.Title+" "+ev.Description), keyword) {
			return false
		}
		return true
	}))
}

func (b *Backend) eventTiers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tiers, ok := b.Tiers[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (b *Backend) createEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeDetail(w, http.StatusBadRequest, "El título es obligatorio")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := models.Event{
		ID:          b.nextModelID(),
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Category:    req.Category,
		Venue:       req.Venue,
		Capacity:    req.Capacity,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Status:      "no_publicado",
	}
	b.Events[ev.ID] = ev
	writeJSON(w, http.StatusCreated, ev)
}

func (b *Backend) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Datos inválidos")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.Events[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	if req.Title != "" {
		ev.Title = req.Title
	}
	if req.Description != "" {
		ev.Description = req.Description
	}
	if req.Date != "" {
		ev.Date = req.Date
	}
	if req.Category != "" {
		ev.Category = req.Category
	}
	if req.Venue != "" {
		ev.Venue = req.Venue
	}
	if req.Capacity != 0 {
		ev.Capacity = req.Capacity
	}
	if req.Price != 0 {
		ev.Price = req.Price
	}
	if req.ImageURL != "" {
		ev.ImageURL = req.ImageURL
	}
	b.Events[ev.ID] = ev
	writeJSON(w, http.StatusOK, ev)
}

func (b *Backend) deleteEvent(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev, ok := b.Events[idParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	if ev.Lifecycle() == models.EventPublished {
		writeJSON(w, http.StatusBadRequest, map[string]string{})
		return
	}
	delete(b.Events, ev.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) setEventStatus(status models.EventStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		ev, ok := b.Events[idParam(r, "id")]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Evento no encontrado")
			return
		}
		if ev.Lifecycle() == status {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		ev.Status = status
		b.Events[ev.ID] = ev
		writeJSON(w, http.StatusOK, ev)
	}
}

func (b *Backend) eventStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var stats models.EventStats
	for _, ev := range b.Events {
		stats.Total++
		switch ev.Lifecycle() {
		case models.EventPublished:
			stats.Published++
		case models.EventUnpublished:
			stats.Unpublished++
		case models.EventFinalized:
			stats.Finalized++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) eventSales(w http.ResponseWriter, r *http.Request) {
	filter := models.ID(r.URL.Query().Get("evento_id"))

	b.mu.Lock()
	defer b.mu.Unlock()
	byEvent := make(map[models.ID]*models.EventSales)
	var order []models.ID
	for _, t := range b.Tickets {
		if t.Status() != models.TicketActive || (filter != "" && t.EventID != filter) {
			continue
		}
		s, ok := byEvent[t.EventID]
		if !ok {
			s = &models.EventSales{EventID: t.EventID, EventName: b.Events[t.EventID].Title}
			byEvent[t.EventID] = s
			order = append(order, t.EventID)
		}
		s.TotalSales++
		s.TotalRevenue += t.Price
	}
	sales := make([]models.EventSales, 0, len(order))
	for _, id := range order {
		sales = append(sales, *byEvent[id])
	}
	writeJSON(w, http.StatusOK, sales)
}

func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Archivo requerido")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeDetail(w, http.StatusBadRequest, "Archivo inválido")
		return
	}

	b.mu.Lock()
	b.uploads = append(b.uploads, header.Filename)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"image_url": "/uploads/images/" + header.Filename})
}

// --- entradas ---

func (b *Backend) filterTickets(keep func(models.Ticket) bool) []models.Ticket {
	out := make([]models.Ticket, 0)
	for _, t := range b.Tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (b *Backend) myTickets(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool { return t.UserID == user }))
}

func (b *Backend) userHistory(w http.ResponseWriter, r *http.Request) {
	user := idParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool { return t.UserID == user }))
}

func (b *Backend) availableTickets(w http.ResponseWriter, r *http.Request) {
	event := idParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool {
		return t.EventID == event && t.UserID == "" && t.Status() != models.TicketCancelled
	}))
}

func (b *Backend) unavailableTickets(w http.ResponseWriter, r *http.Request) {
	event := idParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool {
		return t.EventID == event && t.UserID != ""
	}))
}

func (b *Backend) ticketsByEvent(w http.ResponseWriter, r *http.Request) {
	event := idParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool { return t.EventID == event }))
}

func (b *Backend) eventByTicket(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.Tickets {
		if t.ID == id {
			if ev, ok := b.Events[t.EventID]; ok {
				writeJSON(w, http.StatusOK, ev)
				return
			}
		}
	}
	writeDetail(w, http.StatusNotFound, "Entrada no encontrada")
}

func (b *Backend) allTickets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(models.Ticket) bool { return true }))
}

func (b *Backend) cancelledTickets(w http.ResponseWriter, r *http.Request) {
	event := models.ID(r.URL.Query().Get("evento_id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.filterTickets(func(t models.Ticket) bool {
		return t.Status() == models.TicketCancelled && (event == "" || t.EventID == event)
	}))
}

func (b *Backend) ticketSales(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byEvent := make(map[models.ID]*models.TicketSales)
	var order []models.ID
	for _, t := range b.Tickets {
		s, ok := byEvent[t.EventID]
		if !ok {
			s = &models.TicketSales{EventID: t.EventID, EventName: b.Events[t.EventID].Title}
			byEvent[t.EventID] = s
			order = append(order, t.EventID)
		}
		switch t.Status() {
		case models.TicketActive, models.TicketUsed:
			s.Sold++
			s.Revenue += t.Price
		case models.TicketCancelled:
			s.Cancelled++
		}
	}
	sales := make([]models.TicketSales, 0, len(order))
	for _, id := range order {
		sales = append(sales, *byEvent[id])
	}
	writeJSON(w, http.StatusOK, sales)
}

// purchase checks every line against the tier pools before touching any,
// so a rejected purchase leaves availability unchanged.
func (b *Backend) purchase(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	user := userFrom(r.Context())

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.Events[req.EventID]; !ok {
		writeDetail(w, http.StatusNotFound, "Evento no encontrado")
		return
	}
	if len(req.Entries) == 0 {
		writeDetail(w, http.StatusBadRequest, "Debe seleccionar al menos una entrada")
		return
	}

	tiers := b.Tiers[req.EventID]
	index := make(map[models.ID]int, len(tiers))
	for i, t := range tiers {
		index[t.ID] = i
	}
	for _, line := range req.Entries {
		i, ok := index[line.TierID]
		if !ok {
			writeDetail(w, http.StatusBadRequest, "Tipo de entrada no válido: "+line.TierID.String())
			return
		}
		if line.Quantity <= 0 || line.Quantity > tiers[i].Available {
			writeDetail(w, http.StatusBadRequest, "No hay suficientes entradas disponibles para "+tiers[i].Name)
			return
		}
	}

	created := make([]models.Ticket, 0)
	for _, line := range req.Entries {
		i := index[line.TierID]
		tiers[i].Available -= line.Quantity
		for n := 0; n < line.Quantity; n++ {
			ticket := b.newTicket(user, req.EventID, tiers[i].Price)
			ticket.State = "vendida"
			b.Tickets = append(b.Tickets, ticket)
			created = append(created, ticket)
		}
	}
	b.Purchases = append(b.Purchases, req)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mensaje":  "Compra realizada con éxito",
		"entradas": created,
	})
}

func (b *Backend) cancelTicket(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	user := userFrom(r.Context())

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.Tickets {
		if t.ID != id {
			continue
		}
		if t.UserID != user {
			writeDetail(w, http.StatusForbidden, "No puedes cancelar una entrada que no es tuya")
			return
		}
		if t.Status() == models.TicketCancelled {
			writeDetail(w, http.StatusBadRequest, "La entrada ya está cancelada")
			return
		}
		b.Tickets[i].State = "cancelada"
		writeJSON(w, http.StatusOK, b.Tickets[i])
		return
	}
	writeDetail(w, http.StatusNotFound, "Entrada no encontrada")
}

// --- notificaciones ---

func (b *Backend) myNotifications(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Notification, 0)
	for _, n := range b.Notifications {
		if n.UserID == user {
			out = append(out, n)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) unreadCount(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, n := range b.Notifications {
		if n.UserID == user && !n.Read {
			count++
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (b *Backend) markRead(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.Notifications {
		if n.ID == id && n.UserID == user {
			b.Notifications[i].Read = true
			b.Notifications[i].ReadAt = b.now().Format("2006-01-02T15:04:05")
			writeJSON(w, http.StatusOK, b.Notifications[i])
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Notificación no encontrada")
}

func (b *Backend) markAllRead(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.Notifications {
		if n.UserID == user && !n.Read {
			b.Notifications[i].Read = true
			b.Notifications[i].ReadAt = b.now().Format("2006-01-02T15:04:05")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (b *Backend) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	user := userFrom(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.Notifications {
		if n.ID == id && n.UserID == user {
			b.Notifications = append(b.Notifications[:i], b.Notifications[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Notificación no encontrada")
}

// AddNotification stores a notification for userID.
func (b *Backend) AddNotification(userID models.ID, title, message string) models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addNotification(userID, title, message, models.NotificationInfo)
}

func (b *Backend) addNotification(userID models.ID, title, message string, kind models.NotificationKind) models.Notification {
	if kind == "" {
		kind = models.NotificationInfo
	}
	n := models.Notification{
		ID:        b.nextModelID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: b.now().Format("2006-01-02T15:04:05"),
	}
	b.Notifications = append(b.Notifications, n)
	return n
}

func (b *Backend) createNotification(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeDetail(w, http.StatusBadRequest, "usuario_id requerido")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusCreated, b.addNotification(req.UserID, req.Title, req.Message, req.Kind))
}

func (b *Backend) broadcast(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Datos inválidos")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.Users {
		b.addNotification(id, req.Title, req.Message, req.Kind)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Broadcast enviado"})
}

func (b *Backend) allNotifications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]models.Notification{}, b.Notifications...))
}
