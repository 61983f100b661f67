package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"ticketly-client/internal/models"
	"ticketly-client/internal/notifications/feed"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/utils"
)

var adminCommands = map[string]command{
	"events":        {"Lista todos los eventos", adminEvents},
	"create-event":  {"Crea un evento en borrador", adminCreateEvent},
	"update-event":  {"Modifica un evento", adminUpdateEvent},
	"publish":       {"Publica un evento", adminPublish},
	"cancel-event":  {"Cancela un evento", adminCancelEvent},
	"delete-event":  {"Elimina un evento no publicado", adminDeleteEvent},
	"upload-image":  {"Sube una imagen de evento", adminUploadImage},
	"users":         {"Lista los usuarios", adminUsers},
	"user":          {"Muestra un usuario y su historial", adminUser},
	"create-user":   {"Crea un usuario o administrador", adminCreateUser},
	"activate":      {"Activa un usuario", adminActivate},
	"deactivate":    {"Desactiva un usuario", adminDeactivate},
	"delete-user":   {"Elimina un usuario", adminDeleteUser},
	"tickets":       {"Lista entradas vendidas o canceladas", adminTickets},
	"stats":         {"Panel de estadísticas", adminStats},
	"sales":         {"Ventas por evento", adminSales},
	"notify":        {"Envía una notificación a un usuario o a todos", adminNotify},
	"notifications": {"Lista todas las notificaciones", adminNotifications},
}

func runAdmin(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		printAdminUsage(a.out)
		return nil
	}
	cmd, ok := adminCommands[args[0]]
	if !ok {
		printAdminUsage(a.out)
		return fmt.Errorf("%w: comando de administración desconocido %q", errUsage, args[0])
	}
	if err := a.requireAdmin(); err != nil {
		return err
	}
	return cmd.run(ctx, a, args[1:])
}

func printAdminUsage(out io.Writer) {
	fmt.Fprintln(out, "Uso: ticketctl admin <comando> [opciones]")
	fmt.Fprintln(out)
	names := make([]string, 0, len(adminCommands))
	for name := range adminCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %s\n", name, adminCommands[name].summary)
	}
}

// oneArg parses flags and requires exactly one positional argument.
func oneArg(fs *pflag.FlagSet, args []string, usage string) (models.ID, error) {
	if err := parseFlags(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: ticketctl admin %s", errUsage, usage)
	}
	return models.ID(fs.Arg(0)), nil
}

func adminEvents(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin events", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	list, err := querycache.Query(ctx, a.cache, querycache.KeyEvents, a.events.GetAllEvents)
	if err != nil {
		return err
	}
	printEvents(a.out, list)
	return nil
}

type eventFlags struct {
	title, description, date, category, venue, image string
	capacity                                         int
	price                                            float64
}

func (f *eventFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "título")
	fs.StringVar(&f.description, "description", "", "descripción")
	fs.StringVar(&f.date, "date", "", "fecha (dd/mm/aaaa HH:MM o AAAA-MM-DDTHH:MM)")
	fs.StringVar(&f.category, "category", "", "categoría")
	fs.StringVar(&f.venue, "venue", "", "presencial o virtual")
	fs.IntVar(&f.capacity, "capacity", 0, "aforo")
	fs.Float64Var(&f.price, "price", 0, "precio")
	fs.StringVar(&f.image, "image", "", "imagen local a subir o URL existente")
}

// request builds the event payload, uploading a local image first.
func (f *eventFlags) request(ctx context.Context, a *app) (models.EventRequest, error) {
	req := models.EventRequest{
		Title:       f.title,
		Description: f.description,
		Category:    f.category,
		Venue:       models.VenueType(f.venue),
		Capacity:    f.capacity,
		Price:       f.price,
	}
	if f.date != "" {
		req.Date = utils.FormatDateForBackend(utils.FormatDateForInput(f.date))
	}
	if f.image != "" {
		url, err := a.imageURL(ctx, f.image)
		if err != nil {
			return req, err
		}
		req.ImageURL = url
	}
	return req, nil
}

func (a *app) imageURL(ctx context.Context, ref string) (string, error) {
	if _, err := os.Stat(ref); err != nil {
		if utils.IsValidImageURL(ref) {
			return ref, nil
		}
		return "", fmt.Errorf("%w: %s no es una imagen", errUsage, ref)
	}
	f, err := os.Open(ref)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer f.Close()
	return a.uploads.UploadImage(ctx, ref, f)
}

func adminCreateEvent(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin create-event", a.out)
	var ef eventFlags
	ef.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if ef.title == "" || ef.date == "" {
		return fmt.Errorf("%w: --title y --date son obligatorios", errUsage)
	}
	if ef.venue == "" {
		ef.venue = string(models.VenueInPerson)
	}

	req, err := ef.request(ctx, a)
	if err != nil {
		return err
	}
	ev, err := a.events.CreateEvent(ctx, req)
	if err != nil {
		return err
	}
	a.cache.Invalidate(querycache.KeyEvents)
	a.success(fmt.Sprintf("Evento %s creado", ev.ID), fmt.Sprintf("Publícalo con `ticketctl admin publish %s`", ev.ID))
	return nil
}

func adminUpdateEvent(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin update-event", a.out)
	var ef eventFlags
	ef.register(fs)
	id, err := oneArg(fs, args, "update-event <id> [opciones]")
	if err != nil {
		return err
	}

	req, err := ef.request(ctx, a)
	if err != nil {
		return err
	}
	if _, err := a.events.UpdateEvent(ctx, id, req); err != nil {
		return err
	}
	a.cache.Invalidate(querycache.KeyEvents, querycache.KeyPublishedEvents)
	a.success(fmt.Sprintf("Evento %s actualizado", id), "")
	return nil
}

func adminPublish(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(newFlags("admin publish", a.out), args, "publish <id>")
	if err != nil {
		return err
	}
	ev, err := a.events.PublishEvent(ctx, id)
	if err != nil {
		return err
	}
	a.cache.Invalidate(querycache.KeyEvents, querycache.KeyPublishedEvents)
	a.success(fmt.Sprintf("Evento %q publicado", ev.Title), "")
	return nil
}

func adminCancelEvent(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin cancel-event", a.out)
	yes := fs.BoolP("yes", "y", false, "no pide confirmación")
	id, err := oneArg(fs, args, "cancel-event <id>")
	if err != nil {
		return err
	}
	if !*yes && !a.confirm(fmt.Sprintf("¿Cancelar el evento %s?", id)) {
		return nil
	}
	ev, err := a.events.CancelEvent(ctx, id)
	if err != nil {
		return err
	}
	a.cache.Invalidate(querycache.KeyEvents, querycache.KeyPublishedEvents)
	a.success(fmt.Sprintf("Evento %q cancelado", ev.Title), "")
	return nil
}

func adminDeleteEvent(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin delete-event", a.out)
	yes := fs.BoolP("yes", "y", false, "no pide confirmación")
	id, err := oneArg(fs, args, "delete-event <id>")
	if err != nil {
		return err
	}
	if !*yes && !a.confirm(fmt.Sprintf("¿Eliminar el evento %s?", id)) {
		return nil
	}
	if err := a.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	a.cache.Invalidate(querycache.KeyEvents, querycache.KeyPublishedEvents)
	a.success(fmt.Sprintf("Evento %s eliminado", id), "")
	return nil
}

func adminUploadImage(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin upload-image", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl admin upload-image <archivo>", errUsage)
	}
	url, err := a.imageURL(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	a.success("Imagen subida", utils.ImageURL(a.client.BaseURL(), url))
	return nil
}

func adminUsers(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin users", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	list, err := a.users.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSUARIO\tEMAIL\tROL\tESTADO")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, u.State)
	}
	return tw.Flush()
}

func adminUser(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(newFlags("admin user", a.out), args, "user <id>")
	if err != nil {
		return err
	}
	u, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> %s, %s\n", u.Username, u.Email, u.Role, u.State)

	history, err := a.tickets.GetUserTicketHistory(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Entradas: %d\n", len(history))
	for _, t := range history {
		fmt.Fprintf(a.out, "  %s  evento %s  %s  %s\n", t.Code, t.EventID, utils.FormatCOP(t.Price), ticketStatusLabel(t))
	}
	return nil
}

func adminCreateUser(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin create-user", a.out)
	username := fs.StringP("username", "u", "", "usuario")
	email := fs.StringP("email", "e", "", "correo")
	password := fs.StringP("password", "p", "", "contraseña")
	admin := fs.Bool("admin", false, "crea un administrador")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("%w: --username, --email y --password son obligatorios", errUsage)
	}

	req := models.RegisterRequest{Username: *username, Email: *email, Password: *password}
	create := a.users.CreateUser
	if *admin {
		create = a.users.CreateAdmin
	}
	u, err := create(ctx, req)
	if err != nil {
		return err
	}
	a.success(fmt.Sprintf("Usuario %s creado (%s)", u.Username, u.Role), "")
	return nil
}

func adminActivate(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(newFlags("admin activate", a.out), args, "activate <id>")
	if err != nil {
		return err
	}
	u, err := a.users.ActivateUser(ctx, id)
	if err != nil {
		return err
	}
	a.success(fmt.Sprintf("Usuario %s activado", u.Username), "")
	return nil
}

func adminDeactivate(ctx context.Context, a *app, args []string) error {
	id, err := oneArg(newFlags("admin deactivate", a.out), args, "deactivate <id>")
	if err != nil {
		return err
	}
	u, err := a.users.DeactivateUser(ctx, id)
	if err != nil {
		return err
	}
	a.success(fmt.Sprintf("Usuario %s desactivado", u.Username), "")
	return nil
}

func adminDeleteUser(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin delete-user", a.out)
	yes := fs.BoolP("yes", "y", false, "no pide confirmación")
	id, err := oneArg(fs, args, "delete-user <id>")
	if err != nil {
		return err
	}
	if !*yes && !a.confirm(fmt.Sprintf("¿Eliminar el usuario %s?", id)) {
		return nil
	}
	if err := a.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Usuario %s eliminado", id), "")
	return nil
}

func adminTickets(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin tickets", a.out)
	event := fs.String("event", "", "solo las de un evento")
	cancelled := fs.Bool("cancelled", false, "solo las canceladas")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	eventID := models.ID(*event)
	var (
		list []models.Ticket
		err  error
	)
	switch {
	case *cancelled:
		list, err = a.tickets.GetCancelledTickets(ctx, eventID)
	case !eventID.IsZero():
		list, err = a.tickets.GetTicketsByEvent(ctx, eventID)
	default:
		list, err = querycache.Query(ctx, a.cache, querycache.KeyTickets, a.tickets.GetAllTickets)
	}
	if err != nil {
		return err
	}

	if !eventID.IsZero() && !*cancelled {
		available, err := a.tickets.GetAvailableTickets(ctx, eventID)
		if err != nil {
			return err
		}
		sold, err := a.tickets.GetUnavailableTickets(ctx, eventID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Disponibles: %d  Vendidas: %d\n", len(available), len(sold))
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCÓDIGO\tEVENTO\tUSUARIO\tPRECIO\tESTADO")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Code, t.EventID, t.UserID, utils.FormatCOP(t.Price), ticketStatusLabel(t))
	}
	return tw.Flush()
}

func adminStats(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin stats", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := a.analytics.GetDashboard(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Eventos:   %d (publicados %d, borradores %d, finalizados %d, cancelados %d)\n",
		d.TotalEvents, d.Status(models.EventPublished), d.Status(models.EventUnpublished),
		d.Status(models.EventFinalized), d.Status(models.EventCancelled))
	fmt.Fprintf(a.out, "Usuarios:  %d (administradores %d, usuarios %d, inactivos %d)\n",
		d.TotalUsers, d.Admins, d.RegularUsers, d.InactiveUsers)
	revenueLabel := "Ingresos"
	if !d.RevenueFromSales {
		revenueLabel = "Ingresos (estimados)"
	}
	fmt.Fprintf(a.out, "%s: %s\n", revenueLabel, utils.FormatCOP(d.TotalRevenue))
	fmt.Fprintf(a.out, "Entradas vendidas: %d\n", d.TicketsSold)
	fmt.Fprintf(a.out, "Precio medio: %s\n", utils.FormatCOP(d.AverageEventPrice))

	if len(d.TopCategories) > 0 {
		fmt.Fprintln(a.out, "Categorías principales:")
		for _, c := range d.TopCategories {
			fmt.Fprintf(a.out, "  %-20s %3d  %5.1f%%\n", c.Name, c.Count, c.Percentage)
		}
	}
	return nil
}

func adminSales(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin sales", a.out)
	event := fs.String("event", "", "solo un evento")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sales, err := a.events.GetSales(ctx, models.ID(*event))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENTO\tNOMBRE\tVENDIDAS\tINGRESOS")
	for _, s := range sales {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.EventID, s.EventName, s.TotalSales, utils.FormatCOP(s.TotalRevenue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if *event != "" {
		return nil
	}
	stats, err := a.tickets.GetTicketSales(ctx)
	if err != nil {
		a.log.Debug("ADMIN", fmt.Sprintf("Ticket sales unavailable: %v", err))
		return nil
	}
	fmt.Fprintln(a.out)
	tw = tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENTO\tVENDIDAS\tCANCELADAS\tDISPONIBLES")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.EventID, s.Sold, s.Cancelled, s.Available)
	}
	return tw.Flush()
}

func adminNotify(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin notify", a.out)
	user := fs.String("user", "", "destinatario (vacío para todos)")
	title := fs.String("title", "", "título")
	message := fs.String("message", "", "mensaje")
	kind := fs.String("kind", string(models.NotificationInfo), "info, warning, success o error")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *title == "" || *message == "" {
		return fmt.Errorf("%w: --title y --message son obligatorios", errUsage)
	}

	req := models.CreateNotificationRequest{
		UserID:  models.ID(*user),
		Title:   *title,
		Message: *message,
		Kind:    models.NotificationKind(*kind),
	}
	if req.UserID.IsZero() {
		if err := a.notifications.SendBroadcast(ctx, req); err != nil {
			return err
		}
		a.announce(ctx, req)
		a.success("Notificación enviada a todos los usuarios", "")
		return nil
	}
	if _, err := a.notifications.CreateNotification(ctx, req); err != nil {
		return err
	}
	a.announce(ctx, req)
	a.success(fmt.Sprintf("Notificación enviada al usuario %s", req.UserID), "")
	return nil
}

// announce pushes a stored notification onto the kafka feed so watching
// clients refresh right away. The notification already exists, so a
// failure here is only logged.
func (a *app) announce(ctx context.Context, req models.CreateNotificationRequest) {
	if a.cfg.Notifications.Feed != "kafka" {
		return
	}
	p := feed.NewKafkaPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.log)
	a.closers = append(a.closers, p.Close)

	ev := models.NotificationEvent{Kind: string(req.Kind), Message: req.Message, Receiver: req.UserID}
	if err := p.Publish(ctx, ev); err != nil {
		a.log.Warn("FEED", fmt.Sprintf("Failed to announce notification: %v", err))
	}
}

func adminNotifications(ctx context.Context, a *app, args []string) error {
	fs := newFlags("admin notifications", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	list, err := a.notifications.GetAllNotifications(ctx)
	if err != nil {
		return err
	}
	return printNotifications(a.out, list)
}
