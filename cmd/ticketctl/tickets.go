package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"ticketly-client/internal/models"
	"ticketly-client/internal/purchase"
	"ticketly-client/internal/querycache"
	qr "ticketly-client/internal/tickets/qr_generator"
	"ticketly-client/internal/tickets/template"
	"ticketly-client/internal/utils"
)

func (a *app) myTickets(ctx context.Context) ([]models.Ticket, error) {
	return querycache.Query(ctx, a.cache, querycache.KeyMyTickets, a.tickets.GetMyTickets)
}

// findTicket looks ref up among the user's tickets by id or code.
func (a *app) findTicket(ctx context.Context, ref string) (models.Ticket, error) {
	list, err := a.myTickets(ctx)
	if err != nil {
		return models.Ticket{}, err
	}
	for _, t := range list {
		if t.ID.String() == ref || t.Code == ref {
			return t, nil
		}
	}
	return models.Ticket{}, fmt.Errorf("no tienes ninguna entrada %s", ref)
}

func runTickets(ctx context.Context, a *app, args []string) error {
	fs := newFlags("tickets", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	list, err := a.myTickets(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Aún no tienes entradas")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCÓDIGO\tEVENTO\tPRECIO\tESTADO")
	for _, t := range list {
		event := t.EventName
		if event == "" {
			event = "Evento " + t.EventID.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Code, event, utils.FormatCOP(t.Price), ticketStatusLabel(t))
	}
	return tw.Flush()
}

func ticketStatusLabel(t models.Ticket) string {
	switch t.Status() {
	case models.TicketActive:
		return "Activa"
	case models.TicketCancelled:
		return "Cancelada"
	case models.TicketUsed:
		return "Usada"
	default:
		return "Pendiente"
	}
}

func runCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlags("cancel", a.out)
	yes := fs.BoolP("yes", "y", false, "no pide confirmación")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl cancel <entrada>", errUsage)
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	t, err := a.findTicket(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if !purchase.Cancellable(t) {
		return fmt.Errorf("la entrada %s no se puede cancelar (%s)", t.Code, ticketStatusLabel(t))
	}
	if !*yes && !a.confirm(fmt.Sprintf("¿Cancelar la entrada %s?", t.Code)) {
		return nil
	}

	if _, err := purchase.NewCancellation(a.tickets, a.cache, a.log).CancelTicket(ctx, t); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Entrada %s cancelada", t.Code), "")
	return nil
}

func runQR(ctx context.Context, a *app, args []string) error {
	fs := newFlags("qr", a.out)
	pngPath := fs.String("png", "", "guarda el QR como imagen PNG")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl qr <entrada> [--png archivo]", errUsage)
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	t, err := a.findTicket(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	gen := qr.NewQRGenerator(a.cfg.Tickets.QRSecret)

	if *pngPath != "" {
		data, err := gen.Generate(t)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*pngPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *pngPath, err)
		}
		a.success(fmt.Sprintf("QR guardado en %s", *pngPath), "")
		return nil
	}

	art, err := gen.Terminal(t)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, art)
	fmt.Fprintf(a.out, "Código: %s\n", t.Code)
	return nil
}

func runPDF(ctx context.Context, a *app, args []string) error {
	fs := newFlags("pdf", a.out)
	outPath := fs.StringP("out", "o", "", "archivo de salida (por defecto entrada-<código>.pdf)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl pdf <entrada> [--out archivo]", errUsage)
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	t, err := a.findTicket(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if t.EventName == "" {
		if ev, err := a.tickets.GetEventByTicket(ctx, t.ID); err == nil {
			t.EventName = ev.Title
			if t.EventDate == "" {
				t.EventDate = ev.Date
			}
		} else {
			a.log.Debug("TICKETS", fmt.Sprintf("No event for ticket %s: %v", t.ID, err))
		}
	}

	code, err := qr.NewQRGenerator(a.cfg.Tickets.QRSecret).Generate(t)
	if err != nil {
		return err
	}
	doc, err := template.NewTicketPDFGenerator().Generate(t, code)
	if err != nil {
		return err
	}

	path := *outPath
	if path == "" {
		path = fmt.Sprintf("entrada-%s.pdf", t.Code)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	a.success(fmt.Sprintf("Entrada guardada en %s", path), "")
	return nil
}
