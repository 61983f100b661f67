package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"ticketly-client/internal/models"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/utils"
)

func runEvents(ctx context.Context, a *app, args []string) error {
	fs := newFlags("events", a.out)
	category := fs.StringP("category", "c", "", "filtra por categoría")
	search := fs.StringP("search", "s", "", "filtra por palabra clave")
	listCategories := fs.Bool("categories", false, "lista las categorías disponibles")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *listCategories {
		cats, err := a.events.GetCategories(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Fprintln(a.out, c)
		}
		return nil
	}

	var (
		list []models.Event
		err  error
	)
	if *category != "" || *search != "" {
		list, err = a.events.SearchEvents(ctx, models.EventSearchParams{Category: *category, Keyword: *search})
	} else {
		list, err = querycache.Query(ctx, a.cache, querycache.KeyPublishedEvents, a.events.GetPublishedEvents)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No hay eventos disponibles")
		return nil
	}
	printEvents(a.out, list)
	return nil
}

func printEvents(out io.Writer, list []models.Event) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENTO\tFECHA\tCATEGORÍA\tPRECIO\tESTADO")
	for _, ev := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.ID, ev.Title, utils.FormatDateForDisplay(ev.Date), ev.Category, utils.FormatCOP(ev.Price), ev.Lifecycle())
	}
	tw.Flush()
}

func runEvent(ctx context.Context, a *app, args []string) error {
	fs := newFlags("event", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl event <id>", errUsage)
	}

	ev, err := a.events.GetPublishedEventByID(ctx, models.ID(fs.Arg(0)))
	if err != nil {
		return err
	}
	tiers, err := a.events.GetTiers(ctx, *ev)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, ev.Title)
	fmt.Fprintf(a.out, "  %s\n", ev.Description)
	fmt.Fprintf(a.out, "  Fecha:     %s\n", utils.FormatDateForDisplay(ev.Date))
	fmt.Fprintf(a.out, "  Categoría: %s (%s)\n", ev.Category, ev.Venue)
	fmt.Fprintf(a.out, "  Aforo:     %d\n", ev.Capacity)
	if img := utils.ImageURL(a.client.BaseURL(), ev.ImageURL); img != "" {
		fmt.Fprintf(a.out, "  Imagen:    %s\n", img)
	}
	fmt.Fprintln(a.out)
	printTiers(a.out, tiers)
	return nil
}

func printTiers(out io.Writer, tiers []models.Tier) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRADA\tNOMBRE\tPRECIO\tDISPONIBLES")
	for _, t := range tiers {
		avail := fmt.Sprintf("%d/%d", t.Available, t.Total)
		if t.Available <= 0 {
			avail = "Agotado"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, utils.FormatCOP(t.Price), avail)
	}
	tw.Flush()
}
