package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"ticketly-client/internal/models"
	"ticketly-client/internal/purchase"
	"ticketly-client/internal/selection"
	sessionredis "ticketly-client/internal/session/redis"
	"ticketly-client/internal/utils"
)

func runBuy(ctx context.Context, a *app, args []string) error {
	fs := newFlags("buy", a.out)
	tierSpecs := fs.StringArrayP("tier", "t", nil, "entrada a comprar como id=cantidad (repetible)")
	random := fs.Bool("random", false, "elige entradas al azar")
	seed := fs.Int64("seed", a.cfg.RandomSeed, "semilla para --random")
	yes := fs.BoolP("yes", "y", false, "no pide confirmación")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: ticketctl buy <evento> [--tier id=cantidad ...] [--random]", errUsage)
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	ev, err := a.events.GetPublishedEventByID(ctx, models.ID(fs.Arg(0)))
	if err != nil {
		return err
	}
	tiers, err := a.events.GetTiers(ctx, *ev)
	if err != nil {
		return err
	}

	sel := selection.New(ev.ID, tiers, newRand(*seed))
	if *random {
		sel.Randomize()
	}
	for _, spec := range *tierSpecs {
		if err := applyTier(a.out, sel, spec); err != nil {
			return err
		}
	}
	if sel.IsEmpty() {
		return purchase.ErrNothingSelected
	}

	fmt.Fprintf(a.out, "Compra para %s\n", ev.Title)
	printSelection(a.out, sel)
	if !*yes && !a.confirm("¿Confirmar la compra?") {
		fmt.Fprintln(a.out, "Compra cancelada")
		return nil
	}

	release, err := a.lockPurchase(ctx, ev.ID)
	if err != nil {
		return err
	}
	defer release()

	wf := purchase.New(sel, a.tickets, a.cache, a.log)
	wf.OnSuccess = func(c purchase.Confirmed) {
		text := fmt.Sprintf("Compra realizada por %s", utils.FormatCOP(c.Total))
		if c.Message != "" {
			text += ": " + c.Message
		}
		a.success(text, "Revisa tus entradas con `ticketctl tickets`")
	}
	_, err = wf.Submit(ctx)
	return err
}

// lockPurchase stops two terminals sharing a redis session from buying the
// same event at once. Without redis there is nothing to share.
func (a *app) lockPurchase(ctx context.Context, eventID models.ID) (func(), error) {
	if a.locker == nil {
		return func() {}, nil
	}
	key := sessionredis.LockKey(a.cfg.Session.Profile, "purchase:"+eventID.String())
	owner := uuid.New().String()
	if err := a.locker.Acquire(ctx, key, owner); err != nil {
		if errors.Is(err, sessionredis.ErrLocked) {
			return nil, errors.New("ya hay una compra en curso para este evento")
		}
		return nil, err
	}
	return func() {
		if err := a.locker.Release(context.Background(), key, owner); err != nil {
			a.log.Warn("PURCHASE", fmt.Sprintf("Failed to release purchase lock: %v", err))
		}
	}, nil
}

// applyTier parses id=cantidad (a bare id means one) and records it.
func applyTier(out io.Writer, sel *selection.Manager, spec string) error {
	id, qtyText, found := strings.Cut(spec, "=")
	qty := 1
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(qtyText))
		if err != nil {
			return fmt.Errorf("%w: cantidad inválida en %q", errUsage, spec)
		}
		qty = n
	}

	tierID := models.ID(strings.TrimSpace(id))
	tier, ok := findTier(sel.Offering(), tierID)
	if !ok {
		return fmt.Errorf("%w: la entrada %q no existe para este evento", errUsage, tierID)
	}
	if got := sel.SetQuantity(tierID, qty); got < qty {
		if got == 0 {
			fmt.Fprintf(out, "%s está agotada\n", tier.Name)
		} else {
			fmt.Fprintf(out, "Solo quedan %d de %s\n", got, tier.Name)
		}
	}
	return nil
}

func findTier(tiers []models.Tier, id models.ID) (models.Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tier{}, false
}

func printSelection(out io.Writer, sel *selection.Manager) {
	offering := sel.Offering()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, line := range sel.Lines() {
		name := line.TierID.String()
		if t, ok := findTier(offering, line.TierID); ok {
			name = t.Name
		}
		fmt.Fprintf(tw, "  %s\tx%d\t%s\n", name, line.Quantity, utils.FormatCOP(line.Subtotal()))
	}
	fmt.Fprintf(tw, "  Total\t%d\t%s\n", sel.TotalQuantity(), utils.FormatCOP(sel.TotalPrice()))
	tw.Flush()
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
