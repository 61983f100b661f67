package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"ticketly-client/internal/clock"
	"ticketly-client/internal/models"
	"ticketly-client/internal/notifications/feed"
	"ticketly-client/internal/poller"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/utils"
)

func runNotifications(ctx context.Context, a *app, args []string) error {
	fs := newFlags("notifications", a.out)
	watch := fs.BoolP("watch", "w", false, "sigue el contador de no leídas hasta Ctrl+C")
	read := fs.String("read", "", "marca una notificación como leída")
	readAll := fs.Bool("read-all", false, "marca todas como leídas")
	remove := fs.String("delete", "", "elimina una notificación")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	switch {
	case *read != "":
		if _, err := a.notifications.MarkAsRead(ctx, models.ID(*read)); err != nil {
			return err
		}
		a.cache.InvalidatePrefix(querycache.KeyNotifications)
		a.success("Notificación marcada como leída", "")
		return nil
	case *readAll:
		if err := a.notifications.MarkAllAsRead(ctx); err != nil {
			return err
		}
		a.cache.InvalidatePrefix(querycache.KeyNotifications)
		a.success("Todas las notificaciones están leídas", "")
		return nil
	case *remove != "":
		if err := a.notifications.DeleteNotification(ctx, models.ID(*remove)); err != nil {
			return err
		}
		a.cache.InvalidatePrefix(querycache.KeyNotifications)
		a.success("Notificación eliminada", "")
		return nil
	case *watch:
		return a.watchNotifications(ctx)
	}

	list, err := querycache.Query(ctx, a.cache, querycache.KeyNotifications+"mine", a.notifications.GetMyNotifications)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No tienes notificaciones")
		return nil
	}
	return printNotifications(a.out, list)
}

func printNotifications(out io.Writer, list []models.Notification) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tTÍTULO\tMENSAJE\tFECHA")
	for _, n := range list {
		mark := "•"
		if n.Read {
			mark = " "
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, mark, n.Title, n.Message, utils.FormatDateForDisplay(n.CreatedAt))
	}
	return tw.Flush()
}

// watchNotifications polls the unread counter and, when a push feed is
// configured, refreshes it as soon as the backend announces something.
func (a *app) watchNotifications(ctx context.Context) error {
	unread := func(ctx context.Context) (int, error) {
		return querycache.Query(ctx, a.cache, querycache.KeyUnreadCount, a.notifications.GetUnreadCount)
	}

	last := -1
	report := func(ctx context.Context) error {
		n, err := unread(ctx)
		if err != nil {
			return err
		}
		if n != last {
			fmt.Fprintf(a.out, "No leídas: %d\n", n)
			last = n
		}
		return nil
	}

	p := poller.New("unread-notifications", a.cfg.Notifications.PollInterval, report, clock.Real(), a.log)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Run(gctx)
		return nil
	})

	if runner, err := a.notificationFeed(ctx); err != nil {
		return err
	} else if runner != nil {
		g.Go(func() error { return runner(gctx) })
	}

	fmt.Fprintln(a.out, "Esperando notificaciones (Ctrl+C para salir)")
	return g.Wait()
}

// notificationFeed builds the configured push feed, or nil for none.
func (a *app) notificationFeed(ctx context.Context) (func(context.Context) error, error) {
	handler := &feed.Handler{
		Receiver: func() models.ID { return models.ID(a.session.Claims().UserID) },
		Cache:    a.cache,
		Logger:   a.log,
		Notify: func(ev models.NotificationEvent) {
			fmt.Fprintf(a.out, "[%s] %s\n", ev.Kind, ev.Message)
		},
	}

	switch a.cfg.Notifications.Feed {
	case "", "none":
		return nil, nil
	case "kafka":
		k := a.cfg.Kafka
		if err := feed.EnsureTopic(ctx, k.Brokers, k.Topic); err != nil {
			a.log.Warn("FEED", fmt.Sprintf("Could not ensure topic %s: %v", k.Topic, err))
		}
		f := feed.NewKafkaFeed(k.Brokers, k.Topic, k.GroupID, handler, a.log)
		a.closers = append(a.closers, f.Close)
		return f.Run, nil
	case "amqp":
		f := feed.NewAMQPFeed(a.cfg.AMQP.URL, a.cfg.AMQP.Queue, handler, a.log)
		return f.Run, nil
	default:
		return nil, fmt.Errorf("unknown notification feed %q", a.cfg.Notifications.Feed)
	}
}
