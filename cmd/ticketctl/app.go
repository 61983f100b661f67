package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-redis/redis/v8"

	"ticketly-client/internal/analytics"
	"ticketly-client/internal/api"
	"ticketly-client/internal/clock"
	"ticketly-client/internal/config"
	"ticketly-client/internal/events"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/notifications"
	"ticketly-client/internal/querycache"
	"ticketly-client/internal/session"
	sessiondb "ticketly-client/internal/session/db"
	sessionredis "ticketly-client/internal/session/redis"
	tickets "ticketly-client/internal/tickets/service"
	"ticketly-client/internal/uploads"
	"ticketly-client/internal/users"
	"ticketly-client/internal/utils"
)

// app holds everything a command needs. It lives for one invocation.
type app struct {
	cfg *config.Config
	log *logger.Logger
	in  *bufio.Reader
	out io.Writer

	session *session.Manager
	client  *api.Client
	cache   *querycache.Cache

	events        *events.EventService
	tickets       *tickets.TicketService
	users         *users.UserService
	notifications *notifications.NotificationService
	uploads       *uploads.UploadService
	analytics     *analytics.Service

	// locker is set when sessions live in redis and may be shared.
	locker *sessionredis.Locker

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, in io.Reader, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, log: log, in: bufio.NewReader(in), out: out}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	a.session = session.NewManager(store, cfg.Session.Profile, log)
	restored := true
	if err := a.session.Restore(ctx); err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			a.close()
			return nil, err
		}
		restored = false
	}

	a.client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.session, log)
	a.client.OnUnauthorized(func() {
		// without a stored session a 401 is a login failure, reported by the command
		if restored {
			utils.ErrorMessage("Tu sesión ha expirado", "Ejecuta `ticketctl login` para volver a entrar").Print(a.out)
		}
	})
	a.cache = querycache.New(cfg.Cache.StaleTime, clock.Real(), log)

	a.events = events.NewEventService(a.client, log)
	a.tickets = tickets.NewTicketService(a.client, log)
	a.users = users.NewUserService(a.client, log)
	a.notifications = notifications.NewNotificationService(a.client, log)
	a.uploads = uploads.NewUploadService(a.client, log)
	a.analytics = analytics.NewService(a.events, a.users, log)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Store {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.locker = sessionredis.NewLocker(client)
		a.log.Debug("SESSION", fmt.Sprintf("Using redis session store at %s", a.cfg.Redis.Addr))
		return sessionredis.NewStore(client), nil
	case "sqlite", "":
		db, err := sessiondb.Open(ctx, a.cfg.Session.DBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.log.Debug("SESSION", fmt.Sprintf("Using sqlite session store at %s", a.cfg.Session.DBPath))
		return db, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
	}
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("APP", fmt.Sprintf("Close failed: %v", err))
		}
	}
}

// requireSession fails early for commands that need a logged in user.
func (a *app) requireSession() error {
	if !a.session.Active() {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.session.IsAdmin() {
		return errNotAdmin
	}
	return nil
}

// prompt reads one line from the input, trimmed.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. Anything but y/s/yes/si is a no.
func (a *app) confirm(question string) bool {
	answer, err := a.prompt(question + " [s/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

func (a *app) success(text, hint string) {
	utils.SuccessMessage(text, hint).Print(a.out)
}

func (a *app) failure(text, hint string) {
	utils.ErrorMessage(text, hint).Print(a.out)
}
