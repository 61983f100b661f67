// ticketctl is the command line front-end of the Ticketly platform: browse
// events, buy and cancel entries, download eTickets and read notifications.
// Admin commands manage events and users and show the sales dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"ticketly-client/internal/api"
	"ticketly-client/internal/config"
	"ticketly-client/internal/events"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/purchase"
	qr "ticketly-client/internal/tickets/qr_generator"
	"ticketly-client/internal/utils"
)

var (
	errNotLoggedIn = errors.New("no has iniciado sesión, ejecuta `ticketctl login`")
	errNotAdmin    = errors.New("esta acción requiere permisos de administrador")
	errUsage       = errors.New("uso incorrecto")
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":         {"Inicia sesión", runLogin},
	"logout":        {"Cierra la sesión", runLogout},
	"whoami":        {"Muestra el usuario actual", runWhoami},
	"register":      {"Crea una cuenta", runRegister},
	"profile":       {"Actualiza tu usuario o correo", runProfile},
	"password":      {"Cambia tu contraseña", runPassword},
	"events":        {"Lista los eventos publicados", runEvents},
	"event":         {"Muestra un evento y sus entradas", runEvent},
	"buy":           {"Compra entradas de un evento", runBuy},
	"tickets":       {"Lista tus entradas", runTickets},
	"cancel":        {"Cancela una entrada", runCancel},
	"qr":            {"Muestra el QR de una entrada", runQR},
	"pdf":           {"Descarga una entrada en PDF", runPDF},
	"notifications": {"Lista y gestiona tus notificaciones", runNotifications},
	"admin":         {"Comandos de administración", runAdmin},
}

func main() {
	envLoaded := config.LoadDotEnv()
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.FileEnabled)
	defer log.Close()
	if envLoaded {
		log.Debug("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		report(os.Stdout, err)
		stop()
		log.Close()
		os.Exit(1)
	}
}

// run dispatches one invocation. It is main without the process plumbing.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("%w: comando desconocido %q", errUsage, args[0])
	}

	a, err := newApp(ctx, cfg, log, in, out)
	if err != nil {
		return err
	}
	defer a.close()

	log.Debug("APP", fmt.Sprintf("Running %s", args[0]))
	if err := cmd.run(ctx, a, args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Uso: ticketctl <comando> [opciones]")
	fmt.Fprintln(out)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %s\n", name, commands[name].summary)
	}
}

// newFlags builds the flag set of one subcommand. Parse errors are
// returned, not fatal; --help surfaces as pflag.ErrHelp and ends the
// command quietly.
func newFlags(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("ticketctl "+name, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// report prints err as the red alert line. A 401 was already announced by
// the session hook.
func report(out io.Writer, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		return
	}
	hint := ""
	switch {
	case errors.Is(err, errUsage):
		hint = "Ejecuta `ticketctl help` para ver los comandos"
	case errors.Is(err, purchase.ErrNothingSelected):
		hint = "Elige entradas con --tier id=cantidad o --random"
	}
	utils.ErrorMessage(reason(err), hint).Print(out)
}

// reason is the text shown to the user for err.
func reason(err error) string {
	var perr *purchase.Error
	if errors.As(err, &perr) {
		return perr.Reason
	}
	var eerr *events.Error
	if errors.As(err, &eerr) {
		return eerr.Message
	}
	if errors.Is(err, qr.ErrTicketCancelled) {
		return "Las entradas canceladas no tienen QR ni PDF"
	}
	return api.Reason(err, err.Error())
}
