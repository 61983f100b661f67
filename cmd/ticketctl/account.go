package main

import (
	"context"
	"errors"
	"fmt"

	"ticketly-client/internal/api"
	"ticketly-client/internal/models"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login", a.out)
	username := fs.StringP("username", "u", "", "usuario")
	password := fs.StringP("password", "p", "", "contraseña (se pide si falta)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *username == "" {
		if *username, err = a.prompt("Usuario: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.prompt("Contraseña: "); err != nil {
			return err
		}
	}

	resp, err := a.users.Login(ctx, models.LoginRequest{Username: *username, Password: *password})
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New(api.Reason(err, "Credenciales incorrectas"))
		}
		return err
	}
	if err := a.session.Init(ctx, resp.AccessToken, resp.TokenType); err != nil {
		return err
	}

	profile, err := a.users.GetProfile(ctx)
	if err != nil {
		a.log.Warn("SESSION", fmt.Sprintf("Logged in but the profile could not be loaded: %v", err))
		a.success("Sesión iniciada", "")
		return nil
	}
	if err := a.session.SetUser(ctx, *profile); err != nil {
		return err
	}
	a.success(fmt.Sprintf("Bienvenido, %s", profile.Username), "Consulta los eventos con `ticketctl events`")
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if !a.session.Active() {
		a.success("No había ninguna sesión activa", "")
		return nil
	}
	if err := a.session.Teardown(ctx); err != nil {
		return err
	}
	a.success("Sesión cerrada", "")
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	user, ok := a.session.User()
	if !ok {
		profile, err := a.users.GetProfile(ctx)
		if err != nil {
			return err
		}
		user = *profile
		if err := a.session.SetUser(ctx, user); err != nil {
			a.log.Warn("SESSION", fmt.Sprintf("Failed to store profile: %v", err))
		}
	}

	fmt.Fprintf(a.out, "Usuario: %s\n", user.Username)
	fmt.Fprintf(a.out, "Email:   %s\n", user.Email)
	fmt.Fprintf(a.out, "Rol:     %s\n", user.Role)
	if exp := a.session.Claims().ExpiresAt; !exp.IsZero() {
		fmt.Fprintf(a.out, "Expira:  %s\n", exp.Local().Format("02/01/2006 15:04"))
	}
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register", a.out)
	username := fs.StringP("username", "u", "", "usuario")
	email := fs.StringP("email", "e", "", "correo electrónico")
	password := fs.StringP("password", "p", "", "contraseña")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("%w: --username, --email y --password son obligatorios", errUsage)
	}

	if err := a.users.Register(ctx, models.RegisterRequest{Username: *username, Email: *email, Password: *password}); err != nil {
		return err
	}
	a.success("Cuenta creada", "Inicia sesión con `ticketctl login`")
	return nil
}

func (a *app) currentUserID(ctx context.Context) (models.ID, error) {
	if user, ok := a.session.User(); ok && !user.ID.IsZero() {
		return user.ID, nil
	}
	if id := a.session.Claims().UserID; id != "" {
		return models.ID(id), nil
	}
	profile, err := a.users.GetProfile(ctx)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := newFlags("profile", a.out)
	username := fs.StringP("username", "u", "", "nuevo usuario")
	email := fs.StringP("email", "e", "", "nuevo correo")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	if *username == "" && *email == "" {
		return fmt.Errorf("%w: indica --username o --email", errUsage)
	}

	id, err := a.currentUserID(ctx)
	if err != nil {
		return err
	}
	updated, err := a.users.UpdateUser(ctx, id, models.UpdateUserRequest{Username: *username, Email: *email})
	if err != nil {
		return err
	}
	if err := a.session.SetUser(ctx, *updated); err != nil {
		a.log.Warn("SESSION", fmt.Sprintf("Failed to store profile: %v", err))
	}
	a.success("Perfil actualizado", "")
	return nil
}

func runPassword(ctx context.Context, a *app, args []string) error {
	fs := newFlags("password", a.out)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	current, err := a.prompt("Contraseña actual: ")
	if err != nil {
		return err
	}
	next, err := a.prompt("Nueva contraseña: ")
	if err != nil {
		return err
	}
	if next == "" {
		return fmt.Errorf("%w: la nueva contraseña no puede estar vacía", errUsage)
	}

	id, err := a.currentUserID(ctx)
	if err != nil {
		return err
	}
	if err := a.users.UpdatePassword(ctx, id, models.UpdatePasswordRequest{Current: current, New: next}); err != nil {
		return err
	}
	a.success("Contraseña actualizada", "")
	return nil
}
