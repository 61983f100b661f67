package users

import (
	"context"
	"fmt"
	"net/url"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

const basePath = "/usuarios/usuarios"

type UserService struct {
	API    api.Requester
	Logger *logger.Logger
}

func NewUserService(requester api.Requester, log *logger.Logger) *UserService {
	return &UserService{API: requester, Logger: log}
}

// Login exchanges credentials for an access token. The endpoint is an
// OAuth2 password form, not JSON.
func (s *UserService) Login(ctx context.Context, creds models.LoginRequest) (*models.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var resp models.AuthResponse
	if err := s.API.PostForm(ctx, basePath+"/login", form, &resp); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("Login failed for %s", creds.Username))
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login failed: empty access token")
	}
	return &resp, nil
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := s.API.Post(ctx, basePath+"/registro", req, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	s.Logger.Info("USERS", fmt.Sprintf("User registered: %s", req.Username))
	return nil
}

func (s *UserService) GetProfile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.API.Get(ctx, basePath+"/get-mi-perfil", nil, &u); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &u, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.API.Get(ctx, basePath+"/get-usuarios", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id models.ID) (*models.User, error) {
	var u models.User
	if err := s.API.Get(ctx, basePath+"/get-usuario/"+url.PathEscape(id.String()), nil, &u); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id models.ID, req models.UpdateUserRequest) (*models.User, error) {
	var u models.User
	if err := s.API.Put(ctx, basePath+"/update-usuarios/"+url.PathEscape(id.String()), req, &u); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return &u, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id models.ID, req models.UpdatePasswordRequest) error {
	if err := s.API.Put(ctx, basePath+"/update-password/"+url.PathEscape(id.String()), req, nil); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.Logger.LogSecurity("PASSWORD_CHANGED", fmt.Sprintf("Password updated for user %s", id))
	return nil
}

// CreateUser registers a user on behalf of an admin and returns it.
func (s *UserService) CreateUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := s.API.Post(ctx, basePath+"/registro", req, &u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// CreateAdmin registers a user with the admin role. Only admins may call it.
func (s *UserService) CreateAdmin(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := s.API.Post(ctx, basePath+"/crear-admin", req, &u); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	s.Logger.LogSecurity("ADMIN_CREATED", fmt.Sprintf("Admin account created: %s", u.Username))
	return &u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id models.ID) error {
	if err := s.API.Delete(ctx, basePath+"/delete-usuario/"+url.PathEscape(id.String()), nil); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	return nil
}

func (s *UserService) DeactivateUser(ctx context.Context, id models.ID) (*models.User, error) {
	return s.setState(ctx, "/deactivate-usuario/", id)
}

func (s *UserService) ActivateUser(ctx context.Context, id models.ID) (*models.User, error) {
	return s.setState(ctx, "/activate-usuario/", id)
}

func (s *UserService) setState(ctx context.Context, route string, id models.ID) (*models.User, error) {
	var u models.User
	if err := s.API.Put(ctx, basePath+route+url.PathEscape(id.String()), nil, &u); err != nil {
		return nil, fmt.Errorf("failed to change state of user %s: %w", id, err)
	}
	return &u, nil
}
