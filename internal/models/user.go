package models

type Role string

const (
	RoleUser  Role = "usuario"
	RoleAdmin Role = "administrador"
)

type User struct {
	ID       ID     `json:"id"`
	Username string `json:"usuario"`
	Email    string `json:"email"`
	Role     Role   `json:"rol"`
	State    string `json:"estado"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) Active() bool { return u.State != "desactivado" }

type LoginRequest struct {
	Username string
	Password string
}

type RegisterRequest struct {
	Username string `json:"usuario"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UpdateUserRequest struct {
	Username string `json:"usuario,omitempty"`
	Email    string `json:"email,omitempty"`
}

type UpdatePasswordRequest struct {
	Current string `json:"actual"`
	New     string `json:"nueva"`
}
