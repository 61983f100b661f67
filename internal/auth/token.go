package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client needs to know about its own access token.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry, with leeway
// subtracted so a request does not race the deadline.
func (c Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(c.ExpiresAt)
}

// FormatBearer builds the Authorization header value.
func FormatBearer(tokenType, token string) string {
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	return tokenType + " " + token
}

// ParseClaims reads the token's claims without verifying the signature.
// The backend is the one that verifies; the client only uses the claims to
// show who is logged in and to avoid sending tokens it knows are expired.
func ParseClaims(tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, errors.New("empty token")
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}

	var out Claims
	// The user service signs {"id": <int>, "rol": <str>}; other issuers use sub.
	if id, ok := claims["id"]; ok {
		out.UserID = stringify(id)
	} else if sub, err := claims.GetSubject(); err == nil {
		out.UserID = sub
	}
	if rol, ok := claims["rol"].(string); ok {
		out.Role = rol
	} else if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	if out.UserID == "" {
		return out, errors.New("subject claim not found in token")
	}
	return out, nil
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}
