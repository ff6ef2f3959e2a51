package token

import (
	"errors"
	"time"

	"github.com/kataras/jwt"

	"github.com/TooLazyToCreate/lap-counter/internal/model"
)

/* Содержимое сессионного токена. Роль - единственный вход для авторизации,
 * сам токен никаких прав не несёт. */
type Claims struct {
	Subject  string     `json:"sub,omitempty"`
	Email    string     `json:"email,omitempty"`
	Name     string     `json:"name,omitempty"`
	UserRole model.Role `json:"userRole,omitempty"`
}

func ClaimsFor(user *model.User) Claims {
	return Claims{
		Subject:  user.UUID,
		Email:    user.Email,
		Name:     user.Name,
		UserRole: user.Role,
	}
}

// Sign issues an HS512 session token valid for maxAge.
func Sign(secret []byte, claims Claims, maxAge time.Duration) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	return jwt.Sign(jwt.HS512, secret, claims, jwt.MaxAge(maxAge))
}
