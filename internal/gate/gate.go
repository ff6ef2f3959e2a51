package gate

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/token"
)

var (
	ErrUnauthenticated = errors.New("no valid session")
	ErrForbidden       = errors.New("role is not allowed")
)

var knownRoles = map[model.Role]struct{}{
	model.RoleHelper:     {},
	model.RoleSuperadmin: {},
}

func ParseRole(value string) (model.Role, error) {
	role := model.Role(value)
	if _, ok := knownRoles[role]; !ok {
		return "", errors.New("unknown role " + value)
	}
	return role, nil
}

/* Политика доступа - проверка роли сессии на вхождение в набор.
 * Сессия разбирается на каждом запросе, решения не кешируются. */
type RoleSet map[model.Role]struct{}

func Roles(roles ...model.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		if _, ok := knownRoles[role]; ok {
			set[role] = struct{}{}
		}
	}
	return set
}

var (
	Superadmin = Roles(model.RoleSuperadmin)
	Staff      = Roles(model.RoleHelper, model.RoleSuperadmin)
)

func (s RoleSet) Contains(role model.Role) bool {
	_, ok := s[role]
	return ok
}

// Allow is a pure predicate. Nil claims are never allowed.
func Allow(claims *token.Claims, allowed RoleSet) bool {
	return Check(claims, allowed) == nil
}

func Check(claims *token.Claims, allowed RoleSet) error {
	if claims == nil || claims.Email == "" {
		return ErrUnauthenticated
	}
	if !allowed.Contains(claims.UserRole) {
		return ErrForbidden
	}
	return nil
}

func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok && claims != nil
}

type Gate struct {
	logger     *zap.Logger
	secret     []byte
	cookieName string
}

func New(logger *zap.Logger, secret []byte, cookieName string) *Gate {
	return &Gate{
		logger:     logger,
		secret:     secret,
		cookieName: cookieName,
	}
}

// Claims decodes the session of req, nil when absent or invalid.
func (g *Gate) Claims(req *http.Request) *token.Claims {
	return token.FromRequestVerified(req, g.cookieName, g.secret)
}

// Require stops the request with 401 or 403 unless the session role is in allowed.
func (g *Gate) Require(allowed RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims := g.Claims(req)
			if err := Check(claims, allowed); err != nil {
				status := StatusFor(err)
				http.Error(w, http.StatusText(status), status)
				g.logger.Debug("Request denied", zap.Error(err),
					zap.String("ip", req.RemoteAddr),
					zap.String("path", req.URL.Path))
				return
			}
			next.ServeHTTP(w, req.WithContext(WithClaims(req.Context(), claims)))
		})
	}
}
