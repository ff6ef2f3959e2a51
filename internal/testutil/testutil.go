package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/TooLazyToCreate/lap-counter/config"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

// OpenDB opens a fresh SQLite database file in a temp dir and applies the schema.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := repository.Open(context.Background(), repository.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MintToken signs an HS512 session token independently of the token package.
func MintToken(t *testing.T, secret []byte, email, role string, ttl time.Duration) []byte {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Add(-time.Minute).Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if role != "" {
		claims["userRole"] = role
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return []byte(s)
}

// CreateUser stores a user with a bcrypt hash of password.
func CreateUser(t *testing.T, users repository.UserRepository, email string, role model.Role, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := users.Create(context.Background(), &model.User{
		Email:        email,
		Name:         email,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func Logger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// Config returns a server config for tests with the given session secret.
func Config(secret []byte) *config.Config {
	cfg := &config.Config{
		DefaultLocale:  "de",
		DatabaseDriver: repository.DriverSQLite,
		Secret:         secret,
	}
	cfg.Session.CookieName = "lapcounter_session"
	cfg.Session.MaxAge = 3600
	return cfg
}
