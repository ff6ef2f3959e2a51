// Command useradd creates a user who can sign in to the lap counter.
//
//	useradd -email anna@example.com -name Anna -role superadmin -password secret
//
// The database is taken from DATABASE_DRIVER and DATABASE_URL (go.env is read when present).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/TooLazyToCreate/lap-counter/internal/gate"
	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
)

type database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	Url    string `env:"DATABASE_URL"`
}

type options struct {
	Email    string
	Name     string
	Role     model.Role
	Password string
	Driver   string
	Url      string
}

func parseFlags(args []string) (options, error) {
	var (
		opts options
		role string
		db   database
	)
	if err := env.Parse(&db); err != nil {
		return options{}, err
	}

	flags := flag.NewFlagSet("useradd", flag.ContinueOnError)
	flags.StringVar(&opts.Email, "email", "", "E-mail used to sign in")
	flags.StringVar(&opts.Name, "name", "", "Display name")
	flags.StringVar(&role, "role", string(model.RoleHelper), "helper or superadmin")
	flags.StringVar(&opts.Password, "password", "", "Password (falls back to USERADD_PASSWORD)")
	flags.StringVar(&opts.Driver, "driver", db.Driver, "Database driver (postgres or sqlite)")
	flags.StringVar(&opts.Url, "db", db.Url, "Database URL")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return options{}, errors.New("-email is required")
	}
	if opts.Name = strings.TrimSpace(opts.Name); opts.Name == "" {
		opts.Name = opts.Email
	}
	parsed, err := gate.ParseRole(role)
	if err != nil {
		return options{}, err
	}
	opts.Role = parsed
	if opts.Password == "" {
		opts.Password = os.Getenv("USERADD_PASSWORD")
	}
	if opts.Password == "" {
		return options{}, errors.New("password required (use -password or USERADD_PASSWORD env)")
	}
	return opts, nil
}

func run(ctx context.Context, logger *zap.Logger, opts options) (*model.User, error) {
	db, err := repository.Open(ctx, opts.Driver, opts.Url)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := repository.NewUserRepository(logger, db).Create(ctx, &model.User{
		Email:        opts.Email,
		Name:         opts.Name,
		Role:         opts.Role,
		PasswordHash: string(hash),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("user %s already exists", opts.Email)
	}
	return user, err
}

func main() {
	if err := godotenv.Load("go.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error loading .env file:", err)
		os.Exit(1)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatal("Invalid arguments", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	user, err := run(ctx, logger, opts)
	if err != nil {
		logger.Fatal("Failed to create user", zap.Error(err))
	}
	logger.Info("User created",
		zap.String("user_uuid", user.UUID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
}
