package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/config"
	"github.com/TooLazyToCreate/lap-counter/internal/gate"
	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
	"github.com/TooLazyToCreate/lap-counter/internal/service"
	"github.com/TooLazyToCreate/lap-counter/internal/web"
)

const shutdownTimeout = 10 * time.Second

func Run(logger *zap.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseUrl)
	if err != nil {
		return err
	}
	logger.Info("Connected to database", zap.String("driver", cfg.DatabaseDriver))
	defer func() {
		err := db.Close()
		if err != nil {
			logger.Error("Connection to database was closed with error", zap.Error(err))
		}
	}()

	router := NewRouter(logger, cfg, service.Repositories{
		Users:        repository.NewUserRepository(logger, db),
		AccessTokens: repository.NewAccessTokenRepository(logger, db),
		Runners:      repository.NewRunnerRepository(logger, db),
		Laps:         repository.NewLapRepository(logger, db),
	})

	server := &http.Server{
		Addr:              cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Will serve on " + server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func NewRouter(logger *zap.Logger, cfg *config.Config, repos service.Repositories) http.Handler {
	g := gate.New(logger, cfg.Secret, cfg.Session.CookieName)
	localizer := i18n.New(cfg.DefaultLocale)
	svc := service.NewService(logger, cfg, g, localizer, repos)
	pages := web.NewPages(logger, g, localizer, repos.Runners)

	router := chi.NewRouter()

	// Это нагромождение выдаёт в RemoteAddr ip-адрес до переадресаций без порта
	router.Use(middleware.RealIP)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				r.RemoteAddr = host
			}
			next.ServeHTTP(w, r)
		})
	})
	router.Use(middleware.Recoverer)

	/* Устанавливаем свой логгер запросов в дебаг режиме */
	if cfg.IsDev() {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.Debug("Request to "+r.RequestURI, zap.String("ip", r.RemoteAddr), zap.String("method", r.Method))
				next.ServeHTTP(w, r)
			})
		})
	}

	/* На неверный метод отвечаем пустым 405, до проверки сессии */
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/static/*", web.Static())
	router.Get("/runners", pages.HandleRunners)

	router.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", svc.HandleLogin)
		api.Post("/auth/logout", svc.HandleLogout)
		api.Get("/auth/session", svc.HandleSession)

		api.Group(func(admin chi.Router) {
			admin.Use(g.Require(gate.Superadmin))
			admin.Post("/accessTokens/create", svc.HandleCreateAccessToken)
			admin.Get("/accessTokens", svc.HandleListAccessTokens)
		})

		api.Group(func(staff chi.Router) {
			staff.Use(g.Require(gate.Staff))
			staff.Get("/runners", svc.HandleListRunners)
			staff.Post("/runners", svc.HandleCreateRunner)
			staff.Get("/runners/{number}", svc.HandleGetRunner)
			staff.Delete("/runners/{number}", svc.HandleDeleteRunner)
			staff.Post("/runners/{number}/laps", svc.HandleCreateLap)
		})
	})

	return router
}
