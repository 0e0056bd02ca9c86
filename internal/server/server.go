// Package server is the composition root: it opens the store, builds the
// services and handlers, and wires them onto the chi router.
//
// DEPENDENCY FLOW:
//
//	config.Config → Store (sqlite | postgres) → services → handlers → routes
//
// Every dependency is created here and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/config"
	"github.com/sakif/bookfinder/internal/handler"
	"github.com/sakif/bookfinder/internal/metrics"
	"github.com/sakif/bookfinder/internal/middleware"
	"github.com/sakif/bookfinder/internal/repository"
	"github.com/sakif/bookfinder/internal/repository/postgres"
	sqliteRepo "github.com/sakif/bookfinder/internal/repository/sqlite"
	"github.com/sakif/bookfinder/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the store. The store is closed when Run returns.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    repository.Store
	registry *prometheus.Registry
}

// New opens the configured store and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		registry: prometheus.NewRegistry(),
	}

	if err := s.setupRoutes(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore picks the backend. SQLite's parent directory is created if
// missing.
func openStore(ctx context.Context, cfg config.DBConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// setupRoutes wires middleware and routes.
//
// ROUTES:
//
//	GET    /                                       banner
//	GET    /healthz                                probe
//	GET    /metrics                                Prometheus
//	POST   /auth/register, /auth/login             public
//	GET    /books?query=                           auth
//	GET    /posts, POST /posts                     auth
//	GET    /posts/{id}                             auth
//	PUT    /posts/{id}, DELETE /posts/{id}         auth + owner
//	GET    /users/{username}/favorites             auth + self
//	POST   /users/{username}/favorites/{bookId}    auth + self
//	DELETE /users/{username}/favorites/{bookId}    auth + self
//
// Middleware runs in the order added; the soft auth stage runs on every
// request and the hard stage only inside the protected group. Recoverer
// sits inside the logger and the collector so a panicked request is still
// logged and counted as a 500.
func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)

	if err := s.registry.Register(collectors.NewGoCollector()); err != nil {
		return fmt.Errorf("registering go collector: %w", err)
	}
	if err := s.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return fmt.Errorf("registering process collector: %w", err)
	}
	collector := metrics.NewCollector(s.registry)

	if cfg.Catalog.APIKey == "" && cfg.Catalog.AccessToken == "" {
		s.logger.Warn("no catalog credentials configured; external search uses the anonymous quota")
	}
	books := catalog.New(catalog.Config{
		BaseURL:       cfg.Catalog.BaseURL,
		APIKey:        cfg.Catalog.APIKey,
		AccessToken:   cfg.Catalog.AccessToken,
		Timeout:       cfg.Catalog.Timeout,
		RatePerSecond: cfg.Catalog.RatePerSecond,
		Burst:         cfg.Catalog.Burst,
	})

	guard := service.NewOwnershipGuard(s.store, s.store)
	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	searchService := service.NewSearchService(books, s.store, collector, s.logger)
	postService := service.NewPostService(s.store, guard, s.logger)
	favoriteService := service.NewFavoriteService(s.store, s.store, s.store, books, guard, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	bookHandler := handler.NewBookHandler(searchService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(collector.Middleware)
	r.Use(middleware.Recoverer(s.logger))
	r.Use(middleware.CORS(cfg.HTTP.FrontendURL))
	r.Use(auth.Authenticate(tokens, s.logger))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", handler.HandleRoot)
	r.Get("/healthz", handler.HandleHealthz)
	r.Handle("/metrics", metrics.Handler(s.registry))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/books", bookHandler.HandleSearch)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.HandleList)
			r.Post("/", postHandler.HandleCreate)
			r.Get("/{id}", postHandler.HandleGet)
			r.Put("/{id}", postHandler.HandleUpdate)
			r.Delete("/{id}", postHandler.HandleDelete)
		})

		r.Route("/users/{username}/favorites", func(r chi.Router) {
			r.Get("/", favoriteHandler.HandleList)
			r.Post("/{bookId}", favoriteHandler.HandleAdd)
			r.Delete("/{bookId}", favoriteHandler.HandleRemove)
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes the store.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         s.config.HTTP.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("env", s.config.Env),
			slog.String("db_driver", s.config.DB.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
