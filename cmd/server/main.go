package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/autosave"
	"github.com/Simplici0/scopeworks/internal/config"
	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/logging"
	"github.com/Simplici0/scopeworks/internal/middleware"
	"github.com/Simplici0/scopeworks/internal/migrations"
	"github.com/Simplici0/scopeworks/internal/seed"
	"github.com/Simplici0/scopeworks/internal/service"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	auth          *authService
	catalog       *service.CatalogService
	projects      *service.ProjectService
	autosave      autosave.Scheduler
	autosaveDelay time.Duration
	logger        *zap.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, "scopeworks")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	for _, w := range cfg.Warnings() {
		logger.Warn("configuration incomplete", zap.String("detail", w))
	}
	if !cfg.IsDev() && cfg.SessionSecret == "" {
		logger.Fatal("SESSION_SECRET is required outside development")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, logger); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	uow := db.NewUnitOfWork(database, logger.Named("db"))
	stats, err := seed.Run(context.Background(), uow, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to seed defaults", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("inserts", stats.Inserts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debouncer := autosave.New(context.WithoutCancel(ctx), logger.Named("autosave"))
	srv := &server{
		auth:          newAuthService(uow, cfg.SessionSecret, !cfg.IsDev()),
		catalog:       service.NewCatalogService(uow, service.WithLogger(logger)),
		projects:      service.NewProjectService(uow, service.WithLogger(logger)),
		autosave:      debouncer,
		autosaveDelay: cfg.AutosaveDelay,
		logger:        logger,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	// Pending scope edits are written before the database closes.
	debouncer.Flush()
	debouncer.Stop()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/p/{slug}", s.handlePublicProposal)

	r.Route("/api", func(r chi.Router) {
		r.Get("/roles", s.handleListRoles)
		r.Post("/roles", s.handleCreateRole)
		r.Put("/roles/{id}", s.handleUpdateRole)

		r.Get("/overhead", s.handleGetOverhead)
		r.Post("/overhead", s.handleCreateOverhead)
		r.Put("/overhead/{id}", s.handleUpdateOverhead)
		r.Delete("/overhead/{id}", s.handleDeleteOverhead)
		r.Put("/settings/billable-days", s.handleSetBillableDays)

		r.Get("/services", s.handleListServices)

		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Route("/projects/{slug}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Put("/status", s.handleSetStatus)
			r.Put("/scope", s.handleSaveScope)
			r.Get("/versions", s.handleListVersions)
			r.Post("/versions", s.handleSaveVersion)
			r.Post("/versions/{n}/revert", s.handleRevert)
			r.Get("/compare", s.handleCompare)
			r.Get("/budget", s.handleBudget)
			r.Get("/export", s.handleExport)
		})
	})

	return r
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := s.auth.sessionEmail(r); !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	return path == "/login" || path == "/healthz" || strings.HasPrefix(path, "/p/")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid form")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(r.Context(), email, password)
	if err != nil {
		s.logger.Error("validate credentials", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := s.auth.startSession(w, r, email); err != nil {
		s.logger.Error("save session", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "authentication error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": strings.ToLower(email)})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.endSession(w, r); err != nil {
		s.logger.Warn("clear session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
