// Package ui provides the HTTP surface of mdtables: table editing streams,
// the command endpoint and the document index.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/leapstack-labs/mdtables/internal/document"
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/leapstack-labs/mdtables/internal/ui/notifier"
	"github.com/leapstack-labs/mdtables/internal/ui/router"
)

// Server is the main UI server.
type Server struct {
	store        *document.FileStore
	manager      *session.Manager
	sessionStore *sessions.CookieStore
	health       *transport.HealthMonitor
	notifier     *notifier.Hub
	port         int
	watch        bool
	maxAttempts  int
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Store         *document.FileStore
	History       session.History
	Picker        session.FilePicker
	CSVEncoding   csvio.Encoding
	Port          int
	Watch         bool
	SessionSecret string
	MaxAttempts   int
	PingInterval  time.Duration
	PingTimeout   time.Duration
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	health := transport.NewHealthMonitor(cfg.Logger)
	if cfg.PingInterval > 0 {
		health.Interval = cfg.PingInterval
	}
	if cfg.PingTimeout > 0 {
		health.Timeout = cfg.PingTimeout
	}

	hub := notifier.New()
	manager := session.NewManager(session.Options{
		Store:       cfg.Store,
		History:     cfg.History,
		Picker:      cfg.Picker,
		Broadcaster: hub,
		CSVEncoding: cfg.CSVEncoding,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      cfg.Logger,
	})

	return &Server{
		store:        cfg.Store,
		manager:      manager,
		sessionStore: sessionStore,
		health:       health,
		notifier:     hub,
		port:         cfg.Port,
		watch:        cfg.Watch,
		maxAttempts:  cfg.MaxAttempts,
		logger:       cfg.Logger,
	}
}

// Handler builds the HTTP handler with all routes mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, router.Deps{
		Manager:      s.manager,
		Documents:    s.store,
		SessionStore: s.sessionStore,
		Notifier:     s.notifier,
		Health:       s.health,
		MaxAttempts:  s.maxAttempts,
		Logger:       s.logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port), "root", s.store.Root)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.health.Start(egctx)
	defer s.health.Stop()

	// Start document watcher if enabled
	if s.watch {
		w := document.NewWatcher(s.store, func(uri string) {
			if err := s.manager.Reload(egctx, uri); err != nil {
				s.logger.Error("reload failed", "uri", uri, "error", err)
			}
		}, s.logger)
		eg.Go(func() error {
			return w.Run(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Manager returns the server's session manager.
func (s *Server) Manager() *session.Manager {
	return s.manager
}

// Notifier returns the server's broadcast hub.
func (s *Server) Notifier() *notifier.Hub {
	return s.notifier
}
