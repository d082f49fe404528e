// Package server exposes the assistant over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/yaungchi/assistant-go/internal/auth"
	"github.com/yaungchi/assistant-go/internal/chat"
	"github.com/yaungchi/assistant-go/internal/market"
	"github.com/yaungchi/assistant-go/internal/metrics"
	"github.com/yaungchi/assistant-go/internal/models"
	"github.com/yaungchi/assistant-go/internal/quota"
	"github.com/yaungchi/assistant-go/internal/weather"
)

// Directory is the conversation and user lookup surface the handlers need
// beyond the domain services. Satisfied by *db.Client.
type Directory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateConversation(ctx context.Context, id, userID, language string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	UpdateConversationTitle(ctx context.Context, id, title string) error
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// LimitsSource resolves quota state for the limits endpoint.
// Satisfied by *quota.Tracker.
type LimitsSource interface {
	CheckLimits(ctx context.Context, userID string) (quota.Limits, error)
}

// Config holds the server listen settings.
type Config struct {
	Port int
}

// Server is the HTTP API server.
type Server struct {
	cfg       Config
	dir       Directory
	auth      *auth.Service
	pipeline  *chat.Service
	titler    *chat.Titler
	limits    LimitsSource
	weather   *weather.Service
	market    *market.Service
	hub       *Hub
	log       *slog.Logger
	metrics   *metrics.Collector
	http      *http.Server
}

// Deps bundles everything the server needs.
type Deps struct {
	Directory Directory
	Auth      *auth.Service
	Pipeline  *chat.Service
	Titler    *chat.Titler
	Limits    LimitsSource
	Weather   *weather.Service
	Market    *market.Service
	Log       *slog.Logger
	Metrics   *metrics.Collector
}

// New creates the API server. The titler and metrics collector may be nil.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		dir:      deps.Directory,
		auth:     deps.Auth,
		pipeline: deps.Pipeline,
		titler:   deps.Titler,
		limits:   deps.Limits,
		weather:  deps.Weather,
		market:   deps.Market,
		hub:      NewHub(deps.Log),
		log:      deps.Log,
		metrics:  deps.Metrics,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/code", s.handleRequestCode)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Put("/language", s.handleUpdateLanguage)
			r.Get("/limits", s.handleLimits)
			r.Get("/subscription", s.handleSubscription)
			r.Post("/subscription/upgrade", s.handleUpgrade)
			r.Get("/conversations", s.handleListConversations)
			r.Post("/conversations", s.handleCreateConversation)
		})

		r.Route("/conversations/{conversationID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteConversation)
			r.Put("/title", s.handleRenameConversation)
			r.Get("/messages", s.handleListMessages)
			r.Post("/messages", s.handleSendMessage)
			r.Get("/stream", s.handleStream)
		})

		r.Get("/weather", s.handleWeather)
		r.Get("/market", s.handleMarket)
		r.Get("/stats", s.handleStats)
	})

	return r
}

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
