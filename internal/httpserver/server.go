// Package httpserver exposes the boundary HTTP surface: the top.gg vote
// webhook, the authorization endpoint for the message-handling collaborator,
// and read-only status queries. The ledger core itself does no HTTP.
package httpserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/turnledger/turnledger/internal/ledger"
	"github.com/turnledger/turnledger/internal/persona"
	"github.com/turnledger/turnledger/internal/reward"
	"github.com/turnledger/turnledger/internal/version"
)

// Server wires ledger service, reward engine and persona registry into REST
// endpoints.
type Server struct {
	svc      *ledger.Service
	rewards  *reward.Engine
	personas *persona.Registry

	webhookPath string
	webhookAuth string

	logger *log.Logger
}

// Options configures a Server.
type Options struct {
	WebhookPath string
	// WebhookAuth, when non-empty, must match the Authorization header of
	// webhook requests verbatim.
	WebhookAuth string
	Logger      *log.Logger
}

// New creates an HTTP server facade over the core services.
func New(svc *ledger.Service, rewards *reward.Engine, personas *persona.Registry, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.WebhookPath == "" {
		opts.WebhookPath = "/topgg/webhook"
	}
	return &Server{
		svc:         svc,
		rewards:     rewards,
		personas:    personas,
		webhookPath: opts.WebhookPath,
		webhookAuth: opts.WebhookAuth,
		logger:      opts.Logger,
	}
}

// Router builds the chi router for all endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post(s.webhookPath, s.handleVoteWebhook)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/users/{userID}/authorize", s.handleAuthorize)
		r.Get("/users/{userID}/status", s.handleStatus)
		r.Post("/users/{userID}/grants", s.handleManualGrant)
		r.Get("/personas", s.handleListPersonas)
	})
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Info()})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    http.StatusText(status),
			"message": message,
		},
	})
}
