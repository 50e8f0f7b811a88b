package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/genesisvoice/internal/config"
	"github.com/antoniostano/genesisvoice/internal/generation"
	"github.com/antoniostano/genesisvoice/internal/observability"
	"github.com/antoniostano/genesisvoice/internal/session"
	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

// API is the part of the TTS API the pages and JSON endpoints call directly.
type API interface {
	Register(ctx context.Context, email, password, name string) (*ttsapi.AuthResult, error)
	Login(ctx context.Context, email, password string) (*ttsapi.AuthResult, error)
	ListPlans(ctx context.Context) (*ttsapi.PlansResult, error)
	GetSubscription(ctx context.Context, token string) (*ttsapi.SubscriptionResult, error)
	ListVoices(ctx context.Context, language string) (*ttsapi.VoicesResult, error)
	VoiceSample(ctx context.Context, voiceID string) (*ttsapi.VoiceSample, error)
}

type Server struct {
	cfg       config.Config
	store     session.Store
	api       API
	workflow  *generation.Workflow
	registry  *generation.Registry
	metrics   *observability.Metrics
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	static    http.Handler
	pages     *template.Template
	runCtx    context.Context
	cancelRun context.CancelFunc
}

func New(
	cfg config.Config,
	store session.Store,
	api API,
	workflow *generation.Workflow,
	registry *generation.Registry,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	runCtx, cancelRun := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		store:     store,
		api:       api,
		workflow:  workflow,
		registry:  registry,
		metrics:   metrics,
		logger:    logger,
		static:    newStaticHandler(),
		pages:     mustParsePages(),
		runCtx:    runCtx,
		cancelRun: cancelRun,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin pages may open a progress stream.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// Close cancels every generation run started through this server.
func (s *Server) Close() {
	s.cancelRun()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", s.static))

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleHome)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/register", s.handleRegisterPage)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/pricing", s.handlePricing)
		r.Get("/api-docs", s.handleAPIDocs)

		r.Route("/app", func(r chi.Router) {
			r.Get("/settings", s.handleUISettings)
			r.Get("/status", s.handleStatus)
			r.Get("/session", s.handleSessionInfo)
			r.Get("/voices", s.handleListVoices)
			r.Get("/voices/{id}/sample", s.handleVoiceSample)
			r.Get("/generations", s.handleListGenerations)
			r.Post("/generations", s.handleStartGeneration)
			r.Get("/generations/{id}", s.handleGetGeneration)
			r.Post("/generations/{id}/cancel", s.handleCancelGeneration)
			r.Get("/generations/{id}/ws", s.handleGenerationWS)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"session_store_driver": s.cfg.SessionStoreDriver,
		"active_generations":   s.registry.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := s.statusChecks(r.Context())
	status, code := "ready", http.StatusOK
	for _, c := range checks {
		if c.Status == checkError {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}
	respondJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondAPIError maps a TTS API client error onto the gateway's answer. The
// server's own message is passed through for application errors.
func respondAPIError(w http.ResponseWriter, err error) {
	var apiErr *ttsapi.APIError
	resp := errorResponse{Retryable: ttsapi.Retryable(err)}
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 {
			status = apiErr.StatusCode
		}
		resp.Code, resp.Error = "api_error", apiErr.Message
	case errors.Is(err, ttsapi.ErrInvalidArgument):
		status = http.StatusBadRequest
		resp.Code, resp.Error = "invalid_request", err.Error()
	default:
		resp.Code, resp.Error = ttsapi.Outcome(err), ttsapi.Message(err)
	}
	respondJSON(w, status, resp)
}
