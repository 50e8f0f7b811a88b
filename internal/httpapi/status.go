package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/antoniostano/genesisvoice/internal/observability"
	"github.com/antoniostano/genesisvoice/internal/session"
)

type checkStatus string

const (
	checkOK    checkStatus = "ok"
	checkWarn  checkStatus = "warn"
	checkError checkStatus = "error"
)

type statusCheck struct {
	ID     string      `json:"id"`
	Status checkStatus `json:"status"`
	Label  string      `json:"label"`
	Detail string      `json:"detail,omitempty"`
	Fix    string      `json:"fix,omitempty"`
}

type statusResponse struct {
	SessionStoreDriver string                        `json:"session_store_driver"`
	APIBaseURL         string                        `json:"api_base_url"`
	ActiveGenerations  int                           `json:"active_generations"`
	Checks             []statusCheck                 `json:"checks"`
	APILatency         observability.LatencySnapshot `json:"api_latency"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{
		SessionStoreDriver: s.cfg.SessionStoreDriver,
		APIBaseURL:         s.cfg.APIBaseURL,
		ActiveGenerations:  s.registry.ActiveCount(),
		Checks:             s.statusChecks(r.Context()),
		APILatency:         s.metrics.APILatencySnapshot(),
	})
}

// statusChecks inspects local dependencies only. The remote API is not
// probed so a status page never spends a user's quota.
func (s *Server) statusChecks(ctx context.Context) []statusCheck {
	checks := make([]statusCheck, 0, 4)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		checks = append(checks, statusCheck{
			ID:     "session_store",
			Status: checkError,
			Label:  "Session store",
			Detail: fmt.Sprintf("%s: %v", s.cfg.SessionStoreDriver, err),
			Fix:    "Check SESSION_STORE_DRIVER and its connection settings.",
		})
	} else {
		checks = append(checks, statusCheck{
			ID:     "session_store",
			Status: checkOK,
			Label:  "Session store",
			Detail: s.cfg.SessionStoreDriver,
		})
	}

	if session.StoreType(s.cfg.SessionStoreDriver) == session.StoreTypeMemory {
		checks = append(checks, statusCheck{
			ID:     "session_persistence",
			Status: checkWarn,
			Label:  "Session persistence",
			Detail: "in-memory only",
			Fix:    "Set SESSION_STORE_DRIVER=file, redis or postgres to keep logins across restarts.",
		})
	}

	checks = append(checks, statusCheck{
		ID:     "tts_api",
		Status: checkOK,
		Label:  "TTS API",
		Detail: s.cfg.APIBaseURL,
	})

	if !s.cfg.SessionCookieSecure {
		checks = append(checks, statusCheck{
			ID:     "cookie_secure",
			Status: checkWarn,
			Label:  "Session cookie",
			Detail: "sent over plain HTTP",
			Fix:    "Set SESSION_COOKIE_SECURE=true when serving over HTTPS.",
		})
	}
	return checks
}
