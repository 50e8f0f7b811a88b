package httpapi

import (
	"net/http"

	"github.com/antoniostano/genesisvoice/internal/catalog"
)

type uiSettingsResponse struct {
	Authenticated   bool                  `json:"authenticated"`
	DefaultLanguage string                `json:"default_language"`
	Languages       []catalog.Language    `json:"languages"`
	Presets         []catalog.StylePreset `json:"presets"`
	DefaultPreset   string                `json:"default_preset"`
	PollIntervalMS  int64                 `json:"poll_interval_ms"`
	MaxPollAttempts int                   `json:"max_poll_attempts"`
}

func (s *Server) handleUISettings(w http.ResponseWriter, r *http.Request) {
	cfg := s.workflow.Config()
	defaultLanguage := s.cfg.DefaultLanguage
	if !catalog.SupportedLanguage(defaultLanguage) {
		defaultLanguage = catalog.Languages()[0].Code
	}
	respondJSON(w, http.StatusOK, uiSettingsResponse{
		Authenticated:   sessionFrom(r).IsAuthenticated(r.Context()),
		DefaultLanguage: defaultLanguage,
		Languages:       catalog.Languages(),
		Presets:         catalog.StylePresets(),
		DefaultPreset:   catalog.DefaultPreset,
		PollIntervalMS:  cfg.Interval.Milliseconds(),
		MaxPollAttempts: cfg.MaxAttempts,
	})
}
