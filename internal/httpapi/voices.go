package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/genesisvoice/internal/catalog"
	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

type voiceSummary struct {
	VoiceID       string `json:"voice_id"`
	Name          string `json:"name"`
	Language      string `json:"language"`
	LanguageLabel string `json:"language_label"`
	Gender        string `json:"gender"`
}

type listVoicesResponse struct {
	Language       string         `json:"language,omitempty"`
	DefaultVoiceID string         `json:"default_voice_id"`
	Total          int            `json:"total"`
	Voices         []voiceSummary `json:"voices"`
}

type voiceSampleResponse struct {
	VoiceID   string    `json:"voice_id"`
	AudioURL  string    `json:"audio_url"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	lang := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("language")))
	res, err := s.api.ListVoices(r.Context(), lang)
	if err != nil {
		s.logger.Warn("voices load failed", "language", lang, "outcome", ttsapi.Outcome(err), "error", err)
		respondAPIError(w, err)
		return
	}

	voices := make([]voiceSummary, 0, len(res.Voices))
	for _, v := range res.Voices {
		voices = append(voices, voiceSummary{
			VoiceID:       strings.TrimSpace(v.VoiceID),
			Name:          strings.TrimSpace(v.Name),
			Language:      v.Language,
			LanguageLabel: catalog.LanguageLabel(v.Language),
			Gender:        v.Gender,
		})
	}
	total := res.Total
	if total == 0 {
		total = len(voices)
	}
	resp := listVoicesResponse{
		Language: lang,
		Total:    total,
		Voices:   voices,
	}
	// The first voice is preselected in the demo form.
	if len(voices) > 0 {
		resp.DefaultVoiceID = voices[0].VoiceID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoiceSample(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_voice_id", "missing voice id")
		return
	}
	fetched := time.Now().UTC()
	sample, err := s.api.VoiceSample(r.Context(), id)
	if err != nil {
		respondAPIError(w, err)
		return
	}
	if strings.TrimSpace(sample.AudioURL) == "" {
		respondError(w, http.StatusBadGateway, "malformed", "Invalid response from server")
		return
	}
	// Sample URLs are presigned and expire; never let a cache keep one.
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, voiceSampleResponse{
		VoiceID:   sample.VoiceID,
		AudioURL:  sample.AudioURL,
		ExpiresIn: sample.ExpiresIn,
		ExpiresAt: sample.ExpiresAt(fetched),
	})
}
