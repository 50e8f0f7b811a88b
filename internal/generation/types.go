package generation

import (
	"time"

	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}

// Request is one generation as entered by a user.
type Request struct {
	Text         string   `json:"text"`
	VoiceID      string   `json:"voice_id"`
	Language     string   `json:"language"`
	Exaggeration *float64 `json:"exaggeration,omitempty"`
	CFGWeight    *float64 `json:"cfg_weight,omitempty"`
}

func (r Request) apiRequest() ttsapi.GenerationRequest {
	return ttsapi.GenerationRequest{
		Text:         r.Text,
		VoiceID:      r.VoiceID,
		Language:     r.Language,
		Exaggeration: r.Exaggeration,
		CFGWeight:    r.CFGWeight,
	}
}

// Snapshot is a copy of a run's progress at one instant.
type Snapshot struct {
	ID          string           `json:"id"`
	State       State            `json:"state"`
	VoiceID     string           `json:"voice_id"`
	Language    string           `json:"language,omitempty"`
	TextLength  int              `json:"text_length"`
	JobID       string           `json:"job_id,omitempty"`
	JobStatus   ttsapi.JobStatus `json:"job_status,omitempty"`
	Attempts    int              `json:"attempts"`
	MaxAttempts int              `json:"max_attempts"`
	ResultURL   string           `json:"result_url,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	EndedAt     *time.Time       `json:"ended_at,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	if s.EndedAt != nil {
		ended := *s.EndedAt
		s.EndedAt = &ended
	}
	return s
}
