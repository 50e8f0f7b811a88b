package ttsapi

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Unlimited is the sentinel the API uses for a quota without a ceiling.
const Unlimited int64 = -1

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// InProgress reports whether the job is still queued or running.
func (s JobStatus) InProgress() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing:
		return true
	default:
		return false
	}
}

// User is the profile returned on login and registration. Fields the client
// does not model are kept in Extra and written back unchanged.
type User struct {
	ID    string                     `json:"id"`
	Name  string                     `json:"name"`
	Email string                     `json:"email"`
	Extra map[string]json.RawMessage `json:"-"`
}

// DisplayName prefers the name and falls back to the e-mail address.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return u.Email
}

func (u *User) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*u = User{}
	for k, v := range fields {
		switch k {
		case "id":
			u.ID = scalarString(v)
		case "name":
			u.Name = scalarString(v)
		case "email":
			u.Email = scalarString(v)
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]json.RawMessage)
			}
			u.Extra[k] = v
		}
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+3)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	out["name"] = u.Name
	out["email"] = u.Email
	return json.Marshal(out)
}

// scalarString accepts ids sent either as JSON strings or numbers.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Plan struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	CharactersLimit  int64    `json:"characters_limit"`
	GenerationsLimit int64    `json:"generations_limit"`
	Features         []string `json:"features,omitempty"`
}

type PlansResult struct {
	Plans []Plan `json:"plans"`
}

type Subscription struct {
	Plan   string `json:"plan"`
	Status string `json:"status,omitempty"`
}

// Usage is a read-only snapshot of the current billing period.
type Usage struct {
	CharactersUsed   int64 `json:"characters_used"`
	CharactersLimit  int64 `json:"characters_limit"`
	GenerationsUsed  int64 `json:"generations_used"`
	GenerationsLimit int64 `json:"generations_limit"`
}

type SubscriptionResult struct {
	Subscription *Subscription `json:"subscription"`
	Usage        *Usage        `json:"usage"`
}

type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender"`
}

type VoicesResult struct {
	Total  int     `json:"total"`
	Voices []Voice `json:"voices"`
}

// VoiceSample points at externally hosted audio that stops working after
// ExpiresIn seconds. It must not be persisted.
type VoiceSample struct {
	VoiceID   string `json:"voice_id"`
	AudioURL  string `json:"audio_url"`
	ExpiresIn int    `json:"expires_in"`
}

// ExpiresAt is the instant the sample URL stops being valid when it was
// fetched at fetchedAt.
func (v VoiceSample) ExpiresAt(fetchedAt time.Time) time.Time {
	return fetchedAt.Add(time.Duration(v.ExpiresIn) * time.Second)
}

// GenerationRequest is the body of POST /generate.
type GenerationRequest struct {
	Text         string   `json:"text"`
	VoiceID      string   `json:"voice_id"`
	Language     string   `json:"language"`
	Exaggeration *float64 `json:"exaggeration,omitempty"`
	CFGWeight    *float64 `json:"cfg_weight,omitempty"`
}

type Submission struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

type Job struct {
	JobID     string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	ResultURL string    `json:"result_url,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type jobResult struct {
	Job *Job `json:"job"`
}
