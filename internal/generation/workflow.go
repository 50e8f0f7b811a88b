package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/genesisvoice/internal/observability"
	"github.com/antoniostano/genesisvoice/internal/policy"
	"github.com/antoniostano/genesisvoice/internal/session"
	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30

	msgJobFailed     = "Generation failed"
	msgMissingJobID  = "Invalid response from server: missing job id"
	msgSessionFailed = "Could not read session"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInvalidRequest  = errors.New("invalid generation request")
)

// API is the part of the TTS API a generation run needs.
type API interface {
	SubmitGeneration(ctx context.Context, req ttsapi.GenerationRequest, token string) (*ttsapi.Submission, error)
	GetJob(ctx context.Context, jobID string) (*ttsapi.Job, error)
}

type Config struct {
	// Interval is the wait before every status poll, including the first.
	Interval time.Duration
	// MaxAttempts bounds the number of status polls per run.
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Workflow submits a generation and polls its job until an outcome is known.
// It holds no per-run state, so any number of runs may share one Workflow.
type Workflow struct {
	api     API
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

func NewWorkflow(api API, cfg Config, opts ...Option) *Workflow {
	w := &Workflow{
		api:    api,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		sleep:  sleepContext,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Config() Config { return w.cfg }

// Start validates req, reads the session token and launches a run. The run
// is bound to ctx: cancelling ctx cancels the run just like Handle.Cancel.
// Without a token Start returns ErrUnauthenticated and issues no request.
func (w *Workflow) Start(ctx context.Context, sess *session.Session, req Request) (*Handle, error) {
	req.Text = strings.TrimSpace(req.Text)
	req.VoiceID = strings.TrimSpace(req.VoiceID)
	req.Language = strings.TrimSpace(req.Language)
	if req.Text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if req.VoiceID == "" {
		return nil, fmt.Errorf("%w: voice_id is required", ErrInvalidRequest)
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}

	token, ok, err := sess.Token(ctx)
	if err != nil {
		w.logger.Warn("generation session read failed", "namespace", sess.Namespace(), "error", err)
		return nil, fmt.Errorf("%s: %w", msgSessionFailed, ErrUnauthenticated)
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	now := w.now()
	runCtx, cancel := context.WithCancel(ctx)
	h := newHandle(Snapshot{
		ID:          uuid.NewString(),
		State:       StateIdle,
		VoiceID:     req.VoiceID,
		Language:    req.Language,
		TextLength:  len([]rune(req.Text)),
		MaxAttempts: w.cfg.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, cancel)

	if w.metrics != nil {
		w.metrics.ActiveGenerations.Inc()
	}
	go w.run(runCtx, h, req, token)
	return h, nil
}

// Run starts a generation and blocks until it is terminal.
func (w *Workflow) Run(ctx context.Context, sess *session.Session, req Request) (Snapshot, error) {
	h, err := w.Start(ctx, sess, req)
	if err != nil {
		return Snapshot{}, err
	}
	<-h.Done()
	return h.Snapshot(), nil
}

func (w *Workflow) run(ctx context.Context, h *Handle, req Request, token string) {
	defer close(h.done)
	defer h.cancel()
	logger := w.logger.With("generation_id", h.ID(), "voice_id", req.VoiceID, "language", req.Language)

	h.update(w.now(), func(s *Snapshot) { s.State = StateSubmitting })
	sub, err := w.api.SubmitGeneration(ctx, req.apiRequest(), token)
	if err != nil {
		w.fail(ctx, logger, h, err)
		return
	}
	jobID := strings.TrimSpace(sub.JobID)
	if jobID == "" {
		w.finish(logger, h, StateFailed, func(s *Snapshot) { s.Error = msgMissingJobID })
		return
	}
	logger = logger.With("job_id", jobID)
	logger.Info("generation submitted", "status", sub.Status, "text_length", len([]rune(req.Text)))

	h.update(w.now(), func(s *Snapshot) {
		s.State = StatePolling
		s.JobID = jobID
		s.JobStatus = sub.Status
	})

	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if err := w.sleep(ctx, w.cfg.Interval); err != nil {
			w.finish(logger, h, StateCancelled, nil)
			return
		}

		job, err := w.api.GetJob(ctx, jobID)
		if err != nil {
			h.update(w.now(), func(s *Snapshot) { s.Attempts = attempt })
			w.fail(ctx, logger, h, err)
			return
		}

		switch {
		case job.Status == ttsapi.JobStatusCompleted:
			if job.ResultURL == "" {
				logger.Warn("generation completed without result url", "attempt", attempt)
			}
			w.finish(logger, h, StateCompleted, func(s *Snapshot) {
				s.Attempts = attempt
				s.JobStatus = job.Status
				s.ResultURL = job.ResultURL
			})
			return
		case job.Status == ttsapi.JobStatusFailed:
			msg := strings.TrimSpace(job.Error)
			if msg == "" {
				msg = msgJobFailed
			}
			w.finish(logger, h, StateFailed, func(s *Snapshot) {
				s.Attempts = attempt
				s.JobStatus = job.Status
				s.Error = msg
			})
			return
		case job.Status == "" || job.Status.InProgress():
			h.update(w.now(), func(s *Snapshot) {
				s.Attempts = attempt
				if job.Status != "" {
					s.JobStatus = job.Status
				}
			})
		default:
			w.finish(logger, h, StateFailed, func(s *Snapshot) {
				s.Attempts = attempt
				s.JobStatus = job.Status
				s.Error = fmt.Sprintf("unrecognized job status %q", job.Status)
			})
			return
		}
	}

	w.finish(logger, h, StateTimedOut, nil)
}

// fail ends the run after a request error. An error caused by cancellation
// ends the run as cancelled instead.
func (w *Workflow) fail(ctx context.Context, logger *slog.Logger, h *Handle, err error) {
	if ctx.Err() != nil {
		w.finish(logger, h, StateCancelled, nil)
		return
	}
	logged, _ := policy.RedactPII(err.Error())
	logger.Warn("generation request failed", "outcome", ttsapi.Outcome(err), "error", logged)
	w.finish(logger, h, StateFailed, func(s *Snapshot) { s.Error = ttsapi.Message(err) })
}

func (w *Workflow) finish(logger *slog.Logger, h *Handle, state State, fn func(*Snapshot)) {
	applied := h.update(w.now(), func(s *Snapshot) {
		s.State = state
		if fn != nil {
			fn(s)
		}
	})
	if !applied {
		return
	}
	snap := h.Snapshot()
	if w.metrics != nil {
		w.metrics.ActiveGenerations.Dec()
	}
	w.metrics.ObserveGeneration(string(state), snap.Attempts)
	// Failure text comes from the server and may echo the account e-mail.
	logged, _ := policy.RedactPII(snap.Error)
	logger.Info("generation finished", "state", state, "attempts", snap.Attempts, "error", logged)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
