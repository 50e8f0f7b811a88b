package ttsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/antoniostano/genesisvoice/internal/observability"
)

const maxResponseBytes = 4 << 20

// Client maps each TTS API operation onto exactly one HTTP exchange against a
// fixed base URL. It never retries and never caches.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	metrics *observability.Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps the platform default. A client
// passed with WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("register: email, password and name are required: %w", ErrInvalidArgument)
	}
	body := map[string]string{"email": email, "password": password, "name": name}
	var out AuthResult
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", nil, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("login: email and password are required: %w", ErrInvalidArgument)
	}
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPlans(ctx context.Context) (*PlansResult, error) {
	var out PlansResult
	if err := c.do(ctx, "list_plans", http.MethodGet, "/plans", nil, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubscription sends token as a bearer credential. An empty token is sent
// without the header so the server's own auth error reaches the caller.
func (c *Client) GetSubscription(ctx context.Context, token string) (*SubscriptionResult, error) {
	var out SubscriptionResult
	if err := c.do(ctx, "get_subscription", http.MethodGet, "/subscription", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVoices filters by language when it is non-empty.
func (c *Client) ListVoices(ctx context.Context, language string) (*VoicesResult, error) {
	var q url.Values
	if lang := strings.TrimSpace(language); lang != "" {
		q = url.Values{"language": []string{lang}}
	}
	var out VoicesResult
	if err := c.do(ctx, "list_voices", http.MethodGet, "/voices", q, "", nil, &out); err != nil {
		return nil, err
	}
	if out.Voices == nil {
		out.Voices = []Voice{}
	}
	return &out, nil
}

func (c *Client) VoiceSample(ctx context.Context, voiceID string) (*VoiceSample, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("voice sample: voice id is required: %w", ErrInvalidArgument)
	}
	var out VoiceSample
	path := "/voices/" + url.PathEscape(voiceID) + "/audio"
	if err := c.do(ctx, "voice_sample", http.MethodGet, path, nil, "", nil, &out); err != nil {
		return nil, err
	}
	if out.VoiceID == "" {
		out.VoiceID = voiceID
	}
	return &out, nil
}

func (c *Client) SubmitGeneration(ctx context.Context, req GenerationRequest, token string) (*Submission, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("submit generation: text is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, fmt.Errorf("submit generation: voice id is required: %w", ErrInvalidArgument)
	}
	var out Submission
	if err := c.do(ctx, "submit_generation", http.MethodPost, "/generate", nil, token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJob returns the job record. A response without a job object yields a
// Job with an empty status.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("get job: job id is required: %w", ErrInvalidArgument)
	}
	var out jobResult
	if err := c.do(ctx, "get_job", http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, "", nil, &out); err != nil {
		return nil, err
	}
	if out.Job == nil {
		return &Job{JobID: jobID}, nil
	}
	return out.Job, nil
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveAPIRequest(op, Outcome(err), time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &MalformedResponseError{
			Op:         op,
			StatusCode: res.StatusCode,
			Body:       excerpt(trimmed),
			Err:        errors.New("body is not a JSON object"),
		}
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return &MalformedResponseError{Op: op, StatusCode: res.StatusCode, Body: excerpt(trimmed), Err: err}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = msgNotSuccessful
		}
		return &APIError{Op: op, StatusCode: res.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(trimmed, out); err != nil {
			return &MalformedResponseError{Op: op, StatusCode: res.StatusCode, Body: excerpt(trimmed), Err: err}
		}
	}
	return nil
}

func excerpt(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
