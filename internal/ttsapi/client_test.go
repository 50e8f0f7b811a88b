package ttsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/genesisvoice/internal/observability"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func newUpstream(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		seen = append(seen, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(ts.Close)
	return ts, &seen
}

func TestLoginSendsCredentialsAndDecodesUser(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"token":"T","user":{"id":42,"name":"Sam","email":"sam@example.com","plan":"free"}}`)
	c := New(ts.URL+"/", WithHTTPClient(ts.Client()))

	res, err := c.Login(context.Background(), "sam@example.com", "secret-pass")
	require.NoError(t, err)

	assert.Equal(t, "T", res.Token)
	assert.Equal(t, "42", res.User.ID)
	assert.Equal(t, "Sam", res.User.Name)
	assert.JSONEq(t, `"free"`, string(res.User.Extra["plan"]))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/auth/login", got.Path)
	assert.Empty(t, got.Auth)
	assert.Equal(t, map[string]any{"email": "sam@example.com", "password": "secret-pass"}, got.Body)
}

func TestRegisterRejectsEmptyInputWithoutRequest(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	_, err := c.Register(context.Background(), "sam@example.com", "", "Sam")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, *seen)
}

func TestAPIErrorMessageIsVerbatim(t *testing.T) {
	ts, _ := newUpstream(t, http.StatusUnauthorized, `{"success":false,"error":"Token expired or invalid"}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	_, err := c.GetSubscription(context.Background(), "stale")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Token expired or invalid", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Token expired or invalid", Message(err))
}

func TestSubscriptionSendsBearerToken(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"subscription":{"plan":"pro"},"usage":{"characters_used":1200,"characters_limit":-1,"generations_used":3,"generations_limit":2000}}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	res, err := c.GetSubscription(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, "Bearer T", (*seen)[0].Auth)
	assert.Equal(t, "pro", res.Subscription.Plan)
	assert.Equal(t, Unlimited, res.Usage.CharactersLimit)
	assert.EqualValues(t, 2000, res.Usage.GenerationsLimit)
}

func TestSubscriptionWithoutTokenOmitsHeader(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusUnauthorized, `{"success":false,"error":"Authorization required"}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	_, err := c.GetSubscription(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, (*seen)[0].Auth)
	assert.Equal(t, "Authorization required", Message(err))
}

func TestMalformedResponseIsDistinctFromAPIError(t *testing.T) {
	ts, _ := newUpstream(t, http.StatusBadGateway, `<html>Bad Gateway</html>`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	_, err := c.ListPlans(context.Background())
	require.Error(t, err)

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, http.StatusBadGateway, malformed.StatusCode)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, "malformed", Outcome(err))
}

func TestTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(url)
	_, err := c.ListVoices(context.Background(), "")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "Request failed", Message(err))
}

func TestListVoicesLanguageFilter(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"total":1,"voices":[{"voice_id":"ko_harry_ko","name":"Harry KO","language":"ko","gender":"male"}]}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	res, err := c.ListVoices(context.Background(), "ko")
	require.NoError(t, err)
	assert.Equal(t, "language=ko", (*seen)[0].Query)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "ko_harry_ko", res.Voices[0].VoiceID)

	_, err = c.ListVoices(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, (*seen)[1].Query, "absent language means all languages")
}

func TestVoiceSampleEscapesID(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"audio_url":"https://s3.example/x.wav","expires_in":3600}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	res, err := c.VoiceSample(context.Background(), "a b/c")
	require.NoError(t, err)
	assert.Equal(t, "/voices/a%20b%2Fc/audio", (*seen)[0].Path)
	assert.Equal(t, "a b/c", res.VoiceID)

	fetched := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fetched.Add(time.Hour), res.ExpiresAt(fetched))
}

func TestSubmitGenerationBody(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"job_id":"abc123","status":"pending"}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	exaggeration := 0.7
	res, err := c.SubmitGeneration(context.Background(), GenerationRequest{
		Text:         "Hello",
		VoiceID:      "ko_harry_ko",
		Language:     "ko",
		Exaggeration: &exaggeration,
	}, "T")
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.JobID)
	assert.Equal(t, JobStatusPending, res.Status)

	got := (*seen)[0]
	assert.Equal(t, "/generate", got.Path)
	assert.Equal(t, "Bearer T", got.Auth)
	assert.Equal(t, map[string]any{
		"text":         "Hello",
		"voice_id":     "ko_harry_ko",
		"language":     "ko",
		"exaggeration": 0.7,
	}, got.Body)
}

func TestSubmitGenerationRequiresText(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	_, err := c.SubmitGeneration(context.Background(), GenerationRequest{Text: "   ", VoiceID: "v"}, "T")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, *seen)
}

func TestGetJob(t *testing.T) {
	ts, seen := newUpstream(t, http.StatusOK, `{"success":true,"job":{"job_id":"abc123","status":"completed","result_url":"https://x/y.mp3"}}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	job, err := c.GetJob(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "/jobs/abc123", (*seen)[0].Path)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, "https://x/y.mp3", job.ResultURL)
}

func TestGetJobWithoutJobObject(t *testing.T) {
	ts, _ := newUpstream(t, http.StatusOK, `{"success":true}`)
	c := New(ts.URL, WithHTTPClient(ts.Client()))

	job, err := c.GetJob(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", job.JobID)
	assert.Equal(t, JobStatus(""), job.Status)
}

func TestClientNeverRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := New(ts.URL, WithHTTPClient(ts.Client()))
	_, err := c.GetJob(context.Background(), "abc")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientRecordsMetrics(t *testing.T) {
	ts, _ := newUpstream(t, http.StatusOK, `{"success":false,"error":"nope"}`)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry(), "test")
	c := New(ts.URL, WithHTTPClient(ts.Client()), WithMetrics(metrics))

	_, _ = c.ListPlans(context.Background())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.APIRequests.WithLabelValues("list_plans", "api_error")))
}

func TestUserRoundTripKeepsExtraFields(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","email":"a@b.co","created_at":"2026-01-01"}`), &u))
	assert.Equal(t, "a@b.co", u.DisplayName())

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","name":"","email":"a@b.co","created_at":"2026-01-01"}`, string(raw))
}

func TestJobStatusVocabulary(t *testing.T) {
	assert.True(t, JobStatusPending.InProgress())
	assert.True(t, JobStatusProcessing.InProgress())
	assert.False(t, JobStatusCompleted.InProgress())
	assert.False(t, JobStatusFailed.InProgress())
	assert.False(t, JobStatus("queued").InProgress())
}

func TestTimeoutAppliesToCopyRegardlessOfOrder(t *testing.T) {
	shared := &http.Client{}

	before := New("http://api.test", WithTimeout(3*time.Second), WithHTTPClient(shared))
	after := New("http://api.test", WithHTTPClient(shared), WithTimeout(3*time.Second))

	assert.Equal(t, 3*time.Second, before.http.Timeout)
	assert.Equal(t, 3*time.Second, after.http.Timeout)
	assert.Zero(t, shared.Timeout, "caller's client is left untouched")
	assert.NotSame(t, shared, before.http)

	plain := New("http://api.test", WithHTTPClient(shared))
	assert.Same(t, shared, plain.http)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport", err: &TransportError{Op: "login", Err: io.ErrUnexpectedEOF}, want: true},
		{name: "rate limited", err: &APIError{Op: "generate", StatusCode: http.StatusTooManyRequests, Message: "slow down"}, want: true},
		{name: "unauthorized", err: &APIError{Op: "generate", StatusCode: http.StatusUnauthorized, Message: "no"}, want: false},
		{name: "gateway html", err: &MalformedResponseError{Op: "list_plans", StatusCode: http.StatusBadGateway}, want: true},
		{name: "ok html", err: &MalformedResponseError{Op: "list_plans", StatusCode: http.StatusOK}, want: false},
		{name: "invalid argument", err: ErrInvalidArgument, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
