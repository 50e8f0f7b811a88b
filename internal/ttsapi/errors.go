package ttsapi

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

// TransportError means no usable response arrived: the request could not be
// sent or its body could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError means a response arrived but its body was not the
// JSON object the API promises.
type MalformedResponseError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// APIError carries a well-formed {"success": false} answer. Message is the
// server's text, unmodified.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

const (
	msgRequestFailed = "Request failed"
	msgMalformed     = "Invalid response from server"
	msgNotSuccessful = "Request was not successful"
)

// Message turns an error returned by Client into the text shown to a user:
// the server's message for API errors and a generic line for everything else.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return msgRequestFailed
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return msgMalformed
	}
	return err.Error()
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "api_error"
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "transport_error"
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return "malformed"
	}
	if errors.Is(err, ErrInvalidArgument) {
		return "invalid_argument"
	}
	return "error"
}

// Retryable reports whether asking again later could succeed: transport
// failures, rate limiting and upstream 5xx answers. The client itself never
// retries; callers decide.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return retryableStatus(malformed.StatusCode)
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
