package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrMissingAPIKey is returned before any request when no credential is configured.
var ErrMissingAPIKey = errors.New("tmdb: api key is not configured")

// ErrUnknownCategory is returned for a category the client cannot map to an endpoint.
var ErrUnknownCategory = errors.New("tmdb: unknown category")

// StatusError is a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s returned status %d", e.URL, e.StatusCode)
}

// ErrTimeout indicates the request did not complete in time.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network failure before a response arrived.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	return ErrConnection{Err: err}
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return "missing_key"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status *StatusError
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusUnauthorized:
			return "unauthorized"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		}
		return "status"
	}
	return "other"
}

// userMessage is the notification text for a failed request.
func userMessage(err error) string {
	switch errorTypeLabel(err) {
	case "missing_key":
		return "TMDB API key is not configured. Contact the administrator."
	case "unauthorized":
		return "TMDB rejected the API key."
	case "rate_limited":
		return "Too many requests to TMDB, try again shortly."
	case "timeout":
		return "TMDB did not respond in time."
	case "connection":
		return "Could not reach TMDB. Check the network connection."
	}
	return "Failed to load movies."
}
