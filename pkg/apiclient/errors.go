package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrCancelled is reported when cancellation is observed before completion.
// It is expected during normal use and hosts do not show it as a failure.
var ErrCancelled = errors.New("apiclient: request cancelled")

// NetworkError covers connection, DNS, and timeout failures where no HTTP
// status was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("apiclient: network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is returned when the API responds with HTTP 401 or 403.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("apiclient: %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// RateLimitError is returned when the API responds with HTTP 429 (Too Many
// Requests). It carries an optional RetryAfter duration parsed from the
// Retry-After header. The client never retries; that is a caller concern.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("apiclient: rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("apiclient: rate limited: %s", e.Body)
}

// ServiceError covers HTTP 5xx responses, unexpected statuses, and responses
// whose body is not the expected chat-completion shape.
type ServiceError struct {
	Status int    // 0 when the failure is a malformed body on a 2xx response.
	Reason string
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("apiclient: service error %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("apiclient: service error: %s", e.Reason)
}

// ParseRetryAfter parses the Retry-After header value as either seconds
// (integer) or an HTTP-date (RFC 7231). Returns zero if unparseable or if the
// date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
		return 0
	}
	return 0
}
