package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a backend call failed.
type Kind int

const (
	// KindTransport covers network failures and timeouts.
	KindTransport Kind = iota
	// KindStatus is a non-2xx response.
	KindStatus
	// KindMalformed is a 2xx response whose body could not be understood.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is returned by every API call that reached (or tried to reach) the
// backend and failed.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string // verbatim "error" field of a non-2xx payload, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus && e.Message != "":
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Message)
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCanceled reports whether err stems from a cancelled context. Cancelled
// calls are no-ops for callers and are never surfaced.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindStatus && apiErr.Status == http.StatusNotFound
}

// Message picks the user-facing text for err: the backend's own message when
// it sent one, failed for other non-2xx answers, and retry for everything
// else (network trouble, malformed bodies).
func Message(err error, failed, retry string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindStatus {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return failed
	}
	return retry
}

func retryable(err error) bool {
	if IsCanceled(err) {
		return false
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return apiErr.Status >= http.StatusInternalServerError || apiErr.Status == http.StatusTooManyRequests
	}
	return false
}
