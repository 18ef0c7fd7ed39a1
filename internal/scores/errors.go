package scores

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrNotFound means the provider has no data for the title and year.
	ErrNotFound = errors.New("not found")
	// ErrTransport covers timeouts, connection failures, throttling and 5xx.
	ErrTransport = errors.New("transport error")
	// ErrAuth means the provider rejected or lacks a credential.
	ErrAuth = errors.New("auth error")
)

// ProviderError attaches detail to one of the taxonomy markers.
type ProviderError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *ProviderError) Is(target error) bool { return target == e.Kind }

func (e *ProviderError) Unwrap() error { return e.Err }

// StatusError records a non-success HTTP status from a provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("http %d", e.Code)
}

// NewAuthError builds an auth failure with detail.
func NewAuthError(detail string) error {
	return &ProviderError{Kind: ErrAuth, Detail: detail}
}

// Classify maps an arbitrary adapter error onto the taxonomy. Errors that are
// already classified pass through unchanged; anything unrecognised counts as
// a transport failure so the resolver moves on to the next provider.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransport) || errors.Is(err, ErrAuth) {
		return err
	}
	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code == http.StatusUnauthorized || status.Code == http.StatusForbidden:
			return &ProviderError{Kind: ErrAuth, Err: err}
		case status.Code == http.StatusNotFound || status.Code == http.StatusNoContent:
			return &ProviderError{Kind: ErrNotFound, Err: err}
		default:
			return &ProviderError{Kind: ErrTransport, Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: ErrTransport, Detail: "timeout", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProviderError{Kind: ErrTransport, Detail: "timeout", Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ProviderError{Kind: ErrTransport, Err: err}
	}
	return &ProviderError{Kind: ErrTransport, Err: err}
}

// IsAuth reports whether err is an auth failure.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsNotFound reports whether err is a not-found answer.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
