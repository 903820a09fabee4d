package provider

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/pkg/apollo"
	"github.com/sells-group/prospect-cli/pkg/clearbit"
	"github.com/sells-group/prospect-cli/pkg/hunter"
)

var errQuotaExhausted = eris.New("call quota exhausted")

// Kind classifies a provider failure. Every kind is non-fatal to a Lead.
type Kind string

// Failure kinds.
const (
	KindAuth           Kind = "auth_error"
	KindRateLimited    Kind = "rate_limited"
	KindPlanRestricted Kind = "plan_restricted"
	KindTransient      Kind = "transient"
	KindNotFound       Kind = "not_found"
)

// Error is a classified provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("provider %s [%s]", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound returns a not_found error for a provider.
func NotFound(provider string) *Error {
	return &Error{Kind: KindNotFound, Provider: provider}
}

// FromStatus maps an HTTP status code to a failure kind.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusPaymentRequired, status == http.StatusForbidden:
		return KindPlanRestricted
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusNotFound, status == http.StatusUnprocessableEntity:
		return KindNotFound
	default:
		return KindTransient
	}
}

// Classify returns the failure kind of err. Unclassified errors, including
// timeouts and network failures, are transient.
func Classify(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// Wrap converts a client error into a classified *Error. Errors without an
// HTTP status (network failures, timeouts) are transient.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	status := statusOf(err)
	kind := KindTransient
	if status != 0 {
		kind = FromStatus(status)
	}
	return &Error{Kind: kind, Provider: provider, Status: status, Err: err}
}

func statusOf(err error) int {
	var ae *apollo.APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var he *hunter.APIError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	var ce *clearbit.APIError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
