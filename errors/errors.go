package errors

import (
	"context"
	stderrors "errors"
	"net/http"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = stderrors.New("invalid input")

	// ErrNotConfigured indicates that no usable provider backend could be resolved
	ErrNotConfigured = stderrors.New("provider not configured")
)

// Kind is the client-facing error category carried in a failure envelope.
type Kind string

const (
	// KindValidationOrRuntime covers envelope and payload schema failures.
	KindValidationOrRuntime Kind = "VALIDATION_OR_RUNTIME"
	// KindValidation covers content validation failures reported by the upstream backend.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindUpstream covers upstream unavailability and quota exhaustion.
	KindUpstream Kind = "OPENROUTER_ERROR"
	// KindRuntime covers everything else, including unparsable request bodies.
	KindRuntime Kind = "RUNTIME_ERROR"
)

// Status returns the HTTP status code associated with the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidationOrRuntime, KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure that has already been classified into a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error that keeps cause for errors.Is/As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Normalize collapses any failure into exactly one classified Error.
// A nil error yields nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if stderrors.As(err, &classified) && classified != nil {
		return classified
	}

	var upstream *UpstreamError
	if stderrors.As(err, &upstream) && upstream != nil {
		return &Error{Kind: upstream.Class.Kind(), Message: upstream.Message, Err: err}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindRuntime, Message: "upstream request timed out", Err: err}
	}
	if stderrors.Is(err, context.Canceled) {
		return &Error{Kind: KindRuntime, Message: "request canceled", Err: err}
	}

	return &Error{Kind: KindRuntime, Message: err.Error(), Err: err}
}
