package errors

import (
	"fmt"
	"net/http"
)

// Class tags a failure raised by a provider backend.
type Class int

const (
	// ClassOther is any upstream failure without a more specific class.
	ClassOther Class = iota
	// ClassQuota means the upstream rejected the call for quota or billing reasons.
	ClassQuota
	// ClassUnavailable means the upstream could not serve the call: outage,
	// missing credentials or unusable output.
	ClassUnavailable
	// ClassValidation means the upstream rejected the content of the request.
	ClassValidation
)

func (c Class) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassUnavailable:
		return "unavailable"
	case ClassValidation:
		return "validation"
	default:
		return "other"
	}
}

// Kind maps the class onto the client-facing error kind.
func (c Class) Kind() Kind {
	switch c {
	case ClassQuota, ClassUnavailable:
		return KindUpstream
	case ClassValidation:
		return KindValidation
	case ClassOther:
		return KindRuntime
	default:
		return KindRuntime
	}
}

// UpstreamError is the tagged failure a provider backend returns.
type UpstreamError struct {
	Class      Class
	Provider   string
	Code       string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	if e.Provider == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Upstream builds an UpstreamError.
func Upstream(class Class, provider, message string, cause error) *UpstreamError {
	return &UpstreamError{Class: class, Provider: provider, Message: message, Err: cause}
}

// NotConfigured reports a provider that cannot be resolved, typically because
// its credentials are missing. It wraps ErrNotConfigured.
func NotConfigured(provider, message string) *UpstreamError {
	return &UpstreamError{
		Class:    ClassUnavailable,
		Provider: provider,
		Message:  message,
		Err:      ErrNotConfigured,
	}
}

// ClassifyStatus maps an upstream HTTP status and error code onto a Class.
func ClassifyStatus(status int, code string) Class {
	if code == "insufficient_quota" {
		return ClassQuota
	}
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusPaymentRequired:
		return ClassQuota
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ClassValidation
	case status >= http.StatusInternalServerError:
		return ClassUnavailable
	default:
		return ClassOther
	}
}
