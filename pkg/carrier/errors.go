package carrier

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a carrier failure.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindAuthFailure       Kind = "AUTH_FAILURE"
	KindRateLimit         Kind = "RATE_LIMIT"
	KindNetworkTimeout    Kind = "NETWORK_TIMEOUT"
	KindMalformedResponse Kind = "MALFORMED_RESPONSE"
	KindCarrierError      Kind = "CARRIER_ERROR"
	KindUnknown           Kind = "UNKNOWN"
)

// Kinds lists every error kind.
func Kinds() []Kind {
	return []Kind{
		KindValidation, KindInvalidRequest, KindAuthFailure, KindRateLimit,
		KindNetworkTimeout, KindMalformedResponse, KindCarrierError, KindUnknown,
	}
}

// Retryable reports whether a failure of this kind may succeed if the same
// request is sent again.
func (k Kind) Retryable() bool {
	return k == KindRateLimit || k == KindNetworkTimeout
}

// HTTPStatus returns the response status an HTTP surface should use for k.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidRequest:
		return http.StatusBadRequest
	case KindAuthFailure:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNetworkTimeout:
		return http.StatusGatewayTimeout
	case KindMalformedResponse, KindCarrierError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CarrierError is the only error representation surfaced by carrier adapters.
// Build it with NewError or Errorf so Retryable follows Kind. AsCarrierError
// and IsRetryable derive retryability from Kind for values built by hand.
type CarrierError struct {
	Kind      Kind
	Carrier   string
	Message   string
	Retryable bool
	Cause     error
}

// NewError creates a CarrierError whose retryability follows its kind.
func NewError(kind Kind, carrier, message string) *CarrierError {
	return &CarrierError{
		Kind:      kind,
		Carrier:   carrier,
		Message:   message,
		Retryable: kind.Retryable(),
	}
}

// Errorf creates a CarrierError with a formatted message.
func Errorf(kind Kind, carrier, format string, args ...any) *CarrierError {
	return NewError(kind, carrier, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Carrier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CarrierError. Two carrier errors match when
// they share a kind.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause adds a cause to the error.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// Sentinel errors raised by the registry. They are not error kinds.
var (
	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrDuplicateCarrier indicates a carrier with the same identifier is
	// already registered.
	ErrDuplicateCarrier = errors.New("duplicate carrier")
)

// AsCarrierError returns err as a *CarrierError. Errors that are not already
// classified become KindUnknown with a generic message; the original error is
// kept only as the cause.
func AsCarrierError(err error, carrierID string) *CarrierError {
	if err == nil {
		return nil
	}
	var ce *CarrierError
	if errors.As(err, &ce) {
		if ce.Retryable != ce.Kind.Retryable() {
			fixed := *ce
			fixed.Retryable = ce.Kind.Retryable()
			return &fixed
		}
		return ce
	}
	return NewError(KindUnknown, carrierID, "unexpected error").WithCause(err)
}

// KindOf returns the kind of err, or KindUnknown when err is not a
// CarrierError.
func KindOf(err error) Kind {
	var ce *CarrierError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var ce *CarrierError
	if errors.As(err, &ce) {
		return ce.Kind.Retryable()
	}
	return false
}
