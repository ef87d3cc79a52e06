package relay_errors

import (
	"errors"
)

// Common errors
var (
	ErrMissingClientID       = errors.New("missing client id")
	ErrUpstreamNotConfigured = errors.New("rag service url is not configured")
	ErrUpstreamUnavailable   = errors.New("rag service unavailable")
	ErrUpstreamStatus        = errors.New("rag service returned an error status")
	ErrMalformedResponse     = errors.New("malformed rag service response")
	ErrRelayPanic            = errors.New("relay panicked")
)

// FailureMessage is the only failure text a client ever sees.
const FailureMessage = "The server was unable to complete this request. Try again later or notify support."
