package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalid           = errors.New("invalid")
	ErrTooMany           = errors.New("too many requests")
	ErrInternal          = errors.New("internal")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyDocument     = errors.New("document has no extractable text")
	ErrSourceUnavailable = errors.New("document source unavailable")
	ErrRateLimited       = errors.New("upstream rate limited")
	ErrTransport         = errors.New("upstream transport error")
	ErrEmptyResponse     = errors.New("empty generation response")
	ErrNoRelevantContext = errors.New("no relevant context found")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether a generation failure is worth another attempt.
// Empty/blocked responses are terminal; only throttling and transport
// failures are retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransport)
}
