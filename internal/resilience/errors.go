package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// TransientError is a failure worth another attempt: a throttled or failing
// portal response, or a dropped connection.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError marks err as retryable. statusCode is 0 when no response
// was received.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// AuthError means the portal no longer accepts the cookie session: an empty
// body, an HTML page where JSON was expected, or a 401/403. The fetch is
// retried on a fresh session.
type AuthError struct {
	Reason     string
	StatusCode int
}

func (e *AuthError) Error() string { return "session rejected: " + e.Reason }

// NewAuthError returns an AuthError with the given reason.
func NewAuthError(reason string, statusCode int) *AuthError {
	return &AuthError{Reason: reason, StatusCode: statusCode}
}

// IsAuthFailure reports whether err wraps an AuthError.
func IsAuthFailure(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// resty and net/http flatten some network failures into plain strings.
var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"client.timeout exceeded",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err is worth retrying: a TransientError or
// AuthError anywhere in the chain, a network timeout, a refused or reset
// connection, or a message matching a known network failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) || IsAuthFailure(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether a response status is worth retrying.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsAuthHTTPStatus reports whether the portal answered with a status that
// means the cookie session is no longer accepted.
func IsAuthHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden
}
