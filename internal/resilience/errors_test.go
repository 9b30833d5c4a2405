package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("column symbol missing"), false},
		{"transient", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped transient", fmt.Errorf("fetch page 3: %w", NewTransientError(errors.New("throttled"), 429)), true},
		{"auth", NewAuthError("empty body", 200), true},
		{"reset", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"dns timeout", &net.DNSError{Err: "lookup timed out", IsTimeout: true}, true},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "www.nseindia.com"}, true},
		{"tls message", errors.New("net/http: TLS handshake timeout"), true},
		{"eof message", errors.New(`Get "https://www.nseindia.com/api/x": unexpected EOF`), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 204, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestIsAuthHTTPStatus(t *testing.T) {
	assert.True(t, IsAuthHTTPStatus(401))
	assert.True(t, IsAuthHTTPStatus(403))
	assert.False(t, IsAuthHTTPStatus(429))
	assert.False(t, IsAuthHTTPStatus(500))
}

func TestAuthError(t *testing.T) {
	err := fmt.Errorf("fetch Insider_Trading: %w", NewAuthError("html instead of json", 200))

	assert.True(t, IsAuthFailure(err))
	assert.EqualError(t, errors.Unwrap(err), "session rejected: html instead of json")
	assert.False(t, IsAuthFailure(NewTransientError(errors.New("503"), 503)))
	assert.False(t, IsAuthFailure(nil))
}

func TestTransientError(t *testing.T) {
	inner := errors.New("upstream closed")
	te := NewTransientError(inner, 502)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, "upstream closed", te.Error())
	assert.Equal(t, 502, te.StatusCode)
}
