package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Throttle paces API requests below the portal's bot wall. The portal signals
// overload two ways: a 429, or an auth-wall response (401/403, empty body,
// HTML page) once its edge decides the client is too fast. Either one halves
// the request rate, down to a quarter of the configured rate. The rate is
// doubled back only after recoverAfter consecutive clean pages.
type Throttle struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	ceiling      rate.Limit
	floor        rate.Limit
	streak       int
	recoverAfter int
}

const defaultRecoverAfter = 10

// NewThrottle creates a Throttle allowing rps requests per second.
func NewThrottle(rps float64) *Throttle {
	r := rate.Limit(rps)
	return &Throttle{
		limiter:      rate.NewLimiter(r, 1),
		ceiling:      r,
		floor:        r / 4,
		recoverAfter: defaultRecoverAfter,
	}
}

// Wait blocks until the next request may go out.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Backoff halves the rate after an overload signal.
func (t *Throttle) Backoff(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.streak = 0
	next := max(t.limiter.Limit()/2, t.floor)
	if next == t.limiter.Limit() {
		return
	}
	t.limiter.SetLimit(next)
	zap.L().Warn("fetcher: slowing down",
		zap.String("reason", reason),
		zap.Float64("requests_per_second", float64(next)),
	)
}

// Success records a clean page and restores rate once the streak is long
// enough.
func (t *Throttle) Success() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limiter.Limit() >= t.ceiling {
		return
	}
	t.streak++
	if t.streak < t.recoverAfter {
		return
	}
	t.streak = 0
	t.limiter.SetLimit(min(t.limiter.Limit()*2, t.ceiling))
}

// Limit returns the current requests-per-second limit.
func (t *Throttle) Limit() rate.Limit {
	return t.limiter.Limit()
}
