package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Session is one cookie bundle plus the number of API requests it has
// served. It is replaced wholesale, never patched.
type Session struct {
	jar        *cookiejar.Jar
	base       *url.URL
	requests   int
	degraded   bool
	acquiredAt time.Time
}

func newSession(base *url.URL) *Session {
	// cookiejar.New only fails on a bad PublicSuffixList option.
	jar, _ := cookiejar.New(nil)
	return &Session{jar: jar, base: base, acquiredAt: time.Now()}
}

// Cookies returns the cookies the session would send to the site root.
func (s *Session) Cookies() []*http.Cookie {
	return s.jar.Cookies(s.base)
}

// Has reports whether a cookie named name is held for the site root.
func (s *Session) Has(name string) bool {
	return s.hasAt(s.base, name)
}

func (s *Session) hasAt(u *url.URL, name string) bool {
	for _, c := range s.jar.Cookies(u) {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Degraded reports whether acquisition ran out of attempts before the
// full-auth cookie appeared. A degraded session is usable but unreliable.
func (s *Session) Degraded() bool {
	return s.degraded
}

// Requests returns the number of API requests issued on this session.
func (s *Session) Requests() int {
	return s.requests
}

// AcquiredAt returns when the session was created.
func (s *Session) AcquiredAt() time.Time {
	return s.acquiredAt
}

func cookieNames(cs []*http.Cookie) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names
}

// AcquireSession performs the bootstrap and feature-page warm-up GETs until
// the full-auth cookie is present, sleeping a fixed delay between attempts.
// After maxRetries attempts it installs and returns a degraded session
// rather than failing. The only error is context cancellation.
func (c *Client) AcquireSession(ctx context.Context, maxRetries int) (*Session, error) {
	if maxRetries <= 0 {
		maxRetries = c.opts.MaxRetries
	}
	log := c.log.With(zap.String("operation", "acquire_session"))

	var s *Session
	for attempt := 1; attempt <= maxRetries; attempt++ {
		s = newSession(c.base)
		c.install(s)

		err := c.warmUp(ctx, s)
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "fetcher: acquire session")
		}
		if err == nil {
			log.Info("session acquired",
				zap.Int("attempt", attempt),
				zap.Strings("cookies", cookieNames(s.Cookies())),
			)
			c.opts.Metrics.Session("full")
			return s, nil
		}

		log.Warn("session warm-up incomplete",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if attempt < maxRetries {
			if err := c.opts.Sleep(ctx, c.opts.RetryDelay); err != nil {
				return nil, eris.Wrap(err, "fetcher: acquire session")
			}
		}
	}

	s.degraded = true
	log.Warn("could not obtain all necessary cookies, continuing with degraded session",
		zap.Strings("cookies", cookieNames(s.Cookies())),
	)
	c.opts.Metrics.Session("degraded")
	return s, nil
}

// warmUp visits the bootstrap page, then the feature page, checking the
// accumulated cookies after each.
func (c *Client) warmUp(ctx context.Context, s *Session) error {
	bootstrap := c.resolve(c.opts.BootstrapPath)
	if err := c.visit(ctx, bootstrap); err != nil {
		return eris.Wrap(err, "bootstrap page")
	}
	if c.opts.BootstrapCookie != "" && !s.hasAt(bootstrap, c.opts.BootstrapCookie) {
		return eris.Errorf("bootstrap page did not set %s", c.opts.BootstrapCookie)
	}

	check := bootstrap
	if c.opts.FeaturePath != "" {
		check = c.resolve(c.opts.FeaturePath)
		if err := c.visit(ctx, check); err != nil {
			return eris.Wrap(err, "feature page")
		}
	}
	if c.opts.AuthCookie != "" && !s.hasAt(check, c.opts.AuthCookie) {
		return eris.Errorf("feature page did not set %s", c.opts.AuthCookie)
	}
	return nil
}

func (c *Client) visit(ctx context.Context, u *url.URL) error {
	resp, err := c.get(ctx, u.String(), c.requestHeaders(""), c.opts.BootstrapTimeout)
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return eris.Errorf("http %d", resp.status)
	}
	return nil
}

// install makes s the client's current session and cookie jar.
func (c *Client) install(s *Session) {
	c.session = s
	c.http.SetCookieJar(s.jar)
}

// ensureSession is the refresh-if-needed precondition of every request.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.session != nil && c.session.requests >= c.opts.RefreshThreshold {
		c.log.Info("refreshing session",
			zap.Int("requests", c.session.requests),
			zap.Int("threshold", c.opts.RefreshThreshold),
		)
		c.session = nil
	}
	if c.session == nil {
		if _, err := c.AcquireSession(ctx, c.opts.MaxRetries); err != nil {
			return err
		}
	}
	c.session.requests++
	return nil
}

// invalidate drops the current session so the next request acquires a new one.
func (c *Client) invalidate() {
	c.session = nil
}

func drain(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	_ = r.Close()
}
