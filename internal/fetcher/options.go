package fetcher

import (
	"context"
	"time"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/errlog"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/resilience"
)

// Options configures a Client.
type Options struct {
	BaseURL         string
	APIPrefix       string
	BootstrapPath   string
	FeaturePath     string
	BootstrapCookie string
	AuthCookie      string

	// MaxRetries bounds session acquisition attempts; RetryDelay separates them.
	MaxRetries int
	RetryDelay time.Duration

	// RefreshThreshold is the number of requests a session serves before it
	// is replaced.
	RefreshThreshold int

	BootstrapTimeout time.Duration
	PrimeTimeout     time.Duration
	RequestTimeout   time.Duration

	JitterMin time.Duration
	JitterMax time.Duration

	// RequestsPerSecond enables a token-bucket limiter when > 0.
	RequestsPerSecond float64

	Headers    map[string]string
	UserAgents []string
	TLSBypass  bool

	RefererPrefix  string
	DefaultReferer string

	// Retry governs per-page attempts.
	Retry resilience.RetryConfig

	ErrLog  *errlog.Log
	Metrics *monitoring.Metrics

	// Sleep pauses between requests; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// OptionsFromConfig maps the session and fetch config sections onto Options.
// headers is the loaded request-header template (may be nil).
func OptionsFromConfig(cfg *config.Config, headers map[string]string) Options {
	s := cfg.Session
	return Options{
		BaseURL:           s.BaseURL,
		APIPrefix:         s.APIPrefix,
		BootstrapPath:     s.BootstrapPath,
		FeaturePath:       s.FeaturePath,
		BootstrapCookie:   s.BootstrapCookie,
		AuthCookie:        s.AuthCookie,
		MaxRetries:        s.MaxRetries,
		RetryDelay:        s.RetryDelay(),
		RefreshThreshold:  s.RefreshThreshold,
		BootstrapTimeout:  time.Duration(s.BootstrapTimeout) * time.Second,
		PrimeTimeout:      time.Duration(s.PrimeTimeout) * time.Second,
		RequestTimeout:    time.Duration(s.RequestTimeout) * time.Second,
		JitterMin:         time.Duration(s.JitterMinMs) * time.Millisecond,
		JitterMax:         time.Duration(s.JitterMaxMs) * time.Millisecond,
		RequestsPerSecond: s.RequestsPerSec,
		Headers:           headers,
		UserAgents:        s.UserAgents,
		TLSBypass:         s.TLSBypass,
		RefererPrefix:     s.RefererPrefix,
		DefaultReferer:    s.DefaultReferer,
		Retry:             resilience.FromDelayMs(cfg.Fetch.MaxAttempts, cfg.Fetch.RetryDelayMs),
	}
}

func (o Options) withDefaults() Options {
	if o.APIPrefix == "" {
		o.APIPrefix = "/api/"
	}
	if o.BootstrapPath == "" {
		o.BootstrapPath = "/"
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RefreshThreshold <= 0 {
		o.RefreshThreshold = 20
	}
	if o.BootstrapTimeout <= 0 {
		o.BootstrapTimeout = 15 * time.Second
	}
	if o.PrimeTimeout <= 0 {
		o.PrimeTimeout = 10 * time.Second
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.JitterMax < o.JitterMin {
		o.JitterMax = o.JitterMin
	}
	if o.RefererPrefix == "" {
		o.RefererPrefix = "/companies-listing/"
	}
	if len(o.Headers) == 0 {
		o.Headers = DefaultHeaders()
	}
	if len(o.UserAgents) == 0 {
		o.UserAgents = DefaultUserAgents
	}
	if o.ErrLog == nil {
		o.ErrLog = errlog.Discard()
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
