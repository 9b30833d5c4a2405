package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sparsh2712/DataPipeline/internal/errlog"
	"github.com/sparsh2712/DataPipeline/internal/resilience"
)

const featurePath = "/companies-listing/corporate-filings-insider-trading"

// fakePortal mimics the exchange site: the root page sets the bootstrap
// cookie, the feature page sets the full-auth cookie, /api/ serves JSON.
type fakePortal struct {
	srv *httptest.Server

	bootstrapHits atomic.Int32
	featureHits   atomic.Int32
	apiHits       atomic.Int32
	primeHits     atomic.Int32

	withholdAuth bool
	withholdBoot bool

	mu       sync.Mutex
	api      http.HandlerFunc
	requests []*http.Request
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()
	p := &fakePortal{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		p.bootstrapHits.Add(1)
		if !p.withholdBoot {
			http.SetCookie(w, &http.Cookie{Name: "nsit", Value: "boot", Path: "/"})
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>home</title></html>"))
	})
	mux.HandleFunc(featurePath, func(w http.ResponseWriter, _ *http.Request) {
		p.featureHits.Add(1)
		if !p.withholdAuth {
			http.SetCookie(w, &http.Cookie{Name: "nseappid", Value: "auth", Path: "/"})
		}
		_, _ = w.Write([]byte("<html><title>feature</title></html>"))
	})
	mux.HandleFunc("/companies-listing/", func(w http.ResponseWriter, _ *http.Request) {
		p.primeHits.Add(1)
		_, _ = w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		p.apiHits.Add(1)
		p.mu.Lock()
		p.requests = append(p.requests, r.Clone(context.Background()))
		h := p.api
		p.mu.Unlock()
		if h == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		h(w, r)
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePortal) setAPI(h http.HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.api = h
}

func (p *fakePortal) lastAPIRequest() *http.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	return p.requests[len(p.requests)-1]
}

// sleepRecorder replaces real sleeps and records requested durations.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

func (s *sleepRecorder) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

func testOptions(p *fakePortal, sleeper *sleepRecorder) Options {
	return Options{
		BaseURL:          p.srv.URL,
		BootstrapPath:    "/",
		FeaturePath:      featurePath,
		BootstrapCookie:  "nsit",
		AuthCookie:       "nseappid",
		MaxRetries:       3,
		RetryDelay:       2 * time.Second,
		RefreshThreshold: 20,
		DefaultReferer:   "corporate-announcements",
		Retry:            resilience.FixedDelay(1, 0),
		ErrLog:           errlog.Discard(),
		Sleep:            sleeper.sleep,
	}
}

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}
