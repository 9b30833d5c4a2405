package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/resilience"
)

// Client is the session fetch client. It is not safe for concurrent use;
// the harvester drives it sequentially.
type Client struct {
	opts    Options
	http    *resty.Client
	base    *url.URL
	session *Session
	limiter *Throttle
	log     *zap.Logger
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// NewClient builds a client. No request is made until the first fetch or an
// explicit AcquireSession.
func NewClient(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, config.Invalidf("fetcher: invalid base url %q", opts.BaseURL)
	}

	hc := resty.New()
	hc.SetBaseURL(base.String())
	hc.SetDoNotParseResponse(true)
	if opts.TLSBypass {
		hc.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(hc.GetClient().Transport)
	}

	c := &Client{
		opts: opts,
		http: hc,
		base: base,
		log:  zap.L().With(zap.String("component", "fetcher")),
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = NewThrottle(opts.RequestsPerSecond)
	}
	return c, nil
}

// Session returns the current session, or nil before the first acquisition.
func (c *Client) Session() *Session {
	return c.session
}

// Fetch issues one API request for endpoint with params, after a
// referer-priming GET. Failures come back as a Result with Err set, logged
// once to the error log; they are never returned as Go errors.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values, referer string) Result {
	rawURL := c.apiURL(endpoint, params)
	refererURL := c.refererURL(referer)
	log := c.log.With(zap.String("url", rawURL))

	retry := c.opts.Retry
	retry.OnRetry = func(attempt int, err error) {
		log.Warn("fetch failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, rawURL, refererURL)
	})
	c.pause(ctx)

	if err != nil {
		c.opts.Metrics.Fetch("failed")
		c.opts.ErrLog.Record("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return Result{URL: rawURL, Err: err}
	}

	c.opts.Metrics.Fetch("ok")
	log.Debug("fetched", zap.Int("bytes", len(body)))
	return Result{URL: rawURL, Body: body}
}

// FetchPage GETs an HTML page of the portal with the current session.
func (c *Client) FetchPage(ctx context.Context, path string) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	u := c.resolve(path).String()
	resp, err := c.get(ctx, u, c.requestHeaders(""), c.opts.RequestTimeout)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get page %s", u)
	}
	if resp.status >= 400 {
		return nil, eris.Errorf("fetcher: get page %s: http %d", u, resp.status)
	}
	body, err := decodeBody(resp.header.Get("Content-Encoding"), resp.body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// attempt is one try at a page: refresh-if-needed, prime, fetch, interpret.
func (c *Client) attempt(ctx context.Context, rawURL, refererURL string) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
	}

	if refererURL != "" {
		if _, err := c.get(ctx, refererURL, c.requestHeaders(""), c.opts.PrimeTimeout); err != nil {
			c.log.Debug("referer priming failed", zap.String("referer", refererURL), zap.Error(err))
		}
	}

	resp, err := c.get(ctx, rawURL, c.requestHeaders(refererURL), c.opts.RequestTimeout)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: request"), 0)
	}

	switch {
	case resilience.IsAuthHTTPStatus(resp.status):
		c.invalidate()
		c.backoff("auth status")
		return nil, resilience.NewAuthError(fmt.Sprintf("http %d", resp.status), resp.status)
	case resilience.IsTransientHTTPStatus(resp.status):
		if resp.status == http.StatusTooManyRequests {
			c.backoff("http 429")
		}
		return nil, resilience.NewTransientError(eris.Errorf("fetcher: http %d", resp.status), resp.status)
	case resp.status >= 400:
		return nil, eris.Errorf("fetcher: http %d", resp.status)
	}

	body, err := c.interpret(resp)
	if err != nil {
		if resilience.IsAuthFailure(err) {
			c.backoff("auth wall")
		}
		return nil, err
	}
	if c.limiter != nil {
		c.limiter.Success()
	}
	return body, nil
}

func (c *Client) backoff(reason string) {
	if c.limiter != nil {
		c.limiter.Backoff(reason)
	}
}

// interpret decodes the body and classifies auth-wall symptoms.
func (c *Client) interpret(resp *response) ([]byte, error) {
	if len(bytes.TrimSpace(resp.body)) == 0 {
		c.invalidate()
		return nil, resilience.NewAuthError("empty body", resp.status)
	}

	body, err := decodeBody(resp.header.Get("Content-Encoding"), resp.body)
	if err != nil || !gjson.ValidBytes(bytes.TrimSpace(body)) {
		// Some responses are labelled br but arrive uncompressed, including
		// the HTML access-denied page.
		if raw := bytes.TrimSpace(resp.body); gjson.ValidBytes(raw) || looksLikeHTML(raw) {
			body, err = raw, nil
		}
	}
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		c.invalidate()
		return nil, resilience.NewAuthError("empty body", resp.status)
	}
	if looksLikeHTML(body) {
		c.invalidate()
		return nil, resilience.NewAuthError("html instead of json: "+pageTitle(body), resp.status)
	}
	if !gjson.ValidBytes(body) {
		return nil, eris.Errorf("fetcher: malformed json (%d bytes)", len(body))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaderMultiValues(headers).
		Get(rawURL)
	if resp != nil && resp.RawBody() != nil {
		defer drain(resp.RawBody())
	}
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.RawBody())
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return &response{status: resp.StatusCode(), header: resp.Header(), body: body}, nil
}

// pause sleeps a uniformly drawn jitter between requests.
func (c *Client) pause(ctx context.Context) {
	if c.opts.JitterMax <= 0 {
		return
	}
	d := c.opts.JitterMin
	if span := c.opts.JitterMax - c.opts.JitterMin; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	_ = c.opts.Sleep(ctx, d)
}

func (c *Client) apiURL(endpoint string, params url.Values) string {
	u := c.base.String() + "/" + strings.Trim(c.opts.APIPrefix, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// refererURL expands a descriptor referer: absolute URLs pass through,
// rooted paths hang off the base URL, bare names go under RefererPrefix.
func (c *Client) refererURL(referer string) string {
	if referer == "" {
		referer = c.opts.DefaultReferer
	}
	switch {
	case referer == "":
		return ""
	case strings.HasPrefix(referer, "http://") || strings.HasPrefix(referer, "https://"):
		return referer
	case strings.HasPrefix(referer, "/"):
		return c.base.String() + referer
	default:
		return c.base.String() + "/" + strings.Trim(c.opts.RefererPrefix, "/") + "/" + referer
	}
}

func (c *Client) resolve(path string) *url.URL {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base
	}
	return c.base.ResolveReference(ref)
}

func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<html"))
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "unparseable html"
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "untitled page"
	}
	return title
}
