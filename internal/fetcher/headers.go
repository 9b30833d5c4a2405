package fetcher

import (
	"math/rand/v2"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

// DefaultUserAgents are desktop browser strings rotated across requests.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:136.0) Gecko/20100101 Firefox/136.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

// DefaultHeaders returns the browser header template sent with every request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      DefaultUserAgents[0],
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate, br, zstd",
		"Connection":      "keep-alive",
		"DNT":             "1",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
		"Sec-Fetch-Site":  "none",
		"Sec-Fetch-User":  "?1",
		"Sec-GPC":         "1",
		"Pragma":          "no-cache",
		"Cache-Control":   "no-cache",
	}
}

// LoadHeaders reads a flat name→value header template from a YAML or JSON
// file. A missing path yields the defaults.
func LoadHeaders(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultHeaders(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read headers %s", path)
	}

	var headers map[string]string
	if err := yaml.Unmarshal(data, &headers); err != nil {
		return nil, config.Invalidf("fetcher: headers file %s: %v", path, err)
	}
	return headers, nil
}

// requestHeaders builds the header set for one request: the template, a
// rotated User-Agent and, when given, the Referer.
func (c *Client) requestHeaders(referer string) http.Header {
	h := make(http.Header, len(c.opts.Headers)+2)
	for k, v := range c.opts.Headers {
		h.Set(k, v)
	}
	h.Set("User-Agent", c.opts.UserAgents[rand.IntN(len(c.opts.UserAgents))])
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
