// Package fetcher is the portal's session fetch client: it acquires and
// refreshes an anti-bot cookie session, issues parameterized GETs against
// the JSON API and turns every failure into an absent Result.
package fetcher

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"
)

// Fetcher issues one API fetch. Implementations never return a Go error for
// page-level failures; the Result carries it instead.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values, referer string) Result
}

// Result is the outcome of one fetch. Body is set only when Err is nil and
// always holds valid JSON.
type Result struct {
	URL  string
	Body []byte
	Err  error
}

// OK reports whether the fetch produced a usable JSON body.
func (r Result) OK() bool {
	return r.Err == nil
}

// JSON returns the parsed body, or an empty gjson.Result when absent.
func (r Result) JSON() gjson.Result {
	if !r.OK() {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.Body)
}
