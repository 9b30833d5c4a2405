package harvest

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/errlog"
	"github.com/sparsh2712/DataPipeline/internal/fetcher"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/sink"
)

// Options configures a Harvester.
type Options struct {
	StartDate  time.Time
	EndDate    time.Time // zero means today
	WindowDays int
	BatchSize  int
	Schema     string // destination schema for descriptors without a table

	ErrLog  *errlog.Log
	Metrics *monitoring.Metrics
	Now     func() time.Time
}

// OptionsFromConfig maps the harvest config section onto Options.
func OptionsFromConfig(cfg config.HarvestConfig) (Options, error) {
	start, err := parseDate(cfg.StartDate)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		StartDate:  start,
		WindowDays: cfg.WindowDays,
		BatchSize:  cfg.BatchSize,
		Schema:     cfg.Schema,
	}
	if cfg.EndDate != "" {
		if opts.EndDate, err = parseDate(cfg.EndDate); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

// Stats summarises one harvest.
type Stats struct {
	Endpoints   int
	Skipped     int
	Pages       int
	FailedPages int
	Rows        int64
}

// Harvester runs endpoint descriptors through a Fetcher into a Sink.
type Harvester struct {
	fetch   fetcher.Fetcher
	sink    sink.Sink
	schemas Schemas
	opts    Options
	log     *zap.Logger
}

// New creates a Harvester.
func New(f fetcher.Fetcher, s sink.Sink, schemas Schemas, opts Options) *Harvester {
	if opts.WindowDays < 1 {
		opts.WindowDays = 7
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 500
	}
	if opts.Schema == "" {
		opts.Schema = "nse"
	}
	if opts.ErrLog == nil {
		opts.ErrLog = errlog.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Harvester{
		fetch:   f,
		sink:    s,
		schemas: schemas,
		opts:    opts,
		log:     zap.L().With(zap.String("component", "harvest")),
	}
}

// Run harvests every descriptor in order and returns what was persisted.
// Failed pages, missing schemas and sink errors are logged and skipped; the
// only error returned is ctx's.
func (h *Harvester) Run(ctx context.Context, descriptors []Descriptor) (Stats, error) {
	var stats Stats
	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		fm, ok := h.schemas[d.Name]
		if !ok {
			h.opts.ErrLog.Record("schema not found for endpoint, skipping", zap.String("endpoint", d.Name))
			stats.Skipped++
			continue
		}

		p, err := h.expand(d)
		if err != nil {
			h.opts.ErrLog.Record("endpoint misconfigured, skipping",
				zap.String("endpoint", d.Name), zap.Error(err))
			stats.Skipped++
			continue
		}

		h.log.Info("processing endpoint", zap.String("endpoint", d.Name))
		rows, err := h.runDescriptor(ctx, d, p, fm, &stats)
		if err != nil {
			return stats, err
		}
		stats.Endpoints++
		h.log.Info("completed endpoint", zap.String("endpoint", d.Name), zap.Int64("rows", rows))
	}

	h.log.Info("harvest complete",
		zap.Int("endpoints", stats.Endpoints),
		zap.Int("skipped", stats.Skipped),
		zap.Int("pages", stats.Pages),
		zap.Int("failed_pages", stats.FailedPages),
		zap.Int64("rows", stats.Rows),
	)
	return stats, nil
}

// plan is the expanded request set for one descriptor.
type plan struct {
	static  url.Values
	combos  []map[string]string
	windows []Window
	dated   bool
}

func (h *Harvester) expand(d Descriptor) (plan, error) {
	if d.Endpoint == "" {
		return plan{}, config.Invalidf("harvest: descriptor %s has no endpoint", d.Name)
	}

	p := plan{static: url.Values{}, combos: Combinations(d.Params), dated: d.HasDateWindow()}
	for _, prm := range d.Params {
		if prm.List || (p.dated && (prm.Key == "from_date" || prm.Key == "to_date")) {
			continue
		}
		p.static.Set(prm.Key, prm.Values[0])
	}
	if !p.dated {
		return p, nil
	}

	from, to := h.opts.StartDate, h.opts.EndDate
	if to.IsZero() {
		to = h.opts.Now()
	}
	if v, _ := d.param("from_date"); len(v.Values) > 0 && v.Values[0] != "" {
		t, err := parseDate(v.Values[0])
		if err != nil {
			return plan{}, err
		}
		from = t
	}
	if v, _ := d.param("to_date"); len(v.Values) > 0 && v.Values[0] != "" {
		t, err := parseDate(v.Values[0])
		if err != nil {
			return plan{}, err
		}
		to = t
	}
	days := d.WindowDays
	if days < 1 {
		days = h.opts.WindowDays
	}
	p.windows = Windows(from, to, days)
	return p, nil
}

func (h *Harvester) runDescriptor(ctx context.Context, d Descriptor, p plan, fm FieldMap, stats *Stats) (int64, error) {
	windows := p.windows
	if !p.dated {
		windows = []Window{{}}
	}

	table := d.Table
	if table == "" {
		table = h.opts.Schema + "." + strings.ToLower(d.Name)
	}

	var total int64
	for _, combo := range p.combos {
		for _, w := range windows {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			params := cloneValues(p.static)
			for k, v := range combo {
				params.Set(k, v)
			}
			if p.dated {
				params.Set("from_date", w.FromParam())
				params.Set("to_date", w.ToParam())
			}
			total += h.page(ctx, d, fm, table, params, stats)
		}
	}
	return total, nil
}

// page fetches, projects and persists one request. It returns rows written.
func (h *Harvester) page(ctx context.Context, d Descriptor, fm FieldMap, table string, params url.Values, stats *Stats) int64 {
	stats.Pages++
	res := h.fetch.Fetch(ctx, d.Endpoint, params, d.Referer)
	if !res.OK() {
		// The fetch client has already recorded the failure.
		stats.FailedPages++
		h.opts.Metrics.PageFailed(d.Name)
		h.log.Warn("page failed, continuing",
			zap.String("endpoint", d.Name), zap.String("url", res.URL), zap.Error(res.Err))
		return 0
	}

	records, err := extractRecords(res.JSON(), d.RecordsPath)
	if err != nil {
		stats.FailedPages++
		h.opts.Metrics.PageFailed(d.Name)
		h.opts.ErrLog.Record("invalid data format",
			zap.String("endpoint", d.Name), zap.String("url", res.URL), zap.String("body", snippet(res.Body)))
		return 0
	}

	injected := make(map[string]string, len(d.Propagate))
	for _, k := range d.Propagate {
		if v := params.Get(k); v != "" {
			injected[k] = v
		}
	}

	rows := make([][]any, 0, len(records))
	rejected := 0
	var firstErr error
	for _, rec := range records {
		row, err := fm.Row(rec, injected)
		if err != nil {
			rejected++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rows = append(rows, row)
	}
	if rejected > 0 {
		h.opts.ErrLog.Record("records rejected by field mapping",
			zap.String("endpoint", d.Name), zap.String("url", res.URL),
			zap.Int("rejected", rejected), zap.Error(firstErr))
	}

	var written int64
	for start := 0; start < len(rows); start += h.opts.BatchSize {
		end := min(start+h.opts.BatchSize, len(rows))
		n, err := h.sink.Write(ctx, sink.Batch{
			Table:      table,
			Columns:    fm.Columns(),
			UniqueKeys: d.UniqueKeys,
			Rows:       rows[start:end],
		})
		if err != nil {
			h.opts.ErrLog.Record("error writing to database",
				zap.String("table", table), zap.Int("rows", end-start), zap.Error(err))
			continue
		}
		written += n
	}

	stats.Rows += written
	h.opts.Metrics.Rows(table, written)
	h.log.Info("inserted rows",
		zap.String("endpoint", d.Name), zap.Int64("rows", written), zap.String("params", params.Encode()))
	return written
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func snippet(b []byte) string {
	const limit = 100
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
