package governance

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/errlog"
	"github.com/sparsh2712/DataPipeline/internal/fetcher"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/sink"
)

const (
	endpoint = "corporate-governance"
	referer  = "corporate-filings-governance"

	// DirectorsTable receives Director rows.
	DirectorsTable = "nse.board_of_directors"
	// CommitteesTable receives CommitteeMember rows.
	CommitteesTable = "nse.committee_members"
)

// Target is one symbol and the governance record to fetch for it.
type Target struct {
	Symbol   string
	RecordID string
}

// Stats summarizes a collection run.
type Stats struct {
	Symbols    int
	Skipped    int
	Directors  int64
	Committees int64
}

// Collector fetches and stores governance filings.
type Collector struct {
	fetch   fetcher.Fetcher
	sink    sink.Sink
	errs    *errlog.Log
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewCollector creates a Collector. A nil errs discards error-log entries.
func NewCollector(f fetcher.Fetcher, s sink.Sink, errs *errlog.Log, metrics *monitoring.Metrics) *Collector {
	if errs == nil {
		errs = errlog.Discard()
	}
	return &Collector{
		fetch:   f,
		sink:    s,
		errs:    errs,
		metrics: metrics,
		log:     zap.L().With(zap.String("component", "governance")),
	}
}

// Collect processes targets in order. A failed fetch or a filing without
// board data skips the symbol; a filing without committees still stores its
// directors. Only cancellation stops the run early.
func (c *Collector) Collect(ctx context.Context, targets []Target) (Stats, error) {
	var stats Stats
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Symbols++

		res := c.fetch.Fetch(ctx, endpoint, url.Values{"recId": {t.RecordID}}, referer)
		if !res.OK() {
			c.log.Warn("governance fetch failed", zap.String("symbol", t.Symbol), zap.Error(res.Err))
			stats.Skipped++
			continue
		}

		f := Parse(t.Symbol, res.JSON())
		if len(f.Directors) == 0 {
			c.errs.Record("governance: board data missing", zap.String("symbol", t.Symbol))
			stats.Skipped++
			continue
		}
		if len(f.Committees) == 0 {
			c.errs.Record("governance: committee data missing", zap.String("symbol", t.Symbol))
		}

		n, err := c.write(ctx, directorBatch(f.Directors))
		if err != nil {
			c.errs.Record("governance: write failed", zap.String("symbol", t.Symbol), zap.Error(err))
			stats.Skipped++
			continue
		}
		stats.Directors += n

		if len(f.Committees) > 0 {
			n, err = c.write(ctx, committeeBatch(f.Committees))
			if err != nil {
				c.errs.Record("governance: write failed", zap.String("symbol", t.Symbol), zap.Error(err))
				continue
			}
			stats.Committees += n
		}
		c.log.Debug("governance stored", zap.String("symbol", t.Symbol),
			zap.Int("directors", len(f.Directors)), zap.Int("committee_seats", len(f.Committees)))
	}

	c.log.Info("governance collection complete",
		zap.Int("symbols", stats.Symbols),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("directors", stats.Directors),
		zap.Int64("committee_seats", stats.Committees),
	)
	return stats, nil
}

func (c *Collector) write(ctx context.Context, b sink.Batch) (int64, error) {
	n, err := c.sink.Write(ctx, b)
	if err != nil {
		return 0, eris.Wrapf(err, "governance: write %s", b.Table)
	}
	c.metrics.Rows(b.Table, n)
	return n, nil
}

func directorBatch(ds []Director) sink.Batch {
	b := sink.Batch{
		Table:      DirectorsTable,
		Columns:    []string{"symbol", "director_name", "din", "designation", "tenure", "membership"},
		UniqueKeys: []string{"symbol", "director_name"},
		Rows:       make([][]any, 0, len(ds)),
	}
	for _, d := range ds {
		b.Rows = append(b.Rows, []any{d.Symbol, d.Name, d.DIN, d.Designation, d.Tenure, membershipJSON(d.Membership)})
	}
	return b
}

func committeeBatch(ms []CommitteeMember) sink.Batch {
	b := sink.Batch{
		Table:      CommitteesTable,
		Columns:    []string{"symbol", "committee", "name", "designation", "committee_designation"},
		UniqueKeys: []string{"symbol", "committee", "name"},
		Rows:       make([][]any, 0, len(ms)),
	}
	for _, m := range ms {
		b.Rows = append(b.Rows, []any{m.Symbol, m.Committee, m.Name, m.Designation, m.CommitteeDesignation})
	}
	return b
}
