// Package reference builds and loads the entity reference table: one
// canonical company name per listed symbol, taken from the latest
// corporate-governance filing.
package reference

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/db"
	"github.com/sparsh2712/DataPipeline/internal/resolve"
	"github.com/sparsh2712/DataPipeline/internal/sink"
)

// Table is the reference destination.
const Table = "nse.metadata"

// submissionLayout is the governance master's submissionDate format.
const submissionLayout = "02-Jan-2006 15:04"

// Filing is the latest governance filing for one symbol.
type Filing struct {
	Symbol      string
	CompanyName string
	RecordID    string
	SubmittedAt time.Time // zero when the filing carries no date
}

// LatestBySymbol keeps the most recently submitted record per symbol from a
// corporate-governance-master response. Records without a symbol are
// ignored; an unparseable date sorts as oldest. Output is ordered by symbol.
func LatestBySymbol(doc gjson.Result) []Filing {
	records := doc.Get("data")
	if !records.IsArray() && doc.IsArray() {
		records = doc
	}

	latest := make(map[string]Filing)
	records.ForEach(func(_, rec gjson.Result) bool {
		symbol := rec.Get("symbol").String()
		if symbol == "" {
			return true
		}
		f := Filing{
			Symbol:      symbol,
			CompanyName: rec.Get("name").String(),
			RecordID:    rec.Get("recordId").String(),
		}
		if t, err := time.Parse(submissionLayout, rec.Get("submissionDate").String()); err == nil {
			f.SubmittedAt = t
		}
		if cur, seen := latest[symbol]; !seen || f.SubmittedAt.After(cur.SubmittedAt) {
			latest[symbol] = f
		}
		return true
	})

	out := make([]Filing, 0, len(latest))
	for _, f := range latest {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Batch renders filings as an upsert keyed on symbol.
func Batch(filings []Filing) sink.Batch {
	b := sink.Batch{
		Table:      Table,
		Columns:    []string{"company_name", "symbol", "cg_record_id", "submission_date"},
		UniqueKeys: []string{"symbol"},
		Rows:       make([][]any, 0, len(filings)),
	}
	for _, f := range filings {
		var submitted any
		if !f.SubmittedAt.IsZero() {
			submitted = f.SubmittedAt
		}
		var recordID any
		if f.RecordID != "" {
			recordID = f.RecordID
		}
		b.Rows = append(b.Rows, []any{f.CompanyName, f.Symbol, recordID, submitted})
	}
	return b
}

// Build extracts the latest filings from doc and persists them.
func Build(ctx context.Context, s sink.Sink, doc gjson.Result) (int64, error) {
	filings := LatestBySymbol(doc)
	if len(filings) == 0 {
		return 0, eris.New("reference: no records with a symbol in governance master")
	}
	n, err := s.Write(ctx, Batch(filings))
	if err != nil {
		return 0, eris.Wrap(err, "reference: write reference table")
	}
	zap.L().Info("reference table built", zap.Int("symbols", len(filings)), zap.Int64("rows", n))
	return n, nil
}

// Load reads the reference table through exec with query, which must return
// (company_name, symbol) rows.
func Load(ctx context.Context, exec db.Executor, query string) (*resolve.Table, error) {
	rows, err := exec.Execute(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "reference: load")
	}
	t, err := resolve.TableFromRows(rows)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("reference table loaded", zap.Int("entries", t.Len()))
	return t, nil
}
