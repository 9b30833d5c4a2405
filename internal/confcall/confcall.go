// Package confcall attaches listed companies to scraped conference-call
// videos by resolving the company mentioned in each video title.
package confcall

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/db"
	"github.com/sparsh2712/DataPipeline/internal/resolve"
)

// DefaultTable holds the scraped calls.
const DefaultTable = "trendlyne.conference_calls"

// Stats summarizes one reconciliation pass.
type Stats struct {
	Videos  int
	Matched int
	Cleared int
}

// Reconciler fills company columns for calls that lack them.
type Reconciler struct {
	exec     db.Executor
	resolver *resolve.Resolver
	table    string
	log      *zap.Logger
}

// New creates a Reconciler over table (DefaultTable when empty).
func New(exec db.Executor, resolver *resolve.Resolver, table string) *Reconciler {
	if table == "" {
		table = DefaultTable
	}
	return &Reconciler{
		exec:     exec,
		resolver: resolver,
		table:    db.SanitizeTable(table),
		log:      zap.L().With(zap.String("component", "confcall")),
	}
}

// Run resolves every distinct unreconciled video. A video whose title yields
// no candidate or no match has all three company columns cleared.
func (r *Reconciler) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	rows, err := r.exec.Execute(ctx, fmt.Sprintf(
		"SELECT DISTINCT video_id, video_title FROM %s WHERE company_name IS NULL OR company_symbol IS NULL",
		r.table))
	if err != nil {
		return stats, eris.Wrap(err, "confcall: list unreconciled calls")
	}

	updateSQL := fmt.Sprintf(
		"UPDATE %s SET extracted_company_name = $1, company_name = $2, company_symbol = $3 WHERE video_id = $4",
		r.table)
	clearSQL := fmt.Sprintf(
		"UPDATE %s SET extracted_company_name = NULL, company_name = NULL, company_symbol = NULL WHERE video_id = $1",
		r.table)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if len(row) < 2 {
			continue
		}
		videoID := row[0]
		title, _ := row[1].(string)
		stats.Videos++

		candidate, m, ok := r.resolver.ResolveTitle(title)
		if candidate == "" || !ok {
			if _, err := r.exec.Execute(ctx, clearSQL, videoID); err != nil {
				return stats, eris.Wrapf(err, "confcall: clear video %v", videoID)
			}
			r.log.Debug("no company for call", zap.Any("video_id", videoID), zap.String("title", title))
			stats.Cleared++
			continue
		}

		if _, err := r.exec.Execute(ctx, updateSQL, candidate, m.Name, m.Symbol, videoID); err != nil {
			return stats, eris.Wrapf(err, "confcall: update video %v", videoID)
		}
		stats.Matched++
	}

	r.log.Info("conference calls reconciled",
		zap.Int("videos", stats.Videos),
		zap.Int("matched", stats.Matched),
		zap.Int("cleared", stats.Cleared),
	)
	return stats, nil
}
