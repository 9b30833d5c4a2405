package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sparsh2712/DataPipeline/internal/runlog"
)

// Snapshot is a point-in-time view of harvest health.
type Snapshot struct {
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`
	RowsWritten  int64   `json:"rows_written"`
	FailedPages  int     `json:"failed_pages"`

	// LastComplete is the start of the newest successful run in the window.
	LastComplete *time.Time `json:"last_complete,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister abstracts the run-log read used by the collector.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]runlog.Entry, error)
}

// Collector gathers a Snapshot from the harvest run log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a collector over runs.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// maxRuns bounds how far back the run log is read.
const maxRuns = 1000

// Collect summarizes runs started within the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	entries, err := c.runs.Recent(ctx, maxRuns)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	for _, e := range entries {
		if e.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		snap.RowsWritten += e.RowsWritten
		snap.FailedPages += e.FailedPages
		switch e.Status {
		case runlog.StatusComplete:
			snap.RunsComplete++
			if snap.LastComplete == nil || e.StartedAt.After(*snap.LastComplete) {
				started := e.StartedAt
				snap.LastComplete = &started
			}
		case runlog.StatusFailed:
			snap.RunsFailed++
		case runlog.StatusRunning:
			snap.RunsRunning++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	return snap, nil
}
