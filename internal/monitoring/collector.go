// Package monitoring summarizes recent keyword runs and raises alerts when
// the failure rate or the share of empty runs crosses a threshold.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// runScanLimit bounds how many recent runs one snapshot reads.
const runScanLimit = 10000

// Snapshot is a point-in-time summary of keyword runs over a lookback window.
type Snapshot struct {
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`

	Runs      int `json:"runs"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Empty counts successful runs that saved no rows.
	Empty int `json:"empty"`

	Domains int `json:"domains"`
	Leads   int `json:"leads"`
	Rows    int `json:"rows"`

	FailRate  float64 `json:"fail_rate"`
	EmptyRate float64 `json:"empty_rate"`
	// AvgDuration is the mean duration of successful runs.
	AvgDuration time.Duration `json:"avg_duration"`
}

// RunLister is the part of the store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.RunRecord, error)
}

// Collector builds snapshots from stored run records.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a collector reading from runs.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: func() time.Time { return time.Now().UTC() }}
}

// Collect summarizes the runs started within the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now()
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: runScanLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var total time.Duration
	for _, r := range runs {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.Runs++
		snap.Domains += r.Domains
		snap.Leads += r.Leads
		snap.Rows += r.Rows

		if r.Error != "" {
			snap.Failed++
			continue
		}
		snap.Succeeded++
		total += r.Duration
		if r.Rows == 0 {
			snap.Empty++
		}
	}

	if snap.Runs > 0 {
		snap.FailRate = float64(snap.Failed) / float64(snap.Runs)
	}
	if snap.Succeeded > 0 {
		snap.EmptyRate = float64(snap.Empty) / float64(snap.Succeeded)
		snap.AvgDuration = total / time.Duration(snap.Succeeded)
	}
	return snap, nil
}
