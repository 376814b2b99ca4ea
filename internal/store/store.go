// Package store persists accepted output rows and per-keyword run
// bookkeeping. It never stores provider payloads.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Keyword string `json:"keyword,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// RowFilter specifies criteria for listing saved rows.
type RowFilter struct {
	Keyword      string  `json:"keyword,omitempty"`
	MinLeadScore float64 `json:"min_lead_score,omitempty"`
	Limit        int     `json:"limit,omitempty"`
}

// Store is a lead sink with run bookkeeping.
type Store interface {
	// Rows
	AppendRows(ctx context.Context, rows []model.OutputRow) error
	ListRows(ctx context.Context, filter RowFilter) ([]model.OutputRow, error)

	// Runs
	RecordRun(ctx context.Context, run model.RunRecord) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects the store named by cfg.Driver and migrates it. The "none"
// driver returns a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// dedupeRows keeps the last row for each (keyword, email) pair, preserving
// first-seen order.
func dedupeRows(rows []model.OutputRow) []model.OutputRow {
	type key struct{ keyword, email string }
	index := make(map[key]int, len(rows))
	out := make([]model.OutputRow, 0, len(rows))
	for _, r := range rows {
		k := key{r.Keyword, r.Email}
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func limitOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
