package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRows(ts time.Time) []model.OutputRow {
	return []model.OutputRow{
		{Timestamp: ts, Keyword: "garden sheds", Domain: "a.com", AuthorityScore: 80, Rank: 1, Email: "jane@a.com", EmailScore: 1, LeadScore: 90},
		{Timestamp: ts, Keyword: "garden sheds", Domain: "c.com", AuthorityScore: 40, Rank: 3, Email: "bob@c.com", EmailScore: 0.8, LeadScore: 60.5},
	}
}

func TestSQLite_AppendAndListRows(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.AppendRows(ctx, sampleRows(ts)))

	rows, err := st.ListRows(ctx, RowFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "jane@a.com", rows[0].Email)
	assert.Equal(t, 90.0, rows[0].LeadScore)
	assert.Equal(t, 1, rows[0].Rank)
	assert.True(t, ts.Equal(rows[0].Timestamp))
	assert.Equal(t, "bob@c.com", rows[1].Email)
}

func TestSQLite_AppendRowsUpserts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, st.AppendRows(ctx, sampleRows(ts)))

	again := sampleRows(ts.Add(time.Hour))
	again[0].LeadScore = 95
	require.NoError(t, st.AppendRows(ctx, again[:1]))

	rows, err := st.ListRows(ctx, RowFilter{Keyword: "garden sheds"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 95.0, rows[0].LeadScore)
}

func TestSQLite_ListRowsFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	rows := sampleRows(time.Now())
	rows = append(rows, model.OutputRow{Timestamp: time.Now(), Keyword: "log cabins", Domain: "d.com", Email: "x@d.com", LeadScore: 70})
	require.NoError(t, st.AppendRows(ctx, rows))

	got, err := st.ListRows(ctx, RowFilter{MinLeadScore: 65})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.ListRows(ctx, RowFilter{Keyword: "log cabins"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d.com", got[0].Domain)

	got, err = st.ListRows(ctx, RowFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_AppendRowsEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.AppendRows(context.Background(), nil))
}

func TestSQLite_RecordAndListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.RecordRun(ctx, model.RunRecord{
		ID: "run-1", Keyword: "garden sheds", StartedAt: base, Duration: 1500 * time.Millisecond,
		Domains: 12, Leads: 12, Rows: 3,
	}))
	require.NoError(t, st.RecordRun(ctx, model.RunRecord{
		ID: "run-2", Keyword: "log cabins", StartedAt: base.Add(time.Minute), Error: "serp down",
	}))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "serp down", runs[0].Error)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration)
	assert.Equal(t, 3, runs[1].Rows)
	assert.Empty(t, runs[1].Error)

	runs, err = st.ListRuns(ctx, RunFilter{Keyword: "garden sheds"})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	runs, err = st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestSQLite_RecordRunReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	run := model.RunRecord{ID: "run-1", Keyword: "k", StartedAt: time.Now()}
	require.NoError(t, st.RecordRun(ctx, run))

	run.Rows = 7
	require.NoError(t, st.RecordRun(ctx, run))

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 7, runs[0].Rows)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = Open(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NoError(t, st.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestDedupeRows(t *testing.T) {
	rows := []model.OutputRow{
		{Keyword: "k", Email: "a@x.com", LeadScore: 1},
		{Keyword: "k", Email: "b@x.com", LeadScore: 2},
		{Keyword: "k", Email: "a@x.com", LeadScore: 3},
		{Keyword: "j", Email: "a@x.com", LeadScore: 4},
	}
	got := dedupeRows(rows)
	require.Len(t, got, 3)
	assert.Equal(t, 3.0, got[0].LeadScore)
	assert.Equal(t, "b@x.com", got[1].Email)
	assert.Equal(t, "j", got[2].Keyword)
}
