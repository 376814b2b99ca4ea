package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadsConfig() UpsertConfig {
	return UpsertConfig{
		Table:        "leads",
		Columns:      []string{"keyword", "email", "lead_score"},
		ConflictKeys: []string{"keyword", "email"},
	}
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, leadsConfig(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "leads",
		ConflictKeys: []string{"email"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "leads",
		Columns: []string{"email", "lead_score"},
	}, [][]any{{"a@x.com", 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_RowWidthMismatch(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, leadsConfig(), [][]any{{"k", "a@x.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0 has 2 values")
}

func TestBulkUpsert_Flow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_leads" \(LIKE "leads" INCLUDING DEFAULTS\) ON COMMIT DROP`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"keyword", "email", "lead_score"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads" .* ON CONFLICT \("keyword", "email"\) DO UPDATE SET "lead_score" = EXCLUDED."lead_score"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, leadsConfig(), [][]any{
		{"x", "a@x.com", 90.0},
		{"x", "b@x.com", 80.0},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_RollsBackOnCopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"keyword", "email", "lead_score"}).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, leadsConfig(), [][]any{{"x", "a@x.com", 90.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into temp table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL_DoNothing(t *testing.T) {
	cfg := leadsConfig()
	cfg.UpdateCols = []string{}
	got := upsertSQL(cfg, "_tmp")
	assert.Equal(t, `INSERT INTO "leads" ("keyword", "email", "lead_score") SELECT "keyword", "email", "lead_score" FROM "_tmp" ON CONFLICT ("keyword", "email") DO NOTHING`, got)
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"outreach.leads", `"outreach"."leads"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
