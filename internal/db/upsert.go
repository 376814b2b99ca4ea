package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig defines the parameters for a bulk upsert.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified ("outreach.leads")
	Columns      []string // columns supplied by every row
	ConflictKeys []string // columns forming the unique constraint
	// UpdateCols are overwritten on conflict. nil means every non-key column;
	// an empty non-nil slice keeps the existing row (DO NOTHING).
	UpdateCols []string
}

// BulkUpsert writes rows in one transaction: COPY into a temp table shaped
// like the target, then INSERT ... SELECT ... ON CONFLICT from it. Rows must
// not repeat a conflict key.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}
	for i, r := range rows {
		if len(r) != len(cfg.Columns) {
			return 0, eris.Errorf("db: upsert: row %d has %d values, want %d", i, len(r), len(cfg.Columns))
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	temp := tempName(cfg.Table)
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{temp}.Sanitize(), sanitizeTable(cfg.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{temp}, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: copy into temp table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, upsertSQL(cfg, temp))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: insert into %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

func upsertSQL(cfg UpsertConfig, temp string) string {
	cols := quoteAndJoin(cfg.Columns)
	action := "DO NOTHING"
	if set := setClauses(cfg); len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		sanitizeTable(cfg.Table), cols, cols,
		pgx.Identifier{temp}.Sanitize(),
		quoteAndJoin(cfg.ConflictKeys), action,
	)
}

func setClauses(cfg UpsertConfig) []string {
	cols := cfg.UpdateCols
	if cols == nil {
		keys := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			keys[k] = true
		}
		for _, c := range cfg.Columns {
			if !keys[c] {
				cols = append(cols, c)
			}
		}
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		id := pgx.Identifier{c}.Sanitize()
		out = append(out, id+" = EXCLUDED."+id)
	}
	return out
}

func tempName(table string) string {
	return "_tmp_upsert_" + strings.ReplaceAll(table, ".", "_")
}

// sanitizeTable quotes a table name, keeping an optional schema prefix.
func sanitizeTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
