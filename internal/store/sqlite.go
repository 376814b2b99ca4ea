package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	keyword     TEXT NOT NULL,
	email       TEXT NOT NULL,
	domain      TEXT NOT NULL,
	authority   REAL NOT NULL DEFAULT 0,
	search_rank INTEGER NOT NULL DEFAULT 0,
	email_score REAL NOT NULL DEFAULT 0,
	lead_score  REAL NOT NULL DEFAULT 0,
	found_at    DATETIME NOT NULL,
	PRIMARY KEY (keyword, email)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	keyword     TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	domains     INTEGER NOT NULL DEFAULT 0,
	leads       INTEGER NOT NULL DEFAULT 0,
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT
);

CREATE INDEX IF NOT EXISTS idx_leads_lead_score ON leads(lead_score);
CREATE INDEX IF NOT EXISTS idx_runs_keyword ON runs(keyword);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendRows upserts rows keyed by (keyword, email) in one transaction.
func (s *SQLiteStore) AppendRows(ctx context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin append")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO leads (keyword, email, domain, authority, search_rank, email_score, lead_score, found_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (keyword, email) DO UPDATE SET
			domain = excluded.domain,
			authority = excluded.authority,
			search_rank = excluded.search_rank,
			email_score = excluded.email_score,
			lead_score = excluded.lead_score,
			found_at = excluded.found_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare append")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range dedupeRows(rows) {
		if _, err := stmt.ExecContext(ctx,
			r.Keyword, r.Email, r.Domain, r.AuthorityScore, r.Rank, r.EmailScore, r.LeadScore, r.Timestamp.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %s", r.Email)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit append")
}

// ListRows returns saved rows, best lead score first.
func (s *SQLiteStore) ListRows(ctx context.Context, filter RowFilter) ([]model.OutputRow, error) {
	query := `SELECT found_at, keyword, domain, authority, search_rank, email, email_score, lead_score FROM leads WHERE lead_score >= ?`
	args := []any{filter.MinLeadScore}
	if filter.Keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, filter.Keyword)
	}
	query += ` ORDER BY lead_score DESC, authority DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit, 500))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rows")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.OutputRow
	for rows.Next() {
		var r model.OutputRow
		if err := rows.Scan(&r.Timestamp, &r.Keyword, &r.Domain, &r.AuthorityScore, &r.Rank, &r.Email, &r.EmailScore, &r.LeadScore); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rows iterate")
}

// RecordRun inserts or replaces the bookkeeping for run.ID.
func (s *SQLiteStore) RecordRun(ctx context.Context, run model.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, keyword, started_at, duration_ms, domains, leads, row_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			duration_ms = excluded.duration_ms,
			domains = excluded.domains,
			leads = excluded.leads,
			row_count = excluded.row_count,
			error = excluded.error`,
		run.ID, run.Keyword, run.StartedAt.UTC(), run.Duration.Milliseconds(),
		run.Domains, run.Leads, run.Rows, nullString(run.Error),
	)
	return eris.Wrapf(err, "sqlite: record run %s", run.ID)
}

// ListRuns returns runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, keyword, started_at, duration_ms, domains, leads, row_count, error FROM runs WHERE 1=1`
	var args []any
	if filter.Keyword != "" {
		query += ` AND keyword = ?`
		args = append(args, filter.Keyword)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limitOr(filter.Limit, 100))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.RunRecord
	for rows.Next() {
		var (
			r      model.RunRecord
			ms     int64
			errMsg sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Keyword, &r.StartedAt, &ms, &r.Domains, &r.Leads, &r.Rows, &errMsg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
