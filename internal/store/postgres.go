package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"record_run": `INSERT INTO runs (id, keyword, started_at, duration_ms, domains, leads, row_count, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			duration_ms = EXCLUDED.duration_ms,
			domains = EXCLUDED.domains,
			leads = EXCLUDED.leads,
			row_count = EXCLUDED.row_count,
			error = EXCLUDED.error`,
}

// leadColumns is the COPY column order for AppendRows.
var leadColumns = []string{"keyword", "email", "domain", "authority", "search_rank", "email_score", "lead_score", "found_at"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	keyword     TEXT NOT NULL,
	email       TEXT NOT NULL,
	domain      TEXT NOT NULL,
	authority   DOUBLE PRECISION NOT NULL DEFAULT 0,
	search_rank INTEGER NOT NULL DEFAULT 0,
	email_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	lead_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
	found_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (keyword, email)
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	keyword     TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	domains     INTEGER NOT NULL DEFAULT 0,
	leads       INTEGER NOT NULL DEFAULT 0,
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT
);

CREATE INDEX IF NOT EXISTS idx_leads_lead_score ON leads(lead_score DESC);
CREATE INDEX IF NOT EXISTS idx_runs_keyword ON runs(keyword);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// AppendRows bulk-upserts rows keyed by (keyword, email).
func (s *PostgresStore) AppendRows(ctx context.Context, rows []model.OutputRow) error {
	rows = dedupeRows(rows)
	if len(rows) == 0 {
		return nil
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{r.Keyword, r.Email, r.Domain, r.AuthorityScore, r.Rank, r.EmailScore, r.LeadScore, r.Timestamp.UTC()}
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      leadColumns,
		ConflictKeys: []string{"keyword", "email"},
	}, values)
	return eris.Wrap(err, "postgres: append rows")
}

// ListRows returns saved rows, best lead score first.
func (s *PostgresStore) ListRows(ctx context.Context, filter RowFilter) ([]model.OutputRow, error) {
	query := `SELECT found_at, keyword, domain, authority, search_rank, email, email_score, lead_score FROM leads WHERE lead_score >= $1`
	args := []any{filter.MinLeadScore}
	if filter.Keyword != "" {
		args = append(args, filter.Keyword)
		query += ` AND keyword = $2`
	}
	args = append(args, limitOr(filter.Limit, 500))
	query += ` ORDER BY lead_score DESC, authority DESC LIMIT ` + placeholder(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rows")
	}
	defer rows.Close()

	var out []model.OutputRow
	for rows.Next() {
		var r model.OutputRow
		if err := rows.Scan(&r.Timestamp, &r.Keyword, &r.Domain, &r.AuthorityScore, &r.Rank, &r.Email, &r.EmailScore, &r.LeadScore); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list rows iterate")
}

// RecordRun inserts or replaces the bookkeeping for run.ID.
func (s *PostgresStore) RecordRun(ctx context.Context, run model.RunRecord) error {
	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	}
	_, err := s.pool.Exec(ctx, preparedStatements["record_run"],
		run.ID, run.Keyword, run.StartedAt.UTC(), run.Duration.Milliseconds(),
		run.Domains, run.Leads, run.Rows, errMsg,
	)
	return eris.Wrapf(err, "postgres: record run %s", run.ID)
}

// ListRuns returns runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, keyword, started_at, duration_ms, domains, leads, row_count, error FROM runs`
	var args []any
	if filter.Keyword != "" {
		args = append(args, filter.Keyword)
		query += ` WHERE keyword = $1`
	}
	args = append(args, limitOr(filter.Limit, 100))
	query += ` ORDER BY started_at DESC LIMIT ` + placeholder(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var (
			r      model.RunRecord
			ms     int64
			errMsg *string
		)
		if err := rows.Scan(&r.ID, &r.Keyword, &r.StartedAt, &ms, &r.Domains, &r.Leads, &r.Rows, &errMsg); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
