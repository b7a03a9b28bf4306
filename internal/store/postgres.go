package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/scorecard-cli/internal/config"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// Pool is the subset of pgxpool.Pool the store uses, narrow enough for
// pgxmock to stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, cfg config.StoreConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		minConns = cfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

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
CREATE TABLE IF NOT EXISTS businesses (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scorecards (
	id            TEXT PRIMARY KEY,
	business_id   TEXT NOT NULL REFERENCES businesses(id),
	report_month  DATE NOT NULL,
	submission    JSONB NOT NULL,
	sections      JSONB NOT NULL,
	total_score   INTEGER NOT NULL,
	rag           TEXT NOT NULL,
	risks         TEXT NOT NULL DEFAULT '',
	opportunities TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (business_id, report_month)
);

CREATE INDEX IF NOT EXISTS idx_scorecards_business_month ON scorecards(business_id, report_month DESC);
CREATE INDEX IF NOT EXISTS idx_scorecards_rag ON scorecards(rag);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertBusiness(ctx context.Context, b model.Business) (*model.Business, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO businesses (id, name, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name`,
		b.ID, b.Name, b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert business %s", b.Name)
	}

	// Re-read so a conflict returns the surviving row's identity.
	row := s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM businesses WHERE name = $1`, b.Name)
	var out model.Business
	if err := row.Scan(&out.ID, &out.Name, &out.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: read business %s", b.Name)
	}
	return &out, nil
}

func (s *PostgresStore) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM businesses ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business")
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate businesses")
	}
	return out, nil
}

func (s *PostgresStore) SaveScorecard(ctx context.Context, rec model.ScoreRecord) (*model.ScoreRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.ReportMonth = monthFloor(rec.ReportMonth)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	subJSON, err := json.Marshal(rec.Submission)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal submission")
	}
	sectionsJSON, err := json.Marshal(rec.Result.Sections)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal sections")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scorecards (id, business_id, report_month, submission, sections, total_score, rag, risks, opportunities, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (business_id, report_month) DO UPDATE SET
			submission = EXCLUDED.submission,
			sections = EXCLUDED.sections,
			total_score = EXCLUDED.total_score,
			rag = EXCLUDED.rag,
			risks = EXCLUDED.risks,
			opportunities = EXCLUDED.opportunities,
			created_at = EXCLUDED.created_at`,
		rec.ID, rec.BusinessID, rec.ReportMonth, subJSON, sectionsJSON,
		rec.Result.TotalScore, string(rec.Result.RAGStatus), rec.Risks, rec.Opportunities, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save scorecard for %s", rec.BusinessID)
	}
	return &rec, nil
}

const postgresSelectScorecard = `
SELECT sc.id, sc.business_id, b.name, sc.report_month, sc.submission, sc.sections,
       sc.total_score, sc.rag, sc.risks, sc.opportunities, sc.created_at
FROM scorecards sc
JOIN businesses b ON b.id = sc.business_id`

func (s *PostgresStore) LatestScorecards(ctx context.Context, limit int) ([]model.ScoreRecord, error) {
	query := postgresSelectScorecard + `
WHERE sc.id IN (
	SELECT DISTINCT ON (business_id) id
	FROM scorecards
	ORDER BY business_id, report_month DESC
)
ORDER BY b.name
LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest scorecards")
	}
	defer rows.Close()

	return scanScoreRecords(rows)
}

func (s *PostgresStore) History(ctx context.Context, businessID string, before time.Time, limit int) ([]model.ScoreRecord, error) {
	query := postgresSelectScorecard + `
WHERE sc.business_id = $1 AND sc.report_month < $2
ORDER BY sc.report_month DESC
LIMIT $3`

	rows, err := s.pool.Query(ctx, query, businessID, monthFloor(before), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: history for %s", businessID)
	}
	defer rows.Close()

	return scanScoreRecords(rows)
}

func scanScoreRecords(rows pgx.Rows) ([]model.ScoreRecord, error) {
	var out []model.ScoreRecord
	for rows.Next() {
		var (
			rec          model.ScoreRecord
			subJSON      []byte
			sectionsJSON []byte
			rag          string
		)
		err := rows.Scan(
			&rec.ID, &rec.BusinessID, &rec.BusinessName, &rec.ReportMonth,
			&subJSON, &sectionsJSON, &rec.Result.TotalScore, &rag,
			&rec.Risks, &rec.Opportunities, &rec.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan scorecard")
		}
		if err := json.Unmarshal(subJSON, &rec.Submission); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal submission")
		}
		if err := json.Unmarshal(sectionsJSON, &rec.Result.Sections); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal sections")
		}
		rec.Result.RAGStatus = scorecard.RAG(rag)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate scorecards")
	}
	return out, nil
}
