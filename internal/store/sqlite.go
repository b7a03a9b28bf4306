package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scorecards (
	id            TEXT PRIMARY KEY,
	business_id   TEXT NOT NULL REFERENCES businesses(id),
	report_month  TEXT NOT NULL,
	submission    TEXT NOT NULL,
	sections      TEXT NOT NULL,
	total_score   INTEGER NOT NULL,
	rag           TEXT NOT NULL,
	risks         TEXT NOT NULL DEFAULT '',
	opportunities TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (business_id, report_month)
);

CREATE INDEX IF NOT EXISTS idx_scorecards_business_month ON scorecards(business_id, report_month DESC);
CREATE INDEX IF NOT EXISTS idx_scorecards_rag ON scorecards(rag);
`

// sqliteMonth stores reporting months as their first-of-month date string so
// lexical ordering matches chronological ordering.
const sqliteMonthLayout = "2006-01-02"

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertBusiness(ctx context.Context, b model.Business) (*model.Business, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO businesses (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET name = excluded.name`,
		b.ID, b.Name, b.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert business %s", b.Name)
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM businesses WHERE name = ?`, b.Name)
	var out model.Business
	if err := row.Scan(&out.ID, &out.Name, &out.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: read business %s", b.Name)
	}
	return &out, nil
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM businesses ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business")
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate businesses")
	}
	return out, nil
}

func (s *SQLiteStore) SaveScorecard(ctx context.Context, rec model.ScoreRecord) (*model.ScoreRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.ReportMonth = monthFloor(rec.ReportMonth)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	subJSON, err := json.Marshal(rec.Submission)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal submission")
	}
	sectionsJSON, err := json.Marshal(rec.Result.Sections)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal sections")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scorecards (id, business_id, report_month, submission, sections, total_score, rag, risks, opportunities, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (business_id, report_month) DO UPDATE SET
			submission = excluded.submission,
			sections = excluded.sections,
			total_score = excluded.total_score,
			rag = excluded.rag,
			risks = excluded.risks,
			opportunities = excluded.opportunities,
			created_at = excluded.created_at`,
		rec.ID, rec.BusinessID, rec.ReportMonth.Format(sqliteMonthLayout),
		string(subJSON), string(sectionsJSON),
		rec.Result.TotalScore, string(rec.Result.RAGStatus),
		rec.Risks, rec.Opportunities, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save scorecard for %s", rec.BusinessID)
	}
	return &rec, nil
}

const sqliteSelectScorecard = `
SELECT sc.id, sc.business_id, b.name, sc.report_month, sc.submission, sc.sections,
       sc.total_score, sc.rag, sc.risks, sc.opportunities, sc.created_at
FROM scorecards sc
JOIN businesses b ON b.id = sc.business_id`

func (s *SQLiteStore) LatestScorecards(ctx context.Context, limit int) ([]model.ScoreRecord, error) {
	query := sqliteSelectScorecard + `
WHERE sc.report_month = (
	SELECT MAX(report_month) FROM scorecards latest WHERE latest.business_id = sc.business_id
)
ORDER BY b.name
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest scorecards")
	}
	defer rows.Close()

	return scanSQLiteRecords(rows)
}

func (s *SQLiteStore) History(ctx context.Context, businessID string, before time.Time, limit int) ([]model.ScoreRecord, error) {
	query := sqliteSelectScorecard + `
WHERE sc.business_id = ? AND sc.report_month < ?
ORDER BY sc.report_month DESC
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, businessID, monthFloor(before).Format(sqliteMonthLayout), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: history for %s", businessID)
	}
	defer rows.Close()

	return scanSQLiteRecords(rows)
}

func scanSQLiteRecords(rows *sql.Rows) ([]model.ScoreRecord, error) {
	var out []model.ScoreRecord
	for rows.Next() {
		var (
			rec          model.ScoreRecord
			month        string
			subJSON      string
			sectionsJSON string
			rag          string
		)
		err := rows.Scan(
			&rec.ID, &rec.BusinessID, &rec.BusinessName, &month,
			&subJSON, &sectionsJSON, &rec.Result.TotalScore, &rag,
			&rec.Risks, &rec.Opportunities, &rec.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scorecard")
		}
		rec.ReportMonth, err = time.ParseInLocation(sqliteMonthLayout, month, time.UTC)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse report month %q", month)
		}
		if err := json.Unmarshal([]byte(subJSON), &rec.Submission); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal submission")
		}
		if err := json.Unmarshal([]byte(sectionsJSON), &rec.Result.Sections); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal sections")
		}
		rec.Result.RAGStatus = scorecard.RAG(rag)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate scorecards")
	}
	return out, nil
}
