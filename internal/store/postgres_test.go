package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_UpsertBusiness(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	createdAt := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO businesses .* ON CONFLICT \(name\)`).
		WithArgs(pgxmock.AnyArg(), "Acme Joinery", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT id, name, created_at FROM businesses WHERE name = \$1`).
		WithArgs("Acme Joinery").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("existing-id", "Acme Joinery", createdAt))

	out, err := s.UpsertBusiness(context.Background(), model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)
	// The surviving row's identity wins over the generated one.
	assert.Equal(t, "existing-id", out.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScorecard_FloorsMonth(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scorecards .* ON CONFLICT \(business_id, report_month\)`).
		WithArgs(pgxmock.AnyArg(), "biz-1",
			time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
			pgxmock.AnyArg(), pgxmock.AnyArg(), 62, "amber", "", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := model.ScoreRecord{
		BusinessID:  "biz-1",
		ReportMonth: time.Date(2026, time.July, 15, 10, 30, 0, 0, time.UTC),
		Result: scorecard.ScoreResult{
			Sections:   map[scorecard.Section]scorecard.SectionScore{},
			TotalScore: 62,
			RAGStatus:  scorecard.RAGAmber,
		},
	}
	saved, err := s.SaveScorecard(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), saved.ReportMonth)
	assert.NotEmpty(t, saved.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestScorecards(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	sub, err := json.Marshal(scorecard.Submission{
		Revenue: scorecard.FinancialLine{Actual: 110_000, Target: 100_000},
	})
	require.NoError(t, err)
	sections, err := json.Marshal(map[scorecard.Section]scorecard.SectionScore{
		scorecard.SectionFinancial: {Score: 30, MaxScore: 40},
	})
	require.NoError(t, err)

	july := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT DISTINCT ON \(business_id\)`).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "business_id", "name", "report_month", "submission", "sections",
			"total_score", "rag", "risks", "opportunities", "created_at",
		}).AddRow("sc-1", "biz-1", "Acme Joinery", july, sub, sections, 75, "green", "", "", july))

	out, err := s.LatestScorecards(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Acme Joinery", out[0].BusinessName)
	assert.Equal(t, scorecard.RAGGreen, out[0].Result.RAGStatus)
	assert.Equal(t, 110_000.0, out[0].Submission.Revenue.Actual)
	assert.Equal(t, scorecard.SectionScore{Score: 30, MaxScore: 40}, out[0].Result.Sections[scorecard.SectionFinancial])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_History_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE sc\.business_id = \$1 AND sc\.report_month < \$2`).
		WithArgs("biz-1", pgxmock.AnyArg(), 12).
		WillReturnError(pgx.ErrTxClosed)

	_, err := s.History(context.Background(), "biz-1", time.Now(), 12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestScorecards_BadSubmissionJSON(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	july := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT DISTINCT ON \(business_id\)`).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "business_id", "name", "report_month", "submission", "sections",
			"total_score", "rag", "risks", "opportunities", "created_at",
		}).AddRow("sc-1", "biz-1", "Acme Joinery", july, []byte("not-json"), []byte("{}"), 75, "green", "", "", july))

	_, err := s.LatestScorecards(context.Background(), 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal submission")
	assert.NoError(t, mock.ExpectationsWereMet())
}
