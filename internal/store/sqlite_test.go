package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scorecard-cli/internal/config"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRecord(businessID string, month time.Time, score int) model.ScoreRecord {
	return model.ScoreRecord{
		BusinessID:  businessID,
		ReportMonth: month,
		Submission: scorecard.Submission{
			Revenue:    scorecard.FinancialLine{Actual: 110_000, Target: 100_000},
			Leadership: scorecard.LeadershipCapable,
		},
		Result: scorecard.ScoreResult{
			Sections: map[scorecard.Section]scorecard.SectionScore{
				scorecard.SectionFinancial: {Score: score * 40 / 100, MaxScore: 40},
			},
			TotalScore: score,
			RAGStatus:  scorecard.RAGFromScore(score),
		},
		Risks: "single large customer",
	}
}

func TestSQLiteStore_BusinessRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// Upserting the same name keeps the original identity.
	again, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	list, err := s.ListBusinesses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Joinery", list[0].Name)
}

func TestSQLiteStore_SaveAndReadScorecard(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	biz, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)

	july := time.Date(2026, time.July, 15, 10, 0, 0, 0, time.UTC)
	saved, err := s.SaveScorecard(ctx, testRecord(biz.ID, july, 62))
	require.NoError(t, err)
	// Reporting months normalize to the first of the month.
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), saved.ReportMonth)

	latest, err := s.LatestScorecards(ctx, 20)
	require.NoError(t, err)
	require.Len(t, latest, 1)

	got := latest[0]
	assert.Equal(t, biz.ID, got.BusinessID)
	assert.Equal(t, "Acme Joinery", got.BusinessName)
	assert.Equal(t, 62, got.Result.TotalScore)
	assert.Equal(t, scorecard.RAGAmber, got.Result.RAGStatus)
	assert.Equal(t, scorecard.LeadershipCapable, got.Submission.Leadership)
	assert.Equal(t, "single large customer", got.Risks)
	assert.Equal(t, scorecard.SectionScore{Score: 24, MaxScore: 40}, got.Result.Sections[scorecard.SectionFinancial])
}

func TestSQLiteStore_SameMonthReplacesRecord(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	biz, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)

	july := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.SaveScorecard(ctx, testRecord(biz.ID, july, 55))
	require.NoError(t, err)
	_, err = s.SaveScorecard(ctx, testRecord(biz.ID, july, 61))
	require.NoError(t, err)

	latest, err := s.LatestScorecards(ctx, 20)
	require.NoError(t, err)
	require.Len(t, latest, 1, "an edit replaces the month's record, it never duplicates it")
	assert.Equal(t, 61, latest[0].Result.TotalScore)
}

func TestSQLiteStore_HistoryOrderedDescending(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	biz, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)

	months := []struct {
		month time.Time
		score int
	}{
		{time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), 48},
		{time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), 58},
		{time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), 64},
	}
	for _, m := range months {
		_, err := s.SaveScorecard(ctx, testRecord(biz.ID, m.month, m.score))
		require.NoError(t, err)
	}

	august := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	history, err := s.History(ctx, biz.ID, august, 12)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 64, history[0].Result.TotalScore)
	assert.Equal(t, 58, history[1].Result.TotalScore)
	assert.Equal(t, 48, history[2].Result.TotalScore)

	// "before" is exclusive: the July record is prior history for July itself.
	prior, err := s.History(ctx, biz.ID, months[2].month, 12)
	require.NoError(t, err)
	require.Len(t, prior, 2)
	assert.Equal(t, 58, prior[0].Result.TotalScore)
}

func TestSQLiteStore_LatestScorecardsOnePerBusiness(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	acme, err := s.UpsertBusiness(ctx, model.Business{Name: "Acme Joinery"})
	require.NoError(t, err)
	bolt, err := s.UpsertBusiness(ctx, model.Business{Name: "Bolt Fabrication"})
	require.NoError(t, err)

	june := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	july := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.SaveScorecard(ctx, testRecord(acme.ID, june, 50))
	require.NoError(t, err)
	_, err = s.SaveScorecard(ctx, testRecord(acme.ID, july, 70))
	require.NoError(t, err)
	_, err = s.SaveScorecard(ctx, testRecord(bolt.ID, june, 45))
	require.NoError(t, err)

	latest, err := s.LatestScorecards(ctx, 20)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	// Ordered by business name, each with its most recent month.
	assert.Equal(t, "Acme Joinery", latest[0].BusinessName)
	assert.Equal(t, 70, latest[0].Result.TotalScore)
	assert.Equal(t, "Bolt Fabrication", latest[1].BusinessName)
	assert.Equal(t, 45, latest[1].Result.TotalScore)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
}
