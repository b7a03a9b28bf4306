package model

import (
	"time"

	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// ScoreRecord is one persisted scorecard: the raw submission for a
// business-month plus the computed result. Records are immutable once
// written; an edit recomputes and replaces the month's record rather than
// mutating it.
type ScoreRecord struct {
	ID            string                `json:"id"`
	BusinessID    string                `json:"business_id"`
	BusinessName  string                `json:"business_name"`
	ReportMonth   time.Time             `json:"report_month"`
	Submission    scorecard.Submission  `json:"submission"`
	Result        scorecard.ScoreResult `json:"result"`
	Risks         string                `json:"risks,omitempty"`
	Opportunities string                `json:"opportunities,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// BusinessSummary is the per-business slice handed to the portfolio
// aggregator: derived values only, with risk/opportunity text carried
// verbatim.
type BusinessSummary struct {
	BusinessID    string                                       `json:"business_id"`
	Name          string                                       `json:"name"`
	TotalScore    int                                          `json:"total_score"`
	RAGStatus     scorecard.RAG                                `json:"rag_status"`
	Trend         *scorecard.TrendResult                       `json:"trend,omitempty"`
	Sections      map[scorecard.Section]scorecard.SectionScore `json:"sections"`
	Risks         string                                       `json:"risks,omitempty"`
	Opportunities string                                       `json:"opportunities,omitempty"`
}

// SummaryFromRecord builds the aggregation input from a persisted record and
// its (possibly nil) trend.
func SummaryFromRecord(rec ScoreRecord, trend *scorecard.TrendResult) BusinessSummary {
	return BusinessSummary{
		BusinessID:    rec.BusinessID,
		Name:          rec.BusinessName,
		TotalScore:    rec.Result.TotalScore,
		RAGStatus:     rec.Result.RAGStatus,
		Trend:         trend,
		Sections:      rec.Result.Sections,
		Risks:         rec.Risks,
		Opportunities: rec.Opportunities,
	}
}

// HistoryPoints converts records ordered by month descending into the
// engine's trend-selection input.
func HistoryPoints(records []ScoreRecord) []scorecard.HistoryPoint {
	points := make([]scorecard.HistoryPoint, len(records))
	for i, rec := range records {
		points[i] = scorecard.HistoryPoint{Month: rec.ReportMonth, TotalScore: rec.Result.TotalScore}
	}
	return points
}
