package scorecard

import (
	"time"

	"github.com/rotisserie/eris"
)

// Direction classifies a month-over-month score change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionSame Direction = "same"
)

// TrendResult compares two sequential total scores for one business.
type TrendResult struct {
	Direction Direction `json:"direction"`
	Change    int       `json:"change"`
	IsAnomaly bool      `json:"is_anomaly"`
}

// ErrAmbiguousHistory reports two records tying for a business's most recent
// month. This should be impossible with a well-formed store and indicates an
// upstream data-integrity bug; it is never silently resolved by picking one.
var ErrAmbiguousHistory = eris.New("scorecard: multiple records tie for most recent month")

// ComputeTrend classifies the change between the current total score and the
// previous one. A nil previous means no prior scorecard exists, for which no
// trend is defined. The anomaly flag is informational only; it triggers no
// corrective action here.
func ComputeTrend(current int, previous *int) *TrendResult {
	if previous == nil {
		return nil
	}
	change := current - *previous
	dir := DirectionSame
	switch {
	case change > 0:
		dir = DirectionUp
	case change < 0:
		dir = DirectionDown
	}
	return &TrendResult{
		Direction: dir,
		Change:    change,
		IsAnomaly: change <= AnomalyDrop,
	}
}

// HistoryPoint is one prior total score, keyed by reporting month.
type HistoryPoint struct {
	Month      time.Time
	TotalScore int
}

// PreviousScore selects the most recent prior score from history ordered by
// reporting month descending. Returns nil with no error when the history is
// empty, and ErrAmbiguousHistory when the two most recent records share a
// month.
func PreviousScore(history []HistoryPoint) (*int, error) {
	if len(history) == 0 {
		return nil, nil
	}
	if len(history) > 1 && sameMonth(history[0].Month, history[1].Month) {
		return nil, eris.Wrapf(ErrAmbiguousHistory, "month %s", history[0].Month.Format("2006-01"))
	}
	score := history[0].TotalScore
	return &score, nil
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
