// Package portfolio folds many businesses' scorecards into a compact
// cross-business summary used for dashboards and for feeding the narrative
// generator. Aggregation is pure and deterministic: identical inputs produce
// identical outputs, with no randomness and no network calls.
package portfolio

import (
	"math"
	"sort"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// SectionWeakness ranks one section across the portfolio.
type SectionWeakness struct {
	Section        scorecard.Section `json:"section"`
	AveragePercent float64           `json:"average_percent"`
	BelowHalf      int               `json:"below_half"` // businesses under 50% of the section max
	Businesses     int               `json:"businesses"` // businesses with data for the section
}

// Anomaly is one business flagged by its trend.
type Anomaly struct {
	BusinessID   string `json:"business_id"`
	Name         string `json:"name"`
	ScoreChange  int    `json:"score_change"`
	CurrentScore int    `json:"current_score"`
}

// Capsule is the per-business summary carried into the aggregate. Risk and
// opportunity text passes through verbatim; summarization is delegated to
// the text-generation collaborator.
type Capsule struct {
	BusinessID     string                 `json:"business_id"`
	Name           string                 `json:"name"`
	Score          int                    `json:"score"`
	RAGStatus      scorecard.RAG          `json:"rag_status"`
	Trend          *scorecard.TrendResult `json:"trend,omitempty"`
	WeakestSection scorecard.Section      `json:"weakest_section,omitempty"`
	Risks          string                 `json:"risks,omitempty"`
	Opportunities  string                 `json:"opportunities,omitempty"`
}

// Aggregate is the read-only portfolio summary, rebuilt on every request and
// never persisted here.
type Aggregate struct {
	Businesses      int                   `json:"businesses"`
	RAGCounts       map[scorecard.RAG]int `json:"rag_counts"`
	AverageScore    int                   `json:"average_score"`
	MinScore        int                   `json:"min_score"`
	MaxScore        int                   `json:"max_score"`
	WeakestSections []SectionWeakness     `json:"weakest_sections"`
	Anomalies       []Anomaly             `json:"anomalies"`
	Capsules        []Capsule             `json:"capsules"`
}

// Build aggregates the given summaries. Zero businesses yields a well-formed
// empty aggregate, not an error. Callers are expected to cap the input at
// scorecard.MaxPortfolioBusinesses before calling; Build itself never
// truncates.
func Build(summaries []model.BusinessSummary) Aggregate {
	agg := Aggregate{
		RAGCounts: map[scorecard.RAG]int{
			scorecard.RAGGreen: 0,
			scorecard.RAGAmber: 0,
			scorecard.RAGRed:   0,
		},
		WeakestSections: []SectionWeakness{},
		Anomalies:       []Anomaly{},
		Capsules:        []Capsule{},
	}
	if len(summaries) == 0 {
		return agg
	}

	agg.Businesses = len(summaries)
	agg.MinScore = summaries[0].TotalScore
	agg.MaxScore = summaries[0].TotalScore

	var sum int
	type sectionAcc struct {
		percentSum float64
		belowHalf  int
		businesses int
	}
	bySection := make(map[scorecard.Section]*sectionAcc, len(scorecard.SectionOrder))

	for _, s := range summaries {
		sum += s.TotalScore
		if s.TotalScore < agg.MinScore {
			agg.MinScore = s.TotalScore
		}
		if s.TotalScore > agg.MaxScore {
			agg.MaxScore = s.TotalScore
		}
		agg.RAGCounts[s.RAGStatus]++

		for name, sub := range s.Sections {
			if !sub.HasData() {
				continue
			}
			acc := bySection[name]
			if acc == nil {
				acc = &sectionAcc{}
				bySection[name] = acc
			}
			acc.businesses++
			acc.percentSum += sub.PercentOfMax()
			if sub.Score*2 < sub.MaxScore {
				acc.belowHalf++
			}
		}

		if s.Trend != nil && s.Trend.IsAnomaly {
			agg.Anomalies = append(agg.Anomalies, Anomaly{
				BusinessID:   s.BusinessID,
				Name:         s.Name,
				ScoreChange:  s.Trend.Change,
				CurrentScore: s.TotalScore,
			})
		}

		agg.Capsules = append(agg.Capsules, Capsule{
			BusinessID:     s.BusinessID,
			Name:           s.Name,
			Score:          s.TotalScore,
			RAGStatus:      s.RAGStatus,
			Trend:          s.Trend,
			WeakestSection: weakestSection(s.Sections),
			Risks:          s.Risks,
			Opportunities:  s.Opportunities,
		})
	}

	agg.AverageScore = int(math.Round(float64(sum) / float64(len(summaries))))

	// Sections absent from every business are omitted, not zero-filled.
	for name, acc := range bySection {
		agg.WeakestSections = append(agg.WeakestSections, SectionWeakness{
			Section:        name,
			AveragePercent: acc.percentSum / float64(acc.businesses),
			BelowHalf:      acc.belowHalf,
			Businesses:     acc.businesses,
		})
	}
	sort.Slice(agg.WeakestSections, func(i, j int) bool {
		a, b := agg.WeakestSections[i], agg.WeakestSections[j]
		if a.AveragePercent != b.AveragePercent {
			return a.AveragePercent < b.AveragePercent
		}
		return a.Section < b.Section
	})

	sort.Slice(agg.Anomalies, func(i, j int) bool {
		a, b := agg.Anomalies[i], agg.Anomalies[j]
		if a.ScoreChange != b.ScoreChange {
			return a.ScoreChange < b.ScoreChange
		}
		return a.BusinessID < b.BusinessID
	})

	sort.Slice(agg.Capsules, func(i, j int) bool {
		a, b := agg.Capsules[i], agg.Capsules[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.BusinessID < b.BusinessID
	})

	return agg
}

// weakestSection returns the business's lowest section by percent-of-max,
// considering only sections with data. Ties resolve by catalogue order so
// the choice is stable.
func weakestSection(sections map[scorecard.Section]scorecard.SectionScore) scorecard.Section {
	var weakest scorecard.Section
	lowest := math.MaxFloat64
	for _, name := range scorecard.SectionOrder {
		sub, ok := sections[name]
		if !ok || !sub.HasData() {
			continue
		}
		if pct := sub.PercentOfMax(); pct < lowest {
			lowest = pct
			weakest = name
		}
	}
	return weakest
}
