package scorecard

// SectionScore is a section subtotal. A section where every metric was
// excluded comes back as {0, 0}, which callers must treat as "no data"
// rather than 0%.
type SectionScore struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// HasData reports whether at least one applicable metric contributed.
func (s SectionScore) HasData() bool {
	return s.MaxScore > 0
}

// PercentOfMax returns the subtotal as a percentage of its maximum, or 0
// for a no-data section.
func (s SectionScore) PercentOfMax() float64 {
	if s.MaxScore == 0 {
		return 0
	}
	return float64(s.Score) / float64(s.MaxScore) * 100
}

// AggregateSection sums metric scores into a section subtotal. Only
// applicable entries count, on both sides of the fraction: excluding a
// metric removes its maximum from the denominator as well as its score
// from the numerator.
func AggregateSection(metrics []MetricScore) SectionScore {
	var out SectionScore
	for _, m := range metrics {
		if !m.Applicable {
			continue
		}
		out.Score += m.Score
		out.MaxScore += m.MaxScore
	}
	return out
}
