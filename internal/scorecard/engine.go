package scorecard

import (
	"github.com/rotisserie/eris"
)

// ScoreResult is the immutable outcome of scoring one submission. Edits
// produce a new result; nothing mutates one in place.
type ScoreResult struct {
	Sections   map[Section]SectionScore `json:"sections"`
	TotalScore int                      `json:"total_score"`
	RAGStatus  RAG                      `json:"rag_status"`
}

// MaxScore sums the applicable maxima across sections. It can sit below the
// catalogue ceiling when metrics were excluded as not applicable.
func (r *ScoreResult) MaxScore() int {
	total := 0
	for _, sec := range r.Sections {
		total += sec.MaxScore
	}
	return total
}

// RAGFromScore classifies a total score into its band. Scores exactly at a
// band floor resolve to the higher band.
func RAGFromScore(total int) RAG {
	switch {
	case total >= GreenFloor:
		return RAGGreen
	case total >= AmberFloor:
		return RAGAmber
	default:
		return RAGRed
	}
}

// ComputeTotal combines section subtotals into a total score and RAG status
// under the given catalogue. Section budgets are additive; nothing is
// rescaled to a common denominator. Inputs that are structurally impossible
// (unknown sections, subtotals exceeding the section budget, a nonzero score
// over a zero maximum) indicate an upstream data-integrity bug and are
// returned as errors rather than silently repaired.
func ComputeTotal(cat Catalog, sections map[Section]SectionScore) (*ScoreResult, error) {
	total := 0
	out := make(map[Section]SectionScore, len(sections))

	for name, sub := range sections {
		budget := cat.SectionMax(name)
		if budget == 0 {
			return nil, eris.Errorf("scorecard: section %q not in %s catalogue", name, cat.Variant)
		}
		if sub.MaxScore == 0 && sub.Score != 0 {
			return nil, eris.Errorf("scorecard: section %q has score %d with zero maximum", name, sub.Score)
		}
		if sub.MaxScore > budget {
			return nil, eris.Errorf("scorecard: section %q maximum %d exceeds %s budget %d", name, sub.MaxScore, cat.Variant, budget)
		}
		if sub.Score > sub.MaxScore {
			return nil, eris.Errorf("scorecard: section %q score %d exceeds its maximum %d", name, sub.Score, sub.MaxScore)
		}
		out[name] = sub
		total += sub.Score
	}

	if total > cat.TotalMax() {
		return nil, eris.Errorf("scorecard: total %d exceeds %s catalogue ceiling %d", total, cat.Variant, cat.TotalMax())
	}

	return &ScoreResult{
		Sections:   out,
		TotalScore: total,
		RAGStatus:  RAGFromScore(total),
	}, nil
}

// Submission carries the raw inputs for one business-month. Categorical
// fields left at their zero value are unspecified and excluded from scoring.
type Submission struct {
	Revenue      FinancialLine `json:"revenue" yaml:"revenue"`
	GrossProfit  FinancialLine `json:"gross_profit" yaml:"gross_profit"`
	Overheads    FinancialLine `json:"overheads" yaml:"overheads"`
	NetProfit    FinancialLine `json:"net_profit" yaml:"net_profit"`
	Productivity FinancialLine `json:"productivity" yaml:"productivity"`

	Leadership       LeadershipOption       `json:"leadership" yaml:"leadership"`
	MarketDemand     MarketDemandOption     `json:"market_demand" yaml:"market_demand"`
	Marketing        MarketingOption        `json:"marketing" yaml:"marketing"`
	ProductStrength  ProductStrengthOption  `json:"product_strength" yaml:"product_strength"`
	SupplierStrength SupplierStrengthOption `json:"supplier_strength" yaml:"supplier_strength"`
	SalesExecution   SalesExecutionOption   `json:"sales_execution" yaml:"sales_execution"`
}

// Normalize re-validates categorical fields against their closed enums,
// mapping anything unrecognized to unspecified. Applied when stored data
// re-enters the engine.
func (s Submission) Normalize() Submission {
	s.Leadership = ParseLeadershipOption(string(s.Leadership))
	s.MarketDemand = ParseMarketDemandOption(string(s.MarketDemand))
	s.Marketing = ParseMarketingOption(string(s.Marketing))
	s.ProductStrength = ParseProductStrengthOption(string(s.ProductStrength))
	s.SupplierStrength = ParseSupplierStrengthOption(string(s.SupplierStrength))
	s.SalesExecution = ParseSalesExecutionOption(string(s.SalesExecution))
	return s
}

// metricScore scores one catalogue metric from the submission.
func (s Submission) metricScore(def MetricDef) MetricScore {
	switch def.ID {
	case MetricRevenue:
		return s.Revenue.Score(def)
	case MetricGrossProfit:
		return s.GrossProfit.Score(def)
	case MetricOverheads:
		return s.Overheads.Score(def)
	case MetricNetProfit:
		return s.NetProfit.Score(def)
	case MetricProductivity:
		return s.Productivity.Score(def)
	case MetricLeadership:
		return scoreOption(def, s.Leadership, leadershipPoints)
	case MetricMarketDemand:
		return scoreOption(def, s.MarketDemand, marketDemandPoints)
	case MetricMarketing:
		return scoreOption(def, s.Marketing, marketingPoints)
	case MetricProductStrength:
		return scoreOption(def, s.ProductStrength, productStrengthPoints)
	case MetricSupplierStrength:
		return scoreOption(def, s.SupplierStrength, supplierStrengthPoints)
	case MetricSalesExecution:
		return scoreOption(def, s.SalesExecution, salesExecutionPoints)
	}
	return MetricScore{Metric: def.ID}
}

// ScoreSubmission runs the full pipeline for one submission: per-metric
// scores, section subtotals, then the catalogue total and RAG status. Pure
// and safe to call concurrently.
func ScoreSubmission(cat Catalog, sub Submission) (*ScoreResult, error) {
	sub = sub.Normalize()

	bySection := make(map[Section][]MetricScore, len(SectionOrder))
	for _, def := range cat.Metrics {
		bySection[def.Section] = append(bySection[def.Section], sub.metricScore(def))
	}

	sections := make(map[Section]SectionScore, len(bySection))
	for name, scores := range bySection {
		sections[name] = AggregateSection(scores)
	}

	return ComputeTotal(cat, sections)
}
