package scorecard

import (
	"math"

	"go.uber.org/zap"
)

// Polarity indicates which direction of a variance is good.
type Polarity string

const (
	HigherIsBetter Polarity = "higher-is-better"
	LowerIsBetter  Polarity = "lower-is-better"
)

// Variance tier boundaries, in percent. A variance at or above varTierMeets
// earns the full metric maximum; each step down earns the next fraction.
// Variances outside [-100, 100] are clamped, which these tiers absorb
// naturally since they saturate beyond varTierFloor.
const (
	varTierMeets  = 0.0
	varTierNear   = -5.0
	varTierShort  = -10.0
	varTierMissed = -20.0
	varTierBad    = -30.0
	varianceClamp = 100.0
)

// tierFractions maps each tier, best first, to its fraction of the metric max.
var tierFractions = []struct {
	floor float64
	frac  float64
}{
	{varTierMeets, 1.0},
	{varTierNear, 0.8},
	{varTierShort, 0.6},
	{varTierMissed, 0.4},
	{varTierBad, 0.2},
}

// MetricScore is the scored outcome of a single metric. Non-applicable
// entries contribute to neither a section's score nor its maximum.
type MetricScore struct {
	Metric     MetricID `json:"metric"`
	Score      int      `json:"score"`
	MaxScore   int      `json:"max_score"`
	Applicable bool     `json:"applicable"`
}

// Variance returns the percentage difference between actual and target.
// A zero target yields a variance of 0 rather than a division by zero.
func Variance(actual, target float64) float64 {
	if target == 0 {
		return 0
	}
	return (actual - target) / target * 100
}

// ScoreVariance maps a signed percentage variance to a point score in
// [0, max]. Meeting or exceeding target (variance >= 0) earns max; larger
// misses step down through the tiers to 0. LowerIsBetter metrics score the
// negated variance, so underspend earns the top tier.
func ScoreVariance(percent float64, polarity Polarity, max int) int {
	v := percent
	if polarity == LowerIsBetter {
		v = -v
	}
	if v > varianceClamp {
		v = varianceClamp
	}
	if v < -varianceClamp {
		v = -varianceClamp
	}
	for _, t := range tierFractions {
		if v >= t.floor {
			return int(math.Round(t.frac * float64(max)))
		}
	}
	return 0
}

// FinancialLine is one actual-vs-target pair from a submission.
type FinancialLine struct {
	Actual        float64 `json:"actual" yaml:"actual"`
	Target        float64 `json:"target" yaml:"target"`
	NotApplicable bool    `json:"not_applicable,omitempty" yaml:"not_applicable,omitempty"`
}

// Score computes the line's variance score against the given metric
// definition.
func (l FinancialLine) Score(def MetricDef) MetricScore {
	if l.NotApplicable {
		return MetricScore{Metric: def.ID}
	}
	v := Variance(l.Actual, l.Target)
	return MetricScore{
		Metric:     def.ID,
		Score:      ScoreVariance(v, def.Polarity, def.Max),
		MaxScore:   def.Max,
		Applicable: true,
	}
}

// Categorical option sets. Each is a closed enum; the zero value means
// "unspecified" and is excluded from scoring the same way an explicit
// not-applicable answer is. Parse functions map unrecognized stored values
// to unspecified with a warning rather than failing, so one bad field never
// blocks the rest of a scorecard.

// LeadershipOption rates the leadership team. Max 10 points.
type LeadershipOption string

const (
	LeadershipUnspecified LeadershipOption = ""
	LeadershipStrong      LeadershipOption = "strong"
	LeadershipCapable     LeadershipOption = "capable"
	LeadershipDeveloping  LeadershipOption = "developing"
	LeadershipWeak        LeadershipOption = "weak"
	LeadershipNA          LeadershipOption = "not_applicable"
)

var leadershipPoints = map[LeadershipOption]int{
	LeadershipStrong:     10,
	LeadershipCapable:    7,
	LeadershipDeveloping: 4,
	LeadershipWeak:       1,
}

// MarketDemandOption rates demand for the business's offering. Max 10 points.
type MarketDemandOption string

const (
	MarketDemandUnspecified MarketDemandOption = ""
	MarketDemandGrowing     MarketDemandOption = "growing"
	MarketDemandStable      MarketDemandOption = "stable"
	MarketDemandFlat        MarketDemandOption = "flat"
	MarketDemandDeclining   MarketDemandOption = "declining"
)

var marketDemandPoints = map[MarketDemandOption]int{
	MarketDemandGrowing:   10,
	MarketDemandStable:    7,
	MarketDemandFlat:      4,
	MarketDemandDeclining: 0,
}

// MarketingOption rates marketing effectiveness. Max 5 points.
type MarketingOption string

const (
	MarketingUnspecified MarketingOption = ""
	MarketingEffective   MarketingOption = "effective"
	MarketingAdequate    MarketingOption = "adequate"
	MarketingMinimal     MarketingOption = "minimal"
	MarketingNone        MarketingOption = "none"
	MarketingNA          MarketingOption = "not_applicable"
)

var marketingPoints = map[MarketingOption]int{
	MarketingEffective: 5,
	MarketingAdequate:  3,
	MarketingMinimal:   1,
	MarketingNone:      0,
}

// ProductStrengthOption rates the product or service offering. Max 10 points.
type ProductStrengthOption string

const (
	ProductStrengthUnspecified ProductStrengthOption = ""
	ProductMarketLeading       ProductStrengthOption = "market_leading"
	ProductCompetitive         ProductStrengthOption = "competitive"
	ProductAdequate            ProductStrengthOption = "adequate"
	ProductWeak                ProductStrengthOption = "weak"
)

var productStrengthPoints = map[ProductStrengthOption]int{
	ProductMarketLeading: 10,
	ProductCompetitive:   7,
	ProductAdequate:      4,
	ProductWeak:          1,
}

// SupplierStrengthOption rates the supply chain. Max 5 points.
type SupplierStrengthOption string

const (
	SupplierStrengthUnspecified SupplierStrengthOption = ""
	SupplierResilient           SupplierStrengthOption = "resilient"
	SupplierStable              SupplierStrengthOption = "stable"
	SupplierFragile             SupplierStrengthOption = "fragile"
	SupplierNA                  SupplierStrengthOption = "not_applicable"
)

var supplierStrengthPoints = map[SupplierStrengthOption]int{
	SupplierResilient: 5,
	SupplierStable:    3,
	SupplierFragile:   1,
}

// SalesExecutionOption rates sales performance against plan. Max 10 points.
type SalesExecutionOption string

const (
	SalesExecutionUnspecified SalesExecutionOption = ""
	SalesExceeding            SalesExecutionOption = "exceeding"
	SalesOnPlan               SalesExecutionOption = "on_plan"
	SalesBehind               SalesExecutionOption = "behind"
	SalesCritical             SalesExecutionOption = "critical"
)

var salesExecutionPoints = map[SalesExecutionOption]int{
	SalesExceeding: 10,
	SalesOnPlan:    7,
	SalesBehind:    4,
	SalesCritical:  0,
}

func warnUnknownOption(metric MetricID, value string) {
	zap.L().Warn("scorecard: unrecognized option treated as unspecified",
		zap.String("metric", string(metric)),
		zap.String("value", value),
	)
}

// ParseLeadershipOption maps a stored value back into the closed enum.
func ParseLeadershipOption(s string) LeadershipOption {
	switch o := LeadershipOption(s); o {
	case LeadershipUnspecified, LeadershipStrong, LeadershipCapable, LeadershipDeveloping, LeadershipWeak, LeadershipNA:
		return o
	}
	warnUnknownOption(MetricLeadership, s)
	return LeadershipUnspecified
}

// ParseMarketDemandOption maps a stored value back into the closed enum.
func ParseMarketDemandOption(s string) MarketDemandOption {
	switch o := MarketDemandOption(s); o {
	case MarketDemandUnspecified, MarketDemandGrowing, MarketDemandStable, MarketDemandFlat, MarketDemandDeclining:
		return o
	}
	warnUnknownOption(MetricMarketDemand, s)
	return MarketDemandUnspecified
}

// ParseMarketingOption maps a stored value back into the closed enum.
func ParseMarketingOption(s string) MarketingOption {
	switch o := MarketingOption(s); o {
	case MarketingUnspecified, MarketingEffective, MarketingAdequate, MarketingMinimal, MarketingNone, MarketingNA:
		return o
	}
	warnUnknownOption(MetricMarketing, s)
	return MarketingUnspecified
}

// ParseProductStrengthOption maps a stored value back into the closed enum.
func ParseProductStrengthOption(s string) ProductStrengthOption {
	switch o := ProductStrengthOption(s); o {
	case ProductStrengthUnspecified, ProductMarketLeading, ProductCompetitive, ProductAdequate, ProductWeak:
		return o
	}
	warnUnknownOption(MetricProductStrength, s)
	return ProductStrengthUnspecified
}

// ParseSupplierStrengthOption maps a stored value back into the closed enum.
func ParseSupplierStrengthOption(s string) SupplierStrengthOption {
	switch o := SupplierStrengthOption(s); o {
	case SupplierStrengthUnspecified, SupplierResilient, SupplierStable, SupplierFragile, SupplierNA:
		return o
	}
	warnUnknownOption(MetricSupplierStrength, s)
	return SupplierStrengthUnspecified
}

// ParseSalesExecutionOption maps a stored value back into the closed enum.
func ParseSalesExecutionOption(s string) SalesExecutionOption {
	switch o := SalesExecutionOption(s); o {
	case SalesExecutionUnspecified, SalesExceeding, SalesOnPlan, SalesBehind, SalesCritical:
		return o
	}
	warnUnknownOption(MetricSalesExecution, s)
	return SalesExecutionUnspecified
}

// scoreOption turns a points-table lookup into a MetricScore. Unspecified and
// not-applicable values are excluded rather than scored as zero, so an
// unanswered field does not depress the section percentage.
func scoreOption[T comparable](def MetricDef, value T, points map[T]int) MetricScore {
	pts, ok := points[value]
	if !ok {
		return MetricScore{Metric: def.ID}
	}
	return MetricScore{Metric: def.ID, Score: pts, MaxScore: def.Max, Applicable: true}
}
