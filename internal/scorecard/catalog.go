// Package scorecard implements the scoring rules that turn raw monthly
// submissions into a 0-100 health score, RAG status, section breakdowns,
// and month-over-month trend classification.
package scorecard

// Section is one of the six fixed performance categories.
type Section string

const (
	SectionFinancial Section = "financial"
	SectionPeople    Section = "people"
	SectionMarket    Section = "market"
	SectionProduct   Section = "product"
	SectionSuppliers Section = "suppliers"
	SectionSales     Section = "sales"
)

// SectionOrder is the canonical display and iteration order.
var SectionOrder = []Section{
	SectionFinancial,
	SectionPeople,
	SectionMarket,
	SectionProduct,
	SectionSuppliers,
	SectionSales,
}

// RAG classifies a total score into red/amber/green bands.
type RAG string

const (
	RAGGreen RAG = "green"
	RAGAmber RAG = "amber"
	RAGRed   RAG = "red"
)

// RAG band floors. A score exactly at a floor resolves to the higher band.
const (
	GreenFloor = 70
	AmberFloor = 40
)

// AnomalyDrop is the month-over-month change at or below which a trend is
// flagged as an anomaly.
const AnomalyDrop = -10

// MaxPortfolioBusinesses is the ceiling callers apply before portfolio
// aggregation to bound downstream prompt size. The aggregator itself does
// not truncate.
const MaxPortfolioBusinesses = 20

// MetricID identifies one scored metric.
type MetricID string

const (
	MetricRevenue          MetricID = "revenue"
	MetricGrossProfit      MetricID = "gross_profit"
	MetricOverheads        MetricID = "overheads"
	MetricNetProfit        MetricID = "net_profit"
	MetricLeadership       MetricID = "leadership"
	MetricProductivity     MetricID = "productivity"
	MetricMarketDemand     MetricID = "market_demand"
	MetricMarketing        MetricID = "marketing"
	MetricProductStrength  MetricID = "product_strength"
	MetricSupplierStrength MetricID = "supplier_strength"
	MetricSalesExecution   MetricID = "sales_execution"
)

// MetricKind distinguishes variance metrics from categorical lookups.
type MetricKind string

const (
	KindVariance    MetricKind = "variance"
	KindCategorical MetricKind = "categorical"
)

// MetricDef describes one member of a section catalogue.
type MetricDef struct {
	ID       MetricID
	Section  Section
	Max      int
	Kind     MetricKind
	Polarity Polarity // variance metrics only
}

// Variant names a catalogue flavor. The full catalogue backs the submission
// form and sums to 100; the chart catalogue backs aggregate/chart display,
// omits two financial sub-metrics and productivity, and sums to 70. The two
// must never be compared directly.
type Variant string

const (
	VariantFull  Variant = "full"
	VariantChart Variant = "chart"
)

// Catalog is a fixed set of metric definitions under a named variant.
type Catalog struct {
	Variant Variant
	Metrics []MetricDef
}

var fullMetrics = []MetricDef{
	{ID: MetricRevenue, Section: SectionFinancial, Max: 10, Kind: KindVariance, Polarity: HigherIsBetter},
	{ID: MetricGrossProfit, Section: SectionFinancial, Max: 10, Kind: KindVariance, Polarity: HigherIsBetter},
	{ID: MetricOverheads, Section: SectionFinancial, Max: 10, Kind: KindVariance, Polarity: LowerIsBetter},
	{ID: MetricNetProfit, Section: SectionFinancial, Max: 10, Kind: KindVariance, Polarity: HigherIsBetter},
	{ID: MetricLeadership, Section: SectionPeople, Max: 10, Kind: KindCategorical},
	{ID: MetricProductivity, Section: SectionPeople, Max: 10, Kind: KindVariance, Polarity: HigherIsBetter},
	{ID: MetricMarketDemand, Section: SectionMarket, Max: 10, Kind: KindCategorical},
	{ID: MetricMarketing, Section: SectionMarket, Max: 5, Kind: KindCategorical},
	{ID: MetricProductStrength, Section: SectionProduct, Max: 10, Kind: KindCategorical},
	{ID: MetricSupplierStrength, Section: SectionSuppliers, Max: 5, Kind: KindCategorical},
	{ID: MetricSalesExecution, Section: SectionSales, Max: 10, Kind: KindCategorical},
}

// chartOmitted lists the full-catalogue metrics the chart variant drops.
var chartOmitted = map[MetricID]bool{
	MetricOverheads:    true,
	MetricNetProfit:    true,
	MetricProductivity: true,
}

// FullCatalog returns the 100-point submission catalogue.
func FullCatalog() Catalog {
	return Catalog{Variant: VariantFull, Metrics: fullMetrics}
}

// ChartCatalog returns the narrower 70-point display catalogue.
func ChartCatalog() Catalog {
	metrics := make([]MetricDef, 0, len(fullMetrics))
	for _, m := range fullMetrics {
		if !chartOmitted[m.ID] {
			metrics = append(metrics, m)
		}
	}
	return Catalog{Variant: VariantChart, Metrics: metrics}
}

// SectionMax returns the point budget for a section under this catalogue.
func (c Catalog) SectionMax(s Section) int {
	total := 0
	for _, m := range c.Metrics {
		if m.Section == s {
			total += m.Max
		}
	}
	return total
}

// TotalMax returns the catalogue's total point ceiling (100 for full, 70 for
// chart).
func (c Catalog) TotalMax() int {
	total := 0
	for _, m := range c.Metrics {
		total += m.Max
	}
	return total
}

// Metric returns the definition for id, if the catalogue contains it.
func (c Catalog) Metric(id MetricID) (MetricDef, bool) {
	for _, m := range c.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return MetricDef{}, false
}
