package scorecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullCatalog_BudgetsAreExhaustive(t *testing.T) {
	cat := FullCatalog()

	wantBudgets := map[Section]int{
		SectionFinancial: 40,
		SectionPeople:    20,
		SectionMarket:    15,
		SectionProduct:   10,
		SectionSuppliers: 5,
		SectionSales:     10,
	}
	for section, want := range wantBudgets {
		assert.Equal(t, want, cat.SectionMax(section), "section %s", section)
	}

	// The six budgets must provably sum to the 100-point ceiling.
	assert.Equal(t, 100, cat.TotalMax())
}

func TestChartCatalog_NarrowerBudgets(t *testing.T) {
	cat := ChartCatalog()

	assert.Equal(t, 20, cat.SectionMax(SectionFinancial))
	assert.Equal(t, 10, cat.SectionMax(SectionPeople))
	assert.Equal(t, 15, cat.SectionMax(SectionMarket))
	assert.Equal(t, 70, cat.TotalMax())

	_, hasOverheads := cat.Metric(MetricOverheads)
	_, hasNetProfit := cat.Metric(MetricNetProfit)
	_, hasProductivity := cat.Metric(MetricProductivity)
	assert.False(t, hasOverheads)
	assert.False(t, hasNetProfit)
	assert.False(t, hasProductivity)
}

func TestCatalog_VariantsAreDistinct(t *testing.T) {
	assert.Equal(t, VariantFull, FullCatalog().Variant)
	assert.Equal(t, VariantChart, ChartCatalog().Variant)
	assert.NotEqual(t, FullCatalog().TotalMax(), ChartCatalog().TotalMax())
}

func TestCatalog_CategoricalMaximaMatchPointTables(t *testing.T) {
	cat := FullCatalog()

	maxOf := func(points map[string]int) int {
		best := 0
		for _, v := range points {
			if v > best {
				best = v
			}
		}
		return best
	}

	tables := map[MetricID]map[string]int{}
	for k, v := range leadershipPoints {
		tables[MetricLeadership] = appendPoints(tables[MetricLeadership], string(k), v)
	}
	for k, v := range marketDemandPoints {
		tables[MetricMarketDemand] = appendPoints(tables[MetricMarketDemand], string(k), v)
	}
	for k, v := range marketingPoints {
		tables[MetricMarketing] = appendPoints(tables[MetricMarketing], string(k), v)
	}
	for k, v := range productStrengthPoints {
		tables[MetricProductStrength] = appendPoints(tables[MetricProductStrength], string(k), v)
	}
	for k, v := range supplierStrengthPoints {
		tables[MetricSupplierStrength] = appendPoints(tables[MetricSupplierStrength], string(k), v)
	}
	for k, v := range salesExecutionPoints {
		tables[MetricSalesExecution] = appendPoints(tables[MetricSalesExecution], string(k), v)
	}

	for id, table := range tables {
		def, ok := cat.Metric(id)
		assert.True(t, ok, "metric %s missing from full catalogue", id)
		assert.Equal(t, def.Max, maxOf(table), "top option for %s must equal the metric maximum", id)
	}
}

func appendPoints(m map[string]int, k string, v int) map[string]int {
	if m == nil {
		m = map[string]int{}
	}
	m[k] = v
	return m
}
