package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/portfolio"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// moneyPrinter formats monetary figures with thousands separators.
var moneyPrinter = message.NewPrinter(language.English)

// BuildBusinessPrompt renders one business-month into prompt text. With
// redactFigures set, raw actuals and targets are withheld and only derived
// scores appear; the consultant role must never see monetary figures, even
// indirectly through a model prompt.
func BuildBusinessPrompt(rec model.ScoreRecord, trend *scorecard.TrendResult, redactFigures bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Business: %s\n", rec.BusinessName)
	fmt.Fprintf(&b, "Reporting month: %s\n", rec.ReportMonth.Format("January 2006"))
	fmt.Fprintf(&b, "Total score: %d/100 (%s)\n", rec.Result.TotalScore, rec.Result.RAGStatus)

	if trend != nil {
		fmt.Fprintf(&b, "Trend: %s, change %+d vs previous month", trend.Direction, trend.Change)
		if trend.IsAnomaly {
			b.WriteString(" (anomalous drop)")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nSection scores:\n")
	for _, name := range scorecard.SectionOrder {
		sub, ok := rec.Result.Sections[name]
		if !ok {
			continue
		}
		if !sub.HasData() {
			fmt.Fprintf(&b, "- %s: no data\n", name)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d/%d\n", name, sub.Score, sub.MaxScore)
	}

	if !redactFigures {
		b.WriteString("\nFinancial figures (actual vs target):\n")
		for _, line := range []struct {
			label string
			fl    scorecard.FinancialLine
		}{
			{"revenue", rec.Submission.Revenue},
			{"gross profit", rec.Submission.GrossProfit},
			{"overheads", rec.Submission.Overheads},
			{"net profit", rec.Submission.NetProfit},
			{"productivity", rec.Submission.Productivity},
		} {
			if line.fl.NotApplicable {
				fmt.Fprintf(&b, "- %s: not applicable\n", line.label)
				continue
			}
			moneyPrinter.Fprintf(&b, "- %s: %.0f vs %.0f target\n", line.label, line.fl.Actual, line.fl.Target)
		}
	}

	if rec.Risks != "" {
		fmt.Fprintf(&b, "\nConsultant-noted risks: %s\n", rec.Risks)
	}
	if rec.Opportunities != "" {
		fmt.Fprintf(&b, "Consultant-noted opportunities: %s\n", rec.Opportunities)
	}

	b.WriteString("\nWrite the analysis for this business.")
	return b.String()
}

// BuildPortfolioPrompt renders a portfolio aggregate into prompt text. The
// aggregate is already figure-free, so nothing here is role-dependent.
func BuildPortfolioPrompt(agg portfolio.Aggregate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Portfolio of %d businesses.\n", agg.Businesses)
	fmt.Fprintf(&b, "RAG distribution: %d green, %d amber, %d red.\n",
		agg.RAGCounts[scorecard.RAGGreen],
		agg.RAGCounts[scorecard.RAGAmber],
		agg.RAGCounts[scorecard.RAGRed],
	)
	fmt.Fprintf(&b, "Scores: average %d, min %d, max %d.\n", agg.AverageScore, agg.MinScore, agg.MaxScore)

	if len(agg.WeakestSections) > 0 {
		b.WriteString("\nWeakest sections across the portfolio:\n")
		for _, w := range agg.WeakestSections {
			fmt.Fprintf(&b, "- %s: average %.0f%% of max, %d of %d businesses below half\n",
				w.Section, w.AveragePercent, w.BelowHalf, w.Businesses)
		}
	}

	if len(agg.Anomalies) > 0 {
		b.WriteString("\nBusinesses with anomalous score drops:\n")
		for _, a := range agg.Anomalies {
			fmt.Fprintf(&b, "- %s: %+d to %d\n", a.Name, a.ScoreChange, a.CurrentScore)
		}
	}

	if len(agg.Capsules) > 0 {
		b.WriteString("\nPer-business summaries:\n")
		for _, c := range agg.Capsules {
			fmt.Fprintf(&b, "- %s: %d/100 (%s)", c.Name, c.Score, c.RAGStatus)
			if c.WeakestSection != "" {
				fmt.Fprintf(&b, ", weakest section %s", c.WeakestSection)
			}
			if c.Risks != "" {
				fmt.Fprintf(&b, "; risks: %s", c.Risks)
			}
			if c.Opportunities != "" {
				fmt.Fprintf(&b, "; opportunities: %s", c.Opportunities)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nWrite the analysis for this portfolio.")
	return b.String()
}
