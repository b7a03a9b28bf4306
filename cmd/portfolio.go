package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/portfolio"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
	"github.com/sells-group/scorecard-cli/internal/store"
)

// maxHistoryConcurrency bounds parallel per-business history fetches.
const maxHistoryConcurrency = 8

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Aggregate the latest scorecards across all businesses",
	Long: `Fold every business's most recent scorecard into one portfolio view:
RAG distribution, score range, weakest sections, and anomalous drops.

Examples:
  portfolio
  portfolio --format json`,
	RunE: runPortfolio,
}

func init() {
	portfolioCmd.Flags().String("format", "table", "output format: table or json")
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("portfolio: --format must be table or json (got %q)", format)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	agg, err := buildPortfolio(ctx, st, cfg.Portfolio.MaxBusinesses)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(agg), "portfolio: encode")
	}
	printPortfolio(*agg)
	return nil
}

// buildPortfolio loads each business's latest scorecard, derives its trend
// from stored history, and aggregates. History fetches fan out concurrently;
// the aggregate itself is deterministic regardless of completion order.
func buildPortfolio(ctx context.Context, st store.Store, maxBusinesses int) (*portfolio.Aggregate, error) {
	records, err := st.LatestScorecards(ctx, maxBusinesses)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.BusinessSummary, len(records))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxHistoryConcurrency)

	for i, rec := range records {
		g.Go(func() error {
			history, err := st.History(gCtx, rec.BusinessID, rec.ReportMonth, 1)
			if err != nil {
				return eris.Wrapf(err, "portfolio: history for %s", rec.BusinessName)
			}
			previous, err := scorecard.PreviousScore(model.HistoryPoints(history))
			if err != nil {
				return eris.Wrapf(err, "portfolio: %s", rec.BusinessName)
			}
			trend := scorecard.ComputeTrend(rec.Result.TotalScore, previous)
			summaries[i] = model.SummaryFromRecord(rec, trend)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := portfolio.Build(summaries)
	zap.L().Info("portfolio aggregated",
		zap.Int("businesses", agg.Businesses),
		zap.Int("average_score", agg.AverageScore),
		zap.Int("anomalies", len(agg.Anomalies)),
	)
	return &agg, nil
}

func printPortfolio(agg portfolio.Aggregate) {
	if agg.Businesses == 0 {
		fmt.Println("No scorecards yet.")
		return
	}

	fmt.Printf("Businesses: %d\n", agg.Businesses)
	fmt.Printf("RAG:        %d green / %d amber / %d red\n",
		agg.RAGCounts[scorecard.RAGGreen],
		agg.RAGCounts[scorecard.RAGAmber],
		agg.RAGCounts[scorecard.RAGRed],
	)
	fmt.Printf("Scores:     avg %d, min %d, max %d\n", agg.AverageScore, agg.MinScore, agg.MaxScore)

	if len(agg.WeakestSections) > 0 {
		fmt.Println("\nWeakest sections:")
		for _, w := range agg.WeakestSections {
			fmt.Printf("  %-12s %5.1f%% of max  (%d/%d below half)\n",
				w.Section, w.AveragePercent, w.BelowHalf, w.Businesses)
		}
	}

	if len(agg.Anomalies) > 0 {
		fmt.Println("\nAnomalous drops:")
		for _, a := range agg.Anomalies {
			fmt.Printf("  %-30s %+d to %d\n", a.Name, a.ScoreChange, a.CurrentScore)
		}
	}

	fmt.Println("\nBusinesses:")
	fmt.Printf("  %-30s %5s %-6s %s\n", "Name", "Score", "RAG", "Weakest")
	fmt.Println("  " + strings.Repeat("-", 55))
	for _, c := range agg.Capsules {
		name := c.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		fmt.Printf("  %-30s %5d %-6s %s\n", name, c.Score, c.RAGStatus, c.WeakestSection)
	}
}
