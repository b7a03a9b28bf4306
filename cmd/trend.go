package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show month-over-month trend for a business",
	Long: `Compare a business's most recent scorecard with the previous month.

A drop of 10 points or more is flagged as an anomaly. A business with a
single scorecard has no trend yet.

Examples:
  trend --business "Acme Joinery"
  trend --business "Acme Joinery" --months 6`,
	RunE: runTrend,
}

func init() {
	f := trendCmd.Flags()
	f.String("business", "", "business name or ID")
	f.Int("months", 12, "how many months of history to show")

	_ = trendCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	businessRef, _ := cmd.Flags().GetString("business")
	months, _ := cmd.Flags().GetInt("months")
	if months < 2 {
		return eris.Errorf("trend: --months must be at least 2 (got %d)", months)
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	biz, err := resolveBusiness(ctx, st, businessRef)
	if err != nil {
		return err
	}

	// History strictly before next month includes the current record.
	nextMonth := time.Now().UTC().AddDate(0, 1, 0)
	records, err := st.History(ctx, biz.ID, nextMonth, months)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("%s has no scorecards yet.\n", biz.Name)
		return nil
	}

	points := model.HistoryPoints(records)
	current := points[0]
	previous, err := scorecard.PreviousScore(points[1:])
	if err != nil {
		return eris.Wrapf(err, "trend: %s", biz.Name)
	}
	trend := scorecard.ComputeTrend(current.TotalScore, previous)

	fmt.Printf("%s — %s\n", biz.Name, current.Month.Format(monthLayout))
	fmt.Printf("Score: %d/100 (%s)\n", current.TotalScore, records[0].Result.RAGStatus)
	if trend == nil {
		fmt.Println("Trend: no previous scorecard")
	} else {
		fmt.Printf("Trend: %s, %+d vs previous month", trend.Direction, trend.Change)
		if trend.IsAnomaly {
			fmt.Print("  ** anomalous drop **")
		}
		fmt.Println()
	}

	fmt.Println("\nHistory:")
	for _, p := range points {
		fmt.Printf("  %s  %3d\n", p.Month.Format(monthLayout), p.TotalScore)
	}
	return nil
}
