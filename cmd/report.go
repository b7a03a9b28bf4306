package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scorecard-cli/internal/access"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/report"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a narrative analysis via Claude",
	Long: `Generate a narrative analysis from stored scorecard data.

With --business, analyzes that business's latest scorecard; without it,
analyzes the whole portfolio. The viewer role controls whether raw monetary
figures are included in the model prompt: consultants only ever send
derived scores.

Examples:
  report --business "Acme Joinery" --role business_user
  report --role consultant`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.String("business", "", "business name or ID (omit for a portfolio report)")
	f.String("role", "consultant", "viewer role: super_admin, consultant, or business_user")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	roleName, _ := cmd.Flags().GetString("role")
	role := access.ParseRole(roleName)
	if !access.CanSeeScores(role) {
		return eris.Errorf("report: unknown role %q", roleName)
	}

	gen, err := newReportGenerator()
	if err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	businessRef, _ := cmd.Flags().GetString("business")

	var analysis *report.Analysis
	if businessRef != "" {
		biz, err := resolveBusiness(ctx, st, businessRef)
		if err != nil {
			return err
		}
		nextMonth := time.Now().UTC().AddDate(0, 1, 0)
		records, err := st.History(ctx, biz.ID, nextMonth, 2)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("report: %s has no scorecards yet", biz.Name)
		}

		points := model.HistoryPoints(records)
		previous, err := scorecard.PreviousScore(points[1:])
		if err != nil {
			return eris.Wrapf(err, "report: %s", biz.Name)
		}
		trend := scorecard.ComputeTrend(records[0].Result.TotalScore, previous)

		analysis, err = gen.BusinessReport(ctx, records[0], trend, role)
		if err != nil {
			return err
		}
	} else {
		agg, err := buildPortfolio(ctx, st, cfg.Portfolio.MaxBusinesses)
		if err != nil {
			return err
		}
		analysis, err = gen.PortfolioReport(ctx, *agg, role)
		if err != nil {
			return err
		}
	}

	printAnalysis(analysis)
	return nil
}

func printAnalysis(a *report.Analysis) {
	fmt.Println(a.Summary)
	printBullets := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", heading)
		for _, item := range items {
			fmt.Printf("  - %s\n", item)
		}
	}
	printBullets("Key risks", a.KeyRisks)
	printBullets("Opportunities", a.Opportunities)
	printBullets("Recommendations", a.Recommendations)
}
