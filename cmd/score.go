package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/scorecard-cli/internal/access"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
)

// moneyPrinter renders monetary figures with thousands separators.
var moneyPrinter = message.NewPrinter(language.English)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a monthly scorecard submission",
	Long: `Score a scorecard submission file to a 0-100 health score with RAG status.

The submission file carries five financial lines (actual vs target, or
not_applicable) and six qualitative selections. Lines marked not applicable
are excluded from both the earned score and the maximum, so the remaining
metrics are not penalized.

Examples:
  # Score a submission and print the section breakdown
  score --input july.yaml

  # Score against the narrower 70-point display catalogue
  score --input july.yaml --chart

  # Score and persist for a business-month
  score --input july.yaml --business "Acme Joinery" --month 2026-07 --save

  # Consultant view: derived scores only, no monetary figures
  score --input july.yaml --role consultant`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "submission file (.yaml or .json)")
	f.Bool("chart", false, "use the 70-point display catalogue instead of the full 100-point one")
	f.String("business", "", "business name for --save")
	f.String("month", "", "reporting month as YYYY-MM (default: current month)")
	f.Bool("save", false, "persist the scored record")
	f.String("risks", "", "consultant-noted risks, stored verbatim")
	f.String("opportunities", "", "consultant-noted opportunities, stored verbatim")
	f.String("role", "super_admin", "viewer role: super_admin, consultant, or business_user")
	f.String("format", "table", "output format: table or csv")
	f.String("output", "", "output file path (default: stdout)")

	_ = scoreCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	chart, _ := cmd.Flags().GetBool("chart")
	roleName, _ := cmd.Flags().GetString("role")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	role := access.ParseRole(roleName)
	if !access.CanSeeScores(role) {
		return eris.Errorf("score: unknown role %q", roleName)
	}
	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	sub, err := loadSubmission(inputPath)
	if err != nil {
		return err
	}

	cat := scorecard.FullCatalog()
	if chart {
		cat = scorecard.ChartCatalog()
	}

	result, err := scorecard.ScoreSubmission(cat, *sub)
	if err != nil {
		return eris.Wrap(err, "score: compute")
	}

	if err := outputBreakdown(*result, *sub, role, format, outputPath); err != nil {
		return err
	}

	if !save {
		return nil
	}
	if chart {
		return eris.New("score: --save applies to the full catalogue only; drop --chart")
	}
	businessName, _ := cmd.Flags().GetString("business")
	if businessName == "" {
		return eris.New("score: --save requires --business")
	}
	monthFlag, _ := cmd.Flags().GetString("month")
	month, err := parseMonth(monthFlag)
	if err != nil {
		return err
	}
	risks, _ := cmd.Flags().GetString("risks")
	opportunities, _ := cmd.Flags().GetString("opportunities")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	biz, err := st.UpsertBusiness(ctx, model.Business{Name: businessName})
	if err != nil {
		return err
	}
	rec, err := st.SaveScorecard(ctx, model.ScoreRecord{
		BusinessID:    biz.ID,
		BusinessName:  biz.Name,
		ReportMonth:   month,
		Submission:    *sub,
		Result:        *result,
		Risks:         risks,
		Opportunities: opportunities,
	})
	if err != nil {
		return err
	}

	zap.L().Info("scorecard saved",
		zap.String("business", biz.Name),
		zap.String("month", rec.ReportMonth.Format(monthLayout)),
		zap.Int("total_score", result.TotalScore),
		zap.String("rag", string(result.RAGStatus)),
	)
	fmt.Printf("Saved %s for %s\n", rec.ReportMonth.Format(monthLayout), biz.Name)
	return nil
}

// loadSubmission reads a submission from a YAML or JSON file and normalizes
// its categorical fields.
func loadSubmission(path string) (*scorecard.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read %s", path)
	}

	var sub scorecard.Submission
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sub); err != nil {
			return nil, eris.Wrapf(err, "score: parse %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, eris.Wrapf(err, "score: parse %s", path)
		}
	default:
		return nil, eris.Errorf("score: unsupported submission format %q", ext)
	}

	sub = sub.Normalize()
	return &sub, nil
}

func outputBreakdown(result scorecard.ScoreResult, sub scorecard.Submission, role access.Role, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeBreakdownCSV(w, result)
	case "table":
		return writeBreakdownTable(w, result, sub, role)
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

func writeBreakdownTable(w *os.File, result scorecard.ScoreResult, sub scorecard.Submission, role access.Role) error {
	fmt.Fprintf(w, "%-12s %8s %6s\n", "Section", "Score", "Max")
	fmt.Fprintln(w, strings.Repeat("-", 28))
	for _, name := range scorecard.SectionOrder {
		sec, ok := result.Sections[name]
		if !ok {
			continue
		}
		if !sec.HasData() {
			fmt.Fprintf(w, "%-12s %8s %6s\n", name, "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-12s %8d %6d\n", name, sec.Score, sec.MaxScore)
	}
	fmt.Fprintln(w, strings.Repeat("-", 28))
	fmt.Fprintf(w, "%-12s %8d %6d   %s\n", "Total", result.TotalScore, result.MaxScore(), strings.ToUpper(string(result.RAGStatus)))

	if access.CanSeeFinancials(role) {
		fmt.Fprintln(w, "\nFinancial lines (actual vs target):")
		for _, line := range []struct {
			label string
			fl    scorecard.FinancialLine
		}{
			{"revenue", sub.Revenue},
			{"gross profit", sub.GrossProfit},
			{"overheads", sub.Overheads},
			{"net profit", sub.NetProfit},
			{"productivity", sub.Productivity},
		} {
			if line.fl.NotApplicable {
				fmt.Fprintf(w, "  %-14s %s\n", line.label, "n/a")
				continue
			}
			moneyPrinter.Fprintf(w, "  %-14s %12.0f vs %12.0f (%+.1f%%)\n",
				line.label, line.fl.Actual, line.fl.Target,
				scorecard.Variance(line.fl.Actual, line.fl.Target))
		}
	}
	return nil
}

func writeBreakdownCSV(w *os.File, result scorecard.ScoreResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"section", "score", "max_score"}); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}
	for _, name := range scorecard.SectionOrder {
		sec, ok := result.Sections[name]
		if !ok {
			continue
		}
		row := []string{string(name), strconv.Itoa(sec.Score), strconv.Itoa(sec.MaxScore)}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	total := []string{"total", strconv.Itoa(result.TotalScore), strconv.Itoa(result.MaxScore())}
	if err := cw.Write(total); err != nil {
		return eris.Wrap(err, "score: write CSV total")
	}
	return nil
}
