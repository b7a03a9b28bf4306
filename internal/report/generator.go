// Package report turns computed scorecard data into narrative analyses via
// the Anthropic API. The engine's numbers are authoritative; the model only
// writes prose around them and is never asked to score anything itself.
package report

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scorecard-cli/internal/access"
	"github.com/sells-group/scorecard-cli/internal/config"
	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/portfolio"
	"github.com/sells-group/scorecard-cli/internal/scorecard"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
)

// ErrInvalidAnalysis marks a model response that did not parse into a usable
// analysis. Callers may retry; the raw response is never passed through.
var ErrInvalidAnalysis = eris.New("report: invalid analysis response")

// Analysis is the structured narrative returned by the model.
type Analysis struct {
	Summary         string   `json:"summary"`
	KeyRisks        []string `json:"key_risks"`
	Opportunities   []string `json:"opportunities"`
	Recommendations []string `json:"recommendations"`
}

const analysisSystemText = `You are a business health analyst writing for SME advisors.
You are given pre-computed scorecard results: section scores, a 0-100 total, a red/amber/green status, and trend data.
The numbers are final. Do not recompute, re-weight, or second-guess them.
Return a valid JSON object:
{"summary": "<2-3 sentence overview>", "key_risks": ["<risk>", ...], "opportunities": ["<opportunity>", ...], "recommendations": ["<concrete action>", ...]}`

// Generator produces analyses for single businesses and whole portfolios.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewGenerator wires a Generator from the Anthropic config. The client is
// wrapped with retry-on-failure and rate limiting per the configured
// requests-per-minute; each retry attempt waits for its own rate token.
func NewGenerator(client anthropic.Client, cfg config.AnthropicConfig) *Generator {
	return &Generator{
		client:    anthropic.NewRetrying(anthropic.NewRateLimited(client, cfg.RequestsPerMinute)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// BusinessReport generates an analysis for one business-month. The viewer's
// role decides whether raw monetary figures are included in the prompt;
// consultants only ever send derived scores.
func (g *Generator) BusinessReport(ctx context.Context, rec model.ScoreRecord, trend *scorecard.TrendResult, role access.Role) (*Analysis, error) {
	prompt := BuildBusinessPrompt(rec, trend, access.RedactFigures(role))
	return g.generate(ctx, prompt, "business_report")
}

// PortfolioReport generates an analysis across an aggregated portfolio. The
// aggregate carries no monetary figures, so the prompt is role-independent;
// the role still gates whether the caller may request it at all.
func (g *Generator) PortfolioReport(ctx context.Context, agg portfolio.Aggregate, role access.Role) (*Analysis, error) {
	if !access.CanSeeScores(role) {
		return nil, eris.Errorf("report: role %q may not view scores", role)
	}
	return g.generate(ctx, BuildPortfolioPrompt(agg), "portfolio_report")
}

func (g *Generator) generate(ctx context.Context, prompt, phase string) (*Analysis, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(analysisSystemText),
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: create message")
	}
	resp.Usage.LogCost(g.model, phase)

	analysis, err := parseAnalysis(resp.Text())
	if err != nil {
		zap.L().Warn("report: discarding unparseable analysis",
			zap.String("phase", phase),
			zap.Error(err),
		)
		return nil, err
	}
	return analysis, nil
}

// parseAnalysis extracts an Analysis from the model's response text. A
// response without a summary is as useless as one that fails to parse, so
// both map to ErrInvalidAnalysis.
func parseAnalysis(text string) (*Analysis, error) {
	cleaned := cleanJSON(text)

	var a Analysis
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, eris.Wrap(ErrInvalidAnalysis, err.Error())
	}
	if strings.TrimSpace(a.Summary) == "" {
		return nil, eris.Wrap(ErrInvalidAnalysis, "missing summary")
	}
	return &a, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
