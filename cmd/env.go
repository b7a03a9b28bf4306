package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scorecard-cli/internal/model"
	"github.com/sells-group/scorecard-cli/internal/report"
	"github.com/sells-group/scorecard-cli/internal/store"
	"github.com/sells-group/scorecard-cli/pkg/anthropic"
)

// openStore validates the store config and opens the configured backend.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store)
}

// newReportGenerator validates the report config and wires a Generator.
func newReportGenerator() (*report.Generator, error) {
	if err := cfg.Validate("report"); err != nil {
		return nil, err
	}
	return report.NewGenerator(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic), nil
}

// monthLayout is the CLI's reporting-month format, e.g. "2026-07".
const monthLayout = "2006-01"

// parseMonth parses a --month flag value; empty means the current month.
func parseMonth(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.ParseInLocation(monthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse month %q (expected YYYY-MM)", s)
	}
	return t, nil
}

// resolveBusiness finds a business by ID or (case-insensitive) name.
func resolveBusiness(ctx context.Context, st store.Store, ref string) (*model.Business, error) {
	businesses, err := st.ListBusinesses(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range businesses {
		if b.ID == ref || strings.EqualFold(b.Name, ref) {
			return &b, nil
		}
	}
	return nil, eris.Errorf("business %q not found", ref)
}
