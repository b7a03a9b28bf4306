package main

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/sells-group/scorecard-cli/internal/model"
)

// fakeStore is an in-memory Store for command and handler tests.
type fakeStore struct {
	businesses []model.Business
	records    []model.ScoreRecord
	err        error
}

func (f *fakeStore) UpsertBusiness(_ context.Context, b model.Business) (*model.Business, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.businesses {
		if existing.Name == b.Name {
			return &existing, nil
		}
	}
	if b.ID == "" {
		b.ID = "biz-" + strconv.Itoa(len(f.businesses)+1)
	}
	f.businesses = append(f.businesses, b)
	return &b, nil
}

func (f *fakeStore) ListBusinesses(_ context.Context) ([]model.Business, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.businesses, nil
}

func (f *fakeStore) SaveScorecard(_ context.Context, rec model.ScoreRecord) (*model.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rec.ID == "" {
		rec.ID = "sc-" + strconv.Itoa(len(f.records)+1)
	}
	rec.ReportMonth = time.Date(rec.ReportMonth.Year(), rec.ReportMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i, existing := range f.records {
		if existing.BusinessID == rec.BusinessID && existing.ReportMonth.Equal(rec.ReportMonth) {
			f.records[i] = rec
			return &rec, nil
		}
	}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeStore) LatestScorecards(_ context.Context, limit int) ([]model.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	latest := map[string]model.ScoreRecord{}
	for _, rec := range f.records {
		if cur, ok := latest[rec.BusinessID]; !ok || rec.ReportMonth.After(cur.ReportMonth) {
			latest[rec.BusinessID] = rec
		}
	}
	out := make([]model.ScoreRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessName < out[j].BusinessName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) History(_ context.Context, businessID string, before time.Time, limit int) ([]model.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ScoreRecord
	for _, rec := range f.records {
		if rec.BusinessID == businessID && rec.ReportMonth.Before(before) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportMonth.After(out[j].ReportMonth) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return f.err }

func (f *fakeStore) Close() error { return nil }
