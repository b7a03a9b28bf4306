// Package store persists scorecard records. The engine itself never touches
// storage; commands and the HTTP surface read records here and hand the
// engine plain inputs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scorecard-cli/internal/config"
	"github.com/sells-group/scorecard-cli/internal/model"
)

// Store defines scorecard persistence.
type Store interface {
	// Businesses
	UpsertBusiness(ctx context.Context, b model.Business) (*model.Business, error)
	ListBusinesses(ctx context.Context) ([]model.Business, error)

	// Scorecards. SaveScorecard replaces any existing record for the same
	// business and reporting month; edits recompute, they never mutate.
	SaveScorecard(ctx context.Context, rec model.ScoreRecord) (*model.ScoreRecord, error)
	LatestScorecards(ctx context.Context, limit int) ([]model.ScoreRecord, error)
	History(ctx context.Context, businessID string, before time.Time, limit int) ([]model.ScoreRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// monthFloor normalizes a reporting month to midnight UTC on the first.
func monthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
