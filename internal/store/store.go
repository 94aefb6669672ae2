// Package store persists search runs and cached results behind a driver
// switch: postgres for deployments, sqlite for local use.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	Query        string          `json:"query,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the search engine.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.SearchRequest) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.OrchestratorResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Result cache
	GetCachedResult(ctx context.Context, fingerprint string) (*model.OrchestratorResult, error)
	SetCachedResult(ctx context.Context, fingerprint string, result *model.OrchestratorResult, ttl time.Duration) error
	DeleteExpiredResults(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	case "sqlite", "":
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
