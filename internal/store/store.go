// Package store persists run history and per-run record snapshots, and
// reads/writes the JSON intermediate files that decouple fetching from
// reconciliation. SQLite is the default backend; Postgres is available
// for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/b4b-group/leadrank/internal/model"
)

// Snapshot kinds and sources recorded per run.
const (
	KindRaw   = "raw"
	KindClean = "clean"

	SourceContacts = "ghl-contacts"
	SourceLeads    = "zcrm-leads"
	SourceDeals    = "zcrm-deals"
)

// Store is the persistence interface for run history.
type Store interface {
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, counts model.RunCounts) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// SaveSnapshot records a source dump (raw or clean) for a run.
	// payload is the same pretty-printed JSON written to the data dir.
	SaveSnapshot(ctx context.Context, runID, source, kind string, count int, payload []byte) error
	GetSnapshot(ctx context.Context, runID, source, kind string) ([]byte, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Open creates a Store for the configured driver and runs migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
