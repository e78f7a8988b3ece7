// Package store persists alumni profiles, slambook answers, and the ingest
// run log over Postgres or embedded SQLite.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/montfort-alumni/slambook-cli/internal/config"
	"github.com/montfort-alumni/slambook-cli/internal/slambook"
)

// Store is the full persistence surface consumed by the ingestion engine
// and the CLI commands.
type Store interface {
	slambook.ProfileStore
	slambook.AnswerStore
	slambook.RunStore

	// ListAllAnswers returns every stored answer, used by the export
	// command to reconstruct full slambook rows.
	ListAllAnswers(ctx context.Context) ([]slambook.AnswerRecord, error)

	// ListFullProfiles returns every profile with all merge fields, in id
	// order, for the export command.
	ListFullProfiles(ctx context.Context) ([]slambook.UpsertRecord, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open selects and connects the backend named in the config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &cfg.Pool)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q (want postgres or sqlite)", cfg.Driver)
	}
}
