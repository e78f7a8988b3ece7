package main

import (
	"context"

	"github.com/montfort-alumni/slambook-cli/internal/slambook"
	"github.com/montfort-alumni/slambook-cli/internal/store"
)

// initStore opens the configured backend and applies migrations. Callers
// own the returned store and must Close it.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newIngestor(st store.Store) *slambook.Ingestor {
	return slambook.NewIngestor(st, st, st)
}
