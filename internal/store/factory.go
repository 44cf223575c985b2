package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open returns the Repo selected by backend.
func Open(ctx context.Context, backend, sqlitePath, postgresDSN, defaultRegion string) (Repo, error) {
	switch backend {
	case BackendSQLite, "":
		r, err := OpenSQLite(ctx, sqlitePath, defaultRegion)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return r, nil
	case BackendPostgres:
		r, err := OpenPostgres(ctx, postgresDSN, defaultRegion)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
