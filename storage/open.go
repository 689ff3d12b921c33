/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seednode/spyboard/games/codenames"
)

// Store is a codenames.Store that holds resources until closed.
type Store interface {
	codenames.Store
	Close() error
}

type memoryStore struct {
	*codenames.MemoryStore
}

func (memoryStore) Close() error { return nil }

// Open picks a backend from dsn: "memory", "postgres://…", "postgresql://…" or "sqlite://path".
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return memoryStore{codenames.NewMemoryStore()}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite store requires a path: %q", dsn)
		}
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported store %q", dsn)
	}
}

// Kind names the backend selected by dsn, for logging.
func Kind(dsn string) string {
	switch {
	case dsn == "" || dsn == "memory":
		return "memory"
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite"
	default:
		return "postgres"
	}
}
