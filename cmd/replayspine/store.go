package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
)

// openStore resolves the --store DSN into a timeline.Store. A bare
// filesystem path (anything without a "://" scheme) opens a
// FileStore; "postgres://" and "sqlite://" DSNs open the
// database/sql-backed SQLStore, mirroring the teacher's dual
// Postgres/SQLite wiring in cmd/helm/main.go.
func openStore(ctx context.Context, dsn string) (timeline.Store, error) {
	driver, source, ok := splitDSN(dsn)
	if !ok {
		store, err := timeline.NewFileStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("open file store %q: %w", dsn, err)
		}
		return store, nil
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	store := timeline.NewSQLStore(db)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init %s store: %w", driver, err)
	}
	return store, nil
}

func splitDSN(dsn string) (driver, source string, ok bool) {
	const sep = "://"
	for i := 0; i+len(sep) <= len(dsn); i++ {
		if dsn[i:i+len(sep)] == sep {
			scheme := dsn[:i]
			switch scheme {
			case "postgres", "postgresql":
				return "postgres", dsn, true
			case "sqlite":
				return "sqlite", dsn[i+len(sep):], true
			}
			return "", "", false
		}
	}
	return "", "", false
}
