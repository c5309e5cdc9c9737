// Package storage implements the selection policy that picks a
// modules.StorageBackend at process start: try the remote document store a
// few times, fall back to the embedded SQL store, and fall back again to
// the in-memory store if even that fails. Whichever backend wins is fixed
// for the lifetime of the process — there is no hot-swap once the daemon is
// serving traffic.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ledgerd/build"
	"ledgerd/modules"
	"ledgerd/modules/storage/docstore"
	"ledgerd/modules/storage/memstore"
	"ledgerd/modules/storage/sqlstore"
)

// Config bundles the configuration needed to attempt every tier of the
// selection policy. Fields belonging to a tier that is never reached are
// simply unused.
type Config struct {
	// Docstore, if non-nil, is attempted first.
	Docstore *docstore.Config

	// SQLitePath is the embedded store's database file. Attempted second.
	SQLitePath string
}

// Selection reports which tier was ultimately chosen, for logging and for
// the health endpoint.
type Selection struct {
	Backend modules.StorageBackend
	Tier    string // "docstore" | "sqlstore" | "memstore"
}

// Select runs the tiered selection policy described by the storage design:
// up to modules.StorageInitAttempts attempts against the remote document
// store with modules.StorageInitBackoff between them, each bounded by
// modules.StorageInitTimeout; on exhaustion, a single attempt against the
// embedded SQL store; on failure of that, the in-memory store, which never
// fails to open.
func Select(ctx context.Context, cfg Config, log *zap.Logger) Selection {
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.Docstore != nil {
		var store *docstore.Store
		err := build.Retry(modules.StorageInitAttempts, modules.StorageInitBackoff, func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, modules.StorageInitTimeout)
			defer cancel()
			s, openErr := docstore.Open(attemptCtx, *cfg.Docstore, log)
			if openErr != nil {
				log.Warn("document store connection attempt failed", zap.Error(openErr))
				return openErr
			}
			store = s
			return nil
		})
		if err == nil {
			log.Info("selected document store storage backend")
			return Selection{Backend: store, Tier: "docstore"}
		}
		log.Warn("document store exhausted its attempts, falling back to the embedded SQL store", zap.Error(err))
	}

	if cfg.SQLitePath != "" {
		store, err := sqlstore.Open(cfg.SQLitePath, log)
		if err == nil {
			log.Info("selected embedded SQL storage backend")
			return Selection{Backend: store, Tier: "sqlstore"}
		}
		log.Warn("embedded SQL store failed to open, falling back to the in-memory store", zap.Error(err))
	}

	build.Severe("storage selection exhausted both the document store and the embedded SQL store, falling back to the non-durable in-memory backend")
	return Selection{Backend: memstore.New(log), Tier: "memstore"}
}

// MustSelect is a convenience wrapper for callers that want an error rather
// than a guaranteed-succeeding Selection; it exists because memstore.New
// never fails, so Select itself has no error path, but some callers want to
// treat landing on memstore as a hard failure (e.g. a CI smoke test that
// requires real persistence).
func MustSelect(ctx context.Context, cfg Config, log *zap.Logger, allowMemstore bool) (Selection, error) {
	sel := Select(ctx, cfg, log)
	if !allowMemstore && sel.Tier == "memstore" {
		return sel, fmt.Errorf("storage selection fell through to the in-memory backend, which is disallowed here")
	}
	return sel, nil
}
