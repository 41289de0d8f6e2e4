package cli

import (
	"context"
	"time"

	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/soyeahso/llmbridge/internal/store"
)

// openDB opens the conversation and ledger database.
func openDB() (*store.DB, error) {
	path := cfg.Usage.Ledger
	if path == "" {
		if err := paths.EnsureDirs(); err != nil {
			return nil, err
		}
		path = paths.DB
	}
	return store.Open(path, log.Sub("store"))
}

// usageBackend is where tracked usage is recorded and summed.
type usageBackend interface {
	llm.UsageRecorder
	totals(ctx context.Context, since time.Time) ([]store.ModelTotals, error)
	Close() error
}

type sqliteBackend struct {
	*store.UsageLedger
}

func (b sqliteBackend) totals(ctx context.Context, since time.Time) ([]store.ModelTotals, error) {
	return b.Totals(ctx, since)
}

// The database is owned by the caller.
func (b sqliteBackend) Close() error { return nil }

type redisBackend struct {
	*store.RedisUsage
}

func (b redisBackend) totals(ctx context.Context, _ time.Time) ([]store.ModelTotals, error) {
	return b.Totals(ctx)
}

// openUsage returns the configured usage backend: Redis counters when
// usage.redis is set, otherwise the sqlite ledger in db.
func openUsage(ctx context.Context, db *store.DB) (usageBackend, error) {
	if r := cfg.Usage.Redis; r != nil {
		ru, err := store.NewRedisUsage(ctx, store.RedisUsageConfig{
			Address:  r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return redisBackend{ru}, nil
	}
	return sqliteBackend{store.NewUsageLedger(db)}, nil
}
