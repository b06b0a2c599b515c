package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
)

// Store bundles the snapshot store and audit log picked by STORE_BACKEND.
// Pool is nil for the memory backend.
type Store struct {
	Snapshots appointment.SnapshotStore
	Events    appointment.EventLogger
	Pool      *pgxpool.Pool
}

// OpenStore connects the configured backend and makes sure its tables exist.
func OpenStore(ctx context.Context, cfg config.Config) (*Store, error) {
	if cfg.StoreBackend != config.BackendPostgres {
		mem := appointment.NewMemoryRepository()
		return &Store{Snapshots: mem, Events: mem}, nil
	}

	pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := ConnectPostgres(pgCtx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := appointment.NewPgRepository(pool)
	if err := repo.EnsureSchema(pgCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{Snapshots: repo, Events: repo, Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
