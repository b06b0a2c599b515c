package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
)

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.Pool)
	assert.IsType(t, &appointment.MemoryRepository{}, store.Snapshots)

	_, err = store.Snapshots.Load(context.Background())
	assert.ErrorIs(t, err, appointment.ErrNoSnapshot)
}

func TestConnectPostgres_BadDSN(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse postgres dsn")
}
