package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(tmpDir, "cache.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestGet_EmptyCache(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Get(context.Background())

	assert.ErrorIs(t, err, domain.ErrSchemaNotCached)
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t)
	payload := []byte(`{"types": [{"name": "Client"}]}`)

	before := time.Now().UTC()
	require.NoError(t, store.Put(context.Background(), payload))

	got, fetchedAt, err := store.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.WithinDuration(t, before, fetchedAt, 5*time.Second)
}

func TestPut_ReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put(context.Background(), []byte("old")))
	require.NoError(t, store.Put(context.Background(), []byte("new")))

	got, _, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	removed, err := store.Clear(context.Background())
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, store.Put(context.Background(), []byte("{}")))

	removed, err = store.Clear(context.Background())
	require.NoError(t, err)
	assert.True(t, removed)

	_, _, err = store.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrSchemaNotCached)
}

func TestStore_SurvivesReopen(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Put(context.Background(), []byte("persisted")))
	require.NoError(t, store1.Close())

	store2, err := NewStore(tmpDir)
	require.NoError(t, err)
	defer store2.Close()

	got, _, err := store2.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestMigrate_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()

	// Opening the same directory twice must not re-run migrations.
	store1, err := NewStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := NewStore(tmpDir)
	require.NoError(t, err)
	defer store2.Close()

	var version int
	row := store2.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	require.NoError(t, row.Scan(&version))
	assert.Equal(t, 1, version)
}
