package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakawati/server/internal/config"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, ProjectsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, ProjectsKey, `[]`))
	require.NoError(t, store.Set(ctx, ProjectsKey, `[{"id":"p1"}]`))

	v, ok, err := store.Get(ctx, ProjectsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"p1"}]`, v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, store.Del(ctx, ProjectsKey))
	require.NoError(t, store.Del(ctx, ProjectsKey))
	_, ok, _ = store.Get(ctx, ProjectsKey)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	kv, err := Open(&config.Config{Storage: config.StorageConfig{Driver: "memory"}})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	kv, err = Open(&config.Config{Storage: config.StorageConfig{Driver: "file", Dir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	_, err = Open(&config.Config{Storage: config.StorageConfig{Driver: "etcd"}})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "hakawati"})
	assert.Equal(t, "u:p@tcp(db:3306)/hakawati?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
