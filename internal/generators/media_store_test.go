package generators

import (
	"context"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaStorePutAndReload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m := NewMediaStore(dir, "/media/", nil)
	require.NoError(t, m.Initialize(ctx))

	url, err := m.Put(ctx, []byte("png-bytes"), MediaEntry{MimeType: "image/png", Source: SourceScene, Prompt: "p", AspectRatio: "16:9"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	entry, file, ok := m.Lookup(path.Base(url))
	require.True(t, ok)
	assert.Equal(t, "p", entry.Prompt)
	assert.Equal(t, int64(9), entry.Size)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	reloaded := NewMediaStore(dir, "/media", nil)
	require.NoError(t, reloaded.Initialize(ctx))
	assert.Equal(t, 1, reloaded.Len())
	_, _, ok = reloaded.Lookup(path.Base(url))
	assert.True(t, ok)
}

func TestMediaStoreSkipsBrokenSidecars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/x.png.meta", []byte("{broken"), 0o644))
	require.NoError(t, os.WriteFile(dir+"/y.png.meta", []byte(`{"name":"y.png"}`), 0o644))

	m := NewMediaStore(dir, "/media", nil)
	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, 0, m.Len())
}

func TestMediaStoreInline(t *testing.T) {
	m := NewMediaStore("", "/media", nil)
	require.NoError(t, m.Initialize(context.Background()))
	assert.True(t, m.Inline())

	url, err := m.SaveUpload(context.Background(), []byte{0x01, 0x02}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,AQI=", url)
	assert.Equal(t, 0, m.Len())
}

func TestLookupUnknown(t *testing.T) {
	m := NewMediaStore(t.TempDir(), "/media", nil)
	_, _, ok := m.Lookup("../etc/passwd")
	assert.False(t, ok)
}
