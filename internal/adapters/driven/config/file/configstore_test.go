package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", val)
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("completion.model", "llama3.1"))

	assert.Equal(t, "llama3.1", store.GetString("completion.model"))
	assert.Equal(t, "", store.GetString("nonexistent"))

	// Wrong type reads as empty
	require.NoError(t, store.Set("retrieval.k_docs", 6))
	assert.Equal(t, "", store.GetString("retrieval.k_docs"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval.k_docs", 8))
	assert.Equal(t, 8, store.GetInt("retrieval.k_docs"))

	require.NoError(t, store.Set("retrieval.k_markup", int64(12)))
	assert.Equal(t, 12, store.GetInt("retrieval.k_markup"))

	assert.Equal(t, 0, store.GetInt("nonexistent"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("flag", true))
	assert.True(t, store.GetBool("flag"))
	assert.False(t, store.GetBool("nonexistent"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()

	first, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, first.Set("embedding.provider", "ollama"))
	require.NoError(t, first.Set("embedding.dimensions", 768))

	second, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", second.GetString("embedding.provider"))
	assert.Equal(t, 768, second.GetInt("embedding.dimensions"))
}
