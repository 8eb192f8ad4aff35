package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_HomeEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv(HomeEnv, dir)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("oracle.provider", "ollama"))
	require.NoError(t, store.Set("batch.max_files", int64(12)))
	require.NoError(t, store.Set("pipeline.ocr_floor", 62.5))
	require.NoError(t, store.Set("dedup.sample_tokens", 2000))
	require.NoError(t, store.Set("extraction.ocr_enabled", true))
	require.NoError(t, store.Set("profile.documents", []string{"fgts", "cnd_federal"}))

	assert.Equal(t, "ollama", store.GetString("oracle.provider"))
	assert.Equal(t, 12, store.GetInt("batch.max_files"))
	assert.Equal(t, 62.5, store.GetFloat("pipeline.ocr_floor"))
	assert.Equal(t, 12.0, store.GetFloat("batch.max_files"))
	assert.Equal(t, 2000, store.GetInt("dedup.sample_tokens"))
	assert.True(t, store.GetBool("extraction.ocr_enabled"))
	assert.Equal(t, []string{"fgts", "cnd_federal"}, store.GetStringSlice("profile.documents"))

	// wrong types read as zero values.
	assert.Empty(t, store.GetString("batch.max_files"))
	assert.Zero(t, store.GetInt("oracle.provider"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("oracle.provider"))
	assert.Nil(t, store.GetStringSlice("oracle.provider"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("oracle.provider", "openai"))
	require.NoError(t, store.Set("oracle.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("storage.path", "/tmp/licita.db"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[oracle]")
	assert.Contains(t, string(data), "[storage]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("oracle.provider"))
	assert.Equal(t, "gpt-4o-mini", reloaded.GetString("oracle.model"))
	assert.Equal(t, "/tmp/licita.db", reloaded.GetString("storage.path"))
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[batch]
max_files = 5

[dedup]
similarity_threshold = 0.97
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 5, store.GetInt("batch.max_files"))
	assert.Equal(t, 0.97, store.GetFloat("dedup.similarity_threshold"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_Errors(t *testing.T) {
	_, err := NewConfigStore("/dev/null/cannot/create/dirs")
	assert.Error(t, err)

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600))
	store, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_SetRollsBackOnWriteError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("batch.max_files", 10))

	// Replace the file with a directory so the write fails.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("batch.max_files", 99))
	assert.Equal(t, 10, store.GetInt("batch.max_files"))
	assert.Error(t, store.Set("oracle.model", "x"))
	_, ok := store.Get("oracle.model")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("agents.concurrency", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("agents.concurrency")
		}()
	}
	wg.Wait()
}

func TestNest(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "tables",
			in:   map[string]any{"a.b": 1, "a.c": 2, "d": 3},
			want: map[string]any{"a": map[string]any{"b": 1, "c": 2}, "d": 3},
		},
		{
			name: "deep",
			in:   map[string]any{"x.y.z": "v"},
			want: map[string]any{"x": map[string]any{"y": map[string]any{"z": "v"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nest(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, flatten(got, ""))
		})
	}
}

func TestNest_ValueAndPrefix(t *testing.T) {
	got := nest(map[string]any{"a": 1, "a.b": 2})
	assert.Equal(t, map[string]any{"a": 1, "a.b": 2}, got)
}
