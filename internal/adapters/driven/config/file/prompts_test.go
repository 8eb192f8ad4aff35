package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptStructureSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "NO DATA FOUND")

	for _, f := range []string{"structure_system.txt", "structure_user.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"custom kept", "Campos:\n%s\nTexto:\n%s", "Campos:\n%s\nTexto:\n%s"},
		{"whitespace trimmed", "\n\n  %s -> %s  \n\n", "%s -> %s"},
		{"missing placeholder", "Campos: %s", defaultPrompts[driven.PromptStructureUser]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "structure_user.txt"), []byte(tt.content), 0600))
			store, err := NewPromptStore(dir)
			require.NoError(t, err)

			got, err := store.Load(driven.PromptStructureUser)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.ErrorContains(t, err, "nonexistent_prompt")
}

func TestPromptStore_Load_FallsBackWhenDeleted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptStructureUser)
	require.NoError(t, os.Remove(filepath.Join(dir, "structure_user.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptStructureUser)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptStructureUser], prompt)
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptStructureSystem)
	require.NoError(t, err)

	path := filepath.Join(dir, "structure_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("Copie literalmente."), 0600))

	cached, err := store.Load(driven.PromptStructureSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptStructureSystem)
	require.NoError(t, err)
	assert.Equal(t, "Copie literalmente.", fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "structure_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("pre-existing"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptStructureUser)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pre-existing", string(data))
}

func TestPromptStore_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptStructureUser)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptStructureUser], prompt)

	_, err = store.Load("other")
	assert.Error(t, err)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = store.Load(driven.PromptStructureUser)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}
