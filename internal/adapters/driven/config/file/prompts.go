package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads oracle prompts from user-editable files, falling back
// to embedded defaults. The directory is created lazily on first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptStructureSystem: `You copy values out of Brazilian public procurement documents (editais, termos de referência, anexos).

Rules:
1. Answer with a single JSON object whose keys are exactly the requested field names and whose values are strings.
2. Every value must be copied verbatim from the text, character for character. Do not translate, summarise, normalise dates or reformat currency.
3. If a field is not stated in the text, use the string "NO DATA FOUND".
4. Never infer a value from general knowledge of procurement law.`,

	driven.PromptStructureUser: `Fields:
%s
Text:
%s`,
}

// placeholders is the number of %s verbs each prompt must keep.
var placeholders = map[string]int{
	driven.PromptStructureSystem: 0,
	driven.PromptStructureUser:   2,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to <DefaultDir>/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name. A user file that lost its
// placeholders is ignored in favour of the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if want, ok := placeholders[name]; ok && strings.Count(prompt, "%s") != want {
		logger.Warn("prompt %s needs %d %%s placeholders, using the built-in one", name, want)
		prompt = defaultPrompts[name]
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and writes missing defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Licita oracle prompts

These prompts drive the optional extraction oracle. Its answers are only
kept when they occur verbatim in the corpus, so a prompt cannot make the
report cite text that is not in the documents.

## Files

- ` + "`structure_system.txt`" + ` - System prompt. No placeholders.
- ` + "`structure_user.txt`" + ` - Request. Two ` + "`%s`" + ` placeholders: the field list, then the text.

A file with the wrong number of placeholders is ignored and the built-in
prompt is used instead.
`
	return os.WriteFile(path, []byte(content), 0600)
}
