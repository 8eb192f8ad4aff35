// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration under ~/.licita (or $LICITA_HOME)
//   - PromptStore: user-editable oracle prompts
//   - LoadProfile: company profile TOML for the compliance and legal agents
package file
