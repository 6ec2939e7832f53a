// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings under ~/.benchbook/config.toml
//   - PromptStore: user-editable answer prompts under ~/.benchbook/prompts/
package file
