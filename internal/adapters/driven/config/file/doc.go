// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with PRISM_* environment overrides
//   - PromptStore: user-editable prompt templates with embedded fallbacks
//   - PromptWatcher: reloads prompts when their files change
package file
