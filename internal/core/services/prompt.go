package services

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

// Prompt context limits.
const (
	// DefaultMaxContextChunks is the number of chunks rendered into a prompt.
	DefaultMaxContextChunks = 10

	// DefaultMaxChunkChars is the per-chunk content cut.
	DefaultMaxChunkChars = 200

	// NoReferenceMaterial is the context used when there are no chunks.
	NoReferenceMaterial = "no reference material"
)

// FormatChunks renders chunks as a numbered reference list for a prompt.
// At most maxChunks chunks are used, in input order. Each line reads
// "{n}. {header}: {content}..." where content is cut at maxChars runes
// with no word-boundary adjustment. Non-positive limits use the defaults.
func FormatChunks(chunks []domain.Chunk, maxChunks, maxChars int) string {
	if len(chunks) == 0 {
		return NoReferenceMaterial
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxContextChunks
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}

	lines := make([]string, len(chunks))
	for i := range chunks {
		lines[i] = fmt.Sprintf("%d. %s: %s...", i+1, chunks[i].Metadata.Header, truncateRunes(chunks[i].Content, maxChars))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// distinctDocuments counts the documents behind the chunks that FormatChunks would render.
func distinctDocuments(chunks []domain.Chunk, maxChunks int) int {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxContextChunks
	}
	if len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		seen[chunks[i].DocumentID] = struct{}{}
	}
	return len(seen)
}

// defaultOutlinePrompt is the fallback prompt when no PromptStore is configured.
const defaultOutlinePrompt = `You are an expert writer who designs clear, well-structured document outlines.

Topic: {{.Topic}}

Reference material:
{{.Context}}

Requirements:
- Write an outline for a document on the topic.
- Use heading depths from 1 to {{.MaxDepth}}. Depth 1 is a top-level section.
- Where the reference material is relevant, follow its structure and terminology.
- List the items in document order.

Respond with JSON only, as an array of objects with "title" and "depth" fields:
[{"title": "Introduction", "depth": 1}, {"title": "Background", "depth": 2}]`

// DefaultPrompts returns the embedded prompt templates by name.
// File-based prompt stores seed user-editable copies from these.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptOutlineGeneration: defaultOutlinePrompt,
	}
}

// outlinePromptData is the data passed to the outline prompt template.
type outlinePromptData struct {
	Topic    string
	Context  string
	MaxDepth int
}

var defaultOutlineTemplate = template.Must(template.New(driven.PromptOutlineGeneration).Parse(defaultOutlinePrompt))

// renderOutlinePrompt renders the outline prompt from the store's template,
// falling back to the embedded template if the stored one is missing or broken.
func renderOutlinePrompt(store driven.PromptStore, data outlinePromptData) (string, error) {
	tmpl := defaultOutlineTemplate
	if store != nil {
		if text, err := store.Load(driven.PromptOutlineGeneration); err == nil && strings.TrimSpace(text) != "" {
			custom, parseErr := template.New(driven.PromptOutlineGeneration).Parse(text)
			if parseErr == nil {
				tmpl = custom
			} else {
				outlineLog.Warn("custom outline prompt is invalid, using default: %v", parseErr)
			}
		}
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		if tmpl == defaultOutlineTemplate {
			return "", fmt.Errorf("render outline prompt: %w", err)
		}
		outlineLog.Warn("custom outline prompt failed to render, using default: %v", err)
		b.Reset()
		if err := defaultOutlineTemplate.Execute(&b, data); err != nil {
			return "", fmt.Errorf("render outline prompt: %w", err)
		}
	}
	return b.String(), nil
}
