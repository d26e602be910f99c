// Package ingest splits source documents into corpus chunks.
//
// Markdown headings become structural chunks carrying their level, and the
// text under each heading is cut into overlapping body chunks labelled with
// that heading. Plain text is cut into body chunks only.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per body chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Document is a source document to split.
type Document struct {
	// ID becomes every chunk's DocumentID and the prefix of its chunk ID.
	ID string

	// UserID is the owner, copied to every chunk.
	UserID string

	// Source is the display label, e.g. a file name.
	Source string

	Content string
}

// Splitter cuts documents into chunk records.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the body chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between body chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Overlap must leave the window room to advance.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Split picks markdown or plain text handling from the source extension.
func (s *Splitter) Split(doc Document) []domain.ChunkRecord {
	switch strings.ToLower(filepath.Ext(doc.Source)) {
	case ".md", ".markdown":
		return s.Markdown(doc)
	default:
		return s.Text(doc)
	}
}

// Text cuts plain text into body chunks.
func (s *Splitter) Text(doc Document) []domain.ChunkRecord {
	b := s.builder(doc)
	b.body(doc.Content, "")
	return b.records
}

// Markdown emits a heading chunk per ATX heading and body chunks for the
// text beneath it. Headings inside fenced code blocks are ignored.
func (s *Splitter) Markdown(doc Document) []domain.ChunkRecord {
	b := s.builder(doc)

	var (
		section strings.Builder
		header  string
		inFence bool
	)
	flush := func() {
		b.body(stripMarkdown(section.String()), header)
		section.Reset()
	}

	for _, line := range strings.Split(doc.Content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			section.WriteString(line)
			section.WriteByte('\n')
			continue
		}
		if !inFence {
			if level, title, ok := parseHeading(trimmed); ok {
				flush()
				header = title
				b.heading(title, level)
				continue
			}
		}
		section.WriteString(line)
		section.WriteByte('\n')
	}
	flush()

	return b.records
}

// parseHeading recognises "# Title" through "###### Title".
func parseHeading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(line) || (line[level] != ' ' && line[level] != '\t') {
		return 0, "", false
	}
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line[level:]), "#"))
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

// builder accumulates records with sequential IDs.
type builder struct {
	splitter *Splitter
	doc      Document
	records  []domain.ChunkRecord
}

func (s *Splitter) builder(doc Document) *builder {
	return &builder{splitter: s, doc: doc, records: []domain.ChunkRecord{}}
}

func (b *builder) add(content string, meta domain.ChunkMetadata) {
	meta.Source = b.doc.Source
	b.records = append(b.records, domain.ChunkRecord{
		Chunk: domain.Chunk{
			// Stable IDs let a re-ingest replace the previous chunks.
			ID:         fmt.Sprintf("%s#%04d", b.doc.ID, len(b.records)),
			DocumentID: b.doc.ID,
			UserID:     b.doc.UserID,
			Content:    content,
			Metadata:   meta,
		},
	})
}

func (b *builder) heading(title string, level int) {
	b.add(title, domain.ChunkMetadata{Header: title, HeaderLevel: domain.HeaderLevel(level)})
}

// body cuts text into windows of chunkSize runes advancing by
// chunkSize-overlap. Blank windows are dropped.
func (b *builder) body(text, header string) {
	runes := []rune(strings.TrimSpace(text))
	size, step := b.splitter.chunkSize, b.splitter.chunkSize-b.splitter.overlap

	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			b.add(content, domain.ChunkMetadata{Header: header})
		}
		if end == len(runes) {
			break
		}
	}
}
