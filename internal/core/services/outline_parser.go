package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/prism/internal/core/domain"
)

const (
	codeFence = "```"
	jsonTag   = "json"
)

// ParseOutline extracts outline items from raw model output.
// It never fails: unparsable input yields an empty slice and a warning.
// Elements without both a string title and an integral depth are dropped.
// Depths are passed through unclamped.
func ParseOutline(raw string) []domain.OutlineItem {
	items, err := parseOutline(raw)
	if err != nil {
		outlineLog.Warn("discarding unparsable model output: %v", err)
		return []domain.OutlineItem{}
	}
	return items
}

func parseOutline(raw string) ([]domain.OutlineItem, error) {
	payload := []byte(extractPayload(raw))

	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil {
		// Some models wrap the array as {"outline": [...]}.
		var wrapped struct {
			Outline []json.RawMessage `json:"outline"`
		}
		if wrapErr := json.Unmarshal(payload, &wrapped); wrapErr != nil || wrapped.Outline == nil {
			return nil, fmt.Errorf("decode outline array: %w", err)
		}
		elements = wrapped.Outline
	}

	items := make([]domain.OutlineItem, 0, len(elements))
	for _, element := range elements {
		if item, ok := decodeOutlineItem(element); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// extractPayload trims the text and, if it contains a code fence, returns
// the first fenced segment without its leading json tag.
func extractPayload(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.Contains(text, codeFence) {
		return text
	}
	segment := strings.Split(text, codeFence)[1]
	segment = strings.TrimPrefix(segment, jsonTag)
	return strings.TrimSpace(segment)
}

func decodeOutlineItem(element json.RawMessage) (domain.OutlineItem, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(element), []byte("{")) {
		return domain.OutlineItem{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return domain.OutlineItem{}, false
	}
	rawTitle, hasTitle := fields["title"]
	rawDepth, hasDepth := fields["depth"]
	if !hasTitle || !hasDepth {
		return domain.OutlineItem{}, false
	}

	var title *string
	if err := json.Unmarshal(rawTitle, &title); err != nil || title == nil {
		return domain.OutlineItem{}, false
	}
	depth, ok := decodeDepth(rawDepth)
	if !ok {
		return domain.OutlineItem{}, false
	}
	return domain.OutlineItem{Title: *title, Depth: depth}, true
}

// decodeDepth accepts JSON integers and integral floats such as 2.0.
// Quoted numbers are rejected.
func decodeDepth(raw json.RawMessage) (int, bool) {
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// DefaultOutline returns the fixed outline skeleton for a topic,
// filtered to items no deeper than maxDepth.
func DefaultOutline(topic string, maxDepth int) []domain.OutlineItem {
	skeleton := []domain.OutlineItem{
		{Title: "Introduction", Depth: 1},
		{Title: "Background & Purpose", Depth: 2},
		{Title: "Body", Depth: 1},
		{Title: topic + " core concepts", Depth: 2},
		{Title: "Main Methodology", Depth: 2},
		{Title: "Conclusion", Depth: 1},
		{Title: "Summary & Recommendations", Depth: 2},
	}
	return domain.FilterDepth(skeleton, maxDepth)
}
