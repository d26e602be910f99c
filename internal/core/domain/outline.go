package domain

// Outline depth bounds.
const (
	// MinOutlineDepth is the shallowest heading depth.
	MinOutlineDepth = 1

	// MaxOutlineDepth is the deepest max_depth a request may ask for.
	MaxOutlineDepth = 5

	// DefaultOutlineDepth is used when a request leaves max_depth unset.
	DefaultOutlineDepth = 3
)

// OutlineItem is a single titled node in a generated table of contents.
// Sequence order in an outline reflects document order.
type OutlineItem struct {
	Title string `json:"title" yaml:"title"`
	Depth int    `json:"depth" yaml:"depth"`
}

// OutlineRequest asks for an outline on a topic.
type OutlineRequest struct {
	// Topic is the subject of the outline.
	Topic string

	// DocumentIDs scopes retrieval to these documents. Empty disables retrieval.
	DocumentIDs []string

	// MaxDepth is the deepest heading kept, 1..5. Zero means the default.
	MaxDepth int
}

// OutlineResult is the outline returned to callers.
type OutlineResult struct {
	Outline []OutlineItem `json:"outline"`
	Topic   string        `json:"topic"`

	// SourcesUsed counts the distinct documents whose chunks reached the prompt.
	SourcesUsed int `json:"sources_used"`
}

// OutlineTemplate is a named preset outline.
type OutlineTemplate struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Outline     []OutlineItem `json:"outline" yaml:"outline"`
}

// FilterDepth returns the items with depth in [1, maxDepth], preserving order.
// Items outside the range are dropped, never clamped.
func FilterDepth(items []OutlineItem, maxDepth int) []OutlineItem {
	out := make([]OutlineItem, 0, len(items))
	for _, item := range items {
		if item.Depth >= MinOutlineDepth && item.Depth <= maxDepth {
			out = append(out, item)
		}
	}
	return out
}
