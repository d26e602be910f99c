package services

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/prism/internal/core/domain"
)

//go:embed templates.yaml
var templatesYAML []byte

var (
	templatesOnce sync.Once
	templates     []domain.OutlineTemplate
	templatesErr  error
)

// OutlineTemplates returns the preset outline catalog.
// The catalog is decoded once; callers receive their own copy.
func OutlineTemplates() ([]domain.OutlineTemplate, error) {
	templatesOnce.Do(func() {
		templates, templatesErr = parseTemplates(templatesYAML)
	})
	if templatesErr != nil {
		return nil, templatesErr
	}

	out := make([]domain.OutlineTemplate, len(templates))
	for i, t := range templates {
		t.Outline = append([]domain.OutlineItem(nil), t.Outline...)
		out[i] = t
	}
	return out, nil
}

func parseTemplates(data []byte) ([]domain.OutlineTemplate, error) {
	var parsed []domain.OutlineTemplate
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode outline templates: %w", err)
	}

	seen := make(map[string]bool, len(parsed))
	for _, t := range parsed {
		if t.ID == "" || seen[t.ID] {
			return nil, fmt.Errorf("outline template id %q: %w", t.ID, domain.ErrInvalidInput)
		}
		seen[t.ID] = true
		for _, item := range t.Outline {
			if item.Depth < domain.MinOutlineDepth || item.Depth > domain.MaxOutlineDepth {
				return nil, fmt.Errorf("outline template %q item %q depth %d: %w",
					t.ID, item.Title, item.Depth, domain.ErrInvalidInput)
			}
		}
	}
	return parsed, nil
}
