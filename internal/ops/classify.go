package ops

import (
	"strings"

	"github.com/hpungsan/vaultd/internal/content"
	"github.com/hpungsan/vaultd/internal/errors"
)

// ClassifyInput contains parameters for the Classify operation.
type ClassifyInput struct {
	Content string `json:"content"`
}

// ClassifyOutput echoes a preview of the input with its taxonomy scores.
type ClassifyOutput struct {
	Input           string                   `json:"input"`
	Classifications []content.Classification `json:"classifications"`
	TopCategory     *content.Classification  `json:"top_category,omitempty"`
}

// Classify scores text against the taxonomy without staging anything.
func (v *Vault) Classify(input ClassifyInput) (*ClassifyOutput, error) {
	text := strings.TrimSpace(input.Content)
	if text == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}

	classifications := v.Taxonomy.Classify(text)
	out := &ClassifyOutput{
		Input:           preview(text, 200),
		Classifications: classifications,
	}
	if len(classifications) > 0 {
		out.TopCategory = &classifications[0]
	}
	return out, nil
}
