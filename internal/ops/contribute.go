package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/vaultd/internal/content"
	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
)

// ContributeInput contains parameters for the Contribute operation.
type ContributeInput struct {
	Content string `json:"content"`
}

// ContributeOutput shows the caller the sanitised diff awaiting approval.
type ContributeOutput struct {
	ContributionID  string                   `json:"contribution_id"`
	Original        string                   `json:"original"`
	Sanitised       string                   `json:"sanitised"`
	Stripped        []string                 `json:"stripped"`
	Report          []content.PatternMatch   `json:"redaction_report"`
	TopCategory     *content.Classification  `json:"top_category,omitempty"`
	Classifications []content.Classification `json:"all_categories"`
	Status          string                   `json:"status"`
	Message         string                   `json:"message"`
}

// Contribute sanitises and classifies text, then stages it in the pending
// ledger. Nothing is published and no ratio credit accrues until the owner
// approves the staged record.
func (v *Vault) Contribute(input ContributeInput) (*ContributeOutput, error) {
	text := strings.TrimSpace(input.Content)
	if text == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	if len(text) > v.Config.ContributionMaxBytes {
		return nil, errors.NewContentTooLarge("content", v.Config.ContributionMaxBytes, len(text))
	}

	sanitised, stripped, report := content.Sanitize(text)
	classifications := v.Taxonomy.Classify(sanitised)

	record := &db.Contribution{
		ID:              ulid.MustNew(ulid.Now(), rand.Reader).String(),
		OriginalLength:  len(text),
		Sanitised:       sanitised,
		StrippedTerms:   stripped,
		Report:          report,
		Classifications: classifications,
		StagedAt:        time.Now().UTC(),
	}
	if err := db.StageContribution(v.Ledger, record); err != nil {
		return nil, err
	}

	out := &ContributeOutput{
		ContributionID:  record.ID,
		Original:        preview(text, 300),
		Sanitised:       preview(sanitised, 300),
		Stripped:        stripped,
		Report:          report,
		Classifications: classifications,
		Status:          "staged_for_approval",
		Message:         "Review the sanitised diff, then approve the contribution to publish it.",
	}
	if len(classifications) > 0 {
		out.TopCategory = &classifications[0]
	}
	return out, nil
}
