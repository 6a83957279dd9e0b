package ops

import (
	"time"

	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
)

// PendingOutput lists the newest staged contributions.
type PendingOutput struct {
	Pending []db.Contribution `json:"pending"`
	Count   int               `json:"count"`
}

// Pending returns the staged contributions awaiting owner review.
func (v *Vault) Pending() (*PendingOutput, error) {
	items, total, err := db.ListPending(v.Ledger)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []db.Contribution{}
	}
	return &PendingOutput{Pending: items, Count: total}, nil
}

// ApproveOutput reports a published contribution and the credit it earned.
type ApproveOutput struct {
	Approved      string  `json:"approved"`
	CreditsEarned float64 `json:"credits_earned"`
	Message       string  `json:"message"`
}

// Approve publishes a staged contribution. This is the only operation that
// moves the approved counter, and therefore the only way to improve the
// access ratio.
func (v *Vault) Approve(id string) (*ApproveOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("contribution id is required")
	}
	record, err := db.ApproveContribution(v.Ledger, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &ApproveOutput{
		Approved:      record.ID,
		CreditsEarned: approvedCredit,
		Message:       "Contribution published to the network.",
	}, nil
}

// RejectOutput confirms a discarded contribution.
type RejectOutput struct {
	Rejected string `json:"rejected"`
}

// Reject discards a staged contribution outright.
func (v *Vault) Reject(id string) (*RejectOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("contribution id is required")
	}
	if err := db.RejectContribution(v.Ledger, id); err != nil {
		return nil, err
	}
	return &RejectOutput{Rejected: id}, nil
}
