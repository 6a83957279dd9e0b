package ops

import (
	"math"
	"time"

	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/gate"
)

// Network credit rates. Approval pays out; staging only accrues pending
// credit until the owner approves.
const (
	approvedCredit = 0.5
	stagedCredit   = 0.3
)

// StatsOutput is the vault's usage and access-tier snapshot.
type StatsOutput struct {
	QueriesMade            int64       `json:"queries_made"`
	ContributionsStaged    int64       `json:"contributions_staged"`
	ContributionsApproved  int64       `json:"contributions_approved"`
	Ratio                  float64     `json:"ratio"`
	AccessTier             gate.Tier   `json:"access_tier"`
	RequiredRatio          float64     `json:"required_ratio"`
	GracePeriodActive      bool        `json:"grace_period_active"`
	GraceDaysRemaining     int         `json:"grace_days_remaining"`
	CreditsEarned          float64     `json:"credits_earned"`
	CreditsPending         float64     `json:"credits_pending"`
}

// Stats derives the contribution ratio, access tier, and credit totals from
// the counters ledger.
func (v *Vault) Stats() (*StatsOutput, error) {
	counters, err := db.GetCounters(v.Ledger)
	if err != nil {
		return nil, err
	}
	status := gate.Evaluate(counters, v.Auth.CreatedAt(), time.Now().UTC())

	pendingStaged := counters.Staged - counters.Approved
	if pendingStaged < 0 {
		pendingStaged = 0
	}
	return &StatsOutput{
		QueriesMade:           counters.Queries,
		ContributionsStaged:   counters.Staged,
		ContributionsApproved: counters.Approved,
		Ratio:                 math.Round(status.Ratio*1000) / 1000,
		AccessTier:            status.Tier,
		RequiredRatio:         status.RequiredRatio,
		GracePeriodActive:     status.Tier == gate.TierGrace,
		GraceDaysRemaining:    status.GraceDaysLeft,
		CreditsEarned:         math.Round(float64(counters.Approved)*approvedCredit*100) / 100,
		CreditsPending:        math.Round(float64(pendingStaged)*stagedCredit*100) / 100,
	}, nil
}

// InfoOutput is the authenticated vault summary.
type InfoOutput struct {
	VaultID       string    `json:"vault_id"`
	CreatedAt     time.Time `json:"created_at"`
	MemoryFiles   int       `json:"memory_files"`
	SecretsStored int       `json:"secrets_stored"`
	TokenCount    int       `json:"token_count"`
	Encrypted     bool      `json:"memory_encrypted"`
	PeerCount     int       `json:"peer_count"`
}

// Info summarises what the vault holds without exposing any of it.
func (v *Vault) Info() (*InfoOutput, error) {
	files, err := v.Memory.ListFiles()
	if err != nil {
		return nil, err
	}
	return &InfoOutput{
		VaultID:       v.Auth.VaultID(),
		CreatedAt:     v.Auth.CreatedAt(),
		MemoryFiles:   len(files),
		SecretsStored: len(v.Secrets.List()),
		TokenCount:    len(v.Auth.ListTokens()),
		Encrypted:     v.Memory.Encrypted(),
		PeerCount:     len(v.Peers),
	}, nil
}
