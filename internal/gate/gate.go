// Package gate computes the contribution-ratio access tier and decides
// whether a query may proceed. It is pure: the caller supplies the counters
// snapshot and the vault's creation time, the gate never touches storage.
package gate

import (
	"math"
	"time"

	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
)

const (
	// GracePeriod is the window after vault creation during which query
	// access is unconditional.
	GracePeriod = 14 * 24 * time.Hour

	// RequiredRatio is the approved-contributions-per-query floor for
	// unrestricted access once the grace period ends.
	RequiredRatio = 0.10

	// FreeQueries is how many total queries a vault gets before a low
	// ratio starts throttling.
	FreeQueries = 50
)

// Tier is the derived access level.
type Tier string

const (
	TierGrace   Tier = "grace"
	TierFull    Tier = "full"
	TierLimited Tier = "limited"
)

// Status is the gate's full verdict, exposed through vault stats.
type Status struct {
	Tier          Tier    `json:"tier"`
	Ratio         float64 `json:"ratio"`
	RequiredRatio float64 `json:"required_ratio"`
	GraceDaysLeft int     `json:"grace_days_left,omitempty"`
}

// Ratio is approved contributions divided by queries made. A vault that has
// never queried is treated as one query so the ratio stays defined.
func Ratio(counters db.Counters) float64 {
	queries := counters.Queries
	if queries < 1 {
		queries = 1
	}
	return float64(counters.Approved) / float64(queries)
}

// Evaluate derives the access tier from the counters and vault age.
// Grace wins while it lasts. After that, a healthy ratio grants full access,
// and a poor ratio only bites once the free-query allowance is spent.
func Evaluate(counters db.Counters, createdAt, now time.Time) Status {
	ratio := Ratio(counters)
	status := Status{Ratio: ratio, RequiredRatio: RequiredRatio}

	if age := now.Sub(createdAt); age < GracePeriod {
		status.Tier = TierGrace
		status.GraceDaysLeft = int(math.Ceil((GracePeriod - age).Hours() / 24))
		return status
	}
	if ratio >= RequiredRatio {
		status.Tier = TierFull
		return status
	}
	if counters.Queries > FreeQueries {
		status.Tier = TierLimited
		return status
	}
	status.Tier = TierFull
	return status
}

// CheckQuery returns a throttling error when the tier is limited, nil
// otherwise. Contributions and approvals are never gated; only queries are.
func CheckQuery(counters db.Counters, createdAt, now time.Time) error {
	status := Evaluate(counters, createdAt, now)
	if status.Tier == TierLimited {
		return errors.NewThrottled(status.Ratio, RequiredRatio)
	}
	return nil
}
