package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/gate"
	"github.com/hpungsan/vaultd/internal/query"
)

// QueryInput contains parameters for the Query operation.
type QueryInput struct {
	Q              string `json:"q"`
	IncludeNetwork bool   `json:"include_network"`
}

// Query runs a federated search. Every call counts against the contribution
// ratio before the gate is checked, so a throttled caller's attempt still
// registers as usage.
func (v *Vault) Query(ctx context.Context, input QueryInput) (*query.Response, error) {
	q := strings.TrimSpace(input.Q)
	if q == "" {
		return nil, errors.NewInvalidRequest("q is required")
	}
	if len(q) > v.Config.QueryMaxChars {
		return nil, errors.NewContentTooLarge("q", v.Config.QueryMaxChars, len(q))
	}

	if err := db.IncrementCounter(v.Ledger, db.CounterQueries); err != nil {
		return nil, err
	}
	counters, err := db.GetCounters(v.Ledger)
	if err != nil {
		return nil, err
	}
	if err := gate.CheckQuery(counters, v.Auth.CreatedAt(), time.Now().UTC()); err != nil {
		return nil, err
	}

	return v.Engine.Query(ctx, q, input.IncludeNetwork), nil
}
