package ops

import (
	"time"

	"github.com/hpungsan/vaultd/internal/auth"
	"github.com/hpungsan/vaultd/internal/errors"
)

// TokenCreateInput contains parameters for the TokenCreate operation.
type TokenCreateInput struct {
	Role      auth.Role  `json:"role"`
	Agent     string     `json:"agent,omitempty"`
	Label     string     `json:"label,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TokenCreateOutput returns the raw token exactly once.
type TokenCreateOutput struct {
	Token string    `json:"token"`
	Role  auth.Role `json:"role"`
	Label string    `json:"label"`
}

// TokenCreate mints a new access token. The raw value in the response is the
// only copy that will ever exist.
func (v *Vault) TokenCreate(input TokenCreateInput) (*TokenCreateOutput, error) {
	raw, err := v.Auth.CreateToken(input.Role, input.Agent, input.Label, input.ExpiresAt)
	if err != nil {
		return nil, err
	}
	label := input.Label
	if label == "" {
		label = string(input.Role) + "-" + orDefault(input.Agent, "default")
	}
	return &TokenCreateOutput{Token: raw, Role: input.Role, Label: label}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// TokenRevokeOutput confirms a revocation.
type TokenRevokeOutput struct {
	Revoked bool `json:"revoked"`
}

// TokenRevoke removes a token by its raw value.
func (v *Vault) TokenRevoke(raw string) (*TokenRevokeOutput, error) {
	if raw == "" {
		return nil, errors.NewInvalidRequest("token is required")
	}
	removed, err := v.Auth.Revoke(raw)
	if err != nil {
		return nil, err
	}
	return &TokenRevokeOutput{Revoked: removed}, nil
}

// TokenListOutput lists issued token metadata.
type TokenListOutput struct {
	Tokens []auth.TokenMeta `json:"tokens"`
}

// TokenList enumerates issued tokens. Hashes and raw values never appear.
func (v *Vault) TokenList() *TokenListOutput {
	return &TokenListOutput{Tokens: v.Auth.ListTokens()}
}
