// Package auth implements the vault's token authority: issuing, validating,
// and revoking access tokens. Raw tokens are returned exactly once at
// creation; only SHA-256 hashes persist.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/vaultd/internal/errors"
)

// Role separates owners (full control) from subscribers (query access).
type Role string

const (
	RoleOwner      Role = "owner"
	RoleSubscriber Role = "subscriber"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleSubscriber
}

// TokenRecord is the persisted form of an issued token. The raw token never
// appears here.
type TokenRecord struct {
	TokenHash string     `json:"token_hash"`
	Role      Role       `json:"role"`
	Agent     string     `json:"agent"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the record's expiry, if any, has passed.
func (r *TokenRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// TokenMeta is the listing form of a token record: everything but the hash.
type TokenMeta struct {
	Role      Role       `json:"role"`
	Agent     string     `json:"agent"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// vaultFile is the on-disk shape of vault.json.
type vaultFile struct {
	VaultID   string        `json:"vault_id"`
	CreatedAt time.Time     `json:"created_at"`
	Tokens    []TokenRecord `json:"tokens"`
}

// Options configure an Authority.
type Options struct {
	// RateLimitMax attempts per RateLimitWindow, keyed on token prefix.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Production disables the dev token bypass regardless of DevToken.
	Production bool

	// DevToken, when set in a non-production environment, validates as a
	// synthetic owner token. Compared in constant time.
	DevToken string
}

// Authority owns vault.json and the validation rate limiter.
type Authority struct {
	mu      sync.Mutex
	path    string
	file    vaultFile
	limiter *RateLimiter
	opts    Options
}

// Open loads vault.json from dir, creating a new vault identity on first
// use. The file is written with 0600 permissions.
func Open(dir string, opts Options) (*Authority, error) {
	if opts.RateLimitMax <= 0 {
		opts.RateLimitMax = 10
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}

	a := &Authority{
		path:    filepath.Join(dir, "vault.json"),
		limiter: NewRateLimiter(opts.RateLimitMax, opts.RateLimitWindow),
		opts:    opts,
	}

	data, err := os.ReadFile(a.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &a.file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", a.path, err)
		}
		// Backfill created_at for vaults written before it existed.
		if a.file.CreatedAt.IsZero() {
			a.file.CreatedAt = time.Now().UTC()
			if err := a.save(); err != nil {
				return nil, err
			}
		}
	case os.IsNotExist(err):
		a.file = vaultFile{
			VaultID:   newVaultID(),
			CreatedAt: time.Now().UTC(),
		}
		if err := a.save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read %s: %w", a.path, err)
	}

	return a, nil
}

// newVaultID generates a short vault identifier.
func newVaultID() string {
	return "vlt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// save writes vault.json. Caller holds a.mu (or is the constructor).
func (a *Authority) save() error {
	data, err := json.MarshalIndent(a.file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", a.path, err)
	}
	return nil
}

// VaultID returns the stable vault identifier.
func (a *Authority) VaultID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.VaultID
}

// CreatedAt returns when the vault identity was first created. The access
// gate's grace period is measured from this instant.
func (a *Authority) CreatedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.CreatedAt
}

// RateLimiter exposes the validation limiter for periodic cleanup.
func (a *Authority) RateLimiter() *RateLimiter {
	return a.limiter
}

// hashToken is the storage identity of a raw token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreateToken mints a high-entropy token, persists its hash plus metadata,
// and returns the raw value. The raw token cannot be retrieved again.
func (a *Authority) CreateToken(role Role, agent, label string, expires *time.Time) (string, error) {
	if !role.Valid() {
		return "", errors.NewInvalidRequest(fmt.Sprintf("role must be %q or %q", RoleOwner, RoleSubscriber))
	}
	if agent == "" {
		agent = "default"
	}
	if label == "" {
		label = fmt.Sprintf("%s-%s", role, agent)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.NewInternal(fmt.Errorf("generate token: %w", err))
	}
	raw := "vtok_" + base64.RawURLEncoding.EncodeToString(buf)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.file.Tokens = append(a.file.Tokens, TokenRecord{
		TokenHash: hashToken(raw),
		Role:      role,
		Agent:     agent,
		Label:     label,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expires,
	})
	if err := a.save(); err != nil {
		return "", errors.NewInternal(err)
	}
	return raw, nil
}

// prefixKey is the rate limiter key for a presented token.
func prefixKey(raw string) string {
	if len(raw) >= 8 {
		return raw[:8]
	}
	return raw
}

// Validate checks a presented token. All failure modes return the same
// generic AUTH_FAILED error so callers can't distinguish a wrong token from
// an expired or rate-limited one; the rate-limited case adds a retry-after
// hint for the transport to surface as a header.
func (a *Authority) Validate(raw string) (*TokenRecord, error) {
	if raw == "" {
		return nil, errors.NewAuthFailed()
	}

	key := prefixKey(raw)
	if !a.limiter.Allow(key) {
		vErr := errors.NewAuthFailed()
		vErr.Details = map[string]any{
			"retry_after_secs": int(a.limiter.RetryAfter(key).Seconds()),
		}
		return nil, vErr
	}

	// Dev bypass. Refuses to activate in production even if a dev token is
	// configured; the comparison is constant time.
	if !a.opts.Production && a.opts.DevToken != "" {
		if subtle.ConstantTimeCompare([]byte(raw), []byte(a.opts.DevToken)) == 1 {
			return &TokenRecord{
				TokenHash: "env-bypass",
				Role:      RoleOwner,
				Agent:     "env",
				Label:     "env-token",
				CreatedAt: time.Now().UTC(),
			}, nil
		}
	}

	h := hashToken(raw)
	now := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.file.Tokens {
		rec := &a.file.Tokens[i]
		if hmac.Equal([]byte(rec.TokenHash), []byte(h)) {
			if rec.Expired(now) {
				return nil, errors.NewAuthFailed()
			}
			out := *rec
			return &out, nil
		}
	}
	return nil, errors.NewAuthFailed()
}

// Revoke removes the record matching the raw token's hash. Idempotent:
// revoking an unknown token returns false without error.
func (a *Authority) Revoke(raw string) (bool, error) {
	h := hashToken(raw)

	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.file.Tokens[:0]
	removed := false
	for _, rec := range a.file.Tokens {
		if rec.TokenHash == h {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	a.file.Tokens = kept
	if !removed {
		return false, nil
	}
	if err := a.save(); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// ListTokens returns issued token metadata. Hashes and raw values are never
// included.
func (a *Authority) ListTokens() []TokenMeta {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]TokenMeta, 0, len(a.file.Tokens))
	for _, rec := range a.file.Tokens {
		out = append(out, TokenMeta{
			Role:      rec.Role,
			Agent:     rec.Agent,
			Label:     rec.Label,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	return out
}
