package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds vault configuration. Scalars come from config.json under the
// vault root; secrets-adjacent values (passphrase, dev token, network key)
// come only from the environment and are never written to disk.
type Config struct {
	// Environment selects the runtime mode. Anything other than
	// "production" enables the dev token bypass in the token authority.
	Environment string `json:"environment,omitempty"`

	// PlaintextMemory disables whole-file encryption of the memory store.
	// Secrets are always encrypted regardless of this flag.
	PlaintextMemory bool `json:"plaintext_memory,omitempty"`

	// RateLimitMax / RateLimitWindowSecs bound token validation attempts
	// per token prefix.
	RateLimitMax        int `json:"rate_limit_max,omitempty"`
	RateLimitWindowSecs int `json:"rate_limit_window_secs,omitempty"`

	// Size ceilings, in bytes unless noted.
	QueryMaxChars        int `json:"query_max_chars,omitempty"`
	SecretMaxBytes       int `json:"secret_max_bytes,omitempty"`
	MemoryMaxBytes       int `json:"memory_max_bytes,omitempty"`
	ContributionMaxBytes int `json:"contribution_max_bytes,omitempty"`

	// PeerTimeoutSecs / NetworkTimeoutSecs bound federated sub-queries.
	PeerTimeoutSecs    int `json:"peer_timeout_secs,omitempty"`
	NetworkTimeoutSecs int `json:"network_timeout_secs,omitempty"`

	// NetworkAPIURL is the external intelligence network endpoint. Queried
	// only when a request sets include_network and NetworkAPIKey is present.
	NetworkAPIURL string `json:"network_api_url,omitempty"`

	// TaxonomyPath points at the classification taxonomy JSON. Empty means
	// <root>/taxonomy.json.
	TaxonomyPath string `json:"taxonomy_path,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// Environment-only values.
	MasterPassphrase string `json:"-"`
	DevToken         string `json:"-"`
	NetworkAPIKey    string `json:"-"`
}

// DefaultMasterPassphrase is the placeholder a fresh vault ships with. A
// production vault refuses to start while it is in effect.
const DefaultMasterPassphrase = "changeme"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment:          "production",
		RateLimitMax:         10,
		RateLimitWindowSecs:  60,
		QueryMaxChars:        1000,
		SecretMaxBytes:       64 * 1024,
		MemoryMaxBytes:       1024 * 1024,
		ContributionMaxBytes: 32 * 1024,
		PeerTimeoutSecs:      8,
		NetworkTimeoutSecs:   5,
		NetworkAPIURL:        "https://api.example-intel.net",
	}
}

// Load loads configuration from root/config.json, applies defaults, and then
// environment overrides. Returns defaults if the file doesn't exist.
func Load(root string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(root, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), overlay)
	cfg.applyEnv()
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv pulls environment-only values and environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("VAULTD_ENV"); v != "" {
		c.Environment = v
	}
	c.MasterPassphrase = os.Getenv("VAULTD_MASTER_PASSPHRASE")
	if c.MasterPassphrase == "" {
		c.MasterPassphrase = DefaultMasterPassphrase
	}
	c.DevToken = os.Getenv("VAULTD_DEV_TOKEN")
	c.NetworkAPIKey = os.Getenv("VAULTD_NETWORK_KEY")
}

// Production reports whether the vault runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and
// deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Environment = overlay.Environment
	if result.Environment == "" {
		result.Environment = base.Environment
	}
	result.NetworkAPIURL = overlay.NetworkAPIURL
	if result.NetworkAPIURL == "" {
		result.NetworkAPIURL = base.NetworkAPIURL
	}
	result.TaxonomyPath = overlay.TaxonomyPath
	if result.TaxonomyPath == "" {
		result.TaxonomyPath = base.TaxonomyPath
	}

	for _, pair := range []struct {
		dst      *int
		base, ov int
	}{
		{&result.RateLimitMax, base.RateLimitMax, overlay.RateLimitMax},
		{&result.RateLimitWindowSecs, base.RateLimitWindowSecs, overlay.RateLimitWindowSecs},
		{&result.QueryMaxChars, base.QueryMaxChars, overlay.QueryMaxChars},
		{&result.SecretMaxBytes, base.SecretMaxBytes, overlay.SecretMaxBytes},
		{&result.MemoryMaxBytes, base.MemoryMaxBytes, overlay.MemoryMaxBytes},
		{&result.ContributionMaxBytes, base.ContributionMaxBytes, overlay.ContributionMaxBytes},
		{&result.PeerTimeoutSecs, base.PeerTimeoutSecs, overlay.PeerTimeoutSecs},
		{&result.NetworkTimeoutSecs, base.NetworkTimeoutSecs, overlay.NetworkTimeoutSecs},
	} {
		*pair.dst = pair.ov
		if *pair.dst == 0 {
			*pair.dst = pair.base
		}
	}

	// Booleans: overlay wins if true, else base
	result.PlaintextMemory = base.PlaintextMemory || overlay.PlaintextMemory

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
