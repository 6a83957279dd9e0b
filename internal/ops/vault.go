// Package ops implements the vault's operations: every externally reachable
// action goes through here, whether it arrives over HTTP, MCP, or the CLI.
// Transport layers validate tokens and decode payloads; ops owns semantics.
package ops

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hpungsan/vaultd/internal/auth"
	"github.com/hpungsan/vaultd/internal/config"
	"github.com/hpungsan/vaultd/internal/content"
	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/memory"
	"github.com/hpungsan/vaultd/internal/query"
	"github.com/hpungsan/vaultd/internal/secrets"
)

// Vault composes the stores, the token authority, the query engine, and the
// usage ledger behind one handle. All operations hang off it.
type Vault struct {
	Root     string
	Config   *config.Config
	Auth     *auth.Authority
	Secrets  *secrets.Store
	Memory   *memory.Store
	Engine   *query.Engine
	Ledger   *sql.DB
	Taxonomy *content.Taxonomy
	Peers    []config.Peer
	Logger   *slog.Logger
}

// OpenVault wires a vault rooted at root: token authority, secret store,
// memory store (encrypted unless configured plaintext), the SQLite ledger,
// the taxonomy, and the federated query sources from vaults.yaml.
func OpenVault(root string, cfg *config.Config, logger *slog.Logger) (*Vault, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Production() && cfg.MasterPassphrase == config.DefaultMasterPassphrase {
		return nil, errors.NewInvalidRequest(
			"refusing to start: set VAULTD_MASTER_PASSPHRASE, the default passphrase is not allowed in production")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, err
	}

	authority, err := auth.Open(root, auth.Options{
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: time.Duration(cfg.RateLimitWindowSecs) * time.Second,
		Production:      cfg.Production(),
		DevToken:        cfg.DevToken,
	})
	if err != nil {
		return nil, err
	}

	secretStore, err := secrets.Open(filepath.Join(root, "secrets"), cfg.MasterPassphrase)
	if err != nil {
		return nil, err
	}

	memPassphrase := cfg.MasterPassphrase
	if cfg.PlaintextMemory {
		memPassphrase = ""
	}
	memStore, err := memory.Open(filepath.Join(root, "memory"), memPassphrase)
	if err != nil {
		return nil, err
	}

	ledger, err := db.Init(root)
	if err != nil {
		return nil, err
	}

	taxonomyPath := cfg.TaxonomyPath
	if taxonomyPath == "" {
		taxonomyPath = filepath.Join(root, "taxonomy.json")
	}
	taxonomy, err := content.LoadTaxonomy(taxonomyPath)
	if err != nil {
		ledger.Close()
		return nil, err
	}

	peers, err := config.LoadPeers(filepath.Join(root, "vaults.yaml"))
	if err != nil {
		ledger.Close()
		return nil, err
	}

	sources := []query.Source{query.NewPersonalSource(memStore)}
	for _, peer := range peers {
		if peer.Remote() {
			sources = append(sources, query.NewPeerSource(
				peer.Name, peer.URL, peer.Token,
				time.Duration(cfg.PeerTimeoutSecs)*time.Second, logger))
			continue
		}
		src, err := query.NewKnowledgeSource(peer.Name, peer.Path)
		if err != nil {
			logger.Warn("skipping knowledge vault", "name", peer.Name, "err", err)
			continue
		}
		sources = append(sources, src)
	}
	network := query.NewNetworkSource(cfg.NetworkAPIURL, cfg.NetworkAPIKey,
		time.Duration(cfg.NetworkTimeoutSecs)*time.Second)

	return &Vault{
		Root:     root,
		Config:   cfg,
		Auth:     authority,
		Secrets:  secretStore,
		Memory:   memStore,
		Engine:   query.NewEngine(sources, network, logger),
		Ledger:   ledger,
		Taxonomy: taxonomy,
		Peers:    peers,
		Logger:   logger,
	}, nil
}

// Close releases the ledger handle.
func (v *Vault) Close() error {
	return v.Ledger.Close()
}

// preview truncates text for response echoes.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
