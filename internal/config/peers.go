package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Peer describes one federated query source from vaults.yaml. Exactly one of
// Path (a locally mounted knowledge vault) or URL (a remote peer vault)
// must be set.
type Peer struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path,omitempty"`
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// Remote reports whether the peer is reached over the network.
func (p Peer) Remote() bool {
	return p.URL != ""
}

type peerFile struct {
	KnowledgeVaults []Peer `yaml:"knowledge_vaults"`
}

// LoadPeers reads the peer list from path. A missing file yields no peers.
// Entries with neither path nor url, or with both, are rejected.
func LoadPeers(path string) ([]Peer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var f peerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, p := range f.KnowledgeVaults {
		if p.Name == "" {
			f.KnowledgeVaults[i].Name = fmt.Sprintf("vault-%d", i+1)
		}
		if (p.Path == "") == (p.URL == "") {
			return nil, fmt.Errorf("peer %q: exactly one of path or url required", p.Name)
		}
	}
	return f.KnowledgeVaults, nil
}
