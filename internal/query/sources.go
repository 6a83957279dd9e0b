package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/memory"
)

// Source is one federated search target. Failures are per-source: the engine
// records them and keeps going.
type Source interface {
	Name() string
	Type() SourceType
	Search(ctx context.Context, q string) ([]Result, error)
}

// StoreSource searches a locally mounted memory store, either the personal
// vault or a read-only knowledge vault directory.
type StoreSource struct {
	name  string
	kind  SourceType
	store *memory.Store
}

// NewPersonalSource wraps the vault's own memory store.
func NewPersonalSource(store *memory.Store) *StoreSource {
	return &StoreSource{name: "personal", kind: SourcePersonal, store: store}
}

// NewKnowledgeSource mounts a knowledge vault directory. Knowledge vaults
// are plaintext by convention.
func NewKnowledgeSource(name, path string) (*StoreSource, error) {
	store, err := memory.Open(path, "")
	if err != nil {
		return nil, fmt.Errorf("mount knowledge vault %s: %w", name, err)
	}
	return &StoreSource{name: name, kind: SourceKnowledge, store: store}, nil
}

func (s *StoreSource) Name() string     { return s.name }
func (s *StoreSource) Type() SourceType { return s.kind }

func (s *StoreSource) Search(ctx context.Context, q string) ([]Result, error) {
	hits, err := s.store.Search(q)
	if err != nil {
		return nil, errors.NewSourceUnavailable(s.name, err)
	}
	var results []Result
	for _, hit := range hits {
		for _, line := range hit.Matches {
			results = append(results, Result{
				Content:    line.Text,
				File:       hit.File,
				Line:       line.Line,
				Source:     s.name,
				SourceType: s.kind,
				Timestamp:  hit.Timestamp,
			})
		}
	}
	return results, nil
}

// PeerSource queries a remote peer vault over its query endpoint. The peer
// runs this same service; results come back in the local Result shape.
type PeerSource struct {
	name   string
	url    string
	token  string
	client *http.Client
}

// NewPeerSource configures a remote peer. A plaintext http URL gets a
// one-time warning because the peer token travels in a header.
func NewPeerSource(name, url, token string, timeout time.Duration, logger *slog.Logger) *PeerSource {
	if strings.HasPrefix(url, "http://") && logger != nil {
		logger.Warn("peer vault uses plaintext http, token will be sent unencrypted",
			"peer", name, "url", url)
	}
	return &PeerSource{
		name:   name,
		url:    strings.TrimRight(url, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *PeerSource) Name() string     { return p.name }
func (p *PeerSource) Type() SourceType { return SourceRemote }

// peerResult is the wire shape a peer returns for one hit.
type peerResult struct {
	Content   string `json:"content"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Timestamp string `json:"timestamp"`
}

func (p *PeerSource) Search(ctx context.Context, q string) ([]Result, error) {
	// include_network is always false peer-side so two vaults never fan
	// out to the network twice for one query.
	payload, err := json.Marshal(map[string]any{"q": q, "include_network": false})
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.url+"/vault/query", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewSourceUnavailable(p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Vault-Token", p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewSourceUnavailable(p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSourceUnavailable(p.name,
			fmt.Errorf("peer returned status %d", resp.StatusCode))
	}

	var body struct {
		Results []peerResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.NewSourceUnavailable(p.name, err)
	}

	var results []Result
	for _, item := range body.Results {
		results = append(results, Result{
			Content:    item.Content,
			File:       item.File,
			Line:       item.Line,
			Source:     p.name,
			SourceType: SourceRemote,
			Timestamp:  parseTimestamp(item.Timestamp),
			RemoteURL:  p.url,
		})
	}
	return results, nil
}

// NetworkSource queries the external intelligence marketplace. It is only
// consulted when the caller opts in and a credential is configured.
type NetworkSource struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewNetworkSource configures the marketplace client. Returns nil when no
// API key is set; a nil source is simply never queried.
func NewNetworkSource(apiURL, apiKey string, timeout time.Duration) *NetworkSource {
	if apiKey == "" {
		return nil
	}
	return &NetworkSource{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (n *NetworkSource) Name() string     { return "network" }
func (n *NetworkSource) Type() SourceType { return SourceNetwork }

// networkItem tolerates the marketplace's loose result shape: content is
// sometimes a plain string and sometimes a structured object.
type networkItem struct {
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
	Dataset   string          `json:"dataset"`
}

func (it networkItem) contentText() string {
	if len(it.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(it.Content, &s); err == nil {
		return s
	}
	return string(it.Content)
}

func (n *NetworkSource) Search(ctx context.Context, q string) ([]Result, error) {
	payload, err := json.Marshal(map[string]any{"query": q, "limit": 10})
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.apiURL+"/v1/query", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewSourceUnavailable(n.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, errors.NewSourceUnavailable(n.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSourceUnavailable(n.Name(),
			fmt.Errorf("network returned status %d", resp.StatusCode))
	}

	var body struct {
		Results []networkItem `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.NewSourceUnavailable(n.Name(), err)
	}

	var results []Result
	for _, item := range body.Results {
		text := item.contentText()
		if text == "" {
			continue
		}
		results = append(results, Result{
			Content:    text,
			Source:     "network",
			SourceType: SourceNetwork,
			Timestamp:  parseTimestamp(item.Timestamp),
			Dataset:    item.Dataset,
		})
	}
	return results, nil
}

// parseTimestamp reads an RFC3339 wire timestamp, falling back to now so a
// malformed remote timestamp never poisons recency ranking with a zero time.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
