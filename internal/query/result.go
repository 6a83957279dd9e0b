// Package query implements the federated query engine: fan-out across the
// personal memory store, mounted knowledge vaults, remote peer vaults, and
// the external intelligence network, with fingerprint deduplication and
// transparent conflict surfacing.
package query

import "time"

// SourceType tags where a result came from.
type SourceType string

const (
	SourcePersonal  SourceType = "personal_vault"
	SourceKnowledge SourceType = "knowledge_vault"
	SourceRemote    SourceType = "remote_vault"
	SourceNetwork   SourceType = "network"
)

// Result is one hit from any federated source.
type Result struct {
	Content    string     `json:"content"`
	File       string     `json:"file,omitempty"`
	Line       int        `json:"line,omitempty"`
	Source     string     `json:"source"`
	SourceType SourceType `json:"source_type"`
	Timestamp  time.Time  `json:"timestamp"`
	RemoteURL  string     `json:"remote_url,omitempty"`
	Dataset    string     `json:"dataset,omitempty"`
}

// SourceReport records the per-source outcome of one federated query.
// Failures degrade to zero hits but stay visible here.
type SourceReport struct {
	Name  string     `json:"name"`
	Type  SourceType `json:"type"`
	Hits  int        `json:"hits"`
	Error string     `json:"error,omitempty"`
}

// Response is the merged, deduplicated answer to one query.
type Response struct {
	Query          string         `json:"query"`
	Results        []Result       `json:"results"`
	AlsoFound      []Result       `json:"also_found"`
	SourcesChecked []SourceReport `json:"sources_checked"`
	TotalHits      int            `json:"total_hits"`
}
