// Package amps implements the Agent Memory Portability Standard: a
// versioned JSON document carrying a vault's memory, contribution summary,
// and knowledge subscriptions between agent frameworks. Secrets are never
// part of an export.
package amps

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hpungsan/vaultd/internal/db"
	"github.com/hpungsan/vaultd/internal/errors"
	"github.com/hpungsan/vaultd/internal/memory"
)

// Version is the AMPS document version this vault reads and writes.
const Version = "1.0"

// SourceLabel identifies this implementation in exported documents.
const SourceLabel = "vaultd"

// Document is the portable vault snapshot.
type Document struct {
	Version                string               `json:"amps_version"`
	ExportedAt             time.Time            `json:"exported_at"`
	AgentID                string               `json:"agent_id"`
	SourceLabel            string               `json:"source_label"`
	MigrationNotes         []string             `json:"migration_notes"`
	Memory                 Memory               `json:"memory"`
	Secrets                []string             `json:"secrets"`
	KnowledgeSubscriptions []string             `json:"knowledge_subscriptions"`
	Contributions          ContributionsSummary `json:"contributions"`
}

// Memory maps the vault's core documents onto the portable field names.
type Memory struct {
	LongTerm   string `json:"long_term"`
	Identity   string `json:"identity"`
	ActivePlan string `json:"active_plan,omitempty"`
}

// ContributionsSummary is the exported view of the contribution ledger.
type ContributionsSummary struct {
	TotalItems      int      `json:"total_items"`
	Categories      []string `json:"categories"`
	QualityScore    float64  `json:"quality_score"`
	NetworkEarnings float64  `json:"network_earnings"`
}

// Export snapshots the vault into an AMPS document. Memory fields fall back
// to placeholder text so required fields are never empty; secrets are always
// an empty list.
func Export(store *memory.Store, ledger *sql.DB, agentID string, subscriptions []string) (*Document, error) {
	longTerm := readOr(store, "MEMORY.md", "# Agent Memory\n\n(empty)")
	identity := readOr(store, "SOUL.md", "# Agent Identity\n\n(not set)")
	activePlan := readOr(store, "task_plan.md", "")

	summary := ContributionsSummary{Categories: []string{}}
	if ledger != nil {
		counters, err := db.GetCounters(ledger)
		if err != nil {
			return nil, err
		}
		summary.TotalItems = int(counters.Approved)
		staged := counters.Staged
		if staged < 1 {
			staged = 1
		}
		quality := math.Min(1, float64(counters.Approved)/float64(staged))
		summary.QualityScore = math.Round(quality*1000) / 1000

		categories, err := db.ListApprovedCategories(ledger)
		if err != nil {
			return nil, err
		}
		if categories != nil {
			summary.Categories = categories
		}
	}

	if subscriptions == nil {
		subscriptions = []string{}
	}
	return &Document{
		Version:        Version,
		ExportedAt:     time.Now().UTC(),
		AgentID:        agentID,
		SourceLabel:    SourceLabel,
		MigrationNotes: []string{},
		Memory: Memory{
			LongTerm:   longTerm,
			Identity:   identity,
			ActivePlan: activePlan,
		},
		Secrets:                []string{},
		KnowledgeSubscriptions: subscriptions,
		Contributions:          summary,
	}, nil
}

func readOr(store *memory.Store, name, fallback string) string {
	content, err := store.Read(name)
	if err != nil || strings.TrimSpace(content) == "" {
		return fallback
	}
	return strings.TrimSpace(content)
}

// ImportResult reports what an import changed and what needs attention.
type ImportResult struct {
	OK             bool     `json:"ok"`
	SourceLabel    string   `json:"source_label"`
	Version        string   `json:"amps_version"`
	Applied        []string `json:"applied"`
	MigrationNotes []string `json:"migration_notes"`
	Warnings       []string `json:"warnings"`
}

// fieldMap pairs AMPS memory fields with their vault documents.
var fieldMap = []struct {
	field func(Memory) string
	doc   string
}{
	{func(m Memory) string { return m.LongTerm }, "MEMORY.md"},
	{func(m Memory) string { return m.Identity }, "SOUL.md"},
	{func(m Memory) string { return m.ActivePlan }, "task_plan.md"},
}

// Import applies an AMPS document to the vault's memory store. By default
// existing content wins: imported text is appended under a labeled heading.
// With overwrite set, imported text replaces each document. Knowledge
// subscriptions are surfaced as warnings, never auto-applied, and
// contribution history is reported to the caller rather than merged into
// the ratio counters.
func Import(doc *Document, store *memory.Store, overwrite bool) (*ImportResult, error) {
	result := &ImportResult{
		OK:             true,
		SourceLabel:    doc.SourceLabel,
		Version:        doc.Version,
		MigrationNotes: doc.MigrationNotes,
	}
	if result.SourceLabel == "" {
		result.SourceLabel = "unknown"
	}

	if doc.Version != Version {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"AMPS version mismatch: got %q, expected %q, proceeding best-effort",
			doc.Version, Version))
	}
	for _, note := range doc.MigrationNotes {
		result.Warnings = append(result.Warnings, "[migration] "+note)
	}

	heading := fmt.Sprintf("%s (AMPS %s)", result.SourceLabel, doc.Version)
	for _, m := range fieldMap {
		content := strings.TrimSpace(m.field(doc.Memory))
		if content == "" {
			continue
		}
		if overwrite {
			if err := store.Write(m.doc, content+"\n", memory.ModeOverwrite); err != nil {
				return nil, err
			}
			result.Applied = append(result.Applied, "overwrote "+m.doc)
			continue
		}
		if err := appendUnderHeading(store, m.doc, content, heading); err != nil {
			return nil, err
		}
		result.Applied = append(result.Applied, "appended to "+m.doc)
	}

	if doc.Contributions.TotalItems > 0 {
		result.Applied = append(result.Applied, fmt.Sprintf(
			"recorded contribution history (%d items from %s)",
			doc.Contributions.TotalItems, result.SourceLabel))
	}

	if len(doc.KnowledgeSubscriptions) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"knowledge subscriptions from export: %s, restore manually in vaults.yaml",
			strings.Join(doc.KnowledgeSubscriptions, ", ")))
	}
	return result, nil
}

// appendUnderHeading merges imported content into an existing document.
// Existing content takes priority; the import lands below it under a
// heading naming where it came from. An empty document just takes the
// imported content directly.
func appendUnderHeading(store *memory.Store, doc, content, heading string) error {
	existing, err := store.Read(doc)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return store.Write(doc, content+"\n", memory.ModeOverwrite)
	}
	merged := existing + "\n\n---\n## Imported from " + heading + "\n\n" + content + "\n"
	return store.Write(doc, merged, memory.ModeOverwrite)
}
