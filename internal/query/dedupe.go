package query

import (
	"sort"

	"github.com/hpungsan/vaultd/internal/content"
)

const (
	maxPrimary   = 20
	maxConflicts = 10
)

// deduplicate pools hits from every source and keeps exactly one primary per
// content fingerprint. The more recent timestamp wins; on an exact tie the
// first-seen hit stays primary. Losers are surfaced in the conflicts list,
// never discarded, so a stale personal note and fresher network data both
// remain visible.
func deduplicate(results []Result) (primary, conflicts []Result) {
	seen := make(map[string]int) // fingerprint -> index into primary

	for _, item := range results {
		key := content.Fingerprint(item.Content)
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(primary)
			primary = append(primary, item)
			continue
		}
		if item.Timestamp.After(primary[idx].Timestamp) {
			conflicts = append(conflicts, primary[idx])
			primary[idx] = item
		} else {
			conflicts = append(conflicts, item)
		}
	}

	sort.SliceStable(primary, func(i, j int) bool {
		return primary[i].Timestamp.After(primary[j].Timestamp)
	})
	if len(primary) > maxPrimary {
		primary = primary[:maxPrimary]
	}
	if len(conflicts) > maxConflicts {
		conflicts = conflicts[:maxConflicts]
	}
	return primary, conflicts
}
