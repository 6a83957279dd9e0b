package memory

import (
	"strings"
	"time"
)

// Search limits
const (
	maxLinesPerFile = 5
	minTokenLen     = 3
)

// LineMatch is one matching line within a document.
type LineMatch struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// FileMatch groups the matching lines of one document.
type FileMatch struct {
	File      string      `json:"file"`
	Matches   []LineMatch `json:"matches"`
	Timestamp time.Time   `json:"timestamp"`
}

// tokenize splits a query on whitespace, lower-cases, and drops tokens of
// two characters or fewer.
func tokenize(query string) []string {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if len(t) >= minTokenLen {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Search scans every document for the query. A document qualifies only when
// ALL tokens appear somewhere in its decrypted content; within a qualifying
// document, every line containing ANY token is returned, capped at
// maxLinesPerFile. The asymmetry is deliberate: AND across the file keeps
// unrelated documents out, OR across lines surfaces every relevant line.
func (s *Store) Search(query string) ([]FileMatch, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	files, err := s.ListFiles()
	if err != nil {
		return nil, err
	}

	var results []FileMatch
	for _, f := range files {
		content, err := s.Read(f.Path)
		if err != nil {
			continue
		}
		contentLower := strings.ToLower(content)

		allPresent := true
		for _, t := range tokens {
			if !strings.Contains(contentLower, t) {
				allPresent = false
				break
			}
		}
		if !allPresent {
			continue
		}

		var lines []LineMatch
		for i, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			lineLower := strings.ToLower(line)
			for _, t := range tokens {
				if strings.Contains(lineLower, t) {
					lines = append(lines, LineMatch{Line: i + 1, Text: trimmed})
					break
				}
			}
			if len(lines) >= maxLinesPerFile {
				break
			}
		}
		if len(lines) > 0 {
			results = append(results, FileMatch{
				File:      f.Path,
				Matches:   lines,
				Timestamp: f.Modified,
			})
		}
	}
	return results, nil
}
