package content

import "regexp"

// RedactionMarker replaces every stripped span in sanitised output.
const RedactionMarker = "[redacted]"

// piiPattern pairs a stable pattern name with its matcher. The name is what
// the redaction report exposes; callers never see the regex itself.
type piiPattern struct {
	name string
	re   *regexp.Regexp
}

var piiPatterns = []piiPattern{
	{"email", regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)},
	{"hex_address", regexp.MustCompile(`\b(?:0x)?[0-9a-fA-F]{40}\b`)},
	{"api_key", regexp.MustCompile(`\b(?:sk|key)-[A-Za-z0-9_-]{8,}\b`)},
	{"personal_reference", regexp.MustCompile(`(?i)\bmy\s+(?:portfolio|wallet|position|holdings?)\b`)},
	{"entity_marker", regexp.MustCompile(`(?i)\b(?:user|client|customer):\s*\w+`)},
}

// PatternMatch is one redaction-report entry: which pattern fired and how
// many spans it replaced.
type PatternMatch struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Sanitize strips personally identifying spans from text before it can be
// staged as a contribution. Returns the sanitised text, the raw terms that
// were removed (in match order), and a report of which patterns fired.
func Sanitize(text string) (sanitised string, stripped []string, report []PatternMatch) {
	sanitised = text
	for _, p := range piiPatterns {
		found := p.re.FindAllString(sanitised, -1)
		if len(found) == 0 {
			continue
		}
		stripped = append(stripped, found...)
		report = append(report, PatternMatch{Pattern: p.name, Count: len(found)})
		sanitised = p.re.ReplaceAllString(sanitised, RedactionMarker)
	}
	return sanitised, stripped, report
}
