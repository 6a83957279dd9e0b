package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFingerprint_Normalization(t *testing.T) {
	a := Fingerprint("  Aave V3 Liquidation Threshold  ")
	b := Fingerprint("aave v3 liquidation threshold")
	if a != b {
		t.Error("case and whitespace variants should collapse to one fingerprint")
	}
	if a == Fingerprint("different content entirely") {
		t.Error("distinct content produced the same fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestSanitize_EmailAndHexAddress(t *testing.T) {
	text := "contact alice@example.com about 0xDeaDBeef00000000000000000000000000000000 rewards"
	sanitised, stripped, report := Sanitize(text)

	if strings.Contains(sanitised, "alice@example.com") {
		t.Error("email survived sanitisation")
	}
	if strings.Contains(sanitised, "0xDeaDBeef") {
		t.Error("hex address survived sanitisation")
	}
	if got := strings.Count(sanitised, RedactionMarker); got != 2 {
		t.Errorf("redaction markers = %d, want 2", got)
	}
	if len(stripped) != 2 {
		t.Errorf("stripped terms = %v, want the email and the address", stripped)
	}
	if len(report) != 2 {
		t.Fatalf("report = %+v, want two distinct pattern entries", report)
	}
	names := map[string]bool{}
	for _, entry := range report {
		names[entry.Pattern] = true
	}
	if !names["email"] || !names["hex_address"] {
		t.Errorf("report patterns = %+v, want email and hex_address", report)
	}
}

func TestSanitize_PersonalReferences(t *testing.T) {
	sanitised, stripped, _ := Sanitize("rebalanced my portfolio for client: bob today")
	if strings.Contains(strings.ToLower(sanitised), "my portfolio") {
		t.Error("personal reference survived")
	}
	if strings.Contains(strings.ToLower(sanitised), "client: bob") {
		t.Error("entity marker survived")
	}
	if len(stripped) != 2 {
		t.Errorf("stripped = %v", stripped)
	}
}

func TestSanitize_APIKey(t *testing.T) {
	sanitised, _, report := Sanitize("auth with sk-abcdef1234567890 before calling")
	if strings.Contains(sanitised, "sk-abcdef") {
		t.Error("API key survived sanitisation")
	}
	if len(report) != 1 || report[0].Pattern != "api_key" {
		t.Errorf("report = %+v", report)
	}
}

func TestSanitize_CleanTextUntouched(t *testing.T) {
	text := "Aave v3 liquidation threshold raised to 82% on mainnet"
	sanitised, stripped, report := Sanitize(text)
	if sanitised != text {
		t.Errorf("clean text was modified: %q", sanitised)
	}
	if stripped != nil || report != nil {
		t.Errorf("clean text produced stripped=%v report=%v", stripped, report)
	}
}

func writeTaxonomy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTaxonomy_Missing(t *testing.T) {
	tax, err := LoadTaxonomy(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing taxonomy should not error: %v", err)
	}
	if got := tax.Classify("anything at all"); got != nil {
		t.Errorf("empty taxonomy classified text: %+v", got)
	}
}

func TestLoadTaxonomy_Invalid(t *testing.T) {
	path := writeTaxonomy(t, "{not json")
	if _, err := LoadTaxonomy(path); err == nil {
		t.Error("invalid taxonomy JSON should error")
	}
}

func TestClassify_ScoringAndOrdering(t *testing.T) {
	path := writeTaxonomy(t, `{
		"categories": {
			"defi": {"terms": ["liquidation", "governance", "tvl", "yield"], "collection": "defi-research"},
			"security": {"terms": ["exploit", "audit", "vulnerability"]},
			"nft": {"terms": ["mint", "royalty"]}
		}
	}`)
	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatal(err)
	}

	got := tax.Classify("Aave governance vote on liquidation parameters after the audit")
	if len(got) != 2 {
		t.Fatalf("classifications = %+v, want defi and security only", got)
	}
	// Two defi matches outrank one security match.
	if got[0].Category != "defi" || got[1].Category != "security" {
		t.Errorf("ordering = [%s %s], want [defi security]", got[0].Category, got[1].Category)
	}
	// defi: 2 matches over budget max(3, 4*0.3)=3 → 0.667
	if got[0].Confidence != 0.667 {
		t.Errorf("defi confidence = %v, want 0.667", got[0].Confidence)
	}
	// security: 1 match over budget max(3, 3*0.3)=3 → 0.333
	if got[1].Confidence != 0.333 {
		t.Errorf("security confidence = %v, want 0.333", got[1].Confidence)
	}
	if got[0].Collection != "defi-research" {
		t.Errorf("collection = %q", got[0].Collection)
	}
	if len(got[0].MatchedTerms) != 2 {
		t.Errorf("defi matched terms = %v", got[0].MatchedTerms)
	}
}

func TestClassify_ConfidenceCap(t *testing.T) {
	path := writeTaxonomy(t, `{
		"categories": {
			"dense": {"terms": ["alpha", "beta", "gamma"]}
		}
	}`)
	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatal(err)
	}
	got := tax.Classify("alpha beta gamma alpha beta gamma and more")
	if len(got) != 1 {
		t.Fatal("expected one classification")
	}
	if got[0].Confidence != 1 {
		t.Errorf("confidence = %v, want capped at 1", got[0].Confidence)
	}
}

func TestClassify_ZeroMatchExcluded(t *testing.T) {
	path := writeTaxonomy(t, `{"categories": {"defi": {"terms": ["liquidation"]}}}`)
	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := tax.Classify("completely unrelated prose"); got != nil {
		t.Errorf("zero-match category scored: %+v", got)
	}
}
