package privacy

import "regexp"

// Rule represents a single PII detection rule. Rules are applied in registry
// order; later rules run against text already rewritten by earlier ones.
type Rule struct {
	// Name identifies the rule for configuration (enable/disable).
	Name string
	// Token is the category tag embedded in generated placeholders.
	Token string
	// Pattern is the compiled matcher. Case-insensitive rules are compiled
	// with the (?i) flag by the registry.
	Pattern *regexp.Regexp
	// CaseSensitive records whether the pattern matches case-sensitively.
	CaseSensitive bool
	// Group selects which capture group to replace; 0 replaces the whole
	// match. Used by label-prefixed rules that must keep the label visible.
	Group int
}

// PlaceholderMap maps a unique placeholder token (e.g. "[SSN_1]") to the
// original substring it replaced. A map is owned by exactly one anonymization
// call and consumed by exactly one matching restoration.
type PlaceholderMap map[string]string

// Finding reports how many matches one category replaced
type Finding struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Result contains the output of a single anonymization call
type Result struct {
	Text     string         `json:"text"`
	Map      PlaceholderMap `json:"-"` // never serialize original values
	Findings []Finding      `json:"findings"`
}

// TotalFindings returns the total number of replaced matches
func (r Result) TotalFindings() int {
	total := 0
	for _, f := range r.Findings {
		total += f.Count
	}
	return total
}
