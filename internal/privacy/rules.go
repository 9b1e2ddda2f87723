package privacy

import "regexp"

// DefaultRules returns the fixed, ordered category registry. Order matters:
// each rule scans text already rewritten by the rules before it, so whichever
// category runs first claims a contested substring and later categories only
// see the residual text. The precedence below is deliberate, observed
// behavior and is not deduplicated across categories.
func DefaultRules() []Rule {
	return []Rule{
		rule("ssn", "SSN", `\b\d{3}-\d{2}-\d{4}\b`, true, 0),
		rule("phone", "PHONE", `\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`, true, 0),
		rule("email", "EMAIL", `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`, true, 0),
		rule("date", "DATE", `\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`, false, 0),
		rule("address", "ADDRESS", `\b\d{1,5}\s+(?:[A-Z][A-Za-z]*\s+)+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl|Way)\b`, true, 0),
		rule("policy", "POLICY", `\b[A-Z]{2,5}-?\d{6,12}\b`, true, 0),
		rule("titled-name", "NAME", `\b(?:Dr|Mr|Mrs|Ms|Prof)\.\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`, true, 0),
		rule("labeled-name", "NAME", `(?:Patient|Member|Client|Name)\s*:\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`, true, 1),
		rule("age", "AGE", `\b(?:aged?\s+\d{1,3}|\d{1,3}[-\s]years?[-\s]old)\b`, false, 0),
		rule("location", "LOCATION", `\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?,\s*[A-Z]{2}\s+\d{5}(?:-\d{4})?\b`, true, 0),
	}
}

func rule(name, token, pattern string, caseSensitive bool, group int) Rule {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	return Rule{
		Name:          name,
		Token:         token,
		Pattern:       regexp.MustCompile(pattern),
		CaseSensitive: caseSensitive,
		Group:         group,
	}
}
