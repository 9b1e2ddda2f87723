package privacy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"go.uber.org/zap"
)

// Anonymizer performs reversible PII replacement against the ordered
// category registry. It holds no per-call state; every Anonymize call owns a
// fresh counter and placeholder map.
type Anonymizer struct {
	rules   []Rule
	enabled map[string]bool
	logger  *logger.Logger
	config  config.PrivacyConfig
}

// pass is the accumulator threaded through the category fold: the partially
// rewritten text, the placeholder map built so far, and the shared counter.
type pass struct {
	text    string
	m       PlaceholderMap
	counter int
}

// New creates a new anonymizer instance
func New(cfg config.PrivacyConfig, log *logger.Logger) (*Anonymizer, error) {
	rules := DefaultRules()
	if len(rules) == 0 {
		return nil, fmt.Errorf("pattern registry is empty")
	}

	anonymizer := &Anonymizer{
		rules:   rules,
		enabled: make(map[string]bool),
		logger:  log,
		config:  cfg,
	}

	// Configure enabled detectors
	if err := anonymizer.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("PII anonymizer initialized",
		zap.Int("total_rules", len(anonymizer.rules)),
		zap.Int("enabled_rules", anonymizer.countEnabledRules()),
	)

	return anonymizer, nil
}

// configureDetectors enables/disables detectors based on configuration
func (a *Anonymizer) configureDetectors(detectors []string) error {
	for _, rule := range a.rules {
		a.enabled[rule.Name] = false
	}

	for _, detector := range detectors {
		if detector == "all" {
			for _, rule := range a.rules {
				a.enabled[rule.Name] = true
			}
			continue
		}

		found := false
		for _, rule := range a.rules {
			if rule.Name == detector {
				a.enabled[rule.Name] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown detector: %s", detector)
		}
	}

	return nil
}

// Anonymize scans text against the ordered registry and replaces every match
// with a unique placeholder. The counter is shared across categories within
// one call, so category order affects numbering but not correctness.
func (a *Anonymizer) Anonymize(text string) Result {
	if !a.config.Enabled {
		return Result{Text: text, Map: PlaceholderMap{}, Findings: []Finding{}}
	}

	acc := pass{text: text, m: make(PlaceholderMap), counter: 1}
	findings := make([]Finding, 0)

	for _, rule := range a.rules {
		if !a.enabled[rule.Name] {
			continue
		}

		var count int
		acc, count = applyRule(acc, rule)
		if count > 0 {
			findings = append(findings, Finding{Category: rule.Token, Count: count})

			a.logger.Debug("PII detected and anonymized",
				zap.String("rule", rule.Name),
				zap.String("category", rule.Token),
				zap.Int("count", count),
			)
		}
	}

	return Result{Text: acc.text, Map: acc.m, Findings: findings}
}

// applyRule runs one category pass over the accumulator. Matches are replaced
// rightmost-first so earlier splices never invalidate the offsets of matches
// still pending in the same pass.
func applyRule(acc pass, rule Rule) (pass, int) {
	matches := rule.Pattern.FindAllStringSubmatchIndex(acc.text, -1)
	if len(matches) == 0 {
		return acc, 0
	}

	count := 0
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matchSpan(matches[i], rule.Group)
		if start < 0 {
			continue
		}

		placeholder := fmt.Sprintf("[%s_%d]", rule.Token, acc.counter)
		acc.counter++
		acc.m[placeholder] = acc.text[start:end]
		acc.text = acc.text[:start] + placeholder + acc.text[end:]
		count++
	}

	return acc, count
}

// matchSpan picks the byte range to replace: the requested capture group when
// present, the whole match otherwise.
func matchSpan(match []int, group int) (int, int) {
	if group > 0 && len(match) > 2*group+1 && match[2*group] >= 0 {
		return match[2*group], match[2*group+1]
	}
	return match[0], match[1]
}

// Restore reverses placeholder substitution using the map produced by the
// matching Anonymize call. Placeholders the downstream transformation dropped
// simply do not appear; repeated placeholders are replaced at every
// occurrence. An empty map is a no-op.
func Restore(text string, m PlaceholderMap) string {
	// Placeholder tokens are mutually non-overlapping bracketed strings, so
	// replacement order across entries does not matter. Iterate sorted keys
	// anyway to keep runs reproducible.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text = strings.ReplaceAll(text, k, m[k])
	}
	return text
}

// Report renders a human-readable per-category summary of one anonymization
// call, emitted to the caller before any remote work starts.
func Report(findings []Finding) string {
	if len(findings) == 0 {
		return "Anonymization report: no identifiable information detected."
	}

	var sb strings.Builder
	sb.WriteString("Anonymization report:\n")
	total := 0
	for _, f := range findings {
		fmt.Fprintf(&sb, "- %s: %d item(s)\n", f.Category, f.Count)
		total += f.Count
	}
	fmt.Fprintf(&sb, "Total: %d item(s) replaced with placeholders.", total)
	return sb.String()
}

// countEnabledRules returns the number of enabled detection rules
func (a *Anonymizer) countEnabledRules() int {
	count := 0
	for _, enabled := range a.enabled {
		if enabled {
			count++
		}
	}
	return count
}

// EnabledRules returns the names of enabled rules in registry order
func (a *Anonymizer) EnabledRules() []string {
	var enabled []string
	for _, rule := range a.rules {
		if a.enabled[rule.Name] {
			enabled = append(enabled, rule.Name)
		}
	}
	return enabled
}
