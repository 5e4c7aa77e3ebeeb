// Package countryrules holds the static per-country screening rules consulted
// by the universe filters: non-equity name patterns, cross-listing suffix
// patterns, accepted price currencies, and survivorship start dates. The table
// is pure data, loaded once from an embedded file; new countries are additive
// edits to rules.yaml, not code changes.
package countryrules

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

//go:embed rules.yaml
var rulesYAML []byte

// AcceptedTRACCodes are the security-type codes treated as ordinary shares.
// A match on a non-equity name pattern is overridden when TRAC is one of
// these (the trailing three are vendor typo variants of "unknown").
var AcceptedTRACCodes = map[string]struct{}{
	"ORD":      {},
	"ORDSUBR":  {},
	"FULLPAID": {},
	"UKNOWN":   {},
	"UNKNOW":   {},
	"KNOW":     {},
}

// Rule bundles the screening parameters for one country.
type Rule struct {
	Country           string
	NonEquityPatterns []string
	CrossListing      *regexp.Regexp // nil when the market has no cross-listing suffixes
	Currencies        []string
	StartDate         time.Time
}

// MatchesNonEquity reports whether a security name carries one of the
// country's non-equity markers. Matching is case-sensitive substring search,
// as the vendor delivers names upper-cased.
func (r Rule) MatchesNonEquity(ename string) bool {
	for _, p := range r.NonEquityPatterns {
		if strings.Contains(ename, p) {
			return true
		}
	}
	return false
}

// MatchesCrossListing reports whether a security name carries the country's
// cross-listing exchange suffix. An absent pattern never matches.
func (r Rule) MatchesCrossListing(ename string) bool {
	return r.CrossListing != nil && r.CrossListing.MatchString(ename)
}

// AcceptsCurrency reports whether pcur is an accepted price currency for the
// country's domestic universe.
func (r Rule) AcceptsCurrency(pcur string) bool {
	for _, c := range r.Currencies {
		if c == pcur {
			return true
		}
	}
	return false
}

// UnknownCountryError is returned when a stage consults the table with a
// country the rule set does not cover. It names the valid key set so that
// configuration mistakes surface immediately instead of silently defaulting.
type UnknownCountryError struct {
	Country string
	Valid   []string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("unknown country %q: must be one of %s", e.Country, strings.Join(e.Valid, ", "))
}

// Table is the immutable per-country rule lookup.
type Table struct {
	rules     map[string]Rule
	countries []string
}

type ruleFile struct {
	Countries map[string]struct {
		NonEquityPatterns   []string `yaml:"non_equity_patterns"`
		CrossListingPattern string   `yaml:"cross_listing_pattern"`
		Currencies          []string `yaml:"currencies"`
		StartDate           string   `yaml:"start_date"`
	} `yaml:"countries"`
}

// Load parses the embedded rule data into a Table. It is intended to be called
// once at process start.
func Load() (*Table, error) {
	return Parse(rulesYAML)
}

// Parse builds a Table from YAML rule data. Exposed separately from Load so
// that dataset-specific rule sets can be supplied in place of the embedded one.
func Parse(data []byte) (*Table, error) {
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse country rules: %w", err)
	}
	if len(rf.Countries) == 0 {
		return nil, fmt.Errorf("parse country rules: no countries defined")
	}

	t := &Table{rules: make(map[string]Rule, len(rf.Countries))}
	for country, raw := range rf.Countries {
		rule := Rule{
			Country:           country,
			NonEquityPatterns: raw.NonEquityPatterns,
			Currencies:        raw.Currencies,
		}
		if p := strings.TrimSpace(raw.CrossListingPattern); p != "" {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("compile cross-listing pattern for %s: %w", country, err)
			}
			rule.CrossListing = re
		}
		if raw.StartDate != "" {
			d, err := time.Parse("2006-01-02", raw.StartDate)
			if err != nil {
				return nil, fmt.Errorf("parse start date for %s: %w", country, err)
			}
			rule.StartDate = d
		}
		t.rules[country] = rule
		t.countries = append(t.countries, country)
	}
	sort.Strings(t.countries)
	return t, nil
}

// Lookup returns the rule for country, or an *UnknownCountryError when the
// table does not cover it.
func (t *Table) Lookup(country string) (Rule, error) {
	rule, ok := t.rules[country]
	if !ok {
		return Rule{}, &UnknownCountryError{Country: country, Valid: t.countries}
	}
	return rule, nil
}

// Has reports whether the table covers country.
func (t *Table) Has(country string) bool {
	_, ok := t.rules[country]
	return ok
}

// Countries returns the covered country names in sorted order.
func (t *Table) Countries() []string {
	out := make([]string, len(t.countries))
	copy(out, t.countries)
	return out
}
