package domain

import (
	"regexp"
	"time"
)

// StaticRecord holds per-security vendor metadata. DSCD is the join key to
// Panel.Stock but is not guaranteed unique per row: duplicate LOC groups exist
// by design until the duplicate-LOC stage resolves them.
type StaticRecord struct {
	DSCD          string    `json:"dscd"`
	ENAME         string    `json:"ename"`
	GEOGN         string    `json:"geogn"`
	ISIN          string    `json:"isin"`
	ISINID        string    `json:"isinid"`
	LOC           string    `json:"loc"`
	PCUR          string    `json:"pcur"`
	TRAC          string    `json:"trac"`
	BDATE         time.Time `json:"bdate"`
	Type          string    `json:"type"`
	Currency      string    `json:"currency"`
	DelistingDate time.Time `json:"delisting_date"` // zero when the security never delisted
}

// Statics is the per-security metadata table.
type Statics []StaticRecord

var delistPattern = regexp.MustCompile(`DELIST\.(\d{2}/\d{2}/\d{2})`)

// ParseDelistingDate extracts a delisting date embedded in a security name as a
// DELIST.DD/MM/YY substring. The zero time is returned when no parsable
// substring is present.
func ParseDelistingDate(ename string) time.Time {
	m := delistPattern.FindStringSubmatch(ename)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("02/01/06", m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}

// DSCDs returns the distinct DSCD identifiers in first-appearance order.
func (s Statics) DSCDs() []string {
	seen := make(map[string]struct{}, len(s))
	var out []string
	for _, r := range s {
		if _, ok := seen[r.DSCD]; !ok {
			seen[r.DSCD] = struct{}{}
			out = append(out, r.DSCD)
		}
	}
	return out
}

// DSCDSet returns the set of DSCD identifiers.
func (s Statics) DSCDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s))
	for _, r := range s {
		set[r.DSCD] = struct{}{}
	}
	return set
}

// Countries returns the distinct GEOGN values in first-appearance order.
func (s Statics) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s {
		if _, ok := seen[r.GEOGN]; !ok {
			seen[r.GEOGN] = struct{}{}
			out = append(out, r.GEOGN)
		}
	}
	return out
}

// ForCountry returns the subset of records whose GEOGN equals country,
// preserving input order.
func (s Statics) ForCountry(country string) Statics {
	var out Statics
	for _, r := range s {
		if r.GEOGN == country {
			out = append(out, r)
		}
	}
	return out
}
