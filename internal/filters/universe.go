package filters

import (
	"dsfilter/internal/countryrules"
	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// RestrictCountries scopes the statics table to the target country set.
// Aliases are applied first (some vendor GEOGN values are folded into their
// economic home market), then rows with missing or placeholder country codes
// are dropped. An empty countries set keeps every remaining country.
func RestrictCountries(s domain.Statics, countries []string, aliases map[string]string) domain.Statics {
	wanted := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		wanted[c] = struct{}{}
	}

	out := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if alias, ok := aliases[r.GEOGN]; ok {
			r.GEOGN = alias
		}
		if r.GEOGN == "" || r.GEOGN == "nan" {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[r.GEOGN]; !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// NonCommonStock removes securities flagged as non-common-stock instruments:
// an ENAME matching one of the country's non-equity patterns, unless the TRAC
// security-type code is an accepted ordinary-share code, which overrides the
// name-based flag.
func NonCommonStock(s domain.Statics, rule countryrules.Rule) domain.Statics {
	out := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if _, ord := countryrules.AcceptedTRACCodes[r.TRAC]; !ord && rule.MatchesNonEquity(r.ENAME) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CrossListings removes securities whose ENAME carries the country's
// cross-listing exchange suffix. A country without a pattern removes nothing.
func CrossListings(s domain.Statics, rule countryrules.Rule) domain.Statics {
	out := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if rule.MatchesCrossListing(r.ENAME) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DuplicateLOC resolves LOC groups listing the same local security several
// times: when a group has more than one member and at least one carries the
// primary-listing marker ISINID == "P", only the primary members survive.
// Singleton groups and groups without a primary member are untouched.
func DuplicateLOC(s domain.Statics) domain.Statics {
	size := make(map[string]int, len(s))
	hasPrimary := make(map[string]bool, len(s))
	for _, r := range s {
		size[r.LOC]++
		if r.ISINID == "P" {
			hasPrimary[r.LOC] = true
		}
	}

	out := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if size[r.LOC] > 1 && hasPrimary[r.LOC] && r.ISINID != "P" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ForeignFirms drops panel rows whose Stock has no surviving statics record.
func ForeignFirms(p domain.Panel, s domain.Statics) domain.Panel {
	return RestrictPanel(p, s.DSCDSet())
}

// ForeignCurrency removes securities whose price currency is not accepted for
// the country's domestic universe.
func ForeignCurrency(s domain.Statics, rule countryrules.Rule) domain.Statics {
	out := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if rule.AcceptsCurrency(r.PCUR) {
			out = append(out, r)
		}
	}
	return out
}

// SmallCountries drops every country whose number of distinct stocks in the
// panel is below minStocks, narrowing both tables. Removed countries are
// returned for diagnostics, keyed by country with their stock counts.
func SmallCountries(p domain.Panel, s domain.Statics, minStocks int) (domain.Panel, domain.Statics, map[string]int) {
	countryOf := make(map[string]string, len(s))
	for _, r := range s {
		if _, ok := countryOf[r.DSCD]; !ok {
			countryOf[r.DSCD] = r.GEOGN
		}
	}

	counts := make(map[string]int)
	for _, stock := range p.Stocks() {
		counts[countryOf[stock]]++
	}

	removed := make(map[string]int)
	for country, n := range counts {
		if n < minStocks {
			removed[country] = n
		}
	}

	keptStatics := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if _, gone := removed[r.GEOGN]; !gone {
			keptStatics = append(keptStatics, r)
		}
	}
	return RestrictPanel(p, keptStatics.DSCDSet()), keptStatics, removed
}

// RestrictPanel keeps only panel rows whose Stock is in the given DSCD set.
func RestrictPanel(p domain.Panel, dscds map[string]struct{}) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if _, ok := dscds[o.Stock]; ok {
			out = append(out, o)
		}
	}
	return out
}

// PanelByCountry partitions panel rows by the country of their security,
// preserving row order within each partition. Rows whose stock has no statics
// record are returned under the empty key.
func PanelByCountry(p domain.Panel, s domain.Statics) groupby.Groups[string, domain.Observation] {
	countryOf := make(map[string]string, len(s))
	for _, r := range s {
		if _, ok := countryOf[r.DSCD]; !ok {
			countryOf[r.DSCD] = r.GEOGN
		}
	}
	return groupby.Partition(p, func(o domain.Observation) string { return countryOf[o.Stock] })
}
