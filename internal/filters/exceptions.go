package filters

import (
	"time"

	"dsfilter/pkg/contracts/domain"
)

// Exception removes known-bad observations for a single security. The zero
// Date and Before values widen the rule: with both unset the whole security is
// excluded; Date excludes one stock-day; Before excludes observations strictly
// earlier than the given date (e.g. rows predating a company's foundation).
type Exception struct {
	Stock  string
	Date   time.Time
	Before time.Time
}

// ApplyExceptions drops the panel rows matched by the dataset-specific
// exception list. The list is external, swappable cleanup for individually
// verified data errors, not a generalizable rule.
func ApplyExceptions(p domain.Panel, exceptions []Exception) domain.Panel {
	if len(exceptions) == 0 {
		return p
	}
	byStock := make(map[string][]Exception, len(exceptions))
	for _, e := range exceptions {
		byStock[e.Stock] = append(byStock[e.Stock], e)
	}

	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if matchesException(o, byStock[o.Stock]) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesException(o domain.Observation, rules []Exception) bool {
	for _, e := range rules {
		switch {
		case !e.Date.IsZero():
			if o.Date.Equal(e.Date) {
				return true
			}
		case !e.Before.IsZero():
			if o.Date.Before(e.Before) {
				return true
			}
		default:
			return true
		}
	}
	return false
}
