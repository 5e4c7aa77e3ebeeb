package filters

import (
	"time"

	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// DelistingTruncation truncates each stock at its delisting date and removes
// the padded observations the vendor keeps appending afterwards: scanning
// backward from the truncated end, trailing rows with a zero or null return
// are dropped until the first real return. The stopping condition is inherently
// sequential, hence the explicit reverse loop. Stocks without a delisting date
// are untouched; stocks without any statics record are dropped (the join is
// inner, matching the referential-narrowing invariant).
func DelistingTruncation(p domain.Panel, s domain.Statics) domain.Panel {
	delistOf := make(map[string]time.Time, len(s))
	known := make(map[string]struct{}, len(s))
	for _, r := range s {
		if _, ok := known[r.DSCD]; ok {
			continue
		}
		known[r.DSCD] = struct{}{}
		delistOf[r.DSCD] = r.DelistingDate
	}

	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Apply(func(stock string, rows []domain.Observation) []domain.Observation {
		if _, ok := known[stock]; !ok {
			return nil
		}
		delist := delistOf[stock]
		if delist.IsZero() {
			return rows
		}

		end := len(rows)
		for end > 0 && rows[end-1].Date.After(delist) {
			end--
		}
		// Trailing padded rows: zero or null returns after the last real move.
		for end > 0 {
			r := rows[end-1].Return
			if !domain.IsNull(r) && r != 0 {
				break
			}
			end--
		}
		return rows[:end]
	})
}
