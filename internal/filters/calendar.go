package filters

import (
	"time"

	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// DateWindow restricts the panel to (min, max]: dates after the exclusive
// lower bound and not after the inclusive upper bound. A zero bound disables
// that side.
func DateWindow(p domain.Panel, min, max time.Time) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if !min.IsZero() && !o.Date.After(min) {
			continue
		}
		if !max.IsZero() && o.Date.After(max) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Survivorship drops observations dated before the country's recorded start
// date, the point from which the vendor's coverage is free of backfilled
// survivor-only history. A zero start date keeps everything.
func Survivorship(p domain.Panel, startDate time.Time) domain.Panel {
	if startDate.IsZero() {
		return p
	}
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if !o.Date.Before(startDate) {
			out = append(out, o)
		}
	}
	return out
}

// Holidays drops whole dates on which fewer than threshold (as a fraction of
// all stocks in the panel) have a non-null, non-zero return. A date exactly at
// the threshold is retained.
func Holidays(p domain.Panel, threshold float64) domain.Panel {
	totalStocks := len(p.Stocks())
	if totalStocks == 0 {
		return p
	}

	byDate := groupby.Partition(p, func(o domain.Observation) int64 { return o.Date.Unix() })
	active := byDate.Reduce(func(rows []domain.Observation) float64 {
		n := 0
		for _, o := range rows {
			if domain.Finite(o.Return) && o.Return != 0 {
				n++
			}
		}
		return float64(n)
	})

	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if active[o.Date.Unix()]/float64(totalStocks) >= threshold {
			out = append(out, o)
		}
	}
	return out
}
