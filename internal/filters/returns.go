package filters

import (
	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// DeduplicateRows drops duplicate (Stock, Date) rows, keeping the first
// occurrence in input order.
func DeduplicateRows(p domain.Panel) domain.Panel {
	type key struct {
		stock string
		date  int64
	}
	seen := make(map[key]struct{}, len(p))
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		k := key{o.Stock, o.Date.Unix()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, o)
	}
	return out
}

// ComputeReturns nulls ReturnIndex values below eps (vendor data errors, not
// true zeros) and recomputes the derived Return column via a per-stock lag.
// A stock's first observation, and any observation where either index value is
// null, gets a null return.
func ComputeReturns(p domain.Panel, eps float64) domain.Panel {
	out := make(domain.Panel, len(p))
	copy(out, p)
	for i := range out {
		if !domain.IsNull(out[i].ReturnIndex) && out[i].ReturnIndex < eps {
			out[i].ReturnIndex = domain.Null()
		}
	}

	byStock := groupby.Partition(indices(out), func(i int) string { return out[i].Stock })
	for _, stock := range byStock.Keys {
		idx := byStock.Members[stock]
		for j, i := range idx {
			if j == 0 {
				out[i].Return = domain.Null()
				continue
			}
			prev := out[idx[j-1]].ReturnIndex
			cur := out[i].ReturnIndex
			if domain.IsNull(prev) || domain.IsNull(cur) {
				out[i].Return = domain.Null()
				continue
			}
			out[i].Return = cur/prev - 1
		}
	}
	return out
}

// ImplausibleReturnStocks drops whole stocks whose non-zero returns are more
// than signFraction uniformly positive or uniformly negative. Stocks with no
// non-zero return are kept (they are the zero-return filter's concern).
func ImplausibleReturnStocks(p domain.Panel, signFraction float64) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Filter(func(_ string, rows []domain.Observation) bool {
		pos, neg := 0, 0
		for _, o := range rows {
			if !domain.Finite(o.Return) || o.Return == 0 {
				continue
			}
			if o.Return > 0 {
				pos++
			} else {
				neg++
			}
		}
		nonzero := pos + neg
		if nonzero == 0 {
			return true
		}
		posFrac := float64(pos) / float64(nonzero)
		negFrac := float64(neg) / float64(nonzero)
		return posFrac <= signFraction && negFrac <= signFraction
	})
}

// ZeroReturnStocks drops stocks for which more than zeroFraction of all their
// Return cells equal exactly zero. Null returns count toward the denominator
// only.
func ZeroReturnStocks(p domain.Panel, zeroFraction float64) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Filter(func(_ string, rows []domain.Observation) bool {
		zeros := 0
		for _, o := range rows {
			if o.Return == 0 {
				zeros++
			}
		}
		return float64(zeros)/float64(len(rows)) <= zeroFraction
	})
}

// HighVolatilityStocks drops stocks whose return standard deviation exceeds
// threshold. Stocks with too few returns for a standard deviation pass.
func HighVolatilityStocks(p domain.Panel, threshold float64) domain.Panel {
	return volatilityFilter(p, func(std float64) bool { return std > threshold })
}

// LowVolatilityStocks drops stocks whose return standard deviation is below
// floor. Stocks with too few returns for a standard deviation pass.
func LowVolatilityStocks(p domain.Panel, floor float64) domain.Panel {
	return volatilityFilter(p, func(std float64) bool { return std < floor })
}

func volatilityFilter(p domain.Panel, exceeds func(float64) bool) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Filter(func(_ string, rows []domain.Observation) bool {
		std := groupby.Std(returnsOf(rows))
		if domain.IsNull(std) {
			return true
		}
		return !exceeds(std)
	})
}

// OutlierMode selects what OutlierReversals does with a flagged pair.
type OutlierMode string

const (
	// OutlierDrop removes both days of a reversal pair.
	OutlierDrop OutlierMode = "drop"
	// OutlierZero keeps both days but zeroes their returns.
	OutlierZero OutlierMode = "zero"
)

// OutlierReversals handles extreme one-day error reversals: day t is flagged
// when Return_t > up and Return_{t+1} < down, or symmetrically when
// Return_t < down and Return_{t+1} > up. Both t and t+1 are then dropped (or
// zeroed, per mode). Null returns never flag.
func OutlierReversals(p domain.Panel, up, down float64, mode OutlierMode) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Apply(func(_ string, rows []domain.Observation) []domain.Observation {
		flagged := make([]bool, len(rows))
		for i := 0; i+1 < len(rows); i++ {
			r0, r1 := rows[i].Return, rows[i+1].Return
			if !domain.Finite(r0) || !domain.Finite(r1) {
				continue
			}
			if (r0 > up && r1 < down) || (r0 < down && r1 > up) {
				flagged[i] = true
			}
		}

		out := make([]domain.Observation, 0, len(rows))
		for i, o := range rows {
			hit := flagged[i] || (i > 0 && flagged[i-1])
			switch {
			case !hit:
				out = append(out, o)
			case mode == OutlierZero:
				o.Return = 0
				out = append(out, o)
			}
		}
		return out
	})
}

// ExtremeReturnsByStd drops rows whose return lies more than nStd standard
// deviations from that date's cross-sectional median. Null returns always
// pass, as do rows on dates too thin for a standard deviation.
func ExtremeReturnsByStd(p domain.Panel, nStd float64) domain.Panel {
	byDate := groupby.Partition(p, func(o domain.Observation) int64 { return o.Date.Unix() })
	med := byDate.Reduce(func(rows []domain.Observation) float64 { return groupby.Median(returnsOf(rows)) })
	std := byDate.Reduce(func(rows []domain.Observation) float64 { return groupby.Std(returnsOf(rows)) })

	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if !domain.Finite(o.Return) {
			out = append(out, o)
			continue
		}
		k := o.Date.Unix()
		m, s := med[k], std[k]
		if domain.IsNull(m) || domain.IsNull(s) {
			out = append(out, o)
			continue
		}
		if o.Return >= m-nStd*s && o.Return <= m+nStd*s {
			out = append(out, o)
		}
	}
	return out
}

// ExtremeReturnsByQuantile drops rows whose return falls outside that date's
// [lower, upper] cross-sectional quantile band. Null returns always pass.
func ExtremeReturnsByQuantile(p domain.Panel, lower, upper float64) domain.Panel {
	byDate := groupby.Partition(p, func(o domain.Observation) int64 { return o.Date.Unix() })
	lo := byDate.Reduce(func(rows []domain.Observation) float64 { return groupby.Quantile(returnsOf(rows), lower) })
	hi := byDate.Reduce(func(rows []domain.Observation) float64 { return groupby.Quantile(returnsOf(rows), upper) })

	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if !domain.Finite(o.Return) {
			out = append(out, o)
			continue
		}
		k := o.Date.Unix()
		if domain.IsNull(lo[k]) || domain.IsNull(hi[k]) {
			out = append(out, o)
			continue
		}
		if o.Return >= lo[k] && o.Return <= hi[k] {
			out = append(out, o)
		}
	}
	return out
}

// DecimalErrorReturns drops rows whose return falls outside [down, up], the
// band used to catch misplaced decimal points in vendor prices. Null returns
// pass.
func DecimalErrorReturns(p domain.Panel, up, down float64) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if !domain.Finite(o.Return) || (o.Return <= up && o.Return >= down) {
			out = append(out, o)
		}
	}
	return out
}

func returnsOf(rows []domain.Observation) []float64 {
	vals := make([]float64, len(rows))
	for i, o := range rows {
		vals[i] = o.Return
	}
	return vals
}

func indices(p domain.Panel) []int {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	return idx
}
