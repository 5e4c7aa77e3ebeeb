package filters

import (
	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// ImplausibleOHLC drops rows whose High is below the highest of the other
// prices, or whose Low is above the lowest. A null High or Low passes its side
// of the check vacuously, and prices that are all null leave nothing to
// compare against, which also passes.
func ImplausibleOHLC(p domain.Panel) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		highBound := maxFinite(o.Open, o.Close, o.Low)
		lowBound := minFinite(o.Open, o.Close, o.High)
		highOK := domain.IsNull(o.High) || domain.IsNull(highBound) || o.High >= highBound
		lowOK := domain.IsNull(o.Low) || domain.IsNull(lowBound) || o.Low <= lowBound
		if highOK && lowOK {
			out = append(out, o)
		}
	}
	return out
}

// ExtremePrices drops rows where any of Open, High, Low, Close exceeds cap.
// Null prices pass.
func ExtremePrices(p domain.Panel, cap float64) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		if exceedsCap(cap, o.Open, o.High, o.Low, o.Close) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func exceedsCap(cap float64, prices ...float64) bool {
	for _, v := range prices {
		if !domain.IsNull(v) && v > cap {
			return true
		}
	}
	return false
}

// StalePrices drops the rows of a run of identical ReturnIndex values beyond
// maxRun consecutive days. The counter resets whenever the value changes, and
// a null breaks any run, so the first maxRun days of a stale stretch survive.
func StalePrices(p domain.Panel, maxRun int) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Apply(func(_ string, rows []domain.Observation) []domain.Observation {
		values := make([]float64, len(rows))
		for i, o := range rows {
			values[i] = o.ReturnIndex
		}
		runs := groupby.RunLengths(values, func(a, b float64) bool {
			return !domain.IsNull(a) && !domain.IsNull(b) && a == b
		})

		out := make([]domain.Observation, 0, len(rows))
		for i, o := range rows {
			if runs[i] <= maxRun {
				out = append(out, o)
			}
		}
		return out
	})
}

// NoTradingActivity drops rows whose High, Low, and Volume are each identical
// to the immediately preceding row of the same stock. Null cells never compare
// equal, and a stock's first row is never dropped.
func NoTradingActivity(p domain.Panel) domain.Panel {
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Apply(func(_ string, rows []domain.Observation) []domain.Observation {
		out := make([]domain.Observation, 0, len(rows))
		for i, o := range rows {
			if i > 0 &&
				cellsEqual(o.High, rows[i-1].High) &&
				cellsEqual(o.Low, rows[i-1].Low) &&
				cellsEqual(o.Volume, rows[i-1].Volume) {
				continue
			}
			out = append(out, o)
		}
		return out
	})
}

// AdjustmentInconsistencies drops rows where the unadjusted close disagrees
// with Close*AdjFactor by more than threshold, relatively. A null or
// zero-denominator ratio is undecidable and passes.
func AdjustmentInconsistencies(p domain.Panel, threshold float64) domain.Panel {
	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		expected := o.Close * o.AdjFactor
		if !domain.Finite(expected) || expected == 0 || domain.IsNull(o.UnadjClose) {
			out = append(out, o)
			continue
		}
		diff := o.UnadjClose - expected
		if diff < 0 {
			diff = -diff
		}
		if diff/expected <= threshold {
			out = append(out, o)
		}
	}
	return out
}

func cellsEqual(a, b float64) bool {
	return !domain.IsNull(a) && !domain.IsNull(b) && a == b
}

// maxFinite returns the largest non-null value, or null when every input is null.
func maxFinite(values ...float64) float64 {
	max := domain.Null()
	for _, v := range values {
		if domain.IsNull(v) {
			continue
		}
		if domain.IsNull(max) || v > max {
			max = v
		}
	}
	return max
}

func minFinite(values ...float64) float64 {
	min := domain.Null()
	for _, v := range values {
		if domain.IsNull(v) {
			continue
		}
		if domain.IsNull(min) || v < min {
			min = v
		}
	}
	return min
}
