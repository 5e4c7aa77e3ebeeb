package groupby

import "math"

// finite reports whether v is a usable numeric value (not NaN, not Inf).
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Quantile computes the p-th quantile of values, ignoring nulls and infinities,
// using linear interpolation between order statistics. This matches the vendor
// tooling the thresholds were calibrated with. NaN is returned when no usable
// value exists or p is outside [0, 1].
func Quantile(values []float64, p float64) float64 {
	if p < 0 || p > 1 {
		return math.NaN()
	}
	v := sortedFinite(values)
	if len(v) == 0 {
		return math.NaN()
	}
	if len(v) == 1 {
		return v[0]
	}
	pos := p * float64(len(v)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return v[lo]
	}
	frac := pos - float64(lo)
	return v[lo]*(1-frac) + v[hi]*frac
}

// Median computes the median of values, ignoring nulls and infinities.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Mean computes the arithmetic mean of values, ignoring nulls and infinities.
// NaN is returned when no usable value exists.
func Mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if finite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Std computes the sample standard deviation (n-1 denominator) of values,
// ignoring nulls and infinities. NaN is returned when fewer than two usable
// values exist.
func Std(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	sumSq, n := 0.0, 0
	for _, v := range values {
		if finite(v) {
			d := v - mean
			sumSq += d * d
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// CountWhere counts the values for which pred holds.
func CountWhere(values []float64, pred func(float64) bool) int {
	n := 0
	for _, v := range values {
		if pred(v) {
			n++
		}
	}
	return n
}
