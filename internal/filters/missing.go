package filters

import (
	"math"

	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// column pairs a panel cell name with its accessor, so fill logic can run over
// a declared column set instead of repeating itself per field.
type column struct {
	name string
	get  func(*domain.Observation) *float64
}

// modelColumns are critical for modeling: a stock's history starts at the
// first date on which all of them are simultaneously present, and gaps after
// that are forward-filled.
var modelColumns = []column{
	{"Open", func(o *domain.Observation) *float64 { return &o.Open }},
	{"High", func(o *domain.Observation) *float64 { return &o.High }},
	{"Low", func(o *domain.Observation) *float64 { return &o.Low }},
	{"Close", func(o *domain.Observation) *float64 { return &o.Close }},
	{"Volume", func(o *domain.Observation) *float64 { return &o.Volume }},
	{"ReturnIndex", func(o *domain.Observation) *float64 { return &o.ReturnIndex }},
	{"AdjFactor", func(o *domain.Observation) *float64 { return &o.AdjFactor }},
	{"UnadjClose", func(o *domain.Observation) *float64 { return &o.UnadjClose }},
}

// analysisColumns matter for analysis only: forward- then backward-filled, and
// when a stock never reports one at all, imputed with the cross-sectional
// median of its date.
var analysisColumns = []column{
	{"MarketCAP", func(o *domain.Observation) *float64 { return &o.MarketCAP }},
}

// HandleMissings truncates each stock's leading rows until every model-critical
// column is present, forward-fills those columns, ffill-then-bfills the
// analysis-only columns, and finally imputes still-missing analysis values with
// the per-date cross-sectional median. Infinities are treated as missing.
// Stocks that never report a complete row are dropped entirely.
func HandleMissings(p domain.Panel) domain.Panel {
	work := make(domain.Panel, len(p))
	copy(work, p)
	for i := range work {
		nullInfinities(&work[i])
	}

	g := groupby.Partition(indices(work), func(i int) string { return work[i].Stock })
	var out domain.Panel
	for _, stock := range g.Keys {
		idx := g.Members[stock]

		first := -1
		for j, i := range idx {
			if completeModelRow(&work[i]) {
				first = j
				break
			}
		}
		if first < 0 {
			continue
		}

		rows := make([]domain.Observation, 0, len(idx)-first)
		for _, i := range idx[first:] {
			rows = append(rows, work[i])
		}
		forwardFill(rows, modelColumns)
		forwardFill(rows, analysisColumns)
		backwardFill(rows, analysisColumns)
		out = append(out, rows...)
	}

	imputeCrossSectionalMedian(out, analysisColumns)
	return out
}

func completeModelRow(o *domain.Observation) bool {
	for _, c := range modelColumns {
		if domain.IsNull(*c.get(o)) {
			return false
		}
	}
	return true
}

func forwardFill(rows []domain.Observation, cols []column) {
	for _, c := range cols {
		last := domain.Null()
		for i := range rows {
			cell := c.get(&rows[i])
			if domain.IsNull(*cell) {
				*cell = last
			} else {
				last = *cell
			}
		}
	}
}

func backwardFill(rows []domain.Observation, cols []column) {
	for _, c := range cols {
		next := domain.Null()
		for i := len(rows) - 1; i >= 0; i-- {
			cell := c.get(&rows[i])
			if domain.IsNull(*cell) {
				*cell = next
			} else {
				next = *cell
			}
		}
	}
}

func imputeCrossSectionalMedian(p domain.Panel, cols []column) {
	byDate := groupby.Partition(indices(p), func(i int) int64 { return p[i].Date.Unix() })
	for _, c := range cols {
		for _, date := range byDate.Keys {
			idx := byDate.Members[date]
			values := make([]float64, len(idx))
			for j, i := range idx {
				values[j] = *c.get(&p[i])
			}
			med := groupby.Median(values)
			if domain.IsNull(med) {
				continue
			}
			for _, i := range idx {
				cell := c.get(&p[i])
				if domain.IsNull(*cell) {
					*cell = med
				}
			}
		}
	}
}

func nullInfinities(o *domain.Observation) {
	for _, cols := range [][]column{modelColumns, analysisColumns} {
		for _, c := range cols {
			if math.IsInf(*c.get(o), 0) {
				*c.get(o) = domain.Null()
			}
		}
	}
	if math.IsInf(o.Return, 0) {
		o.Return = domain.Null()
	}
	if math.IsInf(o.MTBV, 0) {
		o.MTBV = domain.Null()
	}
}

// FinalCleanup nulls any remaining infinities, drops rows without a usable
// return, and restricts the statics table to the securities still present.
func FinalCleanup(p domain.Panel, s domain.Statics) (domain.Panel, domain.Statics) {
	outPanel := make(domain.Panel, 0, len(p))
	for _, o := range p {
		nullInfinities(&o)
		if domain.IsNull(o.Return) {
			continue
		}
		outPanel = append(outPanel, o)
	}

	surviving := make(map[string]struct{})
	for _, o := range outPanel {
		surviving[o.Stock] = struct{}{}
	}
	outStatics := make(domain.Statics, 0, len(s))
	for _, r := range s {
		if _, ok := surviving[r.DSCD]; ok {
			outStatics = append(outStatics, r)
		}
	}
	return outPanel, outStatics
}
