package filters

import (
	"dsfilter/internal/groupby"
	"dsfilter/pkg/contracts/domain"
)

// PennyStocks removes a stock from the investment universe for month t when
// its previous month's last unadjusted close sits strictly below the
// percentile threshold of that value across all stocks active in month t.
// Stocks without a previous-month close are never dropped here. The per-month
// threshold series is returned as a side output, keyed by "2006-01" month.
func PennyStocks(p domain.Panel, percentile float64) (domain.Panel, map[string]float64) {
	// Last unadjusted close per (stock, month), in the stock's month order.
	type stockMonth struct {
		stock string
		month string
	}
	lastClose := make(map[stockMonth]float64)
	monthsOf := make(map[string][]string)
	byStock := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	for _, stock := range byStock.Keys {
		for _, o := range byStock.Members[stock] {
			k := stockMonth{stock, o.Month()}
			if _, ok := lastClose[k]; !ok {
				monthsOf[stock] = append(monthsOf[stock], o.Month())
			}
			lastClose[k] = o.UnadjClose // rows are date-ordered, last write wins
		}
	}

	// Previous observed month's close per (stock, month).
	prevClose := make(map[stockMonth]float64)
	for stock, months := range monthsOf {
		for i, m := range months {
			if i == 0 {
				prevClose[stockMonth{stock, m}] = domain.Null()
				continue
			}
			prevClose[stockMonth{stock, m}] = lastClose[stockMonth{stock, months[i-1]}]
		}
	}

	// Per-month threshold across the stocks active that month, nulls ignored.
	activeStocks := make(map[string][]string)
	seen := make(map[stockMonth]struct{})
	for _, o := range p {
		k := stockMonth{o.Stock, o.Month()}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			activeStocks[o.Month()] = append(activeStocks[o.Month()], o.Stock)
		}
	}
	thresholds := make(map[string]float64, len(activeStocks))
	for month, stocks := range activeStocks {
		values := make([]float64, len(stocks))
		for i, stock := range stocks {
			values[i] = prevClose[stockMonth{stock, month}]
		}
		thresholds[month] = groupby.Quantile(values, percentile)
	}

	out := make(domain.Panel, 0, len(p))
	for _, o := range p {
		prev := prevClose[stockMonth{o.Stock, o.Month()}]
		ts := thresholds[o.Month()]
		if domain.IsNull(prev) || domain.IsNull(ts) || prev >= ts {
			out = append(out, o)
		}
	}
	return out, thresholds
}

// ShortHistory drops stocks with fewer than minObs observations, unless the
// stock first appears within minObs days of the panel's last date — a young
// listing still accumulating history is exempt.
func ShortHistory(p domain.Panel, minObs int) domain.Panel {
	lastDate := p.MaxDate()
	g := groupby.Partition(p, func(o domain.Observation) string { return o.Stock })
	return g.Filter(func(_ string, rows []domain.Observation) bool {
		firstDate := rows[0].Date
		if int(lastDate.Sub(firstDate).Hours()/24) < minObs {
			return true
		}
		return len(rows) >= minObs
	})
}
