package domain

import (
	"math"
	"sort"
	"time"
)

// Observation represents a single stock-day row of the panel. The (Stock, Date)
// pair is the compound key. Numeric cells are nullable: a missing value is
// encoded as NaN, never as zero.
type Observation struct {
	Stock       string    `json:"stock"`
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	ReturnIndex float64   `json:"return_index"`
	MarketCAP   float64   `json:"market_cap"`
	MTBV        float64   `json:"mtbv"`
	AdjFactor   float64   `json:"adj_factor"`
	UnadjClose  float64   `json:"unadj_close"`
	Return      float64   `json:"return"` // daily simple return, derived from ReturnIndex
}

// Panel is the stock-day observation table.
type Panel []Observation

// Null returns the null marker for numeric panel cells.
func Null() float64 {
	return math.NaN()
}

// IsNull reports whether a numeric cell is null.
func IsNull(v float64) bool {
	return math.IsNaN(v)
}

// Finite reports whether a numeric cell holds a usable value (not null, not Inf).
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Month returns the calendar-month key of the observation in "2006-01" form.
func (o Observation) Month() string {
	return o.Date.Format("2006-01")
}

// SortByDateStock stable-sorts the panel into the canonical (Date, Stock) order.
// Rows with equal keys keep their relative input order.
func (p Panel) SortByDateStock() {
	sort.SliceStable(p, func(i, j int) bool {
		if !p[i].Date.Equal(p[j].Date) {
			return p[i].Date.Before(p[j].Date)
		}
		return p[i].Stock < p[j].Stock
	})
}

// Stocks returns the distinct Stock identifiers in first-appearance order.
func (p Panel) Stocks() []string {
	seen := make(map[string]struct{}, len(p))
	var out []string
	for _, o := range p {
		if _, ok := seen[o.Stock]; !ok {
			seen[o.Stock] = struct{}{}
			out = append(out, o.Stock)
		}
	}
	return out
}

// MaxDate returns the latest date in the panel, or the zero time for an empty panel.
func (p Panel) MaxDate() time.Time {
	var max time.Time
	for _, o := range p {
		if o.Date.After(max) {
			max = o.Date
		}
	}
	return max
}
