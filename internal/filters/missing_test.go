package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsfilter/pkg/contracts/domain"
)

func TestHandleMissingsTruncatesLeadingIncompleteRows(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
		ob("A", "2001-01-03", 0),
	}
	p[0].Close = domain.Null()

	out := HandleMissings(p)

	require.Len(t, out, 2)
	assert.Equal(t, day("2001-01-02"), out[0].Date, "history starts at the first complete row")
}

func TestHandleMissingsForwardFillsModelColumns(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
		ob("A", "2001-01-03", 0),
	}
	p[1].Volume = domain.Null()
	p[1].Close = domain.Null()
	p[0].Volume = 500

	out := HandleMissings(p)

	require.Len(t, out, 3)
	assert.Equal(t, 500.0, out[1].Volume, "gap carries the previous value forward")
	assert.Equal(t, p[0].Close, out[1].Close)
	assert.Equal(t, p[2].Volume, out[2].Volume, "a reported value ends the fill")
}

func TestHandleMissingsAnalysisColumns(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
		ob("B", "2001-01-01", 0),
		ob("B", "2001-01-02", 0),
		ob("C", "2001-01-01", 0),
		ob("C", "2001-01-02", 0),
	}
	// A reports market cap late: backward fill covers the leading gap.
	p[0].MarketCAP = domain.Null()
	p[1].MarketCAP = 4e6
	// B never reports: imputed with the per-date cross-sectional median.
	p[2].MarketCAP = domain.Null()
	p[3].MarketCAP = domain.Null()
	p[4].MarketCAP = 2e6
	p[5].MarketCAP = 2e6

	out := HandleMissings(p)

	require.Len(t, out, 6)
	byStockDate := make(map[string]map[string]float64)
	for _, o := range out {
		if byStockDate[o.Stock] == nil {
			byStockDate[o.Stock] = make(map[string]float64)
		}
		byStockDate[o.Stock][o.Date.Format("2006-01-02")] = o.MarketCAP
	}

	assert.Equal(t, 4e6, byStockDate["A"]["2001-01-01"], "leading gap backfilled")
	assert.Equal(t, 3e6, byStockDate["B"]["2001-01-01"], "median of 4e6 and 2e6")
	assert.Equal(t, 3e6, byStockDate["B"]["2001-01-02"])
}

func TestHandleMissingsDropsNeverCompleteStocks(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("GAPPY", "2001-01-01", 0),
		ob("GAPPY", "2001-01-02", 0),
	}
	p[1].Open = domain.Null()
	p[2].High = domain.Null()

	out := HandleMissings(p)
	assert.Equal(t, []string{"A"}, out.Stocks())
}

func TestHandleMissingsNullsInfinities(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
	}
	p[1].Volume = math.Inf(1)

	out := HandleMissings(p)

	require.Len(t, out, 2)
	assert.Equal(t, p[0].Volume, out[1].Volume, "an infinite cell is a gap, filled forward")
}

func TestFinalCleanup(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", domain.Null()),
		ob("A", "2001-01-02", 0.01),
		ob("B", "2001-01-01", math.Inf(1)),
		ob("B", "2001-01-02", domain.Null()),
	}
	s := domain.Statics{
		{DSCD: "A"},
		{DSCD: "B"},
		{DSCD: "GONE"},
	}

	panel, statics := FinalCleanup(p, s)

	require.Len(t, panel, 1)
	assert.Equal(t, "A", panel[0].Stock)
	assert.Equal(t, 0.01, panel[0].Return)

	// Referential integrity: exactly the surviving securities remain.
	assert.Equal(t, []string{"A"}, statics.DSCDs())
}

func TestFinalCleanupEmpty(t *testing.T) {
	panel, statics := FinalCleanup(nil, domain.Statics{{DSCD: "A"}})
	assert.Empty(t, panel)
	assert.Empty(t, statics)
}
