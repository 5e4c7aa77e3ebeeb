package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNullHelpers(t *testing.T) {
	assert.True(t, IsNull(Null()))
	assert.False(t, IsNull(0))
	assert.False(t, Finite(Null()))
	assert.False(t, Finite(math.Inf(1)))
	assert.True(t, Finite(0))
	assert.True(t, Finite(-3.5))
}

func TestObservationMonth(t *testing.T) {
	o := Observation{Date: day("2003-07-14")}
	assert.Equal(t, "2003-07", o.Month())
}

func TestSortByDateStock(t *testing.T) {
	p := Panel{
		{Stock: "B", Date: day("2001-01-02")},
		{Stock: "A", Date: day("2001-01-02")},
		{Stock: "C", Date: day("2001-01-01")},
	}

	p.SortByDateStock()

	assert.Equal(t, "C", p[0].Stock)
	assert.Equal(t, "A", p[1].Stock)
	assert.Equal(t, "B", p[2].Stock)
}

func TestPanelStocks(t *testing.T) {
	p := Panel{
		{Stock: "X"}, {Stock: "Y"}, {Stock: "X"}, {Stock: "Z"},
	}
	assert.Equal(t, []string{"X", "Y", "Z"}, p.Stocks())
}

func TestPanelMaxDate(t *testing.T) {
	p := Panel{
		{Date: day("2001-01-05")},
		{Date: day("2001-03-01")},
		{Date: day("2001-02-10")},
	}
	assert.Equal(t, day("2001-03-01"), p.MaxDate())
	assert.True(t, Panel(nil).MaxDate().IsZero())
}
