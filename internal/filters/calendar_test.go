package filters

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsfilter/pkg/contracts/domain"
)

func TestDateWindow(t *testing.T) {
	p := domain.Panel{
		ob("A", "1989-12-31", 0),
		ob("A", "1990-01-01", 0),
		ob("A", "2000-06-15", 0),
		ob("A", "2020-12-31", 0),
		ob("A", "2021-01-04", 0),
	}

	t.Run("lower bound exclusive, upper inclusive", func(t *testing.T) {
		out := DateWindow(p, day("1989-12-31"), day("2020-12-31"))
		require.Len(t, out, 3)
		assert.Equal(t, day("1990-01-01"), out[0].Date)
		assert.Equal(t, day("2020-12-31"), out[2].Date)
	})

	t.Run("zero bounds disable", func(t *testing.T) {
		assert.Len(t, DateWindow(p, time.Time{}, time.Time{}), 5)
		assert.Len(t, DateWindow(p, time.Time{}, day("2020-12-31")), 4)
		assert.Len(t, DateWindow(p, day("1989-12-31"), time.Time{}), 4)
	})
}

func TestSurvivorship(t *testing.T) {
	p := domain.Panel{
		ob("A", "1988-06-01", 0),
		ob("A", "1988-12-31", 0),
		ob("A", "1989-01-02", 0),
	}

	out := Survivorship(p, day("1988-12-31"))
	require.Len(t, out, 2)
	assert.Equal(t, day("1988-12-31"), out[0].Date, "the start date itself is kept")

	assert.Len(t, Survivorship(p, time.Time{}), 3, "zero start date keeps everything")
}

func TestHolidays(t *testing.T) {
	// Four stocks. Day one: two trade (fraction 0.5, exactly at threshold,
	// retained). Day two: one trades (0.25, dropped). Day three: none trade.
	var p domain.Panel
	for i, ret := range []float64{0.01, -0.02, 0, domain.Null()} {
		p = append(p, ob(fmt.Sprintf("S%d", i), "2001-01-01", ret))
	}
	for i, ret := range []float64{0.01, 0, 0, domain.Null()} {
		p = append(p, ob(fmt.Sprintf("S%d", i), "2001-01-02", ret))
	}
	for i := 0; i < 4; i++ {
		p = append(p, ob(fmt.Sprintf("S%d", i), "2001-01-03", 0))
	}

	out := Holidays(p, 0.5)

	require.Len(t, out, 4)
	for _, o := range out {
		assert.Equal(t, day("2001-01-01"), o.Date)
	}
}

func TestHolidaysEmptyPanel(t *testing.T) {
	assert.Empty(t, Holidays(nil, 0.005))
}
