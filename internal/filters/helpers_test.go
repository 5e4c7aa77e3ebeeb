package filters

import (
	"time"

	"dsfilter/pkg/contracts/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ob builds an observation with every numeric cell populated, so individual
// tests only adjust the cells they care about.
func ob(stock, date string, ret float64) domain.Observation {
	return domain.Observation{
		Stock:       stock,
		Date:        day(date),
		Open:        10,
		High:        11,
		Low:         9,
		Close:       10,
		Volume:      1000,
		ReturnIndex: 100,
		MarketCAP:   1e6,
		MTBV:        1.5,
		AdjFactor:   1,
		UnadjClose:  10,
		Return:      ret,
	}
}
