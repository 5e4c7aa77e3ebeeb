package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dsfilter/pkg/contracts/domain"
)

func TestApplyExceptions(t *testing.T) {
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
		ob("B", "2001-01-01", 0),
		ob("B", "2001-01-02", 0),
		ob("C", "2001-01-01", 0),
		ob("C", "2001-01-02", 0),
	}

	tests := []struct {
		name       string
		exceptions []Exception
		wantDates  map[string]int
	}{
		{
			name:       "no exceptions is a no-op",
			exceptions: nil,
			wantDates:  map[string]int{"A": 2, "B": 2, "C": 2},
		},
		{
			name:       "whole stock",
			exceptions: []Exception{{Stock: "A"}},
			wantDates:  map[string]int{"B": 2, "C": 2},
		},
		{
			name:       "single day",
			exceptions: []Exception{{Stock: "B", Date: day("2001-01-01")}},
			wantDates:  map[string]int{"A": 2, "B": 1, "C": 2},
		},
		{
			name:       "before a date, exclusive",
			exceptions: []Exception{{Stock: "C", Before: day("2001-01-02")}},
			wantDates:  map[string]int{"A": 2, "B": 2, "C": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyExceptions(p, tt.exceptions)
			got := make(map[string]int)
			for _, o := range out {
				got[o.Stock]++
			}
			assert.Equal(t, tt.wantDates, got)
		})
	}
}

func TestApplyExceptionsOtherStocksUntouched(t *testing.T) {
	p := domain.Panel{ob("A", "2001-01-01", 0)}
	out := ApplyExceptions(p, []Exception{{Stock: "Z", Before: time.Now()}})
	assert.Len(t, out, 1)
}
