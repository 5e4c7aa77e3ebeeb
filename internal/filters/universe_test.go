package filters

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsfilter/internal/countryrules"
	"dsfilter/pkg/contracts/domain"
)

func testRule() countryrules.Rule {
	return countryrules.Rule{
		Country:           "TESTLAND",
		NonEquityPatterns: []string{" PF ", "WARRANT", " TRUST"},
		CrossListing:      regexp.MustCompile(`\(XET\)|\(FRA\)`),
		Currencies:        []string{"T$", "E"},
		StartDate:         day("1990-12-31"),
	}
}

func TestRestrictCountries(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A", GEOGN: "GERMANY"},
		{DSCD: "B", GEOGN: "WEST GERMANY"},
		{DSCD: "C", GEOGN: "FRANCE"},
		{DSCD: "D", GEOGN: ""},
		{DSCD: "E", GEOGN: "nan"},
	}
	aliases := map[string]string{"WEST GERMANY": "GERMANY"}

	t.Run("aliases fold before selection", func(t *testing.T) {
		out := RestrictCountries(s, []string{"GERMANY"}, aliases)
		require.Len(t, out, 2)
		assert.Equal(t, "A", out[0].DSCD)
		assert.Equal(t, "B", out[1].DSCD)
		assert.Equal(t, "GERMANY", out[1].GEOGN)
	})

	t.Run("empty selection keeps all countries", func(t *testing.T) {
		out := RestrictCountries(s, nil, aliases)
		assert.Len(t, out, 3, "placeholder countries still go")
	})
}

func TestNonCommonStock(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A", ENAME: "ACME ORDINARY", TRAC: "ORD"},
		{DSCD: "B", ENAME: "ACME WARRANTS 2025", TRAC: "WNT"},
		{DSCD: "C", ENAME: "ACME WARRANTS 2025", TRAC: "ORD"},
		{DSCD: "D", ENAME: "ACME PROPERTY TRUST", TRAC: "UKNOWN"},
	}

	out := NonCommonStock(s, testRule())

	assert.Equal(t, []string{"A", "C", "D"}, out.DSCDs(),
		"an ordinary-share TRAC code overrides a name-pattern match")
}

func TestCrossListings(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A", ENAME: "ACME"},
		{DSCD: "B", ENAME: "ACME (XET)"},
		{DSCD: "C", ENAME: "ACME (FRA)"},
	}

	out := CrossListings(s, testRule())
	assert.Equal(t, []string{"A"}, out.DSCDs())

	noPattern := testRule()
	noPattern.CrossListing = nil
	assert.Len(t, CrossListings(s, noPattern), 3)
}

func TestDuplicateLOC(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A1", LOC: "L1", ISINID: "P"},
		{DSCD: "A2", LOC: "L1", ISINID: "S"},
		{DSCD: "B1", LOC: "L2", ISINID: "S"},
		{DSCD: "B2", LOC: "L2", ISINID: "S"},
		{DSCD: "C1", LOC: "L3", ISINID: "S"},
	}

	out := DuplicateLOC(s)

	assert.Equal(t, []string{"A1", "B1", "B2", "C1"}, out.DSCDs())
}

func TestForeignFirms(t *testing.T) {
	s := domain.Statics{{DSCD: "A"}}
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("B", "2001-01-01", 0),
	}

	out := ForeignFirms(p, s)
	assert.Equal(t, []string{"A"}, out.Stocks())
}

func TestForeignCurrency(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A", PCUR: "T$"},
		{DSCD: "B", PCUR: "U$"},
		{DSCD: "C", PCUR: "E"},
	}

	out := ForeignCurrency(s, testRule())
	assert.Equal(t, []string{"A", "C"}, out.DSCDs())
}

func TestSmallCountries(t *testing.T) {
	var p domain.Panel
	var s domain.Statics
	for _, stock := range []string{"G1", "G2", "G3"} {
		s = append(s, domain.StaticRecord{DSCD: stock, GEOGN: "GERMANY"})
		p = append(p, ob(stock, "2001-01-01", 0))
	}
	s = append(s, domain.StaticRecord{DSCD: "M1", GEOGN: "MALTA"})
	p = append(p, ob("M1", "2001-01-01", 0))

	panel, statics, removed := SmallCountries(p, s, 2)

	assert.Equal(t, []string{"G1", "G2", "G3"}, panel.Stocks())
	assert.Equal(t, []string{"GERMANY"}, statics.Countries())
	assert.Equal(t, map[string]int{"MALTA": 1}, removed)
}

func TestPanelByCountry(t *testing.T) {
	s := domain.Statics{
		{DSCD: "A", GEOGN: "GERMANY"},
		{DSCD: "B", GEOGN: "FRANCE"},
	}
	p := domain.Panel{
		ob("A", "2001-01-01", 0),
		ob("B", "2001-01-01", 0),
		ob("A", "2001-01-02", 0),
		ob("X", "2001-01-01", 0),
	}

	g := PanelByCountry(p, s)

	assert.Equal(t, []string{"GERMANY", "FRANCE", ""}, g.Keys)
	assert.Len(t, g.Members["GERMANY"], 2)
	assert.Len(t, g.Members["FRANCE"], 1)
	assert.Len(t, g.Members[""], 1, "securities without metadata land under the empty key")
}
