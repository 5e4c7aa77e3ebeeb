package pipeline

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"dsfilter/internal/countryrules"
	"dsfilter/internal/filters"
	"dsfilter/pkg/contracts/domain"
)

// forEachCountryStatics applies fn to each country's slice of the statics
// table concurrently. Country partitions share no rows, so the fan-out needs
// no coordination beyond collecting results; the concatenation follows the
// countries' first-appearance order, keeping the output deterministic. The
// panel is then restricted to the surviving securities, maintaining the
// referential-narrowing invariant. An unknown country fails the whole stage.
func forEachCountryStatics(ctx context.Context, st *State, fn func(rule countryrules.Rule, s domain.Statics) domain.Statics) error {
	byCountry := make(map[string]domain.Statics)
	var order []string
	for _, r := range st.Statics {
		if _, ok := byCountry[r.GEOGN]; !ok {
			order = append(order, r.GEOGN)
		}
		byCountry[r.GEOGN] = append(byCountry[r.GEOGN], r)
	}

	results := make(map[string]domain.Statics, len(order))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency(st))
	for _, country := range order {
		rule, err := st.Rules.Lookup(country)
		if err != nil {
			return err
		}
		country := country
		rows := byCountry[country]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			filtered := fn(rule, rows)
			mu.Lock()
			results[country] = filtered
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out domain.Statics
	for _, country := range order {
		out = append(out, results[country]...)
	}
	st.Statics = out
	st.Panel = filters.RestrictPanel(st.Panel, out.DSCDSet())
	return nil
}

// forEachCountryPanel applies fn to each country's slice of the panel
// concurrently and concatenates the results into the canonical (Date, Stock)
// order. Rows whose security has no statics record fall outside every country
// partition and are dropped, as the per-country stages only define behavior
// for the domestic universes.
func forEachCountryPanel(ctx context.Context, st *State, fn func(rule countryrules.Rule, p domain.Panel) domain.Panel) error {
	parts := filters.PanelByCountry(st.Panel, st.Statics)

	results := make(map[string]domain.Panel, len(parts.Keys))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency(st))
	for _, country := range parts.Keys {
		if country == "" {
			continue
		}
		rule, err := st.Rules.Lookup(country)
		if err != nil {
			return err
		}
		country := country
		rows := domain.Panel(parts.Members[country])
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			filtered := fn(rule, rows)
			mu.Lock()
			results[country] = filtered
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out domain.Panel
	for _, country := range parts.Keys {
		out = append(out, results[country]...)
	}
	out.SortByDateStock()
	st.Panel = out
	return nil
}

func maxConcurrency(st *State) int {
	if n := st.Config.Pipeline.MaxConcurrency; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
