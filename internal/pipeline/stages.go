package pipeline

import (
	"context"
	"fmt"
	"time"

	"dsfilter/internal/config"
	"dsfilter/internal/countryrules"
	"dsfilter/internal/filters"
	"dsfilter/pkg/contracts/domain"
)

// Stage IDs, in canonical execution order. The sequence matters: universe
// restriction precedes the row-level screens, returns are computed before any
// return-based screen, and the cleanup stages run last.
const (
	StageDeduplicateRows    = "dedupe-rows"
	StageNullTinyIndex      = "null-tiny-returnindex"
	StageRestrictCountries  = "restrict-countries"
	StageDateWindow         = "date-window"
	StageNonCommonStock     = "non-common-stock"
	StageCrossListing       = "cross-listing"
	StageDuplicateLOC       = "duplicate-loc"
	StageForeignFirms       = "foreign-firms"
	StageForeignCurrency    = "foreign-currency"
	StageSurvivorship       = "survivorship"
	StageImplausibleReturns = "implausible-returns"
	StageDelisting          = "delisting-truncation"
	StageZeroReturns        = "zero-returns"
	StageStalePrices        = "stale-prices"
	StageHighVolatility     = "high-volatility"
	StageLowVolatility      = "low-volatility"
	StageOutlierReversal    = "outlier-reversal"
	StageHolidays           = "holidays"
	StageImplausibleOHLC    = "implausible-ohlc"
	StageNoTrading          = "no-trading-activity"
	StageExtremePrices      = "extreme-prices"
	StageDecimalErrors      = "decimal-errors"
	StageMissingData        = "missing-data"
	StageManualExclusions   = "manual-exclusions"
	StageAdjustment         = "adjustment-consistency"
	StagePennyStocks        = "penny-stocks"
	StageSmallCountries     = "small-countries"
	StageExtremeReturns     = "extreme-returns"
	StageShortHistory       = "short-history"
	StageFinalCleanup       = "final-cleanup"
)

// BuildStages assembles the cleaning sequence for the given configuration.
// Optional stages are included or skipped here, so the returned slice is the
// exact sequence the runner will execute.
func BuildStages(cfg *config.Config) ([]Stage, error) {
	t := cfg.Thresholds

	outlierMode, err := parseOutlierMode(t.OutlierMode)
	if err != nil {
		return nil, err
	}
	exceptions, err := parseExceptions(cfg.Pipeline.Exceptions)
	if err != nil {
		return nil, err
	}

	stages := []Stage{
		panelStage(StageDeduplicateRows, "Deduplicate rows", filters.DeduplicateRows),

		panelStage(StageNullTinyIndex, "Null tiny return index and compute returns", func(p domain.Panel) domain.Panel {
			return filters.ComputeReturns(p, t.ReturnIndexEpsilon)
		}),

		NewStage(StageRestrictCountries, "Restrict countries", func(ctx context.Context, st *State) error {
			st.Statics = filters.RestrictCountries(st.Statics, cfg.Pipeline.Countries, cfg.Pipeline.CountryAliases)
			for _, country := range st.Statics.Countries() {
				if _, err := st.Rules.Lookup(country); err != nil {
					return err
				}
			}
			st.Panel = filters.RestrictPanel(st.Panel, st.Statics.DSCDSet())
			return nil
		}),

		panelStage(StageDateWindow, "Restrict date window", func(p domain.Panel) domain.Panel {
			return filters.DateWindow(p, cfg.Pipeline.MinDateTime(), cfg.Pipeline.MaxDateTime())
		}),

		staticsStage(StageNonCommonStock, "Drop non-common stock", filters.NonCommonStock),
		staticsStage(StageCrossListing, "Drop cross-listings", filters.CrossListings),

		NewStage(StageDuplicateLOC, "Drop duplicate local codes", func(ctx context.Context, st *State) error {
			st.Statics = filters.DuplicateLOC(st.Statics)
			st.Panel = filters.RestrictPanel(st.Panel, st.Statics.DSCDSet())
			return nil
		}),

		NewStage(StageForeignFirms, "Drop foreign firms", func(ctx context.Context, st *State) error {
			st.Panel = filters.ForeignFirms(st.Panel, st.Statics)
			return nil
		}),

		staticsStage(StageForeignCurrency, "Drop foreign-currency listings", filters.ForeignCurrency),
	}

	if !cfg.Pipeline.SkipSurvivorship {
		stages = append(stages, countryPanelStage(StageSurvivorship, "Drop pre-coverage observations",
			func(rule countryrules.Rule, p domain.Panel) domain.Panel {
				return filters.Survivorship(p, rule.StartDate)
			}))
	}

	stages = append(stages,
		panelStage(StageImplausibleReturns, "Drop implausible-return stocks", func(p domain.Panel) domain.Panel {
			return filters.ImplausibleReturnStocks(p, t.ImplausibleSignFraction)
		}),

		NewStage(StageDelisting, "Truncate at delisting", func(ctx context.Context, st *State) error {
			st.Panel = filters.DelistingTruncation(st.Panel, st.Statics)
			return nil
		}),

		panelStage(StageZeroReturns, "Drop zero-return stocks", func(p domain.Panel) domain.Panel {
			return filters.ZeroReturnStocks(p, t.ZeroReturnFraction)
		}),
		panelStage(StageStalePrices, "Drop stale price runs", func(p domain.Panel) domain.Panel {
			return filters.StalePrices(p, t.StaleRunLength)
		}),
		panelStage(StageHighVolatility, "Drop high-volatility stocks", func(p domain.Panel) domain.Panel {
			return filters.HighVolatilityStocks(p, t.VolatilityHigh)
		}),
		panelStage(StageLowVolatility, "Drop flat-return stocks", func(p domain.Panel) domain.Panel {
			return filters.LowVolatilityStocks(p, t.VolatilityLow)
		}),
		panelStage(StageOutlierReversal, "Handle outlier reversals", func(p domain.Panel) domain.Panel {
			return filters.OutlierReversals(p, t.OutlierUp, t.OutlierDown, outlierMode)
		}),

		countryPanelStage(StageHolidays, "Drop market holidays", func(_ countryrules.Rule, p domain.Panel) domain.Panel {
			return filters.Holidays(p, t.HolidayThreshold)
		}),

		panelStage(StageImplausibleOHLC, "Drop implausible OHLC rows", filters.ImplausibleOHLC),
		panelStage(StageNoTrading, "Drop no-trading rows", filters.NoTradingActivity),
	)

	if cfg.Pipeline.EnableExtremePrices {
		stages = append(stages, panelStage(StageExtremePrices, "Drop extreme prices", func(p domain.Panel) domain.Panel {
			return filters.ExtremePrices(p, t.PriceCap)
		}))
	}
	if cfg.Pipeline.EnableDecimalErrors {
		stages = append(stages, panelStage(StageDecimalErrors, "Drop decimal-shift returns", func(p domain.Panel) domain.Panel {
			return filters.DecimalErrorReturns(p, t.DecimalUp, t.DecimalDown)
		}))
	}

	stages = append(stages, countryPanelStage(StageMissingData, "Handle missing data",
		func(_ countryrules.Rule, p domain.Panel) domain.Panel {
			return filters.HandleMissings(p)
		}))

	if len(exceptions) > 0 {
		stages = append(stages, panelStage(StageManualExclusions, "Apply manual exclusions", func(p domain.Panel) domain.Panel {
			return filters.ApplyExceptions(p, exceptions)
		}))
	}

	stages = append(stages,
		panelStage(StageAdjustment, "Drop adjustment inconsistencies", func(p domain.Panel) domain.Panel {
			return filters.AdjustmentInconsistencies(p, t.AdjustmentThreshold)
		}),

		NewStage(StagePennyStocks, "Drop penny stocks", func(ctx context.Context, st *State) error {
			panel, thresholds := filters.PennyStocks(st.Panel, t.PennyPercentile)
			st.Panel = panel
			st.PennyThresholds = thresholds
			return nil
		}),
	)

	if !cfg.Pipeline.SkipSmallCountries {
		stages = append(stages, NewStage(StageSmallCountries, "Drop small countries", func(ctx context.Context, st *State) error {
			panel, statics, _ := filters.SmallCountries(st.Panel, st.Statics, t.SmallCountryMinStocks)
			st.Panel = panel
			st.Statics = statics
			return nil
		}))
	}

	extreme := filters.ExtremeReturnsByStd
	if t.ExtremeReturnMode == "quantile" {
		extreme = func(p domain.Panel, _ float64) domain.Panel {
			return filters.ExtremeReturnsByQuantile(p, t.ExtremeReturnLower, t.ExtremeReturnUpper)
		}
	}
	stages = append(stages,
		panelStage(StageExtremeReturns, "Drop extreme returns", func(p domain.Panel) domain.Panel {
			return extreme(p, t.ExtremeReturnNStd)
		}),

		panelStage(StageShortHistory, "Drop short-history stocks", func(p domain.Panel) domain.Panel {
			return filters.ShortHistory(p, t.ShortHistoryDays)
		}),

		NewStage(StageFinalCleanup, "Final cleanup", func(ctx context.Context, st *State) error {
			panel, statics := filters.FinalCleanup(st.Panel, st.Statics)
			st.Panel = panel
			st.Statics = statics
			return nil
		}),
	)

	return stages, nil
}

// panelStage wraps a pure panel transform that needs no country context.
func panelStage(id, name string, fn func(domain.Panel) domain.Panel) Stage {
	return NewStage(id, name, func(ctx context.Context, st *State) error {
		st.Panel = fn(st.Panel)
		return nil
	})
}

// staticsStage wraps a per-country statics transform; the panel is narrowed
// to the surviving securities afterwards.
func staticsStage(id, name string, fn func(domain.Statics, countryrules.Rule) domain.Statics) Stage {
	return NewStage(id, name, func(ctx context.Context, st *State) error {
		return forEachCountryStatics(ctx, st, func(rule countryrules.Rule, s domain.Statics) domain.Statics {
			return fn(s, rule)
		})
	})
}

// countryPanelStage wraps a per-country panel transform.
func countryPanelStage(id, name string, fn func(countryrules.Rule, domain.Panel) domain.Panel) Stage {
	return NewStage(id, name, func(ctx context.Context, st *State) error {
		return forEachCountryPanel(ctx, st, fn)
	})
}

func parseOutlierMode(mode string) (filters.OutlierMode, error) {
	switch mode {
	case "drop":
		return filters.OutlierDrop, nil
	case "zero":
		return filters.OutlierZero, nil
	default:
		return "", fmt.Errorf("unknown outlier mode %q", mode)
	}
}

func parseExceptions(rules []config.ExceptionRule) ([]filters.Exception, error) {
	out := make([]filters.Exception, 0, len(rules))
	for _, r := range rules {
		e := filters.Exception{Stock: r.Stock}
		var err error
		if r.Date != "" {
			e.Date, err = time.Parse("2006-01-02", r.Date)
		}
		if err == nil && r.Before != "" {
			e.Before, err = time.Parse("2006-01-02", r.Before)
		}
		if err != nil {
			return nil, fmt.Errorf("parse exception for stock %s: %w", r.Stock, err)
		}
		out = append(out, e)
	}
	return out, nil
}
