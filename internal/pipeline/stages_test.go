package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dsfilter/internal/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func stageIDs(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	stages, err := BuildStages(cfg)
	require.NoError(t, err)
	ids := make([]string, len(stages))
	for i, s := range stages {
		ids[i] = s.ID()
	}
	return ids
}

func TestBuildStagesDefaultOrder(t *testing.T) {
	ids := stageIDs(t, defaultConfig(t))

	assert.Equal(t, []string{
		StageDeduplicateRows,
		StageNullTinyIndex,
		StageRestrictCountries,
		StageDateWindow,
		StageNonCommonStock,
		StageCrossListing,
		StageDuplicateLOC,
		StageForeignFirms,
		StageForeignCurrency,
		StageSurvivorship,
		StageImplausibleReturns,
		StageDelisting,
		StageZeroReturns,
		StageStalePrices,
		StageHighVolatility,
		StageLowVolatility,
		StageOutlierReversal,
		StageHolidays,
		StageImplausibleOHLC,
		StageNoTrading,
		StageMissingData,
		StageAdjustment,
		StagePennyStocks,
		StageSmallCountries,
		StageExtremeReturns,
		StageShortHistory,
		StageFinalCleanup,
	}, ids)
}

func TestBuildStagesOptionalToggles(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Pipeline.SkipSurvivorship = true
	cfg.Pipeline.SkipSmallCountries = true
	cfg.Pipeline.EnableExtremePrices = true
	cfg.Pipeline.EnableDecimalErrors = true
	cfg.Pipeline.Exceptions = []config.ExceptionRule{{Stock: "130381"}}

	ids := stageIDs(t, cfg)

	assert.NotContains(t, ids, StageSurvivorship)
	assert.NotContains(t, ids, StageSmallCountries)
	assert.Contains(t, ids, StageExtremePrices)
	assert.Contains(t, ids, StageDecimalErrors)
	assert.Contains(t, ids, StageManualExclusions)

	// The optional screens slot in before the missing-data handling, and the
	// manual exclusions right after it.
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	assert.Less(t, idx[StageExtremePrices], idx[StageMissingData])
	assert.Less(t, idx[StageDecimalErrors], idx[StageMissingData])
	assert.Equal(t, idx[StageMissingData]+1, idx[StageManualExclusions])
}

func TestBuildStagesRejectsBadOutlierMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Thresholds.OutlierMode = "clip"

	_, err := BuildStages(cfg)
	assert.Error(t, err)
}

func TestBuildStagesRejectsBadExceptionDate(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Pipeline.Exceptions = []config.ExceptionRule{{Stock: "X", Date: "bogus"}}

	_, err := BuildStages(cfg)
	assert.Error(t, err)
}

func TestBuildStagesQuantileMode(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Thresholds.ExtremeReturnMode = "quantile"

	ids := stageIDs(t, cfg)
	assert.Contains(t, ids, StageExtremeReturns)
}
