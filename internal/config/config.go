package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete pipeline configuration.
type Config struct {
	Thresholds Thresholds     `yaml:"thresholds" envconfig:"THRESHOLDS"`
	Pipeline   PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging    LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// Thresholds holds every stage parameter. Defaults follow the published
// screening methodology; none is hard-coded in stage logic.
type Thresholds struct {
	ReturnIndexEpsilon      float64 `yaml:"returnindex_epsilon" envconfig:"RETURNINDEX_EPSILON" default:"1e-6" validate:"gt=0"`
	ImplausibleSignFraction float64 `yaml:"implausible_sign_fraction" envconfig:"IMPLAUSIBLE_SIGN_FRACTION" default:"0.98" validate:"gt=0,lte=1"`
	ZeroReturnFraction      float64 `yaml:"zero_return_fraction" envconfig:"ZERO_RETURN_FRACTION" default:"0.95" validate:"gt=0,lte=1"`
	StaleRunLength          int     `yaml:"stale_run_length" envconfig:"STALE_RUN_LENGTH" default:"30" validate:"gt=0"`
	VolatilityHigh          float64 `yaml:"volatility_high" envconfig:"VOLATILITY_HIGH" default:"0.40" validate:"gt=0"`
	VolatilityLow           float64 `yaml:"volatility_low" envconfig:"VOLATILITY_LOW" default:"1e-6" validate:"gte=0"`
	OutlierUp               float64 `yaml:"outlier_up" envconfig:"OUTLIER_UP" default:"1.0" validate:"gt=0"`
	OutlierDown             float64 `yaml:"outlier_down" envconfig:"OUTLIER_DOWN" default:"-0.5" validate:"lt=0"`
	OutlierMode             string  `yaml:"outlier_mode" envconfig:"OUTLIER_MODE" default:"drop" validate:"oneof=drop zero"`
	HolidayThreshold        float64 `yaml:"holiday_threshold" envconfig:"HOLIDAY_THRESHOLD" default:"0.005" validate:"gt=0,lt=1"`
	AdjustmentThreshold     float64 `yaml:"adjustment_threshold" envconfig:"ADJUSTMENT_THRESHOLD" default:"0.05" validate:"gt=0"`
	PennyPercentile         float64 `yaml:"penny_percentile" envconfig:"PENNY_PERCENTILE" default:"0.10" validate:"gt=0,lt=1"`
	SmallCountryMinStocks   int     `yaml:"small_country_min_stocks" envconfig:"SMALL_COUNTRY_MIN_STOCKS" default:"20" validate:"gt=0"`
	ExtremeReturnMode       string  `yaml:"extreme_return_mode" envconfig:"EXTREME_RETURN_MODE" default:"nstd" validate:"oneof=nstd quantile"`
	ExtremeReturnNStd       float64 `yaml:"extreme_return_nstd" envconfig:"EXTREME_RETURN_NSTD" default:"5" validate:"gt=0"`
	ExtremeReturnLower      float64 `yaml:"extreme_return_lower" envconfig:"EXTREME_RETURN_LOWER" default:"0.001" validate:"gte=0,lt=1"`
	ExtremeReturnUpper      float64 `yaml:"extreme_return_upper" envconfig:"EXTREME_RETURN_UPPER" default:"0.999" validate:"gt=0,lte=1"`
	ShortHistoryDays        int     `yaml:"short_history_days" envconfig:"SHORT_HISTORY_DAYS" default:"120" validate:"gt=0"`
	PriceCap                float64 `yaml:"price_cap" envconfig:"PRICE_CAP" default:"1000000" validate:"gt=0"`
	DecimalUp               float64 `yaml:"decimal_up" envconfig:"DECIMAL_UP" default:"4.0" validate:"gt=0"`
	DecimalDown             float64 `yaml:"decimal_down" envconfig:"DECIMAL_DOWN" default:"-0.85" validate:"lt=0"`
}

// ExceptionRule removes known-bad observations for a single security. Exactly
// dataset-specific cleanup: the lists live in configuration, never in code.
// With only Stock set the whole security is dropped; Date drops one stock-day;
// Before drops observations strictly earlier than the given date.
type ExceptionRule struct {
	Stock  string `yaml:"stock" validate:"required"`
	Date   string `yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Before string `yaml:"before,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PipelineConfig selects countries, optional stages, and fan-out behavior.
type PipelineConfig struct {
	// Countries restricts the universe. Empty means every country present in
	// the statics table (each must still be covered by the rule tables).
	Countries      []string          `yaml:"countries" envconfig:"COUNTRIES"`
	CountryAliases map[string]string `yaml:"country_aliases"`

	MinDate string `yaml:"min_date" envconfig:"MIN_DATE" validate:"omitempty,datetime=2006-01-02"`
	MaxDate string `yaml:"max_date" envconfig:"MAX_DATE" validate:"omitempty,datetime=2006-01-02"`

	SkipSurvivorship    bool `yaml:"skip_survivorship" envconfig:"SKIP_SURVIVORSHIP"`
	SkipSmallCountries  bool `yaml:"skip_small_countries" envconfig:"SKIP_SMALL_COUNTRIES"`
	EnableExtremePrices bool `yaml:"enable_extreme_prices" envconfig:"ENABLE_EXTREME_PRICES"`
	EnableDecimalErrors bool `yaml:"enable_decimal_errors" envconfig:"ENABLE_DECIMAL_ERRORS"`

	Exceptions []ExceptionRule `yaml:"exceptions" validate:"dive"`

	// MaxConcurrency bounds the per-country fan-out. Zero means GOMAXPROCS.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

// MinDateTime returns the parsed exclusive lower date bound, or the zero time.
func (p PipelineConfig) MinDateTime() time.Time {
	return parseDate(p.MinDate)
}

// MaxDateTime returns the parsed inclusive upper date bound, or the zero time.
func (p PipelineConfig) MaxDateTime() time.Time {
	return parseDate(p.MaxDate)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Load builds the configuration from defaults and DSFILTER_-prefixed
// environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DSFILTER", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile builds the configuration from defaults and DSFILTER_-prefixed
// environment variables, then overlays the YAML file. The file is applied
// last: envconfig re-applies default tags on every pass, so a second env pass
// after unmarshalling would silently revert file values to their defaults.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("DSFILTER", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the cross-field relations the tag
// syntax cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Thresholds.VolatilityLow >= c.Thresholds.VolatilityHigh {
		return fmt.Errorf("validate config: volatility_low (%g) must be below volatility_high (%g)",
			c.Thresholds.VolatilityLow, c.Thresholds.VolatilityHigh)
	}
	if c.Thresholds.ExtremeReturnLower >= c.Thresholds.ExtremeReturnUpper {
		return fmt.Errorf("validate config: extreme_return_lower (%g) must be below extreme_return_upper (%g)",
			c.Thresholds.ExtremeReturnLower, c.Thresholds.ExtremeReturnUpper)
	}
	for _, e := range c.Pipeline.Exceptions {
		if e.Date != "" && e.Before != "" {
			return fmt.Errorf("validate config: exception for stock %s sets both date and before", e.Stock)
		}
	}
	return nil
}
