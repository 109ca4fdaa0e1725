// Package config hoists every analysis threshold into one overridable
// structure so thresholds are testable in isolation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig carries all tunable constants of the engine. Zero values
// are never meaningful; construct via Default or Load.
type AnalysisConfig struct {
	// Baseline estimation
	PrePeriodLookbackWeeks   int     `yaml:"pre_period_lookback_weeks"`
	MovingAverageWindowWeeks int     `yaml:"moving_average_window_weeks"`
	SmoothingAlpha           float64 `yaml:"smoothing_alpha"`
	SmoothingMinRecords      int     `yaml:"smoothing_min_records"`
	SeasonalityMonths        int     `yaml:"seasonality_months"`

	// Cannibalization
	CannibalizationRatePct float64 `yaml:"cannibalization_rate_pct"`
	RelatedCandidateCap    int     `yaml:"related_candidate_cap"`
	CategoryImpactPct      float64 `yaml:"category_impact_pct"`
	AssumedMarginPct       float64 `yaml:"assumed_margin_pct"`

	// Forward buy
	PostPromoPeriodWeeks    int     `yaml:"post_promo_period_weeks"`
	ForwardBuyLookbackWeeks int     `yaml:"forward_buy_lookback_weeks"`
	SignificantDipPct       float64 `yaml:"significant_dip_pct"`
	SeverityLowPct          float64 `yaml:"severity_low_pct"`
	SeverityModeratePct     float64 `yaml:"severity_moderate_pct"`
	SeverityHighPct         float64 `yaml:"severity_high_pct"`
	SeveritySeverePct       float64 `yaml:"severity_severe_pct"`
	RecoveryDipPct          float64 `yaml:"recovery_dip_pct"`

	// Risk prediction
	HistoryPromotionLimit  int     `yaml:"history_promotion_limit"`
	RecurrencePct          float64 `yaml:"recurrence_pct"`
	DiscountSimilarityPts  float64 `yaml:"discount_similarity_pts"`
	DeepDiscountPct        float64 `yaml:"deep_discount_pct"`
	MediumDiscountPct      float64 `yaml:"medium_discount_pct"`
	DeepDiscountMultiplier float64 `yaml:"deep_discount_multiplier"`
	MediumDiscountMult     float64 `yaml:"medium_discount_multiplier"`

	// Memoization cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

// Default returns the engine's standard thresholds.
func Default() AnalysisConfig {
	return AnalysisConfig{
		PrePeriodLookbackWeeks:   4,
		MovingAverageWindowWeeks: 4,
		SmoothingAlpha:           0.3,
		SmoothingMinRecords:      14,
		SeasonalityMonths:        3,

		CannibalizationRatePct: 10,
		RelatedCandidateCap:    50,
		CategoryImpactPct:      5,
		AssumedMarginPct:       30,

		PostPromoPeriodWeeks:    4,
		ForwardBuyLookbackWeeks: 8,
		SignificantDipPct:       15,
		SeverityLowPct:          5,
		SeverityModeratePct:     10,
		SeverityHighPct:         20,
		SeveritySeverePct:       30,
		RecoveryDipPct:          5,

		HistoryPromotionLimit:  5,
		RecurrencePct:          50,
		DiscountSimilarityPts:  10,
		DeepDiscountPct:        30,
		MediumDiscountPct:      20,
		DeepDiscountMultiplier: 1.5,
		MediumDiscountMult:     1.2,

		CacheTTL:  5 * time.Minute,
		CacheSize: 1024,
	}
}

// Load reads YAML overrides on top of the defaults. A missing file is not
// an error; the defaults are returned as-is.
func Load(path string) (AnalysisConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c AnalysisConfig) Validate() error {
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothing_alpha must be in (0, 1], got %v", c.SmoothingAlpha)
	}
	if c.PrePeriodLookbackWeeks <= 0 {
		return fmt.Errorf("pre_period_lookback_weeks must be positive, got %d", c.PrePeriodLookbackWeeks)
	}
	if c.MovingAverageWindowWeeks <= 0 {
		return fmt.Errorf("moving_average_window_weeks must be positive, got %d", c.MovingAverageWindowWeeks)
	}
	if c.PostPromoPeriodWeeks <= 0 {
		return fmt.Errorf("post_promo_period_weeks must be positive, got %d", c.PostPromoPeriodWeeks)
	}
	if c.RelatedCandidateCap <= 0 {
		return fmt.Errorf("related_candidate_cap must be positive, got %d", c.RelatedCandidateCap)
	}
	if !(c.SeverityLowPct < c.SeverityModeratePct &&
		c.SeverityModeratePct < c.SeverityHighPct &&
		c.SeverityHighPct < c.SeveritySeverePct) {
		return fmt.Errorf("severity tiers must be strictly increasing")
	}
	return nil
}
