package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/bgeffect-mcp/internal/effect"
	"github.com/ironsheep/bgeffect-mcp/internal/mask"
	"github.com/ironsheep/bgeffect-mcp/internal/session"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// maxFileSize caps tuning files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// TuningConfig holds the engine's tunable constants. Every field is a pointer
// so a partial file only overrides what it names; the Get* methods fall back
// to the stock values for the rest.
type TuningConfig struct {
	// History and exclusion
	HistoryCapacity     *int     `json:"history_capacity,omitempty"`
	ExclusionMinSamples *int     `json:"exclusion_min_samples,omitempty"`
	ExclusionVariance   *float64 `json:"exclusion_variance,omitempty"`
	ExclusionMeanLow    *float64 `json:"exclusion_mean_low,omitempty"`
	ExclusionMeanHigh   *float64 `json:"exclusion_mean_high,omitempty"`
	ExclusionInterval   *int     `json:"exclusion_interval,omitempty"`
	ExclusionDecay      *float64 `json:"exclusion_decay,omitempty"`
	ExclusionAlphaScale *float64 `json:"exclusion_alpha_scale,omitempty"`

	// Accumulation and feedback
	Sway                     *float64 `json:"sway,omitempty"`
	FeedbackInfluence        *float64 `json:"feedback_influence,omitempty"`
	FeedbackActivity         *float64 `json:"feedback_activity,omitempty"`
	FeedbackRecomputeSamples *int     `json:"feedback_recompute_samples,omitempty"`

	// Compositing
	FeatherSigma           *float64 `json:"feather_sigma,omitempty"`
	DesaturateAmount       *float64 `json:"desaturate_amount,omitempty"`
	IsolateContrast        *float64 `json:"isolate_contrast,omitempty"`
	IsolateSaturationBoost *float64 `json:"isolate_saturation_boost,omitempty"`
	CompositorWorkers      *int     `json:"compositor_workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to the
// stock value.
func DefaultTuningConfig() *TuningConfig {
	mp := mask.DefaultParams()
	eo := effect.DefaultOptions()
	return &TuningConfig{
		HistoryCapacity:          ptrInt(mp.HistoryCapacity),
		ExclusionMinSamples:      ptrInt(mp.MinSamples),
		ExclusionVariance:        ptrFloat64(mp.VarianceThreshold),
		ExclusionMeanLow:         ptrFloat64(mp.MeanLow),
		ExclusionMeanHigh:        ptrFloat64(mp.MeanHigh),
		ExclusionInterval:        ptrInt(mp.ExclusionInterval),
		ExclusionDecay:           ptrFloat64(mp.ExclusionDecay),
		ExclusionAlphaScale:      ptrFloat64(eo.ExclusionAlphaScale),
		Sway:                     ptrFloat64(mp.Sway),
		FeedbackInfluence:        ptrFloat64(mp.FeedbackInfluence),
		FeedbackActivity:         ptrFloat64(mp.FeedbackActivity),
		FeedbackRecomputeSamples: ptrInt(mp.FeedbackRecomputeSamples),
		FeatherSigma:             ptrFloat64(eo.FeatherSigma),
		DesaturateAmount:         ptrFloat64(eo.DesaturateAmount),
		IsolateContrast:          ptrFloat64(eo.IsolateContrast),
		IsolateSaturationBoost:   ptrFloat64(eo.IsolateSaturationBoost),
		CompositorWorkers:        ptrInt(eo.Workers),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Fields omitted
// from the file keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// one of its parents. Panics if the file cannot be loaded, intended for test
// setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks every set field and reports all violations at once.
func (c *TuningConfig) Validate() error {
	var err error

	atLeast := func(name string, v *int, min int) {
		if v != nil && *v < min {
			err = multierr.Append(err, fmt.Errorf("%s must be at least %d, got %d", name, min, *v))
		}
	}
	unit := func(name string, v *float64) {
		if v != nil && (*v < 0 || *v > 1) {
			err = multierr.Append(err, fmt.Errorf("%s must be between 0 and 1, got %f", name, *v))
		}
	}
	nonNegative := func(name string, v *float64) {
		if v != nil && *v < 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be non-negative, got %f", name, *v))
		}
	}

	atLeast("history_capacity", c.HistoryCapacity, 1)
	atLeast("exclusion_min_samples", c.ExclusionMinSamples, 1)
	atLeast("exclusion_interval", c.ExclusionInterval, 1)
	atLeast("feedback_recompute_samples", c.FeedbackRecomputeSamples, 0)
	atLeast("compositor_workers", c.CompositorWorkers, 0)

	unit("exclusion_variance", c.ExclusionVariance)
	unit("exclusion_mean_low", c.ExclusionMeanLow)
	unit("exclusion_mean_high", c.ExclusionMeanHigh)
	unit("exclusion_decay", c.ExclusionDecay)
	unit("exclusion_alpha_scale", c.ExclusionAlphaScale)
	unit("sway", c.Sway)
	unit("feedback_influence", c.FeedbackInfluence)
	unit("feedback_activity", c.FeedbackActivity)

	nonNegative("feather_sigma", c.FeatherSigma)
	nonNegative("isolate_saturation_boost", c.IsolateSaturationBoost)

	if c.DesaturateAmount != nil && (*c.DesaturateAmount < 0 || *c.DesaturateAmount > 100) {
		err = multierr.Append(err, fmt.Errorf("desaturate_amount must be between 0 and 100, got %f", *c.DesaturateAmount))
	}
	if c.IsolateContrast != nil && (*c.IsolateContrast < -100 || *c.IsolateContrast > 100) {
		err = multierr.Append(err, fmt.Errorf("isolate_contrast must be between -100 and 100, got %f", *c.IsolateContrast))
	}
	if low, high := c.GetExclusionMeanLow(), c.GetExclusionMeanHigh(); low >= high {
		err = multierr.Append(err, fmt.Errorf("exclusion_mean_low (%f) must be below exclusion_mean_high (%f)", low, high))
	}

	return err
}

func getInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func getFloat64(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetHistoryCapacity returns the history_capacity value or the default.
func (c *TuningConfig) GetHistoryCapacity() int {
	return getInt(c.HistoryCapacity, mask.DefaultParams().HistoryCapacity)
}

// GetExclusionMinSamples returns the exclusion_min_samples value or the default.
func (c *TuningConfig) GetExclusionMinSamples() int {
	return getInt(c.ExclusionMinSamples, mask.DefaultParams().MinSamples)
}

// GetExclusionVariance returns the exclusion_variance value or the default.
func (c *TuningConfig) GetExclusionVariance() float64 {
	return getFloat64(c.ExclusionVariance, mask.DefaultParams().VarianceThreshold)
}

// GetExclusionMeanLow returns the exclusion_mean_low value or the default.
func (c *TuningConfig) GetExclusionMeanLow() float64 {
	return getFloat64(c.ExclusionMeanLow, mask.DefaultParams().MeanLow)
}

// GetExclusionMeanHigh returns the exclusion_mean_high value or the default.
func (c *TuningConfig) GetExclusionMeanHigh() float64 {
	return getFloat64(c.ExclusionMeanHigh, mask.DefaultParams().MeanHigh)
}

// GetExclusionInterval returns the exclusion_interval value or the default.
func (c *TuningConfig) GetExclusionInterval() int {
	return getInt(c.ExclusionInterval, mask.DefaultParams().ExclusionInterval)
}

// GetExclusionDecay returns the exclusion_decay value or the default.
func (c *TuningConfig) GetExclusionDecay() float64 {
	return getFloat64(c.ExclusionDecay, mask.DefaultParams().ExclusionDecay)
}

// GetExclusionAlphaScale returns the exclusion_alpha_scale value or the default.
func (c *TuningConfig) GetExclusionAlphaScale() float64 {
	return getFloat64(c.ExclusionAlphaScale, effect.DefaultOptions().ExclusionAlphaScale)
}

// GetSway returns the sway value or the default.
func (c *TuningConfig) GetSway() float64 {
	return getFloat64(c.Sway, mask.DefaultParams().Sway)
}

// GetFeedbackInfluence returns the feedback_influence value or the default.
func (c *TuningConfig) GetFeedbackInfluence() float64 {
	return getFloat64(c.FeedbackInfluence, mask.DefaultParams().FeedbackInfluence)
}

// GetFeedbackActivity returns the feedback_activity value or the default.
func (c *TuningConfig) GetFeedbackActivity() float64 {
	return getFloat64(c.FeedbackActivity, mask.DefaultParams().FeedbackActivity)
}

// GetFeedbackRecomputeSamples returns the feedback_recompute_samples value or the default.
func (c *TuningConfig) GetFeedbackRecomputeSamples() int {
	return getInt(c.FeedbackRecomputeSamples, mask.DefaultParams().FeedbackRecomputeSamples)
}

// GetFeatherSigma returns the feather_sigma value or the default.
func (c *TuningConfig) GetFeatherSigma() float64 {
	return getFloat64(c.FeatherSigma, effect.DefaultOptions().FeatherSigma)
}

// GetDesaturateAmount returns the desaturate_amount value or the default.
func (c *TuningConfig) GetDesaturateAmount() float64 {
	return getFloat64(c.DesaturateAmount, effect.DefaultOptions().DesaturateAmount)
}

// GetIsolateContrast returns the isolate_contrast value or the default.
func (c *TuningConfig) GetIsolateContrast() float64 {
	return getFloat64(c.IsolateContrast, effect.DefaultOptions().IsolateContrast)
}

// GetIsolateSaturationBoost returns the isolate_saturation_boost value or the default.
func (c *TuningConfig) GetIsolateSaturationBoost() float64 {
	return getFloat64(c.IsolateSaturationBoost, effect.DefaultOptions().IsolateSaturationBoost)
}

// GetCompositorWorkers returns the compositor_workers value or the default.
func (c *TuningConfig) GetCompositorWorkers() int {
	return getInt(c.CompositorWorkers, effect.DefaultOptions().Workers)
}

// MaskParams maps the config onto the temporal pipeline parameters.
func (c *TuningConfig) MaskParams() mask.Params {
	return mask.Params{
		HistoryCapacity:          c.GetHistoryCapacity(),
		MinSamples:               c.GetExclusionMinSamples(),
		VarianceThreshold:        c.GetExclusionVariance(),
		MeanLow:                  c.GetExclusionMeanLow(),
		MeanHigh:                 c.GetExclusionMeanHigh(),
		ExclusionInterval:        c.GetExclusionInterval(),
		ExclusionDecay:           c.GetExclusionDecay(),
		Sway:                     c.GetSway(),
		FeedbackInfluence:        c.GetFeedbackInfluence(),
		FeedbackActivity:         c.GetFeedbackActivity(),
		FeedbackRecomputeSamples: c.GetFeedbackRecomputeSamples(),
	}
}

// CompositorOptions maps the config onto the compositor options.
func (c *TuningConfig) CompositorOptions() effect.Options {
	return effect.Options{
		ExclusionAlphaScale:    c.GetExclusionAlphaScale(),
		FeatherSigma:           c.GetFeatherSigma(),
		DesaturateAmount:       c.GetDesaturateAmount(),
		IsolateContrast:        c.GetIsolateContrast(),
		IsolateSaturationBoost: c.GetIsolateSaturationBoost(),
		Workers:                c.GetCompositorWorkers(),
	}
}

// SessionOptions returns options for new sessions, starting with the default
// effect.
func (c *TuningConfig) SessionOptions(logger *zap.Logger) session.Options {
	return session.Options{
		Mask:       c.MaskParams(),
		Compositor: c.CompositorOptions(),
		Effect:     effect.DefaultParams(),
		Logger:     logger,
	}
}
