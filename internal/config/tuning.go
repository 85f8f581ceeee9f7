// Package config holds the instrument tuning parameters.
//
// The two field-deployed engine revisions disagreed on several numeric
// constants (smoothing alpha, zone thresholds, ring sizes, decay factors),
// so every such constant is an optional JSON field with a named default
// rather than a hardcoded literal. The schema is shared between startup
// configuration and runtime parameter updates.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// Tuning represents the root configuration for engine tuning parameters.
// Fields omitted from the JSON retain their defaults, so partial configs
// are safe.
type Tuning struct {
	// Orientation fuser
	GravityAlpha *float64 `json:"gravity_alpha,omitempty"`
	TiltRingSize *int     `json:"tilt_ring_size,omitempty"`

	// Vibration analyzer
	VelocityProxyFactor *float64 `json:"velocity_proxy_factor,omitempty"`
	ZoneBThreshold      *float64 `json:"zone_b_threshold,omitempty"`
	ZoneCThreshold      *float64 `json:"zone_c_threshold,omitempty"`
	ZoneDThreshold      *float64 `json:"zone_d_threshold,omitempty"`
	VibrationRingSize   *int     `json:"vibration_ring_size,omitempty"`
	PeakDecay           *float64 `json:"peak_decay,omitempty"`
	LongGradientDecay   *float64 `json:"long_gradient_decay,omitempty"`

	// Spectral analyzer
	VibrationFFTSize *int     `json:"vibration_fft_size,omitempty"`
	AudioFFTSize     *int     `json:"audio_fft_size,omitempty"`
	AudioSampleRate  *float64 `json:"audio_sample_rate,omitempty"`
	SpectralInterval *int     `json:"spectral_interval,omitempty"` // frames between FFT runs

	// Acoustic level meter
	WeightHighpassAlpha *float64 `json:"weight_highpass_alpha,omitempty"`
	WeightShapingGain   *float64 `json:"weight_shaping_gain,omitempty"`
	ShimmerCoupling     *float64 `json:"shimmer_coupling,omitempty"`
	DBARingSize         *int     `json:"dba_ring_size,omitempty"`

	// Photonic analyzer
	LuxRingSize      *int     `json:"lux_ring_size,omitempty"`
	DarkLuxThreshold *float64 `json:"dark_lux_threshold,omitempty"`
	NaturalFlicker   *float64 `json:"natural_flicker,omitempty"`

	// Fault predictor
	AmplitudeHighThreshold *float64 `json:"amplitude_high_threshold,omitempty"`
	AmplitudeWarnThreshold *float64 `json:"amplitude_warn_threshold,omitempty"`
	BearingFreqCutoff      *float64 `json:"bearing_freq_cutoff,omitempty"`
	ShimmerCritical        *float64 `json:"shimmer_critical,omitempty"`
	TonalEntropyThreshold  *float64 `json:"tonal_entropy_threshold,omitempty"`
	GradientScale          *float64 `json:"gradient_scale,omitempty"`

	// Frame bookkeeping
	RateRingSize *int `json:"rate_ring_size,omitempty"`

	// Power/eco controller (duration strings like "30s")
	WakeThreshold *float64 `json:"wake_threshold,omitempty"`
	EcoTimeout    *string  `json:"eco_timeout,omitempty"`
	ActivePeriod  *string  `json:"active_period,omitempty"`
	EcoPeriod     *string  `json:"eco_period,omitempty"`
	UltraPeriod   *string  `json:"ultra_period,omitempty"`
}

// EmptyTuning returns a Tuning with all fields unset. Every Get* accessor
// falls back to its documented default.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and be under the max file size.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Tuning) Validate() error {
	if c.GravityAlpha != nil {
		if *c.GravityAlpha <= 0 || *c.GravityAlpha >= 1 {
			return fmt.Errorf("gravity_alpha must be in (0,1), got %f", *c.GravityAlpha)
		}
	}
	if c.PeakDecay != nil {
		if *c.PeakDecay <= 0 || *c.PeakDecay >= 1 {
			return fmt.Errorf("peak_decay must be in (0,1), got %f", *c.PeakDecay)
		}
	}
	if c.LongGradientDecay != nil {
		if *c.LongGradientDecay <= 0 || *c.LongGradientDecay >= 1 {
			return fmt.Errorf("long_gradient_decay must be in (0,1), got %f", *c.LongGradientDecay)
		}
	}

	// Zone thresholds must stay strictly ordered; the classifier evaluates
	// them high to low.
	b, cc, d := c.GetZoneBThreshold(), c.GetZoneCThreshold(), c.GetZoneDThreshold()
	if !(b < cc && cc < d) {
		return fmt.Errorf("zone thresholds must be strictly ordered B<C<D, got %f/%f/%f", b, cc, d)
	}

	for name, v := range map[string]*int{
		"vibration_fft_size": c.VibrationFFTSize,
		"audio_fft_size":     c.AudioFFTSize,
	} {
		if v != nil && (*v < 8 || *v&(*v-1) != 0) {
			return fmt.Errorf("%s must be a power of two >= 8, got %d", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"tilt_ring_size":      c.TiltRingSize,
		"vibration_ring_size": c.VibrationRingSize,
		"dba_ring_size":       c.DBARingSize,
		"lux_ring_size":       c.LuxRingSize,
		"rate_ring_size":      c.RateRingSize,
		"spectral_interval":   c.SpectralInterval,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}

	for name, v := range map[string]*string{
		"eco_timeout":   c.EcoTimeout,
		"active_period": c.ActivePeriod,
		"eco_period":    c.EcoPeriod,
		"ultra_period":  c.UltraPeriod,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

// GetGravityAlpha returns the gravity smoothing coefficient or the default.
func (c *Tuning) GetGravityAlpha() float64 {
	if c.GravityAlpha == nil {
		return 0.8
	}
	return *c.GravityAlpha
}

// GetTiltRingSize returns the tilt history length or the default.
func (c *Tuning) GetTiltRingSize() int {
	if c.TiltRingSize == nil {
		return 50
	}
	return *c.TiltRingSize
}

// GetVelocityProxyFactor returns the acceleration-to-velocity proxy
// conversion factor (mm/s per m/s²) or the default.
func (c *Tuning) GetVelocityProxyFactor() float64 {
	if c.VelocityProxyFactor == nil {
		return 1.2
	}
	return *c.VelocityProxyFactor
}

// GetZoneBThreshold returns the A/B zone boundary in mm/s or the default.
func (c *Tuning) GetZoneBThreshold() float64 {
	if c.ZoneBThreshold == nil {
		return 1.8
	}
	return *c.ZoneBThreshold
}

// GetZoneCThreshold returns the B/C zone boundary in mm/s or the default.
func (c *Tuning) GetZoneCThreshold() float64 {
	if c.ZoneCThreshold == nil {
		return 4.5
	}
	return *c.ZoneCThreshold
}

// GetZoneDThreshold returns the C/D zone boundary in mm/s or the default.
func (c *Tuning) GetZoneDThreshold() float64 {
	if c.ZoneDThreshold == nil {
		return 11.0
	}
	return *c.ZoneDThreshold
}

// GetVibrationRingSize returns the raw-magnitude history length or the
// default. One deployed revision used 512; 128 is the canonical size.
func (c *Tuning) GetVibrationRingSize() int {
	if c.VibrationRingSize == nil {
		return 128
	}
	return *c.VibrationRingSize
}

// GetPeakDecay returns the per-frame peak-hold decay factor or the default.
func (c *Tuning) GetPeakDecay() float64 {
	if c.PeakDecay == nil {
		return 0.99
	}
	return *c.PeakDecay
}

// GetLongGradientDecay returns the long-term gradient EMA weight or the
// default.
func (c *Tuning) GetLongGradientDecay() float64 {
	if c.LongGradientDecay == nil {
		return 0.999
	}
	return *c.LongGradientDecay
}

// GetVibrationFFTSize returns the vibration-path FFT length or the default.
func (c *Tuning) GetVibrationFFTSize() int {
	if c.VibrationFFTSize == nil {
		return 128
	}
	return *c.VibrationFFTSize
}

// GetAudioFFTSize returns the audio-path FFT length or the default.
func (c *Tuning) GetAudioFFTSize() int {
	if c.AudioFFTSize == nil {
		return 1024
	}
	return *c.AudioFFTSize
}

// GetAudioSampleRate returns the microphone sample rate in Hz or the default.
func (c *Tuning) GetAudioSampleRate() float64 {
	if c.AudioSampleRate == nil {
		return 44100
	}
	return *c.AudioSampleRate
}

// GetSpectralInterval returns how many frames elapse between spectral-stage
// runs (the FFT duty cycle) or the default.
func (c *Tuning) GetSpectralInterval() int {
	if c.SpectralInterval == nil {
		return 8
	}
	return *c.SpectralInterval
}

// GetWeightHighpassAlpha returns the A-weighting high-pass coefficient for
// the configured sample rate or the default.
func (c *Tuning) GetWeightHighpassAlpha() float64 {
	if c.WeightHighpassAlpha == nil {
		return 0.9695 // one-pole HP, ~217 Hz corner at 44.1 kHz
	}
	return *c.WeightHighpassAlpha
}

// GetWeightShapingGain returns the fixed shaping-stage gain or the default.
func (c *Tuning) GetWeightShapingGain() float64 {
	if c.WeightShapingGain == nil {
		return 1.15
	}
	return *c.WeightShapingGain
}

// GetShimmerCoupling returns the coefficient of the shimmer-driven dBA
// correction term or the default.
func (c *Tuning) GetShimmerCoupling() float64 {
	if c.ShimmerCoupling == nil {
		return 0.05
	}
	return *c.ShimmerCoupling
}

// GetDBARingSize returns the dBA history length or the default.
func (c *Tuning) GetDBARingSize() int {
	if c.DBARingSize == nil {
		return 40
	}
	return *c.DBARingSize
}

// GetLuxRingSize returns the lux history length or the default.
func (c *Tuning) GetLuxRingSize() int {
	if c.LuxRingSize == nil {
		return 50
	}
	return *c.LuxRingSize
}

// GetDarkLuxThreshold returns the mean-lux value below which the scene is
// classified as dark, or the default.
func (c *Tuning) GetDarkLuxThreshold() float64 {
	if c.DarkLuxThreshold == nil {
		return 5.0
	}
	return *c.DarkLuxThreshold
}

// GetNaturalFlicker returns the flicker index below which light is
// classified as natural, or the default.
func (c *Tuning) GetNaturalFlicker() float64 {
	if c.NaturalFlicker == nil {
		return 0.01
	}
	return *c.NaturalFlicker
}

// GetAmplitudeHighThreshold returns the fault-model high amplitude
// threshold or the default.
func (c *Tuning) GetAmplitudeHighThreshold() float64 {
	if c.AmplitudeHighThreshold == nil {
		return 6.0
	}
	return *c.AmplitudeHighThreshold
}

// GetAmplitudeWarnThreshold returns the fault-model warning amplitude
// threshold or the default.
func (c *Tuning) GetAmplitudeWarnThreshold() float64 {
	if c.AmplitudeWarnThreshold == nil {
		return 2.5
	}
	return *c.AmplitudeWarnThreshold
}

// GetBearingFreqCutoff returns the dominant-frequency cutoff in Hz above
// which high-amplitude faults classify as bearing/gear, or the default.
func (c *Tuning) GetBearingFreqCutoff() float64 {
	if c.BearingFreqCutoff == nil {
		return 120.0
	}
	return *c.BearingFreqCutoff
}

// GetShimmerCritical returns the shimmer level that forces the Critical
// engine state, or the default.
func (c *Tuning) GetShimmerCritical() float64 {
	if c.ShimmerCritical == nil {
		return 9.0
	}
	return *c.ShimmerCritical
}

// GetTonalEntropyThreshold returns the spectral-entropy value below which
// the state classifies as TonalDominance, or the default.
func (c *Tuning) GetTonalEntropyThreshold() float64 {
	if c.TonalEntropyThreshold == nil {
		return 0.45
	}
	return *c.TonalEntropyThreshold
}

// GetGradientScale returns the scale applied to the long-term gradient in
// the gradient TTF model, or the default.
func (c *Tuning) GetGradientScale() float64 {
	if c.GradientScale == nil {
		return 1000.0
	}
	return *c.GradientScale
}

// GetRateRingSize returns the instantaneous-rate history length or the
// default.
func (c *Tuning) GetRateRingSize() int {
	if c.RateRingSize == nil {
		return 20
	}
	return *c.RateRingSize
}

// GetWakeThreshold returns the vibration magnitude in m/s² that counts as
// motion for the eco controller, or the default.
func (c *Tuning) GetWakeThreshold() float64 {
	if c.WakeThreshold == nil {
		return 0.6
	}
	return *c.WakeThreshold
}

// GetEcoTimeout returns the motionless window before the eco transition.
func (c *Tuning) GetEcoTimeout() time.Duration {
	return c.duration(c.EcoTimeout, 30*time.Second)
}

// GetActivePeriod returns the sampling period in the Active state.
func (c *Tuning) GetActivePeriod() time.Duration {
	return c.duration(c.ActivePeriod, 20*time.Millisecond)
}

// GetEcoPeriod returns the sampling period in the Eco state.
func (c *Tuning) GetEcoPeriod() time.Duration {
	return c.duration(c.EcoPeriod, 200*time.Millisecond)
}

// GetUltraPeriod returns the sampling period in the UltraEco state.
func (c *Tuning) GetUltraPeriod() time.Duration {
	return c.duration(c.UltraPeriod, time.Second)
}

func (c *Tuning) duration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}
