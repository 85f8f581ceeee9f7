package engine

import "math"

// Fault status strings. StatusNoForecast is a sentinel, not an error: the
// gradient model reports it when the trend signals are too weak to
// extrapolate.
const (
	StatusHealthy    = "Healthy"
	StatusBearing    = "Bearing/gear wear"
	StatusImbalance  = "Structural imbalance"
	StatusWarning    = "Early degradation"
	StatusDegrading  = "Degrading trend"
	StatusNoForecast = "no forecast"
)

// PredictionInput carries the current-frame metrics a fault model may use.
type PredictionInput struct {
	Amplitude    float64 // velocity proxy, mm/s
	Shimmer      float64
	LongGradient float64
	DominantFreq float64 // Hz
}

// Prediction is a heuristic fault estimate. TTFHours is only meaningful
// when HasForecast is true.
type Prediction struct {
	Status      string  `json:"status"`
	TTFHours    float64 `json:"ttf_hours"`
	Confidence  float64 `json:"confidence"`
	HasForecast bool    `json:"has_forecast"`
}

// FaultModel turns frame metrics into a fault prediction. The heuristic
// constants are illustrative rather than physically calibrated, so the
// model sits behind this interface and can be swapped without touching the
// rest of the engine.
type FaultModel interface {
	Predict(in PredictionInput) Prediction
}

// TieredModel classifies by amplitude thresholds and dominant-frequency
// band: high amplitude at high frequency reads as bearing/gear wear, high
// amplitude at low frequency as structural imbalance, moderate amplitude as
// an early warning, anything else as healthy.
type TieredModel struct {
	HighAmplitude float64 // mm/s
	WarnAmplitude float64 // mm/s
	FreqCutoff    float64 // Hz

	// Base lifetimes in hours and decay constants per mm/s of excess
	// amplitude.
	BearingBaseHours    float64
	BearingDecay        float64
	ImbalanceBaseHours  float64
	ImbalanceDecay      float64
	WarningBaseHours    float64
	WarningDecay        float64
}

// NewTieredModel returns a TieredModel with the shipped heuristic
// constants.
func NewTieredModel(highAmp, warnAmp, freqCutoff float64) *TieredModel {
	return &TieredModel{
		HighAmplitude:      highAmp,
		WarnAmplitude:      warnAmp,
		FreqCutoff:         freqCutoff,
		BearingBaseHours:   120,
		BearingDecay:       0.35,
		ImbalanceBaseHours: 600,
		ImbalanceDecay:     0.08,
		WarningBaseHours:   2000,
		WarningDecay:       0.03,
	}
}

// Predict evaluates the tiers strictly descending.
func (m *TieredModel) Predict(in PredictionInput) Prediction {
	switch {
	case in.Amplitude >= m.HighAmplitude && in.DominantFreq >= m.FreqCutoff:
		excess := in.Amplitude - m.HighAmplitude
		return Prediction{
			Status:      StatusBearing,
			TTFHours:    m.BearingBaseHours * math.Exp(-m.BearingDecay*excess),
			Confidence:  math.Min(0.98, 0.60+0.08*excess),
			HasForecast: true,
		}
	case in.Amplitude >= m.HighAmplitude:
		excess := in.Amplitude - m.HighAmplitude
		return Prediction{
			Status:      StatusImbalance,
			TTFHours:    m.ImbalanceBaseHours * math.Exp(-m.ImbalanceDecay*excess),
			Confidence:  math.Min(0.90, 0.45+0.05*excess),
			HasForecast: true,
		}
	case in.Amplitude >= m.WarnAmplitude:
		excess := in.Amplitude - m.WarnAmplitude
		return Prediction{
			Status:      StatusWarning,
			TTFHours:    m.WarningBaseHours * math.Exp(-m.WarningDecay*excess),
			Confidence:  0.25,
			HasForecast: true,
		}
	default:
		return Prediction{Status: StatusHealthy, Confidence: 0.02}
	}
}

// GradientModel is the alternate simpler family: it extrapolates time to
// failure from the long-term vibration trend, reporting the no-forecast
// sentinel when either signal is below epsilon.
type GradientModel struct {
	Scale   float64
	Epsilon float64
}

// NewGradientModel returns a GradientModel with the given trend scale.
func NewGradientModel(scale float64) *GradientModel {
	return &GradientModel{Scale: scale, Epsilon: 1e-6}
}

// Predict computes ttf = ln(1/shimmer) / (longGradient * scale).
func (m *GradientModel) Predict(in PredictionInput) Prediction {
	if in.Shimmer <= m.Epsilon || in.LongGradient <= m.Epsilon {
		return Prediction{Status: StatusNoForecast}
	}
	ttf := math.Log(1/in.Shimmer) / (in.LongGradient * m.Scale)
	if ttf < 0 {
		ttf = 0
	}
	return Prediction{
		Status:      StatusDegrading,
		TTFHours:    ttf,
		Confidence:  0.5,
		HasForecast: true,
	}
}

// classifyState maps current-frame metrics to the engine state tag.
// Guards are evaluated in priority order; the order is part of the
// contract. The tonal check only applies once a spectrum with energy has
// been observed.
func classifyState(severity int, shimmer, shimmerCritical, entropy, tonalThreshold float64, spectrumValid bool) State {
	switch {
	case severity >= 3 || shimmer >= shimmerCritical:
		return StateCritical
	case spectrumValid && entropy < tonalThreshold:
		return StateTonalDominance
	case severity >= 1:
		return StateDescriptor
	default:
		return StateBaseline
	}
}
