package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/et-diagnostics/vibrascope/internal/config"
	"github.com/et-diagnostics/vibrascope/internal/dsp"
)

// Engine is the per-instrument fusion state aggregate: smoothed gravity,
// history rings, spectral snapshots, and the calibration profile. It must
// be driven from one logical caller at a time; the only internal lock
// guards the calibration fields, which a separate control path may update
// between frames.
type Engine struct {
	cfg *config.Tuning

	mu   sync.Mutex // guards cal and the lastCal* snapshot fields
	cal  CalibrationProfile
	lastCalDBA   float64 // most recent dBA, for SetReferenceLevel
	lastCalPitch float64 // most recent raw pitch/roll, for ZeroTilt
	lastCalRoll  float64

	fuser    *orientationFuser
	vib      *vibrationAnalyzer
	acoustic *acousticMeter
	photonic *photonicAnalyzer
	model    FaultModel

	vibFFT   *dsp.FFT
	audioFFT *dsp.FFT

	vibSpectrum   dsp.Analysis
	audioSpectrum dsp.Analysis
	audioSeen     bool

	rateRing      *Ring
	lastTimestamp int64
	frameCount    uint64

	lastLux float64

	audioSampleRate  float64
	spectralInterval int
	fallbackRate     float64
	shimmerCritical  float64
	tonalThreshold   float64
}

// New creates an Engine from the given tuning, with the shipped tiered
// fault model.
func New(cfg *config.Tuning) (*Engine, error) {
	model := NewTieredModel(
		cfg.GetAmplitudeHighThreshold(),
		cfg.GetAmplitudeWarnThreshold(),
		cfg.GetBearingFreqCutoff(),
	)
	return NewWithModel(cfg, model)
}

// NewWithModel creates an Engine with a caller-supplied fault model.
func NewWithModel(cfg *config.Tuning, model FaultModel) (*Engine, error) {
	if cfg == nil {
		cfg = config.EmptyTuning()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine tuning: %w", err)
	}

	vibFFT, err := dsp.NewFFT(cfg.GetVibrationFFTSize())
	if err != nil {
		return nil, fmt.Errorf("vibration fft: %w", err)
	}
	audioFFT, err := dsp.NewFFT(cfg.GetAudioFFTSize())
	if err != nil {
		return nil, fmt.Errorf("audio fft: %w", err)
	}

	return &Engine{
		cfg:   cfg,
		model: model,
		fuser: newOrientationFuser(cfg.GetGravityAlpha(), cfg.GetTiltRingSize()),
		vib: newVibrationAnalyzer(
			cfg.GetVibrationRingSize(),
			cfg.GetVelocityProxyFactor(),
			cfg.GetZoneBThreshold(),
			cfg.GetZoneCThreshold(),
			cfg.GetZoneDThreshold(),
			cfg.GetPeakDecay(),
			cfg.GetLongGradientDecay(),
		),
		acoustic: newAcousticMeter(
			cfg.GetWeightHighpassAlpha(),
			cfg.GetWeightShapingGain(),
			cfg.GetShimmerCoupling(),
			cfg.GetDBARingSize(),
		),
		photonic: newPhotonicAnalyzer(
			cfg.GetLuxRingSize(),
			cfg.GetDarkLuxThreshold(),
			cfg.GetNaturalFlicker(),
		),
		vibFFT:           vibFFT,
		audioFFT:         audioFFT,
		rateRing:         NewRing(cfg.GetRateRingSize()),
		audioSampleRate:  cfg.GetAudioSampleRate(),
		spectralInterval: cfg.GetSpectralInterval(),
		fallbackRate:     float64(time.Second) / float64(cfg.GetActivePeriod()),
		shimmerCritical:  cfg.GetShimmerCritical(),
		tonalThreshold:   cfg.GetTonalEntropyThreshold(),
	}, nil
}

// Process transforms one sensor frame into a diagnostic snapshot. It is
// synchronous and bounded: the spectral stage runs only on its duty cycle,
// and a missed audio handoff simply reuses the prior spectral snapshot.
func (e *Engine) Process(frame SensorFrame) Result {
	res := Result{TimestampNanos: frame.TimestampNanos}

	// Frame rate tracking.
	if e.lastTimestamp != 0 {
		if dt := frame.TimestampNanos - e.lastTimestamp; dt > 0 {
			e.rateRing.Push(float64(time.Second) / float64(dt))
		}
	}
	e.lastTimestamp = frame.TimestampNanos
	res.RealHz = e.rateRing.Mean()

	// Calibration snapshot. Offsets are applied before gravity smoothing.
	e.mu.Lock()
	cal := e.cal
	e.mu.Unlock()

	remapped := Remap(frame.Accel, frame.Rotation)
	calAccel := remapped.Sub(cal.AccelZero)

	_, linear := e.fuser.update(calAccel)
	pitch, roll, tilt := e.fuser.angles(cal.TiltZeroPitch, cal.TiltZeroRoll)
	res.Pitch, res.Roll, res.TiltDegrees = pitch, roll, tilt
	res.TiltConfidence = e.fuser.confidence()

	vs := e.vib.update(linear, calAccel)
	res.VibrationRMS = vs.Magnitude
	res.VibrationPeak = vs.Peak
	res.VelocityRMS = vs.VelocityRMS
	res.Zone = vs.Zone
	res.Severity = vs.Severity
	res.Shimmer = vs.Shimmer

	// Spectral stage on its duty cycle, and only over full-length buffers.
	if e.frameCount%uint64(e.spectralInterval) == 0 {
		e.runSpectral(frame.PCM, res.RealHz)
	}
	e.frameCount++

	dominant := e.vibSpectrum
	if e.audioSeen {
		dominant = e.audioSpectrum
	}
	res.DominantFreq = dominant.DominantFreq
	res.DominantLabel = dominant.Label
	res.SpectralEntropy = dominant.Entropy

	// Acoustic level. No audio is a recoverable condition: the fields hold
	// their last-known (or zero) values.
	if len(frame.PCM) > 0 {
		res.AudioAvailable = true
		res.DBA, res.DBAUncertainty = e.acoustic.process(frame.PCM, vs.Shimmer, cal.SPLOffset)
	} else {
		res.DBA, res.DBAUncertainty = e.acoustic.last()
	}

	if frame.Lux != nil {
		e.lastLux = *frame.Lux
		res.LightSource, _ = e.photonic.update(*frame.Lux, dsp.IsMainsBand(dominant.DominantFreq))
	} else {
		res.LightSource, _ = e.photonic.last()
	}
	res.Lux = e.lastLux

	res.Fault = e.model.Predict(PredictionInput{
		Amplitude:    vs.VelocityRMS,
		Shimmer:      vs.Shimmer,
		LongGradient: vs.LongGradient,
		DominantFreq: dominant.DominantFreq,
	})

	res.State = classifyState(
		vs.Severity,
		vs.Shimmer, e.shimmerCritical,
		dominant.Entropy, e.tonalThreshold,
		dominant.DominantBin > 0,
	)

	// Stash the instantaneous readings the control-path calibration
	// actions baseline against.
	e.mu.Lock()
	e.lastCalDBA = res.DBA
	e.lastCalPitch, e.lastCalRoll = e.fuser.rawAngles()
	e.mu.Unlock()

	return res
}

// runSpectral refreshes the vibration and audio spectral snapshots. A PCM
// block shorter than the FFT length skips the audio path for this frame;
// the prior snapshot is retained.
func (e *Engine) runSpectral(pcm []int16, realHz float64) {
	if e.vib.historyLen() >= e.vibFFT.Size() {
		rate := realHz
		if rate <= 0 {
			rate = e.fallbackRate
		}
		e.vibSpectrum = e.vibFFT.Spectrum(e.vib.history(e.vibFFT.Size()), rate)
	}

	if n := e.audioFFT.Size(); len(pcm) >= n {
		samples := make([]float64, n)
		for i := 0; i < n; i++ {
			samples[i] = float64(pcm[i]) / 32768.0
		}
		e.audioSpectrum = e.audioFFT.Spectrum(samples, e.audioSampleRate)
		e.audioSeen = true
	}
}

// SetCalibration stores the accelerometer and gyroscope zero offsets and
// the SPL offset. accelZero is the resting accelerometer reading; its
// vertical component is corrected by standard gravity so that gravity
// itself stays in the signal.
func (e *Engine) SetCalibration(accelZero, gyroZero Vec3, splOffset float64) {
	accelZero.Z -= StandardGravity

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cal.AccelZero = accelZero
	e.cal.GyroZero = gyroZero
	e.cal.SPLOffset = splOffset
}

// ZeroTilt makes the current orientation read as zero tilt. Before any
// frame has been processed the instantaneous baseline is zero, so the call
// is a no-op rather than an error.
func (e *Engine) ZeroTilt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cal.TiltZeroPitch = e.lastCalPitch
	e.cal.TiltZeroRoll = e.lastCalRoll
}

// SetReferenceLevel recalibrates the SPL offset so the current reading maps
// to targetDb.
func (e *Engine) SetReferenceLevel(targetDb float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cal.SPLOffset = targetDb - (e.lastCalDBA - e.cal.SPLOffset)
}

// Calibration returns a copy of the current calibration profile, for
// persistence collaborators.
func (e *Engine) Calibration() CalibrationProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cal
}

// RestoreCalibration replaces the full calibration profile, e.g. from the
// persisted store at startup.
func (e *Engine) RestoreCalibration(p CalibrationProfile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cal = p
}
