package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/et-diagnostics/vibrascope/internal/config"
)

const framePeriod = 20 * time.Millisecond // 50 Hz

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(config.EmptyTuning())
	require.NoError(t, err)
	return e
}

// motionlessFrame is the canonical level, stationary input.
func motionlessFrame(i int) SensorFrame {
	lux := 500.0
	return SensorFrame{
		Accel:          Vec3{0, 0, 9.81},
		Gyro:           &Vec3{},
		Lux:            &lux,
		Rotation:       Rotation0,
		TimestampNanos: int64(i) * int64(framePeriod),
	}
}

// Feeding an identical motionless frame drives the gravity estimate to the
// accel vector and the linear acceleration toward zero within the smoothing
// time constant.
func TestGravityConvergence(t *testing.T) {
	e := newTestEngine(t)

	// Seed gravity away from the true vector, then hold still.
	e.Process(SensorFrame{Accel: Vec3{0, 0, 5}, TimestampNanos: 0})

	var res Result
	for i := 1; i <= 50; i++ {
		res = e.Process(SensorFrame{
			Accel:          Vec3{0, 0, 9.81},
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}

	// alpha=0.8 over 50 frames leaves a residual of 4.81*0.8^50 ≈ 7e-5.
	assert.Less(t, res.VibrationRMS, 1e-3, "linear accel should decay to zero")
	assert.Less(t, res.TiltDegrees, 1e-3)
}

// The documented end-to-end scenario: level, motionless, lit, silent.
func TestEndToEndMotionless(t *testing.T) {
	e := newTestEngine(t)

	var res Result
	for i := 0; i < 50; i++ {
		res = e.Process(motionlessFrame(i))
	}

	assert.InDelta(t, 0.0, res.TiltDegrees, 1e-9)
	assert.InDelta(t, 0.0, res.VibrationRMS, 1e-9)
	assert.Equal(t, ZoneA, res.Zone)
	assert.Equal(t, 0, res.Severity)
	assert.Equal(t, StateBaseline, res.State)
	assert.InDelta(t, 50.0, res.RealHz, 0.5)
	assert.Equal(t, LightNatural, res.LightSource)
	assert.Equal(t, 500.0, res.Lux)
	assert.False(t, res.AudioAvailable)
	assert.Equal(t, StatusHealthy, res.Fault.Status)
}

func TestZeroTilt(t *testing.T) {
	e := newTestEngine(t)

	// Hold the device at a known nonzero tilt.
	tilted := Vec3{0, 3, 9}
	var res Result
	for i := 0; i < 20; i++ {
		res = e.Process(SensorFrame{Accel: tilted, TimestampNanos: int64(i) * int64(framePeriod)})
	}
	wantPitch := math.Atan2(3, 9) * 180 / math.Pi
	require.InDelta(t, wantPitch, res.TiltDegrees, 0.01)

	e.ZeroTilt()

	res = e.Process(SensorFrame{Accel: tilted, TimestampNanos: 21 * int64(framePeriod)})
	assert.InDelta(t, 0.0, res.TiltDegrees, 1e-6, "reading after ZeroTilt should be ~0°")
}

func TestSetReferenceLevel(t *testing.T) {
	e := newTestEngine(t)
	pcm := tonePCM(1024, 1000, 44100, 8000)

	for i := 0; i < 10; i++ {
		e.Process(SensorFrame{
			Accel:          Vec3{0, 0, 9.81},
			PCM:            pcm,
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}

	e.SetReferenceLevel(40)

	res := e.Process(SensorFrame{
		Accel:          Vec3{0, 0, 9.81},
		PCM:            pcm,
		TimestampNanos: 11 * int64(framePeriod),
	})
	assert.InDelta(t, 40.0, res.DBA, 0.2, "reading after SetReferenceLevel(40) should be ~40 dBA")
}

func TestAudioSpectralPath(t *testing.T) {
	e := newTestEngine(t)

	// Tone centered exactly on bin 64 of the 1024-point transform.
	const rate = 44100.0
	freq := 64.0 * rate / 1024.0
	pcm := tonePCM(1024, freq, rate, 12000)

	var res Result
	for i := 0; i < 9; i++ { // crosses at least one duty-cycle frame
		res = e.Process(SensorFrame{
			Accel:          Vec3{0, 0, 9.81},
			PCM:            pcm,
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}

	resolution := rate / 1024.0
	assert.True(t, res.AudioAvailable)
	assert.InDelta(t, freq, res.DominantFreq, resolution)
	assert.GreaterOrEqual(t, res.SpectralEntropy, 0.0)
	assert.LessOrEqual(t, res.SpectralEntropy, 1.0)
}

func TestShortPCMSkipsSpectral(t *testing.T) {
	e := newTestEngine(t)

	res := e.Process(SensorFrame{
		Accel:          Vec3{0, 0, 9.81},
		PCM:            tonePCM(512, 1000, 44100, 8000), // shorter than the FFT
		TimestampNanos: 0,
	})

	// The level meter still runs; the spectral stage retains its prior
	// (empty) snapshot.
	assert.True(t, res.AudioAvailable)
	assert.Equal(t, 0.0, res.DominantFreq)
}

func TestAudioUnavailableKeepsLastReading(t *testing.T) {
	e := newTestEngine(t)
	pcm := tonePCM(1024, 1000, 44100, 8000)

	var withAudio Result
	for i := 0; i < 5; i++ {
		withAudio = e.Process(SensorFrame{
			Accel:          Vec3{0, 0, 9.81},
			PCM:            pcm,
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}
	require.True(t, withAudio.AudioAvailable)
	require.NotZero(t, withAudio.DBA)

	silent := e.Process(SensorFrame{
		Accel:          Vec3{0, 0, 9.81},
		TimestampNanos: 6 * int64(framePeriod),
	})
	assert.False(t, silent.AudioAvailable)
	assert.Equal(t, withAudio.DBA, silent.DBA, "dBA should hold its last-known value")
}

func TestVibrationSpectralPath(t *testing.T) {
	e := newTestEngine(t)

	// 10 Hz vertical oscillation sampled at 50 Hz.
	const vibFreq = 10.0
	var res Result
	for i := 0; i < 200; i++ {
		tSec := float64(i) * framePeriod.Seconds()
		z := 9.81 + 2.0*math.Sin(2*math.Pi*vibFreq*tSec)
		res = e.Process(SensorFrame{
			Accel:          Vec3{0, 0, z},
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}

	// 128-point transform at 50 Hz gives ~0.39 Hz bins.
	assert.InDelta(t, vibFreq, res.DominantFreq, 1.0)
	assert.Less(t, res.SpectralEntropy, 0.6, "periodic excitation should read tonal")
}

func TestSetCalibrationGravityCorrection(t *testing.T) {
	e := newTestEngine(t)

	// Calibrate against a resting reading: only the residual above standard
	// gravity becomes an offset.
	e.SetCalibration(Vec3{0.1, -0.05, 9.81}, Vec3{}, 0)

	cal := e.Calibration()
	assert.InDelta(t, 0.1, cal.AccelZero.X, 1e-12)
	assert.InDelta(t, -0.05, cal.AccelZero.Y, 1e-12)
	assert.InDelta(t, 9.81-StandardGravity, cal.AccelZero.Z, 1e-12)

	// A subsequent resting frame reads as (almost exactly) standard gravity.
	var res Result
	for i := 0; i < 20; i++ {
		res = e.Process(SensorFrame{
			Accel:          Vec3{0.1, -0.05, 9.81},
			TimestampNanos: int64(i) * int64(framePeriod),
		})
	}
	assert.InDelta(t, 0.0, res.TiltDegrees, 0.01)
	assert.InDelta(t, 0.0, res.VibrationRMS, 1e-9)
}

func TestRestoreCalibrationRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	profile := CalibrationProfile{
		AccelZero:     Vec3{0.1, 0.2, 0.3},
		GyroZero:      Vec3{0.01, 0.02, 0.03},
		SPLOffset:     12.5,
		TiltZeroPitch: 1.5,
		TiltZeroRoll:  -0.5,
	}
	e.RestoreCalibration(profile)
	assert.Equal(t, profile, e.Calibration())
}

func TestRotatedFrameTiltMatchesNatural(t *testing.T) {
	e0 := newTestEngine(t)
	e90 := newTestEngine(t)

	// The same physical tilt seen through a rotated display must report the
	// same tilt angle once remapped.
	natural := Vec3{0, 3, 9}
	rotated := Vec3{3, 0, 9} // Remap(rotated, Rotation90) == natural

	var r0, r90 Result
	for i := 0; i < 20; i++ {
		ts := int64(i) * int64(framePeriod)
		r0 = e0.Process(SensorFrame{Accel: natural, Rotation: Rotation0, TimestampNanos: ts})
		r90 = e90.Process(SensorFrame{Accel: rotated, Rotation: Rotation90, TimestampNanos: ts})
	}
	assert.InDelta(t, r0.TiltDegrees, r90.TiltDegrees, 1e-9)
}

func TestTiltConfidence(t *testing.T) {
	e := newTestEngine(t)

	res := e.Process(motionlessFrame(0))
	assert.Equal(t, 0.0, res.TiltConfidence, "fewer than 2 samples yields 0")

	for i := 1; i < 30; i++ {
		res = e.Process(motionlessFrame(i))
	}
	assert.InDelta(t, 0.0, res.TiltConfidence, 1e-9, "steady tilt has ~0 spread")
}

func TestNewRejectsInvalidTuning(t *testing.T) {
	bad := 1.5
	_, err := New(&config.Tuning{GravityAlpha: &bad})
	assert.Error(t, err)
}
