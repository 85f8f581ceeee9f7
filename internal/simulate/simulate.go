// Package simulate produces synthetic sensor frames so the daemon and
// engine can be exercised without instrument hardware. It models a unit
// sitting on a machine: a fixed tilt, a vibration tone riding on gravity,
// a microphone tone, and mains-driven light flicker.
package simulate

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/et-diagnostics/vibrascope/internal/audio"
	"github.com/et-diagnostics/vibrascope/internal/engine"
)

// Scenario describes the synthetic machine under test.
type Scenario struct {
	TiltDegrees   float64 // static tilt about the X axis
	VibFreqHz     float64 // machine vibration tone
	VibAmplitude  float64 // m/s² peak
	NoiseSigma    float64 // accelerometer noise, m/s²
	ToneFreqHz    float64 // microphone tone
	ToneAmplitude float64 // 0..1 of int16 full scale
	PCMBlock      int     // samples per frame, 0 disables audio
	SampleRate    float64 // PCM sample rate
	BaseLux       float64
	LuxFlicker    float64 // relative modulation depth at 2x mains
	MainsHz       float64
}

// Bench is a quiet instrument on a bench under indoor lighting.
func Bench() Scenario {
	return Scenario{
		TiltDegrees: 0,
		NoiseSigma:  0.005,
		BaseLux:     350,
		LuxFlicker:  0.08,
		MainsHz:     50,
	}
}

// WornBearing is a machine with a high-frequency vibration tone and an
// audible whine.
func WornBearing() Scenario {
	return Scenario{
		TiltDegrees:   2,
		VibFreqHz:     12,
		VibAmplitude:  4.0,
		NoiseSigma:    0.05,
		ToneFreqHz:    2756.25,
		ToneAmplitude: 0.3,
		PCMBlock:      1024,
		SampleRate:    44100,
		BaseLux:       350,
		LuxFlicker:    0.08,
		MainsHz:       50,
	}
}

// Source generates frames for a scenario. It is deterministic for a
// given seed.
type Source struct {
	scenario Scenario
	rng      *rand.Rand
	start    time.Time
	pcmPhase float64
}

func NewSource(scenario Scenario, seed int64, start time.Time) *Source {
	return &Source{
		scenario: scenario,
		rng:      rand.New(rand.NewSource(seed)),
		start:    start,
	}
}

// Frame synthesizes the sensor state at time now.
func (s *Source) Frame(now time.Time) engine.SensorFrame {
	sc := s.scenario
	t := now.Sub(s.start).Seconds()

	tilt := sc.TiltDegrees * math.Pi / 180
	gravity := engine.Vec3{
		X: 0,
		Y: engine.StandardGravity * math.Sin(tilt),
		Z: engine.StandardGravity * math.Cos(tilt),
	}

	vib := sc.VibAmplitude * math.Sin(2*math.Pi*sc.VibFreqHz*t)
	accel := gravity.Add(engine.Vec3{
		X: s.rng.NormFloat64() * sc.NoiseSigma,
		Y: s.rng.NormFloat64() * sc.NoiseSigma,
		Z: vib + s.rng.NormFloat64()*sc.NoiseSigma,
	})

	frame := engine.SensorFrame{
		Accel:          accel,
		TimestampNanos: now.UnixNano(),
	}

	if sc.PCMBlock > 0 {
		frame.PCM = s.pcm(sc.PCMBlock)
	}
	if sc.BaseLux > 0 {
		lux := sc.BaseLux * (1 + sc.LuxFlicker*math.Sin(2*math.Pi*2*sc.MainsHz*t))
		frame.Lux = &lux
	}
	return frame
}

// pcm continues the tone across frames so block boundaries stay
// phase-continuous.
func (s *Source) pcm(n int) []int16 {
	sc := s.scenario
	block := make([]int16, n)
	step := 2 * math.Pi * sc.ToneFreqHz / sc.SampleRate
	for i := range block {
		sample := sc.ToneAmplitude * math.Sin(s.pcmPhase)
		block[i] = int16(sample * 32767)
		s.pcmPhase += step
		if s.pcmPhase > 2*math.Pi {
			s.pcmPhase -= 2 * math.Pi
		}
	}
	return block
}

// ToneSource is an audio.Source producing the scenario's microphone tone.
// It paces itself to the PCM sample rate so the capture pump behaves like
// one reading real hardware.
type ToneSource struct {
	scenario Scenario
	phase    float64
}

// NewToneSource returns a capture source for the scenario. Scenarios
// without audio yield audio.ErrUnavailable on the first read.
func NewToneSource(scenario Scenario) *ToneSource {
	return &ToneSource{scenario: scenario}
}

func (t *ToneSource) ReadPCM(ctx context.Context, buf []int16) error {
	sc := t.scenario
	if sc.PCMBlock == 0 || sc.SampleRate == 0 {
		return audio.ErrUnavailable
	}

	blockTime := time.Duration(float64(len(buf)) / sc.SampleRate * float64(time.Second))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(blockTime):
	}

	step := 2 * math.Pi * sc.ToneFreqHz / sc.SampleRate
	for i := range buf {
		buf[i] = int16(sc.ToneAmplitude * math.Sin(t.phase) * 32767)
		t.phase += step
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return nil
}
