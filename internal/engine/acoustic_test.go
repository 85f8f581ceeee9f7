package engine

import (
	"math"
	"testing"
)

func tonePCM(n int, freq, sampleRate float64, amplitude int16) []int16 {
	pcm := make([]int16, n)
	for i := range pcm {
		pcm[i] = int16(float64(amplitude) * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return pcm
}

func TestAcousticSilenceGuard(t *testing.T) {
	m := newAcousticMeter(0.9695, 1.15, 0.05, 40)
	dba, _ := m.process(make([]int16, 1024), 0, 0)
	if dba != 0 {
		t.Errorf("silent dBA = %v, want 0 (not -Inf)", dba)
	}
}

func TestAcousticStableToneIsRepeatable(t *testing.T) {
	m := newAcousticMeter(0.9695, 1.15, 0.05, 40)
	pcm := tonePCM(1024, 1000, 44100, 8000)

	var prev float64
	for i := 0; i < 10; i++ {
		dba, _ := m.process(pcm, 0, 0)
		if i > 2 && math.Abs(dba-prev) > 0.01 {
			t.Fatalf("dBA drifted on identical input: %v -> %v", prev, dba)
		}
		prev = dba
	}
	if prev >= 0 {
		t.Errorf("uncalibrated tone level = %v, want negative (below full scale)", prev)
	}
}

func TestAcousticUncertainty(t *testing.T) {
	m := newAcousticMeter(0.9695, 1.15, 0.05, 40)
	pcm := tonePCM(1024, 1000, 44100, 8000)

	_, unc := m.process(pcm, 0, 0)
	if unc != 0 {
		t.Errorf("single-sample uncertainty = %v, want 0", unc)
	}
	for i := 0; i < 10; i++ {
		_, unc = m.process(pcm, 0, 0)
	}
	// Identical blocks after settling: uncertainty collapses near zero.
	if unc > 0.5 {
		t.Errorf("steady-tone uncertainty = %v, want small", unc)
	}
}

func TestAcousticShimmerCorrectionMonotonic(t *testing.T) {
	m := newAcousticMeter(0.9695, 1.15, 0.05, 40)
	if m.correction(0) != 0 {
		t.Error("zero shimmer should add no correction")
	}
	c1 := m.correction(1)
	c2 := m.correction(5)
	c3 := m.correction(50)
	if !(c1 > 0 && c2 > c1 && c3 > c2) {
		t.Errorf("correction not monotonic: %v %v %v", c1, c2, c3)
	}
	if c3 > 1.0 {
		t.Errorf("correction = %v for extreme shimmer, want small", c3)
	}
}

func TestAcousticOffsetShiftsLevel(t *testing.T) {
	m := newAcousticMeter(0.9695, 1.15, 0.05, 40)
	pcm := tonePCM(1024, 1000, 44100, 8000)

	for i := 0; i < 5; i++ {
		m.process(pcm, 0, 0)
	}
	base, _ := m.process(pcm, 0, 0)
	shifted, _ := m.process(pcm, 0, 10)
	if math.Abs(shifted-(base+10)) > 0.05 {
		t.Errorf("offset 10 shifted level by %v, want 10", shifted-base)
	}
}
