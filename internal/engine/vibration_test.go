package engine

import (
	"math"
	"testing"
)

func defaultVibAnalyzer() *vibrationAnalyzer {
	return newVibrationAnalyzer(128, 1.2, 1.8, 4.5, 11.0, 0.99, 0.999)
}

// Zone boundaries belong to the higher zone.
func TestZoneClassification(t *testing.T) {
	a := defaultVibAnalyzer()
	tests := []struct {
		velocity float64
		wantZone Zone
		wantSev  int
	}{
		{0.0, ZoneA, 0},
		{1.79, ZoneA, 0},
		{1.80, ZoneB, 1},
		{1.81, ZoneB, 1},
		{4.49, ZoneB, 1},
		{4.50, ZoneC, 2},
		{4.51, ZoneC, 2},
		{10.99, ZoneC, 2},
		{11.00, ZoneD, 3},
		{11.01, ZoneD, 3},
	}
	for _, tt := range tests {
		zone, sev := a.classify(tt.velocity)
		if zone != tt.wantZone || sev != tt.wantSev {
			t.Errorf("classify(%v) = (%s,%d), want (%s,%d)",
				tt.velocity, zone, sev, tt.wantZone, tt.wantSev)
		}
	}
}

// Shimmer is evaluated against the history mean before the new sample is
// inserted.
func TestShimmerBeforeInsert(t *testing.T) {
	a := defaultVibAnalyzer()

	// First sample: empty ring, shimmer 0.
	s := a.update(Vec3{}, Vec3{Z: 10})
	if s.Shimmer != 0 {
		t.Errorf("first-frame shimmer = %v, want 0", s.Shimmer)
	}

	// Second sample deviates by 2 from the ring mean of 10.
	s = a.update(Vec3{}, Vec3{Z: 12})
	if math.Abs(s.Shimmer-4) > 1e-12 {
		t.Errorf("shimmer = %v, want 4", s.Shimmer)
	}
}

func TestPeakHoldDecay(t *testing.T) {
	a := defaultVibAnalyzer()

	s := a.update(Vec3{X: 3}, Vec3{X: 3})
	if s.Peak != 3 {
		t.Fatalf("peak = %v, want 3", s.Peak)
	}

	// Quiet frame: peak decays by the configured factor.
	s = a.update(Vec3{}, Vec3{})
	if math.Abs(s.Peak-3*0.99) > 1e-12 {
		t.Errorf("decayed peak = %v, want %v", s.Peak, 3*0.99)
	}

	// A new maximum replaces the held peak outright.
	s = a.update(Vec3{X: 5}, Vec3{X: 5})
	if s.Peak != 5 {
		t.Errorf("peak = %v, want 5", s.Peak)
	}
}

func TestGradients(t *testing.T) {
	a := defaultVibAnalyzer()

	// Rising raw magnitude: newest half outweighs the oldest.
	for i := 0; i < 64; i++ {
		a.update(Vec3{}, Vec3{Z: 1})
	}
	var s VibrationSample
	for i := 0; i < 64; i++ {
		s = a.update(Vec3{}, Vec3{Z: 3})
	}
	if s.ShortGradient <= 0 {
		t.Errorf("ShortGradient = %v, want > 0 for rising signal", s.ShortGradient)
	}
	if s.LongGradient <= 0 {
		t.Errorf("LongGradient = %v, want > 0 for rising signal", s.LongGradient)
	}
	// The long-term EMA lags the short-term value.
	if s.LongGradient >= s.ShortGradient {
		t.Errorf("LongGradient %v should lag ShortGradient %v", s.LongGradient, s.ShortGradient)
	}
}

func TestVelocityProxy(t *testing.T) {
	a := defaultVibAnalyzer()
	s := a.update(Vec3{X: 2}, Vec3{X: 2})
	if math.Abs(s.VelocityRMS-2.4) > 1e-12 {
		t.Errorf("VelocityRMS = %v, want 2.4", s.VelocityRMS)
	}
}
