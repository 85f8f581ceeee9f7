package engine

// vibrationAnalyzer tracks instantaneous vibration against the ISO-proxy
// zones plus the shimmer/gradient roughness signals used downstream by the
// acoustic correction and the fault predictor.
type vibrationAnalyzer struct {
	ring *Ring // raw (gravity-inclusive) magnitude history

	proxyFactor float64
	zoneB       float64
	zoneC       float64
	zoneD       float64

	peak      float64
	peakDecay float64

	longGradient float64
	longDecay    float64
}

// VibrationSample is the per-frame vibration measurement set.
type VibrationSample struct {
	Magnitude     float64 // ‖linear accel‖, m/s²
	RawMagnitude  float64 // ‖calibrated accel‖, m/s²
	VelocityRMS   float64 // ISO velocity proxy, mm/s
	Zone          Zone
	Severity      int
	Shimmer       float64
	ShortGradient float64
	LongGradient  float64
	Peak          float64
}

func newVibrationAnalyzer(ringSize int, proxyFactor, zoneB, zoneC, zoneD, peakDecay, longDecay float64) *vibrationAnalyzer {
	return &vibrationAnalyzer{
		ring:        NewRing(ringSize),
		proxyFactor: proxyFactor,
		zoneB:       zoneB,
		zoneC:       zoneC,
		zoneD:       zoneD,
		peakDecay:   peakDecay,
		longDecay:   longDecay,
	}
}

// update folds one frame of linear and calibrated acceleration into the
// analyzer state.
func (a *vibrationAnalyzer) update(linear, cal Vec3) VibrationSample {
	s := VibrationSample{
		Magnitude:    linear.Norm(),
		RawMagnitude: cal.Norm(),
	}

	// Shimmer is the squared deviation from the history mean, evaluated
	// before the new sample enters the ring.
	if a.ring.Len() > 0 {
		d := s.RawMagnitude - a.ring.Mean()
		s.Shimmer = d * d
	}
	a.ring.Push(s.RawMagnitude)

	s.VelocityRMS = s.Magnitude * a.proxyFactor
	s.Zone, s.Severity = a.classify(s.VelocityRMS)

	oldest, newest, half := a.ring.HalfSums()
	if half > 0 {
		s.ShortGradient = (newest - oldest) / float64(half)
	}
	a.longGradient = a.longDecay*a.longGradient + (1-a.longDecay)*s.ShortGradient
	s.LongGradient = a.longGradient

	if s.Magnitude > a.peak {
		a.peak = s.Magnitude
	} else {
		a.peak *= a.peakDecay
	}
	s.Peak = a.peak

	return s
}

// classify maps a velocity proxy to its ISO-proxy zone and severity.
// Thresholds are evaluated strictly descending; a boundary value belongs to
// the higher zone.
func (a *vibrationAnalyzer) classify(velocityRMS float64) (Zone, int) {
	switch {
	case velocityRMS >= a.zoneD:
		return ZoneD, 3
	case velocityRMS >= a.zoneC:
		return ZoneC, 2
	case velocityRMS >= a.zoneB:
		return ZoneB, 1
	default:
		return ZoneA, 0
	}
}

// history returns the newest n raw-magnitude samples oldest-first, for the
// spectral stage.
func (a *vibrationAnalyzer) history(n int) []float64 {
	return a.ring.Tail(n)
}

// historyLen returns the number of stored raw-magnitude samples.
func (a *vibrationAnalyzer) historyLen() int {
	return a.ring.Len()
}
