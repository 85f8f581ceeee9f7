package engine

import "math"

// splEpsilon keeps the log argument positive when the weighted RMS is tiny
// but nonzero.
const splEpsilon = 1e-9

// acousticMeter approximates an A-weighted sound level meter: a one-pole
// high-pass stage followed by a fixed-gain shaping stage, applied sample by
// sample, then a calibrated log level. Filter state persists across
// buffers so consecutive blocks form one continuous stream. The SPL
// calibration offset lives in the CalibrationProfile and is handed in per
// block, keeping the offset read inside the frame's calibration snapshot.
type acousticMeter struct {
	hpAlpha  float64
	gain     float64
	coupling float64

	hpPrevIn  float64
	hpPrevOut float64

	ring    *Ring // recent dBA readings for the uncertainty estimate
	lastDBA float64
	lastUnc float64
}

func newAcousticMeter(hpAlpha, gain, coupling float64, ringSize int) *acousticMeter {
	return &acousticMeter{
		hpAlpha:  hpAlpha,
		gain:     gain,
		coupling: coupling,
		ring:     NewRing(ringSize),
	}
}

// process weights the PCM block and computes the calibrated dBA plus its
// uncertainty. shimmer drives the cross-domain correction term: strong
// case vibration leaks into the microphone reading, so the level is nudged
// by a small monotonic function of it.
func (m *acousticMeter) process(pcm []int16, shimmer, splOffset float64) (dba, uncertainty float64) {
	var sumSq float64
	for _, s := range pcm {
		v := float64(s) / 32768.0
		hp := m.hpAlpha * (m.hpPrevOut + v - m.hpPrevIn)
		m.hpPrevIn = v
		m.hpPrevOut = hp
		w := hp * m.gain
		sumSq += w * w
	}

	rms := math.Sqrt(sumSq / float64(len(pcm)))
	if rms == 0 {
		// Silence guard: 0 instead of negative infinity.
		dba = 0
	} else {
		raw := 20 * math.Log10(rms+splEpsilon)
		dba = raw + splOffset + m.correction(shimmer)
	}

	m.lastDBA = dba
	m.ring.Push(dba)
	m.lastUnc = m.ring.StdDev()
	return dba, m.lastUnc
}

// correction is the shimmer-coupled term added to the level. ln(1+x) keeps
// it small and monotonic.
func (m *acousticMeter) correction(shimmer float64) float64 {
	if shimmer <= 0 {
		return 0
	}
	return m.coupling * math.Log1p(shimmer)
}

// last returns the most recent dBA reading and uncertainty, for frames with
// no audio.
func (m *acousticMeter) last() (dba, uncertainty float64) {
	return m.lastDBA, m.lastUnc
}
