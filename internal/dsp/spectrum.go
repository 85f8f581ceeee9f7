package dsp

import "math"

// Frequency bands for labeling, evaluated top-down; first match wins.
const (
	mainsTolerance = 3.0   // Hz around 50/60 mains hum
	motorBandLow   = 20.0  // Hz, rotating machinery fundamentals
	motorBandHigh  = 400.0 // Hz
	humanBandHigh  = 5.0   // Hz, handling / suspension / footfall
)

// Band labels reported alongside the dominant frequency.
const (
	LabelMains50    = "mains-hum-50"
	LabelMains60    = "mains-hum-60"
	LabelMotor      = "motor-fan"
	LabelLowFreq    = "low-freq-motion"
	LabelUnassigned = ""
)

// Analysis is the spectral snapshot produced from one windowed block.
type Analysis struct {
	DominantFreq float64 // Hz
	DominantBin  int
	Entropy      float64 // normalized Shannon entropy in [0,1]
	Label        string
	Magnitudes   []float64 // bins 0..N/2-1; DC retained for inspection
}

// Spectrum windows the sample block, transforms it, and derives dominant
// frequency, band label, and normalized spectral entropy. len(samples)
// must equal the FFT length.
func (f *FFT) Spectrum(samples []float64, sampleRate float64) Analysis {
	n := f.n
	re := make([]float64, n)
	copy(re, samples)
	f.ApplyWindow(re)
	im := make([]float64, n)
	f.Transform(re, im)

	half := n / 2
	mags := make([]float64, half)
	for i := 0; i < half; i++ {
		mags[i] = math.Hypot(re[i], im[i])
	}

	// Peak search over bins 1..N/2-1: DC carries the block offset and the
	// Nyquist bin is aliased, so neither can be a dominant tone.
	bestBin := 0
	bestMag := 0.0
	for i := 1; i < half; i++ {
		if mags[i] > bestMag {
			bestMag = mags[i]
			bestBin = i
		}
	}

	a := Analysis{
		DominantBin: bestBin,
		Magnitudes:  mags,
	}
	if bestBin > 0 {
		a.DominantFreq = float64(bestBin) * sampleRate / float64(n)
		a.Label = LabelFrequency(a.DominantFreq)
	}
	a.Entropy = SpectralEntropy(mags[1:])
	return a
}

// SpectralEntropy computes the Shannon entropy of the magnitude
// distribution, normalized by ln(len(mags)) to bound it in [0,1]. A zero
// total energy yields 0.
func SpectralEntropy(mags []float64) float64 {
	if len(mags) < 2 {
		return 0
	}
	var total float64
	for _, m := range mags {
		total += m
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, m := range mags {
		if m <= 0 {
			continue
		}
		p := m / total
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(len(mags)))
}

// LabelFrequency maps a dominant frequency to a fixed diagnostic band.
// Bands are evaluated in order; the first match wins.
func LabelFrequency(hz float64) string {
	switch {
	case math.Abs(hz-50) <= mainsTolerance:
		return LabelMains50
	case math.Abs(hz-60) <= mainsTolerance:
		return LabelMains60
	case hz >= motorBandLow && hz <= motorBandHigh:
		return LabelMotor
	case hz > 0 && hz < humanBandHigh:
		return LabelLowFreq
	default:
		return LabelUnassigned
	}
}

// IsMainsBand reports whether hz sits in either mains-hum band. The
// photonic analyzer uses this to distinguish grid-driven flicker.
func IsMainsBand(hz float64) bool {
	l := LabelFrequency(hz)
	return l == LabelMains50 || l == LabelMains60
}
