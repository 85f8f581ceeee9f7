// Package dsp implements the fixed-size spectral stage shared by the
// vibration and acoustic paths: an in-place radix-2 FFT, Hann windowing,
// magnitude spectra, spectral entropy, and frequency-band labeling.
package dsp

import (
	"fmt"
	"math"
)

// FFT performs fixed-size radix-2 transforms over equal-length real and
// imaginary slices. The bit-reversal permutation and window coefficients
// are precomputed at construction; Transform allocates nothing and never
// suspends, so a running transform is never preempted (rate limiting is
// the caller's duty cycle).
type FFT struct {
	n      int
	rev    []int
	window []float64
}

// NewFFT creates an FFT of length n. n must be a power of two >= 8.
func NewFFT(n int) (*FFT, error) {
	if n < 8 || n&(n-1) != 0 {
		return nil, fmt.Errorf("fft length must be a power of two >= 8, got %d", n)
	}

	rev := make([]int, n)
	bits := 0
	for 1<<bits < n {
		bits++
	}
	for i := 0; i < n; i++ {
		r := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				r |= 1 << (bits - 1 - b)
			}
		}
		rev[i] = r
	}

	// Hann window. Tapers block edges before the transform to limit
	// spectral leakage from the rectangular cut.
	window := make([]float64, n)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}

	return &FFT{n: n, rev: rev, window: window}, nil
}

// Size returns the transform length.
func (f *FFT) Size() int { return f.n }

// ApplyWindow multiplies samples by the precomputed Hann coefficients in
// place. len(samples) must equal the transform length.
func (f *FFT) ApplyWindow(samples []float64) {
	for i := range samples {
		samples[i] *= f.window[i]
	}
}

// Transform runs the forward FFT in place over re and im. Both slices must
// have the transform length.
func (f *FFT) Transform(re, im []float64) {
	n := f.n

	// Bit-reversal permutation
	for i := 0; i < n; i++ {
		j := f.rev[i]
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	// Butterfly stages
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := -2 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				ang := step * float64(k)
				wr, wi := math.Cos(ang), math.Sin(ang)
				i := start + k
				j := i + half
				tr := wr*re[j] - wi*im[j]
				ti := wr*im[j] + wi*re[j]
				re[j] = re[i] - tr
				im[j] = im[i] - ti
				re[i] += tr
				im[i] += ti
			}
		}
	}
}

// InverseTransform runs the inverse FFT in place via the conjugate method,
// including the 1/N scaling.
func (f *FFT) InverseTransform(re, im []float64) {
	for i := range im {
		im[i] = -im[i]
	}
	f.Transform(re, im)
	inv := 1.0 / float64(f.n)
	for i := range re {
		re[i] *= inv
		im[i] *= -inv
	}
}
