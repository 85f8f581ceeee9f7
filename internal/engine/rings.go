package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Ring is a fixed-capacity circular buffer for float64 samples. It wraps
// modulo capacity, overwriting the oldest entry. Single writer only: the
// engine frame path owns every ring, so no locking is needed.
type Ring struct {
	data []float64
	pos  int
	full bool
}

// NewRing creates a Ring with the given capacity.
func NewRing(capacity int) *Ring {
	return &Ring{data: make([]float64, capacity)}
}

// Push appends a value, overwriting the oldest entry when full.
func (r *Ring) Push(v float64) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of stored samples.
func (r *Ring) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Slice returns the contents oldest-first. The result is a copy.
func (r *Ring) Slice() []float64 {
	n := r.Len()
	out := make([]float64, n)
	if r.full {
		copy(out, r.data[r.pos:])
		copy(out[len(r.data)-r.pos:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}

// Tail returns the newest n samples oldest-first. If fewer than n samples
// exist, all of them are returned.
func (r *Ring) Tail(n int) []float64 {
	s := r.Slice()
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

// Mean returns the arithmetic mean, or 0 when empty.
func (r *Ring) Mean() float64 {
	if r.Len() == 0 {
		return 0
	}
	return stat.Mean(r.Slice(), nil)
}

// StdDev returns the Bessel-corrected (n-1) sample standard deviation, or 0
// when fewer than 2 samples exist.
func (r *Ring) StdDev() float64 {
	if r.Len() < 2 {
		return 0
	}
	return stat.StdDev(r.Slice(), nil)
}

// PopStdDev returns the population (n divisor) standard deviation, or 0
// when empty.
func (r *Ring) PopStdDev() float64 {
	if r.Len() < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(r.Slice(), nil))
}

// HalfSums splits the stored samples into the oldest and newest halves and
// returns their sums together with the half length. An odd sample drops the
// middle element. half is 0 when fewer than 2 samples exist.
func (r *Ring) HalfSums() (oldest, newest float64, half int) {
	s := r.Slice()
	half = len(s) / 2
	if half == 0 {
		return 0, 0, 0
	}
	for _, v := range s[:half] {
		oldest += v
	}
	for _, v := range s[len(s)-half:] {
		newest += v
	}
	return oldest, newest, half
}
