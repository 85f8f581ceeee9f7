package engine

import (
	"math"
	"testing"
)

func TestRingWrap(t *testing.T) {
	r := NewRing(4)
	for i := 1; i <= 6; i++ {
		r.Push(float64(i))
	}
	if r.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", r.Len())
	}
	got := r.Slice()
	want := []float64{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice() = %v, want %v", got, want)
		}
	}
}

func TestRingPartial(t *testing.T) {
	r := NewRing(8)
	r.Push(2)
	r.Push(4)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if got := r.Mean(); got != 3 {
		t.Errorf("Mean() = %v, want 3", got)
	}
	if got := r.Cap(); got != 8 {
		t.Errorf("Cap() = %v, want 8", got)
	}
}

func TestRingStdDev(t *testing.T) {
	r := NewRing(10)
	if got := r.StdDev(); got != 0 {
		t.Errorf("empty StdDev() = %v, want 0", got)
	}
	r.Push(5)
	if got := r.StdDev(); got != 0 {
		t.Errorf("single-sample StdDev() = %v, want 0", got)
	}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		r.Push(v)
	}
	// Samples 5,2,4,4,4,5,5,7,9: mean 5, sample variance 38/8.
	want := math.Sqrt(38.0 / 8.0)
	if got := r.StdDev(); math.Abs(got-want) > 1e-12 {
		t.Errorf("StdDev() = %v, want %v", got, want)
	}
}

func TestRingHalfSums(t *testing.T) {
	r := NewRing(6)
	for _, v := range []float64{1, 1, 1, 5, 5, 5} {
		r.Push(v)
	}
	oldest, newest, half := r.HalfSums()
	if half != 3 || oldest != 3 || newest != 15 {
		t.Errorf("HalfSums() = (%v,%v,%v), want (3,15,3)", oldest, newest, half)
	}

	// Odd count drops the middle element.
	r2 := NewRing(8)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		r2.Push(v)
	}
	oldest, newest, half = r2.HalfSums()
	if half != 2 || oldest != 3 || newest != 9 {
		t.Errorf("odd HalfSums() = (%v,%v,%v), want (3,9,2)", oldest, newest, half)
	}

	empty := NewRing(4)
	if _, _, half := empty.HalfSums(); half != 0 {
		t.Errorf("empty HalfSums half = %d, want 0", half)
	}
}

func TestRingTail(t *testing.T) {
	r := NewRing(5)
	for i := 1; i <= 7; i++ {
		r.Push(float64(i))
	}
	got := r.Tail(3)
	want := []float64{5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tail(3) = %v, want %v", got, want)
		}
	}
	if n := len(r.Tail(100)); n != 5 {
		t.Errorf("Tail(100) len = %d, want 5", n)
	}
}
