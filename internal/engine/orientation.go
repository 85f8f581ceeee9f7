package engine

import "math"

// orientationFuser tracks the smoothed gravity estimate and derives tilt,
// pitch, and roll. The gravity vector is mutated every frame and never
// reset except on engine restart.
type orientationFuser struct {
	alpha       float64
	gravity     Vec3
	initialized bool
	tiltRing    *Ring
}

func newOrientationFuser(alpha float64, tiltRingSize int) *orientationFuser {
	return &orientationFuser{
		alpha:    alpha,
		tiltRing: NewRing(tiltRingSize),
	}
}

// update folds one calibrated acceleration sample into the gravity estimate
// and returns the new estimate together with the linear (gravity-free)
// acceleration. Calibration must already be applied to cal.
func (f *orientationFuser) update(cal Vec3) (gravity, linear Vec3) {
	if !f.initialized {
		f.gravity = cal
		f.initialized = true
	} else {
		a := f.alpha
		f.gravity = f.gravity.Scale(a).Add(cal.Scale(1 - a))
	}
	return f.gravity, cal.Sub(f.gravity)
}

// angles derives pitch, roll, and the combined tilt angle in degrees from
// the current gravity estimate, minus the stored zero offsets, and records
// the tilt sample for the confidence estimate.
func (f *orientationFuser) angles(zeroPitch, zeroRoll float64) (pitch, roll, tilt float64) {
	g := f.gravity
	pitch = math.Atan2(g.Y, g.Z)*180/math.Pi - zeroPitch
	roll = math.Atan2(-g.X, math.Sqrt(g.Y*g.Y+g.Z*g.Z))*180/math.Pi - zeroRoll
	tilt = math.Hypot(pitch, roll)
	f.tiltRing.Push(tilt)
	return pitch, roll, tilt
}

// rawAngles returns pitch and roll without offsets and without touching the
// tilt history. Used when zeroing the tilt reference.
func (f *orientationFuser) rawAngles() (pitch, roll float64) {
	g := f.gravity
	pitch = math.Atan2(g.Y, g.Z) * 180 / math.Pi
	roll = math.Atan2(-g.X, math.Sqrt(g.Y*g.Y+g.Z*g.Z)) * 180 / math.Pi
	return pitch, roll
}

// confidence is the Bessel-corrected standard deviation of the recent tilt
// history; 0 when fewer than 2 samples exist.
func (f *orientationFuser) confidence() float64 {
	return f.tiltRing.StdDev()
}
