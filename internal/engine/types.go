// Package engine implements the sensor-fusion and diagnostic core of the
// instrument: orientation/gravity fusion, vibration severity against an
// industrial-standard proxy, an A-weighted acoustic level meter, lux
// flicker analysis, and heuristic fault prediction. The engine is a pure,
// synchronous frame transform: it performs no device I/O, rendering, or
// persistence.
package engine

import "math"

// StandardGravity is standard gravitational acceleration in m/s².
const StandardGravity = 9.80665

// Vec3 is a 3-axis sensor vector.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Norm returns the Euclidean magnitude of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Rotation is the display rotation of the device relative to its sensors.
type Rotation int

// Display rotations.
const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Remap applies the fixed axis permutation for the given display rotation
// so that the reported axes track the screen, not the chip.
func Remap(v Vec3, r Rotation) Vec3 {
	switch r {
	case Rotation90:
		return Vec3{-v.Y, v.X, v.Z}
	case Rotation180:
		return Vec3{-v.X, -v.Y, v.Z}
	case Rotation270:
		return Vec3{v.Y, -v.X, v.Z}
	default:
		return v
	}
}

// SensorFrame is one raw input sample set. Gyro, PCM, and Lux are optional;
// TimestampNanos must come from a monotonic clock.
type SensorFrame struct {
	Accel          Vec3      // m/s²
	Gyro           *Vec3     // rad/s, optional
	PCM            []int16   // raw microphone block, optional
	Lux            *float64  // ambient light, optional
	Rotation       Rotation
	TimestampNanos int64
}

// CalibrationProfile holds the zero offsets set by explicit calibration
// actions. It persists across frames until replaced and is owned
// exclusively by the engine instance.
type CalibrationProfile struct {
	AccelZero     Vec3    `json:"accel_zero"`
	GyroZero      Vec3    `json:"gyro_zero"`
	SPLOffset     float64 `json:"spl_offset"`
	TiltZeroPitch float64 `json:"tilt_zero_pitch"`
	TiltZeroRoll  float64 `json:"tilt_zero_roll"`
}

// Zone is the coarse ISO-proxy vibration severity classification.
type Zone string

// Severity zones, good to unacceptable.
const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
	ZoneD Zone = "D"
)

// State is the per-frame engine condition tag, ordered by escalating
// severity. It is a pure function of current-frame metrics; any persistence
// comes only from the smoothing applied upstream.
type State int

// Engine states.
const (
	StateBaseline State = iota
	StateDescriptor
	StateTonalDominance
	StateCritical
)

func (s State) String() string {
	switch s {
	case StateBaseline:
		return "Baseline"
	case StateDescriptor:
		return "Descriptor"
	case StateTonalDominance:
		return "TonalDominance"
	case StateCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Result is the immutable per-frame diagnostic snapshot.
type Result struct {
	TimestampNanos int64   `json:"timestamp_nanos"`
	RealHz         float64 `json:"real_hz"`

	TiltDegrees    float64 `json:"tilt_degrees"`
	TiltConfidence float64 `json:"tilt_confidence"`
	Pitch          float64 `json:"pitch"`
	Roll           float64 `json:"roll"`

	VibrationRMS  float64 `json:"vibration_rms"`  // m/s²
	VibrationPeak float64 `json:"vibration_peak"` // m/s², decaying peak hold
	VelocityRMS   float64 `json:"velocity_rms"`   // mm/s ISO proxy
	Zone          Zone    `json:"zone"`
	Severity      int     `json:"severity"`
	Shimmer       float64 `json:"shimmer"`

	DBA            float64 `json:"dba"`
	DBAUncertainty float64 `json:"dba_uncertainty"`
	AudioAvailable bool    `json:"audio_available"`

	Lux         float64 `json:"lux"`
	LightSource string  `json:"light_source"`

	DominantFreq    float64 `json:"dominant_freq"`
	DominantLabel   string  `json:"dominant_label"`
	SpectralEntropy float64 `json:"spectral_entropy"`

	Fault Prediction `json:"fault"`
	State State      `json:"state"`
}
