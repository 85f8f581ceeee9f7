// Package eco schedules the sensor sampling rate. The instrument runs
// handheld on battery; when the operator sets it down the controller
// drops from the active rate to a low-power rate, and an explicit
// ultra-eco request drops it further for long unattended logging.
package eco

import (
	"sync"
	"time"

	"github.com/et-diagnostics/vibrascope/internal/monitoring"
)

// Mode is the current power state of the sampling loop.
type Mode int

const (
	// Active samples at full rate while the instrument is in use.
	Active Mode = iota
	// Eco is entered automatically after a quiet period.
	Eco
	// UltraEco is operator-requested and suppresses automatic
	// transitions until cleared.
	UltraEco
)

func (m Mode) String() string {
	switch m {
	case Active:
		return "active"
	case Eco:
		return "eco"
	case UltraEco:
		return "ultra-eco"
	default:
		return "unknown"
	}
}

// TransitionFunc is invoked once per mode change, never per frame.
type TransitionFunc func(from, to Mode, at time.Time)

// Controller tracks vibration activity and decides the sampling period.
// Observe is called from the frame loop; SetUltraEco and OnTransition
// may be called from a control goroutine.
type Controller struct {
	wakeThreshold float64
	timeout       time.Duration
	activePeriod  time.Duration
	ecoPeriod     time.Duration
	ultraPeriod   time.Duration

	mu         sync.Mutex
	mode       Mode
	lastActive time.Time
	haveSeen   bool
	ultra      bool
	onChange   TransitionFunc
}

// New builds a controller starting in Active mode.
func New(wakeThreshold float64, timeout, activePeriod, ecoPeriod, ultraPeriod time.Duration) *Controller {
	return &Controller{
		wakeThreshold: wakeThreshold,
		timeout:       timeout,
		activePeriod:  activePeriod,
		ecoPeriod:     ecoPeriod,
		ultraPeriod:   ultraPeriod,
		mode:          Active,
	}
}

// OnTransition registers the mode-change callback. The callback runs
// with the controller lock held, so it must not call back in.
func (c *Controller) OnTransition(fn TransitionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Observe feeds one frame's vibration magnitude. Motion above the wake
// threshold restarts the quiet timer and forces Active; sustained quiet
// beyond the timeout enters Eco. The ultra-eco override suspends both.
func (c *Controller) Observe(vibMag float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveSeen {
		c.haveSeen = true
		c.lastActive = now
	}

	if c.ultra {
		return
	}

	if vibMag >= c.wakeThreshold {
		c.lastActive = now
		c.transition(Active, now)
		return
	}

	if c.mode == Active && now.Sub(c.lastActive) >= c.timeout {
		c.transition(Eco, now)
	}
}

// SetUltraEco enables or disables the operator override. Disabling it
// returns to Active and restarts the quiet timer.
func (c *Controller) SetUltraEco(on bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ultra = on
	if on {
		c.transition(UltraEco, now)
		return
	}
	c.lastActive = now
	c.transition(Active, now)
}

// Mode returns the current power state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Period returns the sampling interval for the current state.
func (c *Controller) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Eco:
		return c.ecoPeriod
	case UltraEco:
		return c.ultraPeriod
	default:
		return c.activePeriod
	}
}

// transition is edge-triggered; re-entering the current mode is a no-op.
// Caller holds c.mu.
func (c *Controller) transition(to Mode, at time.Time) {
	if c.mode == to {
		return
	}
	from := c.mode
	c.mode = to
	monitoring.Logf("eco: %s -> %s", from, to)
	if c.onChange != nil {
		c.onChange(from, to, at)
	}
}
