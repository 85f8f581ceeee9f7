package eco

import (
	"testing"
	"time"
)

func newTestController() *Controller {
	return New(0.6, 30*time.Second, 20*time.Millisecond, 200*time.Millisecond, time.Second)
}

func TestStartsActive(t *testing.T) {
	c := newTestController()
	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active", c.Mode())
	}
	if c.Period() != 20*time.Millisecond {
		t.Errorf("Period() = %v, want 20ms", c.Period())
	}
}

func TestQuietPeriodEntersEco(t *testing.T) {
	c := newTestController()
	start := time.Unix(1000, 0)

	var transitions []Mode
	c.OnTransition(func(from, to Mode, at time.Time) {
		transitions = append(transitions, to)
	})

	// 60 seconds of stillness at 1 Hz, well past the 30 s timeout.
	for i := 0; i <= 60; i++ {
		c.Observe(0.1, start.Add(time.Duration(i)*time.Second))
	}

	if c.Mode() != Eco {
		t.Fatalf("Mode() = %v, want Eco", c.Mode())
	}
	if c.Period() != 200*time.Millisecond {
		t.Errorf("Period() = %v, want 200ms", c.Period())
	}
	// Edge-triggered: one transition event, not one per frame.
	if len(transitions) != 1 || transitions[0] != Eco {
		t.Errorf("transitions = %v, want exactly [Eco]", transitions)
	}
}

func TestSustainedMotionStaysActive(t *testing.T) {
	c := newTestController()
	start := time.Unix(1000, 0)

	count := 0
	c.OnTransition(func(from, to Mode, at time.Time) { count++ })

	for i := 0; i <= 120; i++ {
		c.Observe(1.5, start.Add(time.Duration(i)*time.Second))
	}

	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active", c.Mode())
	}
	if count != 0 {
		t.Errorf("saw %d transitions, want 0", count)
	}
}

func TestMotionWakesFromEco(t *testing.T) {
	c := newTestController()
	start := time.Unix(1000, 0)

	for i := 0; i <= 40; i++ {
		c.Observe(0.0, start.Add(time.Duration(i)*time.Second))
	}
	if c.Mode() != Eco {
		t.Fatalf("precondition failed: Mode() = %v, want Eco", c.Mode())
	}

	c.Observe(2.0, start.Add(41*time.Second))
	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active after motion", c.Mode())
	}

	// The quiet timer restarted; another frame just below the window
	// keeps Active.
	c.Observe(0.0, start.Add(41*time.Second).Add(29*time.Second))
	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active before timeout elapses", c.Mode())
	}
}

func TestWakeThresholdBoundary(t *testing.T) {
	c := newTestController()
	start := time.Unix(1000, 0)

	// Exactly at the threshold counts as motion.
	c.Observe(0.6, start)
	c.Observe(0.6, start.Add(45*time.Second))
	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active at threshold", c.Mode())
	}
}

func TestUltraEcoOverride(t *testing.T) {
	c := newTestController()
	start := time.Unix(1000, 0)

	c.SetUltraEco(true, start)
	if c.Mode() != UltraEco {
		t.Fatalf("Mode() = %v, want UltraEco", c.Mode())
	}
	if c.Period() != time.Second {
		t.Errorf("Period() = %v, want 1s", c.Period())
	}

	// Motion does not break the override.
	c.Observe(5.0, start.Add(time.Second))
	if c.Mode() != UltraEco {
		t.Errorf("Mode() = %v, want UltraEco despite motion", c.Mode())
	}

	// Clearing the override returns to Active with a fresh quiet timer.
	c.SetUltraEco(false, start.Add(2*time.Second))
	if c.Mode() != Active {
		t.Errorf("Mode() = %v, want Active after clearing override", c.Mode())
	}
	c.Observe(0.0, start.Add(2*time.Second).Add(29*time.Second))
	if c.Mode() != Active {
		t.Errorf("quiet timer did not restart on override clear")
	}
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		Active:   "active",
		Eco:      "eco",
		UltraEco: "ultra-eco",
		Mode(99): "unknown",
	} {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}
