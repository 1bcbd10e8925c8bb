package cycle

import (
	"time"

	"sensornode-go/errcode"
	"sensornode-go/platform"
)

// Phase is one stage of the wake cycle. Order is fixed; Sleep is terminal.
type Phase uint8

const (
	PhaseInit Phase = iota
	PhaseSensor
	PhaseNetwork
	PhaseDisplay
	PhasePublish
	PhaseSleep
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseSensor:
		return "sensor"
	case PhaseNetwork:
		return "network"
	case PhaseDisplay:
		return "display"
	case PhasePublish:
		return "publish"
	case PhaseSleep:
		return "sleep"
	default:
		return "invalid"
	}
}

// Result is the per-phase outcome. Nothing throws across a phase boundary;
// the controller always proceeds.
type Result uint8

const (
	ResultOK Result = iota
	ResultTimedOut
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// ErrBudget is returned by cooperative work that noticed its budget ran out.
// The controller records it as ResultTimedOut, not ResultFailed.
var ErrBudget error = errcode.Timeout

// Ctx hands a phase its budget. Work functions are not preempted: they must
// check Expired at safe points and unwind themselves, releasing anything
// they acquired on the way out.
type Ctx struct {
	clock    platform.Clock
	phase    Phase
	deadline time.Time
}

func newCtx(clock platform.Clock, phase Phase, budget time.Duration) *Ctx {
	return &Ctx{clock: clock, phase: phase, deadline: clock.Now().Add(budget)}
}

func (c *Ctx) Phase() Phase { return c.phase }

// Expired reports whether the phase budget has elapsed.
func (c *Ctx) Expired() bool { return !c.clock.Now().Before(c.deadline) }

// Remaining is the budget left; zero when expired.
func (c *Ctx) Remaining() time.Duration {
	d := c.deadline.Sub(c.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Sleep pauses cooperatively, never past the deadline.
func (c *Ctx) Sleep(d time.Duration) {
	if r := c.Remaining(); d > r {
		d = r
	}
	if d > 0 {
		c.clock.Sleep(d)
	}
}

// Now exposes the controller clock to phase work.
func (c *Ctx) Now() time.Time { return c.clock.Now() }

// NewTestCtx builds a phase context outside the controller, for collaborator
// tests.
func NewTestCtx(clock platform.Clock, phase Phase, budget time.Duration) *Ctx {
	return newCtx(clock, phase, budget)
}
