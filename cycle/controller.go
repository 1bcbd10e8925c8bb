// controller.go sequences one wake: classify the boot, run the phases under
// their budgets, decide the sleep interval, persist, power down.
package cycle

import (
	"time"

	"sensornode-go/bus"
	"sensornode-go/config"
	"sensornode-go/crashdiag"
	"sensornode-go/errcode"
	"sensornode-go/platform"
	"sensornode-go/retain"
	"sensornode-go/sleep"
	"sensornode-go/types"
)

var (
	topicPhase = bus.T("node", "phase")
	topicCrash = bus.T("node", "crash")
	topicSleep = bus.T("node", "sleep")
)

// Collaborators are the phase work owners. The controller sequences and
// times them; it never touches a sensor, a panel or a socket itself.
type (
	SensorReader interface {
		Read(ctx *Ctx) (types.Reading, error)
	}
	WeatherFetcher interface {
		FetchWeather(ctx *Ctx) error
	}
	DisplayUpdater interface {
		SetBattery(types.BatteryStatus)
		Update(ctx *Ctx) error
	}
	ReadingPublisher interface {
		PublishReading(ctx *Ctx, r types.Reading, batt types.BatteryStatus) error
	}
)

// Deps wires the controller. Everything is injected; the controller owns no
// hardware and no goroutines.
type Deps struct {
	Clock     platform.Clock
	Power     platform.Power
	Battery   platform.Battery
	Indicator platform.Indicator
	Reset     platform.ResetSource
	Durable   platform.DurableCache
	Store     *retain.Store
	Diag      *crashdiag.Diagnostics
	Conn      *bus.Connection

	Sensor    SensorReader
	Weather   WeatherFetcher
	Display   DisplayUpdater
	Publisher ReadingPublisher
}

type Controller struct {
	cfg config.Config
	d   Deps

	results [PhaseSleep + 1]Result
}

func NewController(cfg config.Config, d Deps) *Controller {
	return &Controller{cfg: cfg, d: d}
}

// Result reports the recorded outcome of a phase from the last cycle.
func (c *Controller) Result(p Phase) Result { return c.results[p] }

// RunCycle executes one complete wake and arms the next one. The phase chain
// never aborts: a failed or timed-out phase records its result and the cycle
// proceeds, because the alternative on battery power is a node that never
// sleeps. The two exceptions escalate to safe mode before any phase work:
// a rapid reset loop and a configuration that fails validation.
func (c *Controller) RunCycle() error {
	wakeStart := c.d.Clock.Now()
	f := c.d.Store.Fields()

	// ---------------------------------------------------------------------
	// INIT
	// ---------------------------------------------------------------------

	loaded := c.d.Store.Load()
	class := c.d.Diag.ClassifyBoot(c.d.Reset.Reason(), wakeStart.Unix())
	if class == crashdiag.BootPowerOn || !loaded {
		c.d.Store.BackfillFromDurable(c.d.Durable)
	}

	if class == crashdiag.BootCrash {
		c.d.Conn.Publish(c.d.Conn.NewMessage(topicCrash, c.d.Diag.FormatReport(), true))
		c.d.Diag.ClearRecord()
	}

	// Breadcrumbs start only after the previous record has been read out.
	c.d.Diag.RecordCrashContext("init")

	if c.d.Diag.IsRapidResetLoop(wakeStart.Unix()) {
		c.enterSafeMode("rapid_reset_loop")
		return errcode.RapidResetLoop
	}
	if err := config.Validate(&c.cfg); err != nil {
		println("config invalid:", err.Error())
		c.enterSafeMode("config_invalid")
		return errcode.ConfigInvalid
	}

	f.WakeCount++
	c.results[PhaseInit] = ResultOK

	batt := c.d.Battery.Status()
	prevSignal := f.LastInsideTemp

	// ---------------------------------------------------------------------
	// SENSOR .. PUBLISH
	// ---------------------------------------------------------------------

	var reading types.Reading
	sensorRes := c.runPhase(PhaseSensor, c.budget(c.cfg.Phases.SensorMs), func(ctx *Ctx) error {
		var err error
		reading, err = c.d.Sensor.Read(ctx)
		return err
	})

	c.runPhase(PhaseNetwork, c.budget(c.cfg.Phases.NetworkFetchMs), func(ctx *Ctx) error {
		return c.d.Weather.FetchWeather(ctx)
	})

	c.runPhase(PhaseDisplay, c.budget(c.cfg.Phases.DisplayMs), func(ctx *Ctx) error {
		c.d.Display.SetBattery(batt)
		return c.d.Display.Update(ctx)
	})

	c.runPhase(PhasePublish, c.budget(c.cfg.Phases.PublishMs), func(ctx *Ctx) error {
		if sensorRes != ResultOK {
			// No fresh sample this wake; stale data is not worth radio time.
			return nil
		}
		return c.d.Publisher.PublishReading(ctx, reading, batt)
	})

	// ---------------------------------------------------------------------
	// SLEEP
	// ---------------------------------------------------------------------

	c.d.Diag.RecordCrashContext("sleep")

	interval := sleep.Interval(c.cfg.Sleep, batt, prevSignal, f.LastInsideTemp, c.cfg.OverrideSleepSec)
	c.d.Conn.Publish(c.d.Conn.NewMessage(topicSleep, sleep.Diagnostics(c.cfg.Sleep, batt, interval), true))
	c.d.Conn.Publish(c.d.Conn.NewMessage(topicSleep, types.SleepEvent{
		Seconds: interval,
		Reason:  c.sleepReason(batt, interval),
	}, false))

	awake := c.d.Clock.Now().Sub(wakeStart)
	f.CumulativeUptimeSec += uint32(awake / time.Second)

	c.d.Store.Persist()
	if f.WakeCount%c.cfg.DurableWriteEvery == 0 {
		if err := c.d.Store.PersistDurable(c.d.Durable); err != nil {
			println("durable write failed:", err.Error())
		}
	}

	c.results[PhaseSleep] = ResultOK
	c.d.Indicator.Set(false)
	c.d.Power.Sleep(time.Duration(interval) * time.Second)
	return nil
}

// runPhase times one phase, maps its error to a result and publishes the
// transition. Budgets are cooperative: the work checks its deadline at safe
// points, so an overrun costs at most one blocking hardware call.
func (c *Controller) runPhase(p Phase, budget time.Duration, fn func(*Ctx) error) Result {
	c.d.Diag.RecordCrashContext(p.String())

	ctx := newCtx(c.d.Clock, p, budget)
	start := ctx.Now()
	err := fn(ctx)

	var res Result
	switch err {
	case nil, errcode.PublishSkipped:
		res = ResultOK
	case ErrBudget:
		res = ResultTimedOut
	default:
		println("phase", p.String(), "failed:", err.Error())
		res = ResultFailed
	}
	c.results[p] = res

	c.d.Conn.Publish(c.d.Conn.NewMessage(topicPhase, types.PhaseEvent{
		Phase:     p.String(),
		Result:    res.String(),
		ElapsedMs: c.d.Clock.Now().Sub(start).Milliseconds(),
	}, true))
	return res
}

func (c *Controller) budget(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// sleepReason names the policy branch for telemetry, by value in decision
// order. Purely cosmetic; the authoritative numbers travel in the diag.
func (c *Controller) sleepReason(batt types.BatteryStatus, chosen uint32) string {
	s := c.cfg.Sleep
	switch {
	case c.cfg.OverrideSleepSec > 0:
		return "override"
	case batt.Valid() && chosen == s.CriticalSec && batt.Percent < int(s.CriticalThresholdPct):
		return "critical_battery"
	case batt.Valid() && chosen == s.LowBatterySec && batt.Percent < int(s.LowThresholdPct):
		return "low_battery"
	case chosen == s.RapidUpdateSec:
		return "rapid_update"
	default:
		return "normal"
	}
}
