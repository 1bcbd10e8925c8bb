//go:build !rp2040 && !rp2350

// Host simulation: runs the wake-cycle controller against simulated hardware,
// compressing deep sleep into clock jumps so a day of cycles takes a moment.
package main

import (
	"flag"
	"strconv"
	"time"

	"sensornode-go/bufpool"
	"sensornode-go/bus"
	"sensornode-go/config"
	"sensornode-go/crashdiag"
	"sensornode-go/cycle"
	"sensornode-go/platform"
	"sensornode-go/retain"
	"sensornode-go/services/display"
	"sensornode-go/services/netpub"
	"sensornode-go/services/sensor"
	"sensornode-go/types"
)

// printPanel renders to stdout.
type printPanel struct{}

func (printPanel) DrawFull(status, weather []byte) error {
	println("[panel/full]", string(status), "|", string(weather))
	return nil
}

func (printPanel) DrawPartial(status []byte) error {
	println("[panel/partial]", string(status))
	return nil
}

func (printPanel) Busy() bool { return false }

func main() {
	var (
		device  = flag.String("device", "sim", "embedded config profile")
		cfgPath = flag.String("config", "", "YAML file overriding the embedded profile")
		cycles  = flag.Int("cycles", 12, "wake cycles to simulate")
		cache   = flag.String("durable", "", "durable cache file (empty = memory only)")
	)
	flag.Parse()

	cfg, err := config.Load(*device)
	if err != nil {
		println("config:", err.Error())
	}
	if *cfgPath != "" {
		if cfg, err = config.LoadYAMLFile(*cfgPath); err != nil {
			println("config:", err.Error())
		}
	}

	clock := platform.NewFakeClock(time.Now())
	power := &platform.SimPower{OnSleep: func(d time.Duration) { clock.Advance(d) }}
	battery := &platform.SimBattery{S: types.BatteryStatus{Percent: 90, MilliV: 4100}, DrainPerWake: 2}
	reset := &platform.SimResetSource{R: types.ResetPowerOn}

	var durable *platform.FileDurable
	if *cache != "" {
		durable = platform.NewFileDurable(*cache)
	} else {
		durable = platform.NewMemDurable()
	}

	store := retain.New(platform.NewSimRetention(retain.RegionSize))
	diag := crashdiag.New(platform.NewSimRetention(crashdiag.RegionSize), &platform.HostHeap{}, store, crashdiag.LoopConfig{
		MaxCrashes: cfg.Loop.MaxCrashes,
		WindowSec:  cfg.Loop.WindowSec,
	})

	b := bus.NewBus(16)
	pool := bufpool.New()

	simBus := &sensor.SimBus{}
	net := &netpub.SimClient{
		Weather: types.Outside{Temp: -3.2, Humidity: 80, Pressure: 1013.2, IconID: 3},
	}
	netSvc := netpub.New(net, store, b.NewConnection("netpub"), "site/node1/telemetry")

	ctrl := cycle.NewController(cfg, cycle.Deps{
		Clock:     clock,
		Power:     power,
		Battery:   battery,
		Indicator: &platform.PrintIndicator{},
		Reset:     reset,
		Durable:   durable,
		Store:     store,
		Diag:      diag,
		Conn:      b.NewConnection("cycle"),
		Sensor:    sensor.New(sensor.NewDriver(simBus), store, b.NewConnection("sensor")),
		Weather:   netSvc,
		Display: display.New(store, pool, b.NewConnection("display"), printPanel{},
			time.Duration(cfg.Phases.DebounceMs)*time.Millisecond),
		Publisher: netSvc,
	})

	phaseSub := b.NewConnection("main").Subscribe(bus.T("node", "phase"))
	sleepSub := b.NewConnection("main").Subscribe(bus.T("node", "sleep"))

	println("boot")
	for i := 0; i < *cycles; i++ {
		// Drift the environment so redraw decisions and deadbands have work.
		simBus.Set(215+int32(i)*7, 480+int32(i)*3)

		if err := ctrl.RunCycle(); err != nil {
			println("cycle:", err.Error())
			break
		}
		reset.R = types.ResetDeepSleep

		for _, m := range phaseSub.Drain() {
			if e, ok := m.Payload.(types.PhaseEvent); ok {
				println("[phase]", e.Phase, e.Result, strconv.FormatInt(e.ElapsedMs, 10)+"ms")
			}
		}
		for _, m := range sleepSub.Drain() {
			if e, ok := m.Payload.(types.SleepEvent); ok {
				println("[sleep]", strconv.FormatUint(uint64(e.Seconds), 10)+"s", e.Reason)
			}
		}
	}
	stats := pool.Stats()
	println("done: wakes", store.Fields().WakeCount,
		"published", len(net.Published),
		"pool failures", stats.Failures,
		"invalid releases", stats.InvalidReleases)
}
