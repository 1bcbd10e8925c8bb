//go:build rp2040 || rp2350

// Device entry point for the pico-node board: AHT20 on I2C0, status LED as
// the indicator, USB CDC plus UART0 for logs.
package main

import (
	"machine"
	"time"

	"sensornode-go/bufpool"
	"sensornode-go/bus"
	"sensornode-go/config"
	"sensornode-go/crashdiag"
	"sensornode-go/cycle"
	"sensornode-go/errcode"
	"sensornode-go/platform"
	"sensornode-go/retain"
	"sensornode-go/services/display"
	"sensornode-go/services/netpub"
	"sensornode-go/services/sensor"
	"sensornode-go/types"
)

// consolePanel logs render calls until the e-paper driver is wired in.
type consolePanel struct{}

func (consolePanel) DrawFull(status, weather []byte) error {
	println("[panel/full]", string(status), "|", string(weather))
	return nil
}

func (consolePanel) DrawPartial(status []byte) error {
	println("[panel/partial]", string(status))
	return nil
}

func (consolePanel) Busy() bool { return false }

// offlineClient stands in until a radio is fitted. Every call reports
// unsupported; the controller records the phases as failed and moves on.
type offlineClient struct{}

func (offlineClient) Connect() error   { return errcode.Unsupported }
func (offlineClient) Connected() bool  { return false }
func (offlineClient) Pump(max int) int { return 0 }
func (offlineClient) FetchWeather() (types.Outside, error) {
	return types.Outside{}, errcode.Unsupported
}
func (offlineClient) Publish(topic string, payload []byte) error { return errcode.Unsupported }

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(3 * time.Second)
	println("boot")

	dbg := platform.DebugUART(115200, 0, 1)
	dbg.Write([]byte("sensornode: console up\r\n"))

	_ = machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 400_000,
	})

	cfg, err := config.Load("pico-node")
	if err != nil {
		println("config:", err.Error())
	}

	store := retain.New(platform.NewRetention(retain.RegionSize))
	diag := crashdiag.New(platform.NewRetention(crashdiag.RegionSize), platform.NewHeap(), store, crashdiag.LoopConfig{
		MaxCrashes: cfg.Loop.MaxCrashes,
		WindowSec:  cfg.Loop.WindowSec,
	})

	b := bus.NewBus(8)
	netSvc := netpub.New(offlineClient{}, store, b.NewConnection("netpub"), "site/node1/telemetry")

	ctrl := cycle.NewController(cfg, cycle.Deps{
		Clock:     platform.NewClock(),
		Power:     platform.NewPower(),
		Battery:   platform.NewBattery(),
		Indicator: platform.NewIndicator(),
		Reset:     platform.NewResetSource(),
		Durable:   platform.NewDurable(),
		Store:     store,
		Diag:      diag,
		Conn:      b.NewConnection("cycle"),
		Sensor:    sensor.New(sensor.NewDriver(machine.I2C0), store, b.NewConnection("sensor")),
		Weather:   netSvc,
		Display: display.New(store, bufpool.New(), b.NewConnection("display"), consolePanel{},
			time.Duration(cfg.Phases.DebounceMs)*time.Millisecond),
		Publisher: netSvc,
	})

	for {
		if err := ctrl.RunCycle(); err != nil {
			// Safe mode already rebooted unless we are on a host-like power
			// implementation; park to be safe.
			println("cycle:", err.Error())
			time.Sleep(time.Minute)
		}
	}
}
