// services/sensor/sensor_test.go
package sensor

import (
	"errors"
	"testing"
	"time"

	"sensornode-go/bus"
	"sensornode-go/cycle"
	"sensornode-go/platform"
	"sensornode-go/retain"
)

func newService(simBus *SimBus) (*Service, *retain.Store, *bus.Subscription) {
	store := retain.New(platform.NewSimRetention(retain.RegionSize))
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(bus.T("node", "reading", "inside"))
	return New(NewDriver(simBus), store, conn), store, sub
}

func TestReadHappyPath(t *testing.T) {
	sim := &SimBus{BusyPolls: 2}
	sim.Set(215, 480)
	svc, store, sub := newService(sim)

	clock := platform.NewFakeClock(time.Unix(0, 0))
	ctx := cycle.NewTestCtx(clock, cycle.PhaseSensor, 2500*time.Millisecond)

	r, err := svc.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.DeciC != 215 || r.DeciRH != 480 {
		t.Errorf("reading = %d/%d, want 215/480", r.DeciC, r.DeciRH)
	}

	f := store.Fields()
	if f.LastInsideTemp != 21.5 || f.LastInsideHumidity != 48.0 {
		t.Errorf("retained = %v/%v", f.LastInsideTemp, f.LastInsideHumidity)
	}

	select {
	case m := <-sub.Channel():
		if !m.Retained {
			t.Error("reading should publish retained")
		}
	default:
		t.Error("no reading published")
	}
}

func TestReadStuckSensorHitsBudget(t *testing.T) {
	sim := &SimBus{Stuck: true}
	svc, store, _ := newService(sim)

	clock := platform.NewFakeClock(time.Unix(0, 0))
	ctx := cycle.NewTestCtx(clock, cycle.PhaseSensor, 500*time.Millisecond)

	_, err := svc.Read(ctx)
	if err != cycle.ErrBudget {
		t.Fatalf("err = %v, want ErrBudget", err)
	}
	// The clock only advances via cooperative sleeps, so reaching here at
	// all proves the poll loop checks the deadline.
	if got := clock.Now().Sub(time.Unix(0, 0)); got < 500*time.Millisecond {
		t.Errorf("gave up after %v, before the budget elapsed", got)
	}
	if !retain.IsUnset(store.Fields().LastInsideTemp) {
		t.Error("failed read must not touch retained values")
	}
}

func TestReadBusError(t *testing.T) {
	boom := errors.New("i2c: no ack")
	sim := &SimBus{Fail: boom}
	svc, _, _ := newService(sim)

	clock := platform.NewFakeClock(time.Unix(0, 0))
	ctx := cycle.NewTestCtx(clock, cycle.PhaseSensor, time.Second)

	if _, err := svc.Read(ctx); err != boom {
		t.Fatalf("err = %v, want bus error", err)
	}
}

func TestDriverRoundTripValues(t *testing.T) {
	cases := []struct{ deciC, deciRH int32 }{
		{0, 0}, {215, 480}, {-400, 998}, {850, 1}, {-1, 999},
	}
	for _, c := range cases {
		sim := &SimBus{}
		sim.Set(c.deciC, c.deciRH)
		d := NewDriver(sim)
		if err := d.Trigger(); err != nil {
			t.Fatal(err)
		}
		var gotC, gotRH int32
		if err := d.Collect(&gotC, &gotRH); err != nil {
			t.Fatal(err)
		}
		if gotC != c.deciC || gotRH != c.deciRH {
			t.Errorf("round trip %d/%d -> %d/%d", c.deciC, c.deciRH, gotC, gotRH)
		}
	}
}
