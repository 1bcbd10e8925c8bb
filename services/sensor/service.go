package sensor

import (
	"time"

	"sensornode-go/bus"
	"sensornode-go/cycle"
	"sensornode-go/retain"
	"sensornode-go/types"
	"sensornode-go/x/timex"
)

var topicReadingInside = bus.T("node", "reading", "inside")

// Service owns the SENSOR phase: trigger, poll-collect within budget, update
// the retained last-observed values, publish the reading.
type Service struct {
	drv   *Driver
	store *retain.Store
	conn  *bus.Connection

	pollInterval time.Duration
}

func New(drv *Driver, store *retain.Store, conn *bus.Connection) *Service {
	return &Service{
		drv:          drv,
		store:        store,
		conn:         conn,
		pollInterval: 15 * time.Millisecond,
	}
}

// Read runs one measurement inside the phase budget. A stuck or silent part
// costs at most the budget: the poll loop re-checks elapsed time on every
// iteration and gives up with ErrBudget.
func (s *Service) Read(ctx *cycle.Ctx) (types.Reading, error) {
	var r types.Reading

	if err := s.drv.Trigger(); err != nil {
		return r, err
	}

	for {
		if ctx.Expired() {
			return r, cycle.ErrBudget
		}
		err := s.drv.Collect(&r.DeciC, &r.DeciRH)
		if err == nil {
			break
		}
		if err != ErrNotReady {
			return r, err
		}
		ctx.Sleep(s.pollInterval)
	}
	r.TSms = timex.NowMs()

	f := s.store.Fields()
	f.LastInsideTemp = r.Celsius()
	f.LastInsideHumidity = r.RelHumidity()

	s.conn.Publish(s.conn.NewMessage(topicReadingInside, r, true))
	return r, nil
}
