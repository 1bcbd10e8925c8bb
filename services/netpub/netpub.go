// Package netpub owns the NETWORK and PUBLISH phases. The radio, the socket
// stack and the broker protocol live behind the Client interface; this
// service contributes what the transport cannot: bounded reconnects,
// deadband suppression against the retained last-published values, and the
// guarantee that no network stall outlives its phase budget.
package netpub

import (
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sensornode-go/bus"
	"sensornode-go/cycle"
	"sensornode-go/errcode"
	"sensornode-go/retain"
	"sensornode-go/types"
	"sensornode-go/x/mathx"
)

// Deadbands: a new value inside the band of the last published one is noise,
// not news, and is suppressed to save radio-on time.
const (
	DeadbandTempC    = 0.2
	DeadbandHumidity = 1.0
	DeadbandPressure = 0.5
)

var (
	topicWeather = bus.T("node", "weather")
	topicPublish = bus.T("node", "publish")

	// ErrSuppressed marks a publish skipped by the deadband check.
	ErrSuppressed = errcode.PublishSkipped
)

// Client is the out-of-scope transport: radio bring-up, sockets, broker
// session. Calls are expected to return promptly; anything long-running
// belongs behind Pump.
type Client interface {
	Connect() error
	Connected() bool
	// Pump drives the transport state machine, handling at most max pending
	// events, and reports how many it handled.
	Pump(max int) int
	FetchWeather() (types.Outside, error)
	Publish(topic string, payload []byte) error
}

// Sample is the upstream telemetry payload.
type Sample struct {
	TempC       float32 `json:"temp_c"`
	Humidity    float32 `json:"humidity"`
	PressureHPa float32 `json:"pressure_hpa,omitempty"`
	BatteryPct  int     `json:"battery_pct,omitempty"`
	TSms        int64   `json:"ts_ms"`
}

type Service struct {
	client Client
	store  *retain.Store
	conn   *bus.Connection

	upstreamTopic string
	pumpBatch     int

	// pressure from this cycle's weather fetch; NaN until fetched.
	pressure float32
}

func New(client Client, store *retain.Store, conn *bus.Connection, upstreamTopic string) *Service {
	return &Service{
		client:        client,
		store:         store,
		conn:          conn,
		upstreamTopic: upstreamTopic,
		pumpBatch:     8,
		pressure:      retain.UnsetFloat(),
	}
}

// connect brings the transport up with exponential backoff, giving up at the
// phase deadline. Backoff elapsed-time accounting runs on the phase clock so
// simulated time bounds it the same way wall time does.
func (s *Service) connect(ctx *cycle.Ctx) error {
	if s.client.Connected() {
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0 // the phase deadline is the bound
	bo.Clock = clockAdapter{ctx}
	bo.Reset()

	for {
		err := s.client.Connect()
		if err == nil {
			return nil
		}
		if ctx.Expired() {
			return cycle.ErrBudget
		}
		next := bo.NextBackOff()
		if next == backoff.Stop || next > ctx.Remaining() {
			// One short final attempt is pointless; charge it to the budget.
			ctx.Sleep(ctx.Remaining())
			return cycle.ErrBudget
		}
		ctx.Sleep(next)
	}
}

type clockAdapter struct{ ctx *cycle.Ctx }

func (c clockAdapter) Now() time.Time { return c.ctx.Now() }

// FetchWeather runs the NETWORK phase: connect, pump, fetch, retain.
func (s *Service) FetchWeather(ctx *cycle.Ctx) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	s.pump(ctx)

	w, err := s.client.FetchWeather()
	if err != nil {
		return err
	}

	f := s.store.Fields()
	f.LastOutsideTemp = w.Temp
	f.LastOutsideHumidity = w.Humidity
	f.LastIconID = w.IconID
	s.pressure = w.Pressure

	s.conn.Publish(s.conn.NewMessage(topicWeather, w, true))
	return nil
}

// PublishReading runs the PUBLISH phase. Values inside the deadband of the
// last published sample return ErrSuppressed; the retained last-published
// copy advances only on a confirmed send.
func (s *Service) PublishReading(ctx *cycle.Ctx, r types.Reading, batt types.BatteryStatus) error {
	f := s.store.Fields()

	if !worthPublishing(f, r.Celsius(), r.RelHumidity(), s.pressure) {
		s.conn.Publish(s.conn.NewMessage(topicPublish, Event{Action: "suppressed", TSms: r.TSms}, true))
		return ErrSuppressed
	}

	if err := s.connect(ctx); err != nil {
		return err
	}
	s.pump(ctx)

	sample := Sample{TempC: r.Celsius(), Humidity: r.RelHumidity(), TSms: r.TSms}
	if !retain.IsUnset(s.pressure) {
		sample.PressureHPa = s.pressure
	}
	if batt.Valid() {
		sample.BatteryPct = batt.Percent
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	if err := s.client.Publish(s.upstreamTopic, payload); err != nil {
		return err
	}

	f.LastPublishedTemp = sample.TempC
	f.LastPublishedHumidity = sample.Humidity
	if !retain.IsUnset(s.pressure) {
		f.LastPublishedPressure = s.pressure
	}

	s.conn.Publish(s.conn.NewMessage(topicPublish, Event{Action: "sent", TSms: r.TSms}, true))
	return nil
}

// Event is published on the local bus after every PUBLISH phase.
type Event struct {
	Action string `json:"action"` // "sent", "suppressed"
	TSms   int64  `json:"ts_ms"`
}

// worthPublishing is true when any channel moved past its deadband, or when
// nothing has been published yet this power cycle.
func worthPublishing(f *retain.Fields, temp, hum, pressure float32) bool {
	if retain.IsUnset(f.LastPublishedTemp) || retain.IsUnset(f.LastPublishedHumidity) {
		return true
	}
	if mathx.AbsF32(temp-f.LastPublishedTemp) >= DeadbandTempC ||
		mathx.AbsF32(hum-f.LastPublishedHumidity) >= DeadbandHumidity {
		return true
	}
	if !retain.IsUnset(pressure) && !retain.IsUnset(f.LastPublishedPressure) &&
		mathx.AbsF32(pressure-f.LastPublishedPressure) >= DeadbandPressure {
		return true
	}
	return false
}

// pump drains transport events in small batches, re-checking the deadline
// between batches so a chatty link cannot eat the phase.
func (s *Service) pump(ctx *cycle.Ctx) {
	for !ctx.Expired() {
		if s.client.Pump(s.pumpBatch) < s.pumpBatch {
			return
		}
	}
}
