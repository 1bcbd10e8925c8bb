// Package display owns the DISPLAY phase. Pixel rendering and panel
// geometry live behind the Renderer interface; this service decides
// *whether* to redraw (content fingerprints against the retained copy) and
// *how* (partial update, or full refresh to clear e-paper ghosting), then
// waits out the panel's busy signal without ever blocking past the phase
// budget.
package display

import (
	"hash/fnv"
	"strconv"
	"time"

	"sensornode-go/bufpool"
	"sensornode-go/bus"
	"sensornode-go/cycle"
	"sensornode-go/retain"
	"sensornode-go/types"
)

// FullRefreshEvery forces a full refresh after this many partial updates,
// clearing accumulated ghosting.
const FullRefreshEvery = 10

const busyPollInterval = 10 * time.Millisecond

var topicDisplay = bus.T("node", "display")

// Renderer is the out-of-scope panel driver.
type Renderer interface {
	DrawFull(status, weather []byte) error
	DrawPartial(status []byte) error
	// Busy reports whether a refresh is still in flight.
	Busy() bool
}

// Event is published after every DISPLAY phase.
type Event struct {
	Action string `json:"action"` // "full", "partial", "skip"
	TSms   int64  `json:"ts_ms"`
}

type Service struct {
	store    *retain.Store
	pool     *bufpool.Pool
	conn     *bus.Connection
	renderer Renderer
	battery  types.BatteryStatus

	debounce time.Duration
}

func New(store *retain.Store, pool *bufpool.Pool, conn *bus.Connection, r Renderer, debounce time.Duration) *Service {
	return &Service{store: store, pool: pool, conn: conn, renderer: r, debounce: debounce}
}

// SetBattery supplies the gauge reading shown in the status line.
func (s *Service) SetBattery(b types.BatteryStatus) { s.battery = b }

// Update runs the redraw decision and, when content changed, the draw.
func (s *Service) Update(ctx *cycle.Ctx) error {
	// Coalesce rapid external updates before deciding.
	if s.debounce > 0 {
		ctx.Sleep(s.debounce)
	}

	f := s.store.Fields()

	// Scratch for the formatted lines. Pool exhaustion degrades to "skip
	// this cycle's redraw" — the pool counts the failure, nothing is fatal.
	hStatus, status, ok := s.pool.Acquire(bufpool.SmallSize)
	if !ok {
		s.publish("skip", ctx)
		return nil
	}
	defer s.pool.Release(hStatus)
	hWeather, weather, ok := s.pool.Acquire(bufpool.SmallSize)
	if !ok {
		s.publish("skip", ctx)
		return nil
	}
	defer s.pool.Release(hWeather)

	status = appendStatusLine(status, f, s.battery)
	weather = appendWeatherLine(weather, f)

	statusFP := fingerprint(status)
	weatherFP := fingerprint(weather)

	changed := statusFP != f.LastStatusFingerprint || weatherFP != f.LastWeatherFingerprint
	if !changed && !f.NeedsFullRefreshOnBoot {
		s.publish("skip", ctx)
		return nil
	}

	full := f.NeedsFullRefreshOnBoot ||
		f.RenderModeFullOnly ||
		f.PartialUpdateCounter >= FullRefreshEvery-1

	var err error
	if full {
		err = s.renderer.DrawFull(status, weather)
	} else {
		err = s.renderer.DrawPartial(status)
	}
	if err != nil {
		return err
	}

	// Bounded busy-wait for refresh completion.
	for s.renderer.Busy() {
		if ctx.Expired() {
			return cycle.ErrBudget
		}
		ctx.Sleep(busyPollInterval)
	}

	if full {
		f.PartialUpdateCounter = 0
		f.NeedsFullRefreshOnBoot = false
	} else {
		f.PartialUpdateCounter++
	}
	f.LastStatusFingerprint = statusFP
	f.LastWeatherFingerprint = weatherFP

	if full {
		s.publish("full", ctx)
	} else {
		s.publish("partial", ctx)
	}
	return nil
}

func (s *Service) publish(action string, ctx *cycle.Ctx) {
	s.conn.Publish(s.conn.NewMessage(topicDisplay, Event{
		Action: action,
		TSms:   ctx.Now().UnixMilli(),
	}, true))
}

// fingerprint is FNV-1a over the formatted content. Collaborators compare
// fingerprints, never the text, so the format can evolve freely.
func fingerprint(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

// ----------------------------- formatting --------------------------------------

func appendStatusLine(buf []byte, f *retain.Fields, batt types.BatteryStatus) []byte {
	buf = appendTemp(buf, f.LastInsideTemp)
	buf = append(buf, ' ')
	buf = appendHum(buf, f.LastInsideHumidity)
	if batt.Valid() {
		buf = append(buf, " B"...)
		buf = strconv.AppendInt(buf, int64(batt.Percent), 10)
		buf = append(buf, '%')
	}
	return buf
}

func appendWeatherLine(buf []byte, f *retain.Fields) []byte {
	buf = appendTemp(buf, f.LastOutsideTemp)
	buf = append(buf, ' ')
	buf = appendHum(buf, f.LastOutsideHumidity)
	if f.LastIconID != retain.UnsetIcon {
		buf = append(buf, " i"...)
		buf = strconv.AppendInt(buf, int64(f.LastIconID), 10)
	}
	return buf
}

func appendTemp(buf []byte, v float32) []byte {
	if retain.IsUnset(v) {
		return append(buf, "--.-C"...)
	}
	buf = strconv.AppendFloat(buf, float64(v), 'f', 1, 32)
	return append(buf, 'C')
}

func appendHum(buf []byte, v float32) []byte {
	if retain.IsUnset(v) {
		return append(buf, "--%"...)
	}
	buf = strconv.AppendFloat(buf, float64(v), 'f', 0, 32)
	return append(buf, '%')
}
