package cycle

import (
	"time"

	"sensornode-go/bus"
)

var topicSafeMode = bus.T("node", "safemode")

const blinkInterval = 500 * time.Millisecond

type safeModeEvent struct {
	Reason string `json:"reason"`
}

// enterSafeMode parks the node with the indicator blinking instead of running
// phase work that is already known to be broken. The loop is bounded by the
// configured ceiling and ends in a forced reboot: a human gets a window to
// attach a debugger, and an unattended node still recovers on its own.
func (c *Controller) enterSafeMode(reason string) {
	println("safe mode:", reason)
	c.d.Diag.RecordCrashContext("safemode")
	c.d.Conn.Publish(c.d.Conn.NewMessage(topicSafeMode, safeModeEvent{Reason: reason}, true))

	deadline := c.d.Clock.Now().Add(time.Duration(c.cfg.SafeModeCeilingMs) * time.Millisecond)
	on := false
	for c.d.Clock.Now().Before(deadline) {
		on = !on
		c.d.Indicator.Set(on)
		c.d.Clock.Sleep(blinkInterval)
	}
	c.d.Indicator.Set(false)

	// Reset the loop evidence before rebooting, otherwise the next boot trips
	// the same detector and the node blinks forever.
	f := c.d.Store.Fields()
	f.CrashCount = 0
	c.d.Store.Persist()

	c.d.Power.Reboot()
}
