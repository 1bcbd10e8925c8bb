package netpub

import (
	"errors"

	"sensornode-go/types"
)

var errNoLink = errors.New("netpub: no link")

// SimClient is an in-memory transport for host simulation and tests.
type SimClient struct {
	// ConnectFailures makes the first n connect attempts fail.
	ConnectFailures int
	connectCalls    int
	connected       bool

	Weather    types.Outside
	WeatherErr error

	PendingEvents int

	Published  []SimPublish
	PublishErr error
}

type SimPublish struct {
	Topic   string
	Payload []byte
}

func (c *SimClient) Connect() error {
	c.connectCalls++
	if c.connectCalls <= c.ConnectFailures {
		return errNoLink
	}
	c.connected = true
	return nil
}

func (c *SimClient) Connected() bool { return c.connected }

func (c *SimClient) Pump(max int) int {
	n := c.PendingEvents
	if n > max {
		n = max
	}
	c.PendingEvents -= n
	return n
}

func (c *SimClient) FetchWeather() (types.Outside, error) {
	if c.WeatherErr != nil {
		return types.Outside{}, c.WeatherErr
	}
	return c.Weather, nil
}

func (c *SimClient) Publish(topic string, payload []byte) error {
	if c.PublishErr != nil {
		return c.PublishErr
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.Published = append(c.Published, SimPublish{Topic: topic, Payload: cp})
	return nil
}

// ConnectCalls reports how many connect attempts the service made.
func (c *SimClient) ConnectCalls() int { return c.connectCalls }
