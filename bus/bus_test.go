// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "reading", "inside"))

	conn.Publish(conn.NewMessage(T("node", "reading", "inside"), "hello", false))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("node", "weather"), "persist", true))

	sub := conn.Subscribe(T("node", "weather"))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("expected retained payload 'persist', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

func TestRetainedCleared(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("node", "weather"), "persist", true))
	conn.Publish(conn.NewMessage(T("node", "weather"), nil, true))

	if got := b.Retained(T("node", "weather")); got != nil {
		t.Errorf("expected retained message cleared, got %v", got.Payload)
	}
}

func TestUnmatchedPublishIsDropped(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "phase"))
	conn.Publish(conn.NewMessage(T("node", "sleep"), "elsewhere", false))

	select {
	case got := <-sub.Channel():
		t.Errorf("unexpected delivery: %v", got.Payload)
	default:
	}
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "phase"))
	for i := 0; i < 4; i++ {
		conn.Publish(conn.NewMessage(T("node", "phase"), i, false))
	}

	msgs := sub.Drain()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 queued messages, got %d", len(msgs))
	}
	if msgs[0].Payload.(int) != 2 || msgs[1].Payload.(int) != 3 {
		t.Errorf("expected the newest messages to survive, got %v, %v",
			msgs[0].Payload, msgs[1].Payload)
	}
}

func TestDrainEmpty(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "phase"))
	if msgs := sub.Drain(); len(msgs) != 0 {
		t.Errorf("expected empty drain, got %d messages", len(msgs))
	}
}

func TestUnsubscribePrunesTrie(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("a", "b", "c"))
	sub.Unsubscribe()

	if len(b.root.children) != 0 {
		t.Errorf("expected empty trie after unsubscribe, got %d children",
			len(b.root.children))
	}
}

func TestRetainedNodeSurvivesPrune(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("a", "b"), "keep", true))
	sub := conn.Subscribe(T("a", "b"))
	sub.Unsubscribe()

	if got := b.Retained(T("a", "b")); got == nil || got.Payload.(string) != "keep" {
		t.Error("retained message lost to trie pruning")
	}
}

func TestDisconnectClosesSubscriptions(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("node", "phase"))
	conn.Disconnect()

	if _, ok := <-sub.Channel(); ok {
		t.Error("expected channel closed after disconnect")
	}
}
