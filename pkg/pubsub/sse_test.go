package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func expectNothing(t *testing.T, sub Subscription) {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		if ok {
			t.Errorf("unexpected event version %d", event.Version)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReplayAllBuffered(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic("test", TopicConfig{BufferSize: 3, ReplayAll: true})
	for i := 1; i <= 5; i++ {
		if err := pub.Publish("test", "event", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	// Last 3 of 5
	for want := 3; want <= 5; want++ {
		if got := receive(t, sub).Version; got != want {
			t.Errorf("Expected version %d, got %d", want, got)
		}
	}
	expectNothing(t, sub)
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	pub.ConfigureTopic(TopicGraphStatus, TopicConfig{BufferSize: 5})
	_ = pub.Publish(TopicGraphStatus, EventLoaded, GraphStatus{Version: 1, Nodes: 10, Edges: 12})
	_ = pub.Publish(TopicGraphStatus, EventReloaded, GraphStatus{Version: 2, Nodes: 11, Edges: 13})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicGraphStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	event := receive(t, sub)
	if event.Type != EventReloaded {
		t.Errorf("Expected %s, got %s", EventReloaded, event.Type)
	}

	var status GraphStatus
	if err := json.Unmarshal(event.Data, &status); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if status.Version != 2 || status.Nodes != 11 {
		t.Errorf("Unexpected payload %+v", status)
	}
	expectNothing(t, sub)
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	_ = pub.Publish("test", "event", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	expectNothing(t, sub)

	_ = pub.Publish("test", "event", nil)
	if got := receive(t, sub).Version; got != 2 {
		t.Errorf("Expected version 2, got %d", got)
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription was not closed after cancel")
	}

	// Publishing after the subscriber left must not panic.
	if err := pub.Publish("test", "event", nil); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}

func TestClosedPublisher(t *testing.T) {
	pub := NewSSEPublisher()

	sub, err := pub.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	_ = pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected subscription channel to be closed")
	}
	if _, err := pub.Subscribe(context.Background(), "test"); err == nil {
		t.Error("Expected error subscribing to closed publisher")
	}
	if err := pub.Publish("test", "event", nil); err == nil {
		t.Error("Expected error publishing to closed publisher")
	}
	// Closing a subscription after the publisher is closed is a no-op.
	_ = sub.Close()
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSSE(&buf, Event{Topic: TopicGraphStatus, Type: EventReloaded, Data: json.RawMessage(`{"nodes":1}`), Version: 7})
	if err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: reloaded\ndata: {") || !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Unexpected SSE framing: %q", out)
	}
	if !strings.Contains(out, `"version":7`) {
		t.Errorf("Missing version in %q", out)
	}
}
