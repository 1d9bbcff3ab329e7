package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/fm-ecosystem/pkg/logging"
)

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to keep for late subscribers (0 = none)
	ReplayAll  bool // Replay every buffered event instead of only the last one
}

// SSEPublisher implements Publisher for Server-Sent Events handlers
type SSEPublisher struct {
	mu            sync.Mutex
	subscriptions map[string]map[*sseSubscription]bool
	version       map[string]int
	eventBuffer   map[string][]Event
	topicConfig   map[string]TopicConfig
	closed        bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subscriptions: make(map[string]map[*sseSubscription]bool),
		version:       make(map[string]int),
		eventBuffer:   make(map[string][]Event),
		topicConfig:   make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = config
}

// Subscribe creates a new subscription and replays buffered events to it
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, 100),
		publisher: p,
	}
	if p.subscriptions[topic] == nil {
		p.subscriptions[topic] = make(map[*sseSubscription]bool)
	}
	p.subscriptions[topic][sub] = true

	replay := p.eventBuffer[topic]
	if !p.topicConfig[topic].ReplayAll && len(replay) > 0 {
		replay = replay[len(replay)-1:]
	}
	// The channel is fresh and larger than any sane buffer, so this cannot block.
	for _, event := range replay {
		sub.events <- event
	}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		_ = sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic without blocking
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: p.version[topic],
	}

	if size := p.topicConfig[topic].BufferSize; size > 0 {
		buffer := append(p.eventBuffer[topic], event)
		if len(buffer) > size {
			buffer = buffer[len(buffer)-size:]
		}
		p.eventBuffer[topic] = buffer
	}

	for sub := range p.subscriptions[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", topic, "type", eventType)
		}
	}

	return nil
}

// Close shuts down the publisher and closes every subscription
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subscriptions {
		for sub := range subs {
			sub.closeLocked()
		}
	}
	p.subscriptions = make(map[string]map[*sseSubscription]bool)

	return nil
}

// unsubscribe removes a subscription and closes its channel
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub.closeLocked()
	if subs := p.subscriptions[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subscriptions, sub.topic)
		}
	}
}

// sseSubscription implements Subscription. Its channel is only closed with
// the publisher lock held, so Publish never sends on a closed channel.
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	closed    bool
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.publisher.unsubscribe(s)
	return nil
}

func (s *sseSubscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}

// WriteSSE writes an event in SSE framing: "event: type\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
	return err
}
