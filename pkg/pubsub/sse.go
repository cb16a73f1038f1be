package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/net-topology/pkg/logging"
)

// subscriberBuffer is the per-subscription channel capacity
const subscriberBuffer = 64

var log = logging.New("pubsub")

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to keep for late subscribers (0 = none)
	ReplayAll  bool // Replay every buffered event instead of only the last one
}

// topicState is everything the publisher tracks per topic
type topicState struct {
	config  TopicConfig
	subs    map[*sseSubscription]struct{}
	version int
	buffer  []Event
}

// replay returns the buffered events a new subscriber should receive
func (t *topicState) replay() []Event {
	if len(t.buffer) == 0 {
		return nil
	}
	if t.config.ReplayAll {
		return append([]Event(nil), t.buffer...)
	}
	return []Event{t.buffer[len(t.buffer)-1]}
}

// SSEPublisher implements Publisher for Server-Sent Events clients
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates a publisher with the live server topics configured:
// late subscribers get the latest ingest status and the latest topology update.
func NewSSEPublisher() *SSEPublisher {
	p := &SSEPublisher{topics: make(map[string]*topicState)}
	p.ConfigureTopic(TopicIngestStatus, TopicConfig{BufferSize: 1})
	p.ConfigureTopic(TopicTopology, TopicConfig{BufferSize: 1})
	return p
}

// topic returns the state for name, creating it; callers hold p.mu
func (p *SSEPublisher) topic(name string) *topicState {
	t, ok := p.topics[name]
	if !ok {
		t = &topicState{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

// Subscribe creates a subscription and replays buffered events to it
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	t := p.topic(name)
	t.subs[sub] = struct{}{}

	// Replay under the lock so no live event can overtake the replayed ones
	replayed := t.replay()
	for _, event := range replayed {
		select {
		case sub.events <- event:
		default:
			log.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	p.mu.Unlock()

	if len(replayed) > 0 {
		log.Debug("replayed events to new subscriber", "topic", name, "count", len(replayed))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic without blocking.
// Subscribers that fall behind lose events.
func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    payload,
		Version: t.version,
	}

	if size := t.config.BufferSize; size > 0 {
		t.buffer = append(t.buffer, event)
		if len(t.buffer) > size {
			t.buffer = t.buffer[len(t.buffer)-size:]
		}
	}

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			log.Warn("subscription channel full, dropping event", "topic", name, "version", event.Version)
		}
	}

	return nil
}

// Close shuts down the publisher and closes every subscription channel
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// SubscriberCount returns the number of open subscriptions to a topic
func (p *SSEPublisher) SubscriberCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() {
		s.publisher.unsubscribe(s)
	})
	return nil
}

// WriteSSE writes an event in Server-Sent Events framing: "data: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
