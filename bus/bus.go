package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/linanwx/suichan/logger"
)

// Handler is a function that handles one inbound event.
type Handler func(ctx context.Context, event *Event)

// Subscription represents a subscription to events of one type.
type Subscription struct {
	ID        string
	EventType EventType
	Handler   Handler
}

// Bus is the central event bus: an HTTP endpoint for Slack's Events API
// callbacks on one side, and a pub/sub fan-out to subscribed handlers
// (normally a single handler that runs gate.Decide then dispatches a turn)
// on the other.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	subCounter    int64

	eventChan chan *Event
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewBus creates a new event bus with the given inbound buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	b := &Bus{
		subscriptions: make(map[string]*Subscription),
		eventChan:     make(chan *Event, bufferSize),
		done:          make(chan struct{}),
	}

	b.wg.Add(1)
	go b.processEvents()

	return b
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subCounter++
	id := fmt.Sprintf("sub-%d", b.subCounter)

	b.subscriptions[id] = &Subscription{
		ID:        id,
		EventType: eventType,
		Handler:   handler,
	}

	logger.Debug("subscription added", "id", id, "eventType", eventType)
	return id
}

// Publish sends an event to the bus asynchronously.
func (b *Bus) Publish(event *Event) {
	select {
	case b.eventChan <- event:
		logger.Debug("event published", "type", event.Type, "id", event.ID)
	case <-b.done:
		logger.Warn("bus closed, event dropped", "type", event.Type)
	default:
		logger.Warn("event buffer full, event dropped", "type", event.Type)
	}
}

// Close shuts down the event bus, draining whatever is already queued.
func (b *Bus) Close() {
	close(b.done)
	b.wg.Wait()
}

func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		case <-b.done:
			for {
				select {
				case event := <-b.eventChan:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(event *Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0)
	for _, sub := range b.subscriptions {
		if sub.EventType == event.Type {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	ctx := context.Background()
	for _, sub := range subs {
		go func(s *Subscription) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic", "subscription", s.ID, "panic", r)
				}
			}()
			s.Handler(ctx, event)
		}(sub)
	}
}

// slackEnvelope is the outer shape of every POST Slack's Events API makes:
// either a one-time URL verification handshake or a wrapped event_callback.
type slackEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Event     json.RawMessage `json:"event"`
}

type innerEvent struct {
	Type string `json:"type"`
}

// ServeHTTP implements the Events API HTTP receiver: it answers the
// url_verification handshake inline, and otherwise decodes the wrapped
// event, publishes it if its type is one this bus recognizes, and returns
// 200 immediately so Slack does not retry (the core does its own work
// asynchronously off eventChan).
func (b *Bus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var env slackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if env.Type == "url_verification" {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(env.Challenge))
		return
	}

	if env.Type != "event_callback" || env.Event == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	var inner innerEvent
	if err := json.Unmarshal(env.Event, &inner); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch EventType(inner.Type) {
	case EventAppMention, EventMessage:
		b.Publish(&Event{ID: newEventID(), Type: EventType(inner.Type), Data: env.Event})
	default:
		logger.Debug("bus: ignoring unrecognized event type", "type", inner.Type)
	}

	w.WriteHeader(http.StatusOK)
}
