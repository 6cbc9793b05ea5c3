package events

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a successful change made through the API
type EventType string

const (
	EventAgentCreated    EventType = "agent.created"
	EventAgentUpdated    EventType = "agent.updated"
	EventAgentDeleted    EventType = "agent.deleted"
	EventRoleCreated     EventType = "role.created"
	EventRoleUpdated     EventType = "role.updated"
	EventRoleDeleted     EventType = "role.deleted"
	EventUserUpdated     EventType = "user.updated"
	EventUserInvited     EventType = "user.invited"
	EventSettingsUpdated EventType = "settings.updated"
)

// Resource returns the resource part of the type, "agent" for "agent.created"
func (t EventType) Resource() string {
	resource, _, _ := strings.Cut(string(t), ".")
	return resource
}

// Event describes one change
type Event struct {
	ID         string
	Type       EventType
	ResourceID string
	Timestamp  time.Time
	Message    string
	Metadata   map[string]string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

type subscription struct {
	resources map[string]bool
}

func (s subscription) wants(event *Event) bool {
	return len(s.resources) == 0 || s.resources[event.Type.Resource()]
}

// Broker fans change events out to subscribers. Delivery is best effort: a
// subscriber whose buffer is full misses the event.
type Broker struct {
	subscribers map[Subscriber]subscription
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]subscription),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. Calling Stop twice is safe.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// Subscribe returns a channel receiving events for the given resources, or
// for every resource when none are given.
func (b *Broker) Subscribe(resources ...string) Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	s := subscription{resources: make(map[string]bool, len(resources))}
	for _, r := range resources {
		s.resources[r] = true
	}
	b.subscribers[sub] = s
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues an event for delivery. It fills in ID and Timestamp when
// they are unset.
func (b *Broker) Publish(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub, s := range b.subscribers {
		if !s.wants(event) {
			continue
		}
		select {
		case sub <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
