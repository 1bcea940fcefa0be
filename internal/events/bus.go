// Package events fans out change notifications to in-process collaborators.
// The orchestrator publishes after a successful mutation; subscribers (UI
// adapters, cache invalidation) receive on buffered channels. Topic names
// follow the routing-key convention the club's messaging infrastructure
// already uses.
package events

import (
	"sync"
	"time"
)

// Topic names a change stream.
type Topic string

const (
	// TopicCourtsChanged fires after any court session mutation.
	TopicCourtsChanged Topic = "courts-changed"
	// TopicWaitlistChanged fires after any waitlist mutation.
	TopicWaitlistChanged Topic = "waitlist-changed"
	// TopicBlocksChanged fires after block create/remove operations.
	TopicBlocksChanged Topic = "blocks-changed"
)

// Event is a change notification.
type Event struct {
	Topic   Topic
	At      time.Time
	Version int64
}

const subscriberBuffer = 16

// Bus is an in-process publish/subscribe hub. Publish never blocks; a
// subscriber that falls more than a buffer behind misses events and should
// re-read the snapshot, which is always authoritative.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[int]chan Event
	next int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]chan Event)}
}

// Subscribe registers for a topic. The returned cancel func unregisters and
// closes the channel.
func (b *Bus) Subscribe(topic Topic) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its topic without
// blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[event.Topic] {
		select {
		case ch <- event:
		default:
		}
	}
}
