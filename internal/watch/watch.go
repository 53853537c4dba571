// Package watch provides an in-process change bus over the stored
// collections: a subscriber receives one snapshot event on subscribe and one
// event for every committed write afterwards, and re-queries on receipt.
// Events carry keys, never row payloads.
package watch

import "sync"

// Collection names known to the bus.
const (
	CollectionStudents   = "students"
	CollectionAttendance = "attendance"
)

// Kind describes what happened to a collection.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindUpsert   Kind = "upsert"
	KindDelete   Kind = "delete"
)

// Event is a change notification for one collection.
type Event struct {
	Collection string
	Kind       Kind
	Key        string
}

// Bus fans committed-write notifications out to subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers interest in a collection. The returned channel
// immediately carries a snapshot event telling the consumer to load the
// current state, then one event per committed write.
func (b *Bus) Subscribe(collection string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[chan Event]struct{})
	}
	b.subs[collection][ch] = struct{}{}
	b.mu.Unlock()

	ch <- Event{Collection: collection, Kind: KindSnapshot}
	return ch
}

// Unsubscribe removes and closes the channel.
func (b *Bus) Unsubscribe(collection string, ch chan Event) {
	b.mu.Lock()
	if set, ok := b.subs[collection]; ok {
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
	}
	b.mu.Unlock()
}

// Publish notifies subscribers of a committed write. Sends never block: a
// subscriber with a full buffer is collapsed to a fresh snapshot event, so a
// slow consumer loses granularity, not correctness.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.Collection] {
		select {
		case ch <- ev:
		default:
			b.drain(ch)
			select {
			case ch <- Event{Collection: ev.Collection, Kind: KindSnapshot}:
			default:
			}
		}
	}
}

func (b *Bus) drain(ch chan Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
