package models

import (
	"container/heap"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	EventSpawn                 = "Spawn"
	EventArrivedAtNode         = "ArrivedAtNode"
	EventArrivedAtRestaurant   = "ArrivedAtRestaurant"
	EventArrivedAtNeighborhood = "ArrivedAtNeighborhood"
	EventArrivedAtEdge         = "ArrivedAtEdge"
	EventOrderReceived         = "OrderReceived"
	EventLoadOrder             = "LoadOrder"
	EventDeliverOrder          = "DeliverOrder"
)

// Event is a simulation event stamped with the tick it happened in.
type Event interface {
	Tick() int64
	Type() string
}

type queuedEvent struct {
	event Event
	seq   uint64
}

// eventHeap implements heap.Interface ordered by tick, then by post order
type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Tick() != h[j].event.Tick() {
		return h[i].event.Tick() < h[j].event.Tick()
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// EventBus buffers events until the tick they belong to is drained.
type EventBus struct {
	events eventHeap
	seq    uint64
	mutex  sync.Mutex
}

func NewEventBus() *EventBus {
	return &EventBus{events: make(eventHeap, 0)}
}

// QueuePost buffers an event.
func (b *EventBus) QueuePost(event Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	heap.Push(&b.events, queuedEvent{event: event, seq: b.seq})
	b.seq++
}

// PopEvents returns and removes the events of the given tick in post order.
// Leftovers from earlier ticks are dropped; later ticks stay buffered.
func (b *EventBus) PopEvents(tick int64) []Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	popped := make([]Event, 0)
	for len(b.events) > 0 && b.events[0].event.Tick() <= tick {
		item := heap.Pop(&b.events).(queuedEvent)
		if item.event.Tick() < tick {
			logrus.WithFields(logrus.Fields{
				"component":  "eventbus",
				"event":      item.event.Type(),
				"event_tick": item.event.Tick(),
				"tick":       tick,
			}).Warn("dropping stale event")
			continue
		}
		popped = append(popped, item.event)
	}
	return popped
}

// Peek returns the earliest buffered event without removing it
func (b *EventBus) Peek() Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[0].event
}

func (b *EventBus) IsEmpty() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.events) == 0
}

func (b *EventBus) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.events)
}

func (b *EventBus) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.events = b.events[:0]
	b.seq = 0
}
