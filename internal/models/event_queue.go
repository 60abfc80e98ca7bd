package models

import (
	"container/heap"
	"sync"
	"time"
)

const (
	EventPlaceOrder     = "PlaceOrder"
	EventOrderReady     = "OrderReady"
	EventPickUpOrder    = "PickUpOrder"
	EventSubmitFeedback = "SubmitFeedback"
	EventCheckStock     = "CheckStock"
	EventCloseDay       = "CloseDay"
)

// Event represents a scheduled simulation step
type Event struct {
	Time time.Time
	Type string
	Data interface{}

	seq uint64
}

// EventQueue is a priority queue of events. Events due at the same instant
// come out in the order they were enqueued.
type EventQueue struct {
	events  []*Event
	nextSeq uint64
	mutex   sync.Mutex
}

// eventHeap implements heap.Interface and holds Events
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time.Equal(h[j].Time) {
		return h[i].seq < h[j].seq
	}
	return h[i].Time.Before(h[j].Time)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// NewEventQueue creates a new EventQueue
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make([]*Event, 0)}
}

// Enqueue adds an event to the queue
func (eq *EventQueue) Enqueue(event *Event) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	event.seq = eq.nextSeq
	eq.nextSeq++
	heap.Push((*eventHeap)(&eq.events), event)
}

// Dequeue removes and returns the earliest event from the queue
func (eq *EventQueue) Dequeue() *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) == 0 {
		return nil
	}
	return heap.Pop((*eventHeap)(&eq.events)).(*Event)
}

// DequeueDue removes and returns the earliest event if it is due at or before now.
func (eq *EventQueue) DequeueDue(now time.Time) *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) == 0 || eq.events[0].Time.After(now) {
		return nil
	}
	return heap.Pop((*eventHeap)(&eq.events)).(*Event)
}

// Peek returns the earliest event without removing it
func (eq *EventQueue) Peek() *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) == 0 {
		return nil
	}
	return eq.events[0]
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	return len(eq.events)
}
