// Package observer provides ordered, synchronous subscriber lists used for
// every notification the runtime raises.
package observer

import "sync"

// Subscription identifies a registered callback so it can be removed later
type Subscription uint64

type entry[T any] struct {
	id Subscription
	fn func(T)
}

// List is an ordered collection of callbacks. Callbacks run synchronously in
// subscription order. Notify iterates a copy, so callbacks may subscribe or
// unsubscribe (including themselves) while a notification is in flight.
type List[T any] struct {
	mu      sync.RWMutex
	nextID  Subscription
	entries []entry[T]
}

// Subscribe appends a callback and returns its subscription id
func (l *List[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.entries = append(l.entries, entry[T]{id: l.nextID, fn: fn})
	return l.nextID
}

// Unsubscribe removes a callback. Unknown ids are ignored.
func (l *List[T]) Unsubscribe(id Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id != id {
			continue
		}
		// Preserve ordering, unlike swap-and-truncate
		l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
		return
	}
}

// Notify invokes every callback with v
func (l *List[T]) Notify(v T) {
	for _, e := range l.snapshot() {
		e.fn(v)
	}
}

// Len returns the number of subscribers
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Clear removes every subscriber
func (l *List[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}

func (l *List[T]) snapshot() []entry[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}

	entries := make([]entry[T], len(l.entries))
	copy(entries, l.entries)
	return entries
}
