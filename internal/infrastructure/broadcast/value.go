package broadcast

import "sync"

// Snapshot is a published value together with its version.
type Snapshot[T any] struct {
	Value   T
	Version uint64
}

// Value is a versioned cell. Every Store is pushed to subscribers, which
// always observe the latest value; a slow subscriber may skip intermediate
// versions but never sees them out of order.
type Value[T any] struct {
	mu      sync.RWMutex
	current Snapshot[T]
	subs    map[uint64]chan Snapshot[T]
	nextID  uint64
}

// New creates a Value holding initial at version 0.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: Snapshot[T]{Value: initial},
		subs:    make(map[uint64]chan Snapshot[T]),
	}
}

// Load returns the latest snapshot.
func (v *Value[T]) Load() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Store publishes val as a new version and returns its snapshot.
func (v *Value[T]) Store(val T) Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = Snapshot[T]{Value: val, Version: v.current.Version + 1}
	for _, ch := range v.subs {
		// Drop a stale pending value so the subscriber only sees the newest.
		select {
		case <-ch:
		default:
		}
		ch <- v.current
	}
	return v.current
}

// Subscribe returns a channel that immediately carries the current snapshot
// and then every later one. The returned cancel func closes the channel.
func (v *Value[T]) Subscribe() (<-chan Snapshot[T], func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan Snapshot[T], 1)
	ch <- v.current
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subs)
}
