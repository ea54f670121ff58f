package pubsub

import "sync"

// Hub fans snapshots out to subscribers. Each subscriber holds at most a
// small buffer; when it is full the oldest pending snapshot is dropped so a
// slow reader never blocks Publish.
type Hub[T any] struct {
	mu          sync.Mutex
	buffer      int
	subscribers map[chan T]struct{}
}

func NewHub[T any](buffer int) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub[T]{
		buffer:      buffer,
		subscribers: make(map[chan T]struct{}),
	}
}

// Subscribe registers a subscriber and sends it initial right away.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub[T]) Subscribe(initial T) (<-chan T, func()) {
	ch := make(chan T, h.buffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	ch <- initial
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers v to every subscriber without blocking.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
