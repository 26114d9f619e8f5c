package realtime

import (
	"errors"
	"sync"
)

var (
	ErrNoListeners   = errors.New("no listeners for venue")
	ErrListenersBusy = errors.New("every listener buffer is full")
	ErrHubClosed     = errors.New("hub closed")
)

const defaultListenerBuffer = 16

// Hub pushes batches to the current subscribers of a venue. Sends never
// block: a subscriber whose buffer is full misses the batch.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Batch]struct{}
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultListenerBuffer
	}
	return &Hub{subs: make(map[string]map[chan Batch]struct{}), buffer: buffer}
}

// Subscribe registers a listener for venueID. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(venueID string) (<-chan Batch, func()) {
	ch := make(chan Batch, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[venueID] == nil {
		h.subs[venueID] = make(map[chan Batch]struct{})
	}
	h.subs[venueID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[venueID][ch]; !ok {
				return
			}
			delete(h.subs[venueID], ch)
			if len(h.subs[venueID]) == 0 {
				delete(h.subs, venueID)
			}
			close(ch)
		})
	}
}

// Deliver hands b to every subscriber of venueID.
func (h *Hub) Deliver(venueID string, b Batch) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}
	subs := h.subs[venueID]
	if len(subs) == 0 {
		return ErrNoListeners
	}
	sent := 0
	for ch := range subs {
		select {
		case ch <- b:
			sent++
		default:
		}
	}
	if sent == 0 {
		return ErrListenersBusy
	}
	return nil
}

func (h *Hub) Listeners(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[venueID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for venueID, subs := range h.subs {
		for ch := range subs {
			close(ch)
		}
		delete(h.subs, venueID)
	}
}
