package generation

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 16

// Handle is the caller's view of one running generation.
type Handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.RWMutex
	snap        Snapshot
	subscribers map[int]chan Snapshot
	nextSubID   int
}

func newHandle(snap Snapshot, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:          snap.ID,
		cancel:      cancel,
		done:        make(chan struct{}),
		snap:        snap,
		subscribers: make(map[int]chan Snapshot),
	}
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap.clone()
}

// Cancel stops the run. It is a no-op once the run is terminal.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the run has reached a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run is terminal or ctx ends.
func (h *Handle) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-h.done:
		return h.Snapshot(), nil
	case <-ctx.Done():
		return h.Snapshot(), ctx.Err()
	}
}

// Subscribe returns a channel that first receives the current snapshot and
// then every later transition. The channel is closed after the terminal
// snapshot or when the returned func is called. A slow reader loses
// intermediate snapshots, never the latest one.
func (h *Handle) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	h.mu.Lock()
	ch <- h.snap.clone()
	if h.snap.State.Terminal() {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.nextSubID++
	id := h.nextSubID
	h.subscribers[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(c)
		}
	}
}

// update applies fn unless the run is already terminal. It reports whether
// fn was applied.
func (h *Handle) update(now time.Time, fn func(*Snapshot)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snap.State.Terminal() {
		return false
	}
	fn(&h.snap)
	h.snap.UpdatedAt = now
	if h.snap.State.Terminal() {
		ended := now
		h.snap.EndedAt = &ended
	}
	h.publishLocked(h.snap.clone())

	if h.snap.State.Terminal() {
		for id, ch := range h.subscribers {
			delete(h.subscribers, id)
			close(ch)
		}
	}
	return true
}

func (h *Handle) publishLocked(snap Snapshot) {
	for _, ch := range h.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
