package generation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrNotFound = errors.New("generation not found")

type entry struct {
	owner  string
	handle *Handle
}

// Registry remembers runs by id for the browser that started them. Terminal
// runs are dropped by the janitor once they are older than the retention.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]entry
	retention time.Duration
	now       func() time.Time
	onExpire  func(Snapshot)
}

func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &Registry{
		entries:   make(map[string]entry),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *Registry) SetExpireHook(hook func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = hook
}

func (r *Registry) Add(owner string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[h.ID()] = entry{owner: strings.TrimSpace(owner), handle: h}
}

// Get returns the run with id if owner started it. A run owned by someone
// else is reported as ErrNotFound.
func (r *Registry) Get(owner, id string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.TrimSpace(id)]
	if !ok || e.owner != strings.TrimSpace(owner) {
		return nil, ErrNotFound
	}
	return e.handle, nil
}

// Cancel stops the owner's run with id and returns its handle.
func (r *Registry) Cancel(owner, id string) (*Handle, error) {
	h, err := r.Get(owner, id)
	if err != nil {
		return nil, err
	}
	h.Cancel()
	return h, nil
}

// List returns the owner's runs, newest first.
func (r *Registry) List(owner string) []Snapshot {
	owner = strings.TrimSpace(owner)
	r.mu.RLock()
	out := make([]Snapshot, 0)
	for _, e := range r.entries {
		if e.owner == owner {
			out = append(out, e.handle.Snapshot())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, e := range r.entries {
		if !e.handle.Snapshot().State.Terminal() {
			count++
		}
	}
	return count
}

// CancelAll cancels every run that is still in flight.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		e.handle.Cancel()
	}
}

func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.expireFinished()
			}
		}
	}()
}

func (r *Registry) expireFinished() {
	now := r.now()
	var expired []Snapshot

	r.mu.Lock()
	for id, e := range r.entries {
		snap := e.handle.Snapshot()
		if snap.EndedAt == nil || now.Sub(*snap.EndedAt) < r.retention {
			continue
		}
		delete(r.entries, id)
		expired = append(expired, snap)
	}
	hook := r.onExpire
	r.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}
