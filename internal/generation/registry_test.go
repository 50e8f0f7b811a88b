package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedHandle(id string, state State, created, ended time.Time) *Handle {
	h := newHandle(Snapshot{ID: id, State: StatePolling, CreatedAt: created, UpdatedAt: created}, func() {})
	h.update(ended, func(s *Snapshot) { s.State = state })
	return h
}

func runningHandle(id string, created time.Time) (*Handle, *bool) {
	cancelled := false
	h := newHandle(Snapshot{ID: id, State: StatePolling, CreatedAt: created, UpdatedAt: created}, func() { cancelled = true })
	return h, &cancelled
}

func TestRegistryOwnerScoping(t *testing.T) {
	r := NewRegistry(time.Minute)
	h, _ := runningHandle("g1", time.Now())
	r.Add("browser-a", h)

	got, err := r.Get("browser-a", "g1")
	require.NoError(t, err)
	assert.Same(t, h, got)

	_, err = r.Get("browser-b", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("browser-a", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry(time.Minute)
	h, cancelled := runningHandle("g1", time.Now())
	r.Add("a", h)

	_, err := r.Cancel("b", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, *cancelled)

	_, err = r.Cancel("a", "g1")
	require.NoError(t, err)
	assert.True(t, *cancelled)
}

func TestRegistryListNewestFirst(t *testing.T) {
	r := NewRegistry(time.Minute)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older, _ := runningHandle("old", base)
	newer, _ := runningHandle("new", base.Add(time.Second))
	other, _ := runningHandle("other", base.Add(2*time.Second))
	r.Add("a", older)
	r.Add("a", newer)
	r.Add("b", other)

	list := r.List("a")
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.Empty(t, r.List("nobody"))
	assert.Equal(t, 3, r.ActiveCount())
}

func TestRegistryExpiresFinishedRuns(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	var expired []string
	r.SetExpireHook(func(s Snapshot) { expired = append(expired, s.ID) })

	running, _ := runningHandle("running", now.Add(-time.Hour))
	r.Add("a", running)
	r.Add("a", finishedHandle("stale", StateCompleted, now.Add(-time.Hour), now.Add(-11*time.Minute)))
	r.Add("a", finishedHandle("fresh", StateFailed, now.Add(-time.Hour), now.Add(-time.Minute)))

	r.expireFinished()

	assert.Equal(t, []string{"stale"}, expired)
	_, err := r.Get("a", "stale")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("a", "fresh")
	assert.NoError(t, err)
	_, err = r.Get("a", "running")
	assert.NoError(t, err)
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistryJanitorRuns(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	r.Add("a", finishedHandle("done", StateTimedOut, time.Now(), time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartJanitor(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := r.Get("a", "done")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestUpdateAfterTerminalIsIgnored(t *testing.T) {
	now := time.Now()
	h := finishedHandle("g", StateCompleted, now, now)
	applied := h.update(now, func(s *Snapshot) { s.State = StateFailed })
	assert.False(t, applied)
	assert.Equal(t, StateCompleted, h.Snapshot().State)
}
