package store

import (
	"context"
	"sync"
)

// Snapshot is the owner's full, sorted record set at one point in time, or
// the error that prevented reading it.
type Snapshot struct {
	Records []PitchRecord
	Err     error
}

// Subscription delivers snapshots until Close is called or its context ends.
// Updates holds at most one pending snapshot; a slow reader only ever sees
// the newest one.
type Subscription struct {
	Updates <-chan Snapshot

	ch      chan Snapshot
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	release func()
}

func newSubscription() *Subscription {
	ch := make(chan Snapshot, 1)
	return &Subscription{Updates: ch, ch: ch, done: make(chan struct{})}
}

// Close stops delivery and closes Updates. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	close(s.done)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		release()
	}
}

// deliver replaces any unread snapshot with snap. It never blocks.
func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *Subscription) closeOnDone(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}

// hub tracks live subscriptions per owner.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *hub) add(ownerID string, s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[ownerID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[ownerID] = set
	}
	set[s] = struct{}{}
	s.release = func() { h.remove(ownerID, s) }
}

func (h *hub) remove(ownerID string, s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[ownerID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, ownerID)
	}
}

func (h *hub) listeners(ownerID string) []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Subscription, 0, len(h.subs[ownerID]))
	for s := range h.subs[ownerID] {
		out = append(out, s)
	}
	return out
}

func (h *hub) count(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}
