package catalog

import (
	"context"
	"sync"

	"github.com/vbonduro/lostfound/internal/domain"
)

// FetchFunc loads a fresh list of items from the store.
type FetchFunc func(ctx context.Context) ([]*domain.Item, error)

// Session owns the most recently fetched item snapshot. Fetches may overlap;
// only the most recently started one is allowed to install its result, so a
// slow, older fetch can never overwrite a newer view. Invalidate counts as a
// newer start, so fetches already in flight when the store changed are
// discarded.
type Session struct {
	fetch FetchFunc

	mu       sync.Mutex
	started  uint64
	snapshot []*domain.Item
	loaded   bool
}

func NewSession(fetch FetchFunc) *Session {
	return &Session{fetch: fetch}
}

// Load fetches a new snapshot. It returns the snapshot that is current once
// the fetch completes, which is this fetch's result unless a newer fetch
// already superseded it. A superseded fetch with nothing newer installed yet
// returns its own result without keeping it.
func (s *Session) Load(ctx context.Context) ([]*domain.Item, error) {
	s.mu.Lock()
	s.started++
	seq := s.started
	s.mu.Unlock()

	items, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.started {
		s.snapshot = items
		s.loaded = true
	}
	if !s.loaded {
		return items, nil
	}
	return s.snapshot, nil
}

// View filters the current snapshot, loading one first if none is held.
func (s *Session) View(ctx context.Context, query string, category domain.Category) ([]*domain.Item, error) {
	s.mu.Lock()
	snapshot, loaded := s.snapshot, s.loaded
	s.mu.Unlock()

	if !loaded {
		var err error
		if snapshot, err = s.Load(ctx); err != nil {
			return nil, err
		}
	}
	return Filter(snapshot, query, category), nil
}

// Invalidate drops the snapshot so the next View fetches again.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	s.snapshot = nil
	s.loaded = false
}
