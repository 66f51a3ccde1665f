// Package history keeps bounded per-chat histories in memory. Every chat has its own lock, so
// concurrent messages of one chat are serialized while different chats never contend.
package history

import (
	"sync"
	"time"
)

type Stats struct {
	Chats int
	Items int
}

type bucket[T any] struct {
	mu         sync.Mutex
	items      []T
	lastUpdate time.Time
}

type store[T any] struct {
	mu    sync.RWMutex
	chats map[int64]*bucket[T]

	limit int
	ttl   time.Duration
	now   func() time.Time
}

func newStore[T any](limit int, ttl time.Duration) *store[T] {
	if limit <= 0 {
		limit = 1
	}
	return &store[T]{
		chats: make(map[int64]*bucket[T]),
		limit: limit,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *store[T]) bucket(chatID int64, create bool) *bucket[T] {
	s.mu.RLock()
	b, ok := s.chats[chatID]
	s.mu.RUnlock()
	if ok || !create {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok = s.chats[chatID]; !ok {
		b = &bucket[T]{}
		s.chats[chatID] = b
	}
	return b
}

// expired must be called with b.mu held.
func (s *store[T]) expired(b *bucket[T]) bool {
	return s.ttl > 0 && !b.lastUpdate.IsZero() && s.now().Sub(b.lastUpdate) > s.ttl
}

// add appends items under one bucket lock, so they stay adjacent in the chat's history.
func (s *store[T]) add(chatID int64, items ...T) {
	b := s.bucket(chatID, true)

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.expired(b) {
		b.items = nil
	}

	b.items = append(b.items, items...)
	if over := len(b.items) - s.limit; over > 0 {
		b.items = append([]T(nil), b.items[over:]...)
	}
	b.lastUpdate = s.now()
}

// get returns up to limit most recent items, oldest first. limit <= 0 means all of them.
func (s *store[T]) get(chatID int64, limit int) []T {
	b := s.bucket(chatID, false)
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.expired(b) {
		return nil
	}

	items := b.items
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return append([]T(nil), items...)
}

func (s *store[T]) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chats, chatID)
}

func (s *store[T]) stats() Stats {
	s.mu.RLock()
	buckets := make([]*bucket[T], 0, len(s.chats))
	for _, b := range s.chats {
		buckets = append(buckets, b)
	}
	s.mu.RUnlock()

	var st Stats
	for _, b := range buckets {
		b.mu.Lock()
		if n := len(b.items); n > 0 && !s.expired(b) {
			st.Chats++
			st.Items += n
		}
		b.mu.Unlock()
	}
	return st
}
