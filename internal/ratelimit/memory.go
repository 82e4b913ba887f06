package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default single-process store. Expired counters are
// swept periodically so the key space stays bounded.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

type memEntry struct {
	count     int64
	expiresAt time.Time
}

const defaultSweepEvery = 5 * time.Minute

// NewMemoryStore starts the sweeper with the given interval; zero means the
// 5-minute default.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepEvery
	}
	s := &MemoryStore{
		entries: make(map[string]*memEntry),
		stopCh:  make(chan struct{}),
	}
	go s.sweepLoop(sweepEvery)
	return s
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = &memEntry{expiresAt: now.Add(ttl)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
