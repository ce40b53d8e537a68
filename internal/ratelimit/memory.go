package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore хранит token bucket каждого клиента в памяти процесса.
type MemoryStore struct {
	policy   Policy
	mu       sync.Mutex
	visitors map[string]*visitor
	done     chan struct{}
	once     sync.Once
}

// NewMemoryStore создает хранилище и запускает очистку неактивных клиентов.
func NewMemoryStore(policy Policy) *MemoryStore {
	s := &MemoryStore{
		policy:   policy,
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.policy.RPS), s.policy.Burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	s.mu.Unlock()

	return v.limiter.Allow(), nil
}

// Close останавливает фоновую очистку.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evict(time.Now().Add(-visitorTTL))
		}
	}
}

// evict удаляет клиентов, не обращавшихся с момента before.
func (s *MemoryStore) evict(before time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, v := range s.visitors {
		if v.lastSeen.Before(before) {
			delete(s.visitors, key)
		}
	}
}
