package cache

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/shule/core/quiz"
)

var nowFunc = time.Now // mockable

// MemoryStore claims keys in process memory. Claims are lost on restart.
type MemoryStore struct {
	mutex sync.Mutex
	keys  map[string]time.Time // {key: expiry}
}

var _ quiz.SubmissionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]time.Time)}
}

func (s *MemoryStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := nowFunc()
	if exp, ok := s.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	s.sweep(now)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.keys, key)
	return nil
}

// sweep drops expired keys. Must hold the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for k, exp := range s.keys {
		if !now.Before(exp) {
			delete(s.keys, k)
		}
	}
}
