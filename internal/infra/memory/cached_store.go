package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedStore caches reads of a slower backing store (Postgres, SQLite) with a
// TTL to avoid repeated DB hits. Writes go through and refresh the local entry,
// so this process always reads its own writes; writes from other processes
// become visible once the entry expires.
type CachedStore struct {
	backing app.KVStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedValue
	// gen counts writes per key; a fill that raced a write is not cached.
	gen map[string]uint64
}

type cachedValue struct {
	value     []byte
	missing   bool
	expiresAt time.Time
}

func NewCachedStore(backing app.KVStore, ttl time.Duration) *CachedStore {
	return &CachedStore{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedValue),
		gen:     make(map[string]uint64),
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if entry, ok := s.lookup(key); ok {
		return entry.result()
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if entry, ok := s.lookup(key); ok {
			return entry, nil
		}

		s.mu.RLock()
		gen := s.gen[key]
		s.mu.RUnlock()

		now := s.clock()
		value, err := s.backing.Get(ctx, key)
		entry := cachedValue{value: value}
		switch {
		case errors.Is(err, domain.ErrKeyNotFound):
			entry.missing = true
		case err != nil:
			return cachedValue{}, err
		}
		entry.expiresAt = now.Add(s.ttlWithJitter())

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen[key] != gen {
			// A Set landed while reading; its entry is newer.
			if newer, ok := s.cache[key]; ok {
				return newer, nil
			}
			return entry, nil
		}
		s.cache[key] = entry
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(cachedValue).result()
}

func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.backing.Set(ctx, key, value); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	s.gen[key]++
	s.cache[key] = cachedValue{value: stored, expiresAt: s.clock().Add(s.ttlWithJitter())}
	s.mu.Unlock()
	// Later readers must not join a fill that started before this write.
	s.sf.Forget(key)
	return nil
}

func (s *CachedStore) lookup(key string) (cachedValue, bool) {
	now := s.clock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return cachedValue{}, false
	}
	return entry, true
}

func (v cachedValue) result() ([]byte, error) {
	if v.missing {
		return nil, domain.ErrKeyNotFound
	}
	out := make([]byte, len(v.value))
	copy(out, v.value)
	return out, nil
}

func (s *CachedStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
