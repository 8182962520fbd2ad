package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/ports"
)

// DefaultReapInterval is how often the background reaper scans the store
const DefaultReapInterval = 60 * time.Second

// MemoryStore is an in-memory implementation of the ChallengeStore port.
// Challenges are intentionally ephemeral: a process restart drops them and
// clients simply restart the login flow.
type MemoryStore struct {
	challenges map[string]*core.Challenge
	results    map[string]*core.Result
	ttl        time.Duration
	now        func() time.Time
	log        zerolog.Logger
	mu         sync.RWMutex
}

// Option customizes a MemoryStore
type Option func(*MemoryStore)

// WithClock overrides the time source (used in tests)
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithLogger attaches a logger to the store's reaper
func WithLogger(log zerolog.Logger) Option {
	return func(s *MemoryStore) { s.log = log }
}

// NewMemoryStore creates a new in-memory challenge store with the given
// challenge time-to-live.
func NewMemoryStore(ttl time.Duration, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		challenges: make(map[string]*core.Challenge),
		results:    make(map[string]*core.Result),
		ttl:        ttl,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ChallengeStore = (*MemoryStore)(nil)

// Put registers a new challenge
func (s *MemoryStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.challenges[challenge.ID]; exists {
		return core.ErrDuplicateChallenge
	}
	s.challenges[challenge.ID] = challenge
	return nil
}

// Get retrieves a live challenge
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenge, ok := s.challenges[id]
	if !ok {
		return nil, core.ErrChallengeNotFound
	}
	return challenge, nil
}

// SetResult records the verified result for a live challenge. Overwrites
// any previous result for the same identifier.
func (s *MemoryStore) SetResult(ctx context.Context, id string, result *core.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[id]; !ok {
		return core.ErrChallengeNotFound
	}
	s.results[id] = result
	return nil
}

// GetResult returns the result for a challenge, nil while still pending
func (s *MemoryStore) GetResult(ctx context.Context, id string) (*core.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.challenges[id]; !ok {
		return nil, core.ErrChallengeNotFound
	}
	return s.results[id], nil
}

// Reap removes every challenge older than ttl along with its result.
// Holds the lock only for the duration of one scan over the entry set.
func (s *MemoryStore) Reap(ctx context.Context, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, challenge := range s.challenges {
		if challenge.Age(now) > ttl {
			delete(s.challenges, id)
			delete(s.results, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live challenges
func (s *MemoryStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.challenges)
}

// StartReaper runs the periodic reaper until ctx is cancelled. Call it in a
// goroutine; it returns when the hosting process shuts down.
func (s *MemoryStore) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReapInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Reap(ctx, s.ttl); removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("reaped expired challenges")
			}
		}
	}
}
