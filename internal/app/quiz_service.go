package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"edu-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository abstracts where live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService runs quiz sessions against the content store.
type QuizService struct {
	sessions SessionRepository
	content  *Content
	timing   Timing
	clock    Clock
	newID    func() string
	retain   time.Duration

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// DefaultSessionRetention is how long a finished or empty session stays
// readable before it is dropped.
const DefaultSessionRetention = 10 * time.Minute

// QuizOption customises a QuizService.
type QuizOption func(*QuizService)

// WithClock replaces the wall clock, typically with a ManualClock in tests.
func WithClock(clock Clock) QuizOption {
	return func(s *QuizService) { s.clock = clock }
}

// WithTiming overrides the per-question budget and delays.
func WithTiming(timing Timing) QuizOption {
	return func(s *QuizService) { s.timing = timing }
}

// WithRandSeed makes question and option order deterministic.
func WithRandSeed(seed int64) QuizOption {
	return func(s *QuizService) { s.rnd = rand.New(rand.NewSource(seed)) }
}

// WithSessionRetention sets how long settled sessions are kept. Zero or less
// keeps them until Close.
func WithSessionRetention(d time.Duration) QuizOption {
	return func(s *QuizService) { s.retain = d }
}

// WithIDGenerator replaces the uuid session ids.
func WithIDGenerator(fn func() string) QuizOption {
	return func(s *QuizService) { s.newID = fn }
}

func NewQuizService(sessions SessionRepository, content *Content, opts ...QuizOption) *QuizService {
	s := &QuizService{
		sessions: sessions,
		content:  content,
		timing:   DefaultTiming(),
		clock:    SystemClock{},
		newID:    uuid.NewString,
		retain:   DefaultSessionRetention,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a session for the descriptor, reading the question collection
// once. An incomplete descriptor is refused with domain.ErrMissingScope.
func (s *QuizService) Start(ctx context.Context, descriptor domain.SessionDescriptor) (View, error) {
	if !descriptor.Complete() {
		return View{}, domain.ErrMissingScope
	}

	player, err := s.content.PlayerName(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoPlayer) {
		return View{}, err
	}

	questions, err := s.content.Questions(ctx)
	if err != nil {
		return View{}, err
	}

	var session *Session
	session = NewSession(SessionConfig{
		ID:         s.newID(),
		Descriptor: descriptor,
		Player:     player,
		Timing:     s.timing,
		Clock:      s.clock,
		Rand:       s.sessionRand(),
		Recorder:   s.content,
		OnDone:     func() { s.scheduleReap(session) },
	})
	s.sessions.Put(session)
	return session.Begin(questions), nil
}

// Select grades the displayed option at index in the session's current question.
func (s *QuizService) Select(_ context.Context, sessionID string, index int) (View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return View{}, domain.ErrSessionNotFound
	}
	return session.Select(index)
}

// View returns the current snapshot of a session.
func (s *QuizService) View(_ context.Context, sessionID string) (View, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return View{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// Subscribe returns a channel that receives session snapshots.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan View, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Close tears a session down and forgets it.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

// Results lists recorded results for the results viewer.
func (s *QuizService) Results(ctx context.Context) ([]domain.Result, error) {
	return s.content.Results(ctx)
}

// scheduleReap drops a settled session once the retention has elapsed, unless
// it was closed or replaced in the meantime.
func (s *QuizService) scheduleReap(session *Session) {
	if s.retain <= 0 {
		return
	}
	id := session.ID()
	s.clock.AfterFunc(s.retain, func() {
		current, ok := s.sessions.Get(id)
		if !ok || current != session {
			return
		}
		session.Close()
		s.sessions.Delete(id)
	})
}

func (s *QuizService) sessionRand() *rand.Rand {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return rand.New(rand.NewSource(s.rnd.Int63()))
}
