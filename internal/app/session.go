package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"edu-quiz-service/internal/domain"
)

// Phase names the engine states.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseEmpty      Phase = "empty"
	PhasePresenting Phase = "presenting"
	PhaseLocked     Phase = "locked"
	PhaseFinished   Phase = "finished"
	PhaseClosed     Phase = "closed"
)

// SelectionKind distinguishes a real answer from a timeout so a timeout can
// never collide with an option that happens to share its label.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionAnswer
	SelectionTimeout
)

// Selection is the graded attempt recorded for the current question.
type Selection struct {
	Kind  SelectionKind
	Index int // position in the displayed options, valid for SelectionAnswer
}

// OptionMark classifies a displayed option once the question is locked.
type OptionMark string

const (
	MarkNone            OptionMark = ""
	MarkChosenCorrect   OptionMark = "chosen-correct"
	MarkChosenIncorrect OptionMark = "chosen-incorrect"
	MarkCorrect         OptionMark = "correct"
	MarkOther           OptionMark = "other"
)

// Verdict frames the final summary.
type Verdict string

const (
	VerdictPositive    Verdict = "positive"
	VerdictEncouraging Verdict = "encouraging"
)

const (
	MessageNoQuestions = "No questions for this topic."
	MessagePositive    = "Good job!"
	MessageEncouraging = "You can do better!"
)

// Navigation targets offered by the finished summary.
const (
	NavSelect  = "select"
	NavResults = "results"
)

// Timing holds the per-question budget and the post-lock delays.
type Timing struct {
	QuestionBudget int           // ticks per question
	Tick           time.Duration // one time unit
	AnswerDelay    time.Duration
	TimeoutDelay   time.Duration
}

// DefaultTiming is 15 one-second ticks, 1.5s after an answer and 2s after a timeout.
func DefaultTiming() Timing {
	return Timing{
		QuestionBudget: 15,
		Tick:           time.Second,
		AnswerDelay:    1500 * time.Millisecond,
		TimeoutDelay:   2 * time.Second,
	}
}

// ResultRecorder persists the single result of a finished session.
type ResultRecorder interface {
	AppendResult(ctx context.Context, result domain.Result) error
}

// OptionView is one displayed option.
type OptionView struct {
	Text string     `json:"text"`
	Mark OptionMark `json:"mark,omitempty"`
}

// View is an immutable snapshot of a session for rendering.
type View struct {
	SessionID  string                   `json:"sessionId"`
	Descriptor domain.SessionDescriptor `json:"descriptor"`
	Phase      Phase                    `json:"phase"`
	Index      int                      `json:"index"`
	Total      int                      `json:"total"`
	Question   string                   `json:"question,omitempty"`
	Options    []OptionView             `json:"options,omitempty"`
	TimeLeft   int                      `json:"timeLeft"`
	TimedOut   bool                     `json:"timedOut,omitempty"`
	Score      int                      `json:"score"`
	Verdict    Verdict                  `json:"verdict,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Result     *domain.Result           `json:"result,omitempty"`
	Navigation []string                 `json:"navigation,omitempty"`
}

// Session is one player's quiz run. All transitions happen under mu, either
// from a player selection or from a timer callback; at most one timer is
// pending at any time.
type Session struct {
	id         string
	descriptor domain.SessionDescriptor
	player     string
	timing     Timing
	clock      Clock
	rnd        *rand.Rand
	recorder   ResultRecorder
	onDone     func()

	mu          sync.Mutex
	phase       Phase
	questions   []domain.Question
	index       int
	options     []string
	selection   Selection
	timeLeft    int
	score       int
	result      *domain.Result
	timer       Timer
	epoch       uint64
	subscribers map[chan View]struct{}
}

// SessionConfig carries the collaborators of a session.
type SessionConfig struct {
	ID         string
	Descriptor domain.SessionDescriptor
	Player     string
	Timing     Timing
	Clock      Clock
	Rand       *rand.Rand
	Recorder   ResultRecorder
	// OnDone runs once when the session settles in Finished or Empty. It is
	// called with the session locked and must not call back into it.
	OnDone func()
}

// NewSession builds a session in the Loading phase. Call Begin to filter the
// question collection and start the loop.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Timing.QuestionBudget <= 0 {
		cfg.Timing = DefaultTiming()
	}
	return &Session{
		id:          cfg.ID,
		descriptor:  cfg.Descriptor,
		player:      cfg.Player,
		timing:      cfg.Timing,
		clock:       cfg.Clock,
		rnd:         cfg.Rand,
		recorder:    cfg.Recorder,
		onDone:      cfg.OnDone,
		phase:       PhaseLoading,
		subscribers: make(map[chan View]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Begin leaves Loading: it keeps the questions matching the descriptor in a
// random order and presents the first one, or settles in Empty.
func (s *Session) Begin(all []domain.Question) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLoading {
		return s.snapshotLocked()
	}

	scoped := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if s.descriptor.Matches(q) {
			scoped = append(scoped, q)
		}
	}
	s.rnd.Shuffle(len(scoped), func(i, j int) { scoped[i], scoped[j] = scoped[j], scoped[i] })
	s.questions = scoped

	if len(scoped) == 0 {
		s.phase = PhaseEmpty
		s.doneLocked()
		return s.broadcastLocked()
	}
	s.presentLocked(0)
	return s.broadcastLocked()
}

// Select grades the displayed option at index for the current question.
func (s *Session) Select(index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhasePresenting:
	case PhaseLocked:
		return s.snapshotLocked(), domain.ErrQuestionLocked
	default:
		return s.snapshotLocked(), domain.ErrSessionNotActive
	}
	if index < 0 || index >= len(s.options) {
		return s.snapshotLocked(), domain.ErrOptionNotFound
	}

	s.cancelTimerLocked()
	s.selection = Selection{Kind: SelectionAnswer, Index: index}
	s.phase = PhaseLocked
	if s.questions[s.index].IsCorrect(s.options[index]) {
		s.score++
	}
	s.scheduleLocked(s.timing.AnswerDelay, s.advanceLocked)
	return s.broadcastLocked(), nil
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Done reports whether the session reached a terminal phase.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseEmpty || s.phase == PhaseFinished || s.phase == PhaseClosed
}

// Close tears the session down: the pending timer is cancelled and all
// subscribers are released. An unfinished session records no result.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	if s.phase != PhaseFinished && s.phase != PhaseEmpty {
		s.phase = PhaseClosed
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel receiving a snapshot per state change, starting
// with the current one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	s.mu.Lock()
	ch <- s.snapshotLocked()
	if s.phase == PhaseClosed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) presentLocked(i int) {
	q := s.questions[i]
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	s.rnd.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })

	s.index = i
	s.options = options
	s.selection = Selection{}
	s.timeLeft = s.timing.QuestionBudget
	s.phase = PhasePresenting
	s.scheduleLocked(s.timing.Tick, s.tickLocked)
}

func (s *Session) tickLocked() {
	if s.phase != PhasePresenting {
		return
	}
	s.timeLeft--
	if s.timeLeft > 0 {
		s.scheduleLocked(s.timing.Tick, s.tickLocked)
		s.broadcastLocked()
		return
	}
	s.timeLeft = 0
	s.selection = Selection{Kind: SelectionTimeout}
	s.phase = PhaseLocked
	s.scheduleLocked(s.timing.TimeoutDelay, s.advanceLocked)
	s.broadcastLocked()
}

func (s *Session) advanceLocked() {
	if s.phase != PhaseLocked {
		return
	}
	if s.index+1 < len(s.questions) {
		s.presentLocked(s.index + 1)
		s.broadcastLocked()
		return
	}
	s.finishLocked()
}

func (s *Session) finishLocked() {
	s.cancelTimerLocked()
	s.phase = PhaseFinished
	result := domain.Result{
		SubjectID:  s.descriptor.SubjectID,
		LevelID:    s.descriptor.LevelID,
		TopicID:    s.descriptor.TopicID,
		Score:      s.score,
		Total:      len(s.questions),
		Date:       s.clock.Now().UTC(),
		PlayerName: s.player,
	}
	s.result = &result
	if s.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.recorder.AppendResult(ctx, result); err != nil {
			log.Printf("session %s: record result: %v", s.id, err)
		}
		cancel()
	}
	s.doneLocked()
	s.broadcastLocked()
}

func (s *Session) doneLocked() {
	if s.onDone != nil {
		s.onDone()
	}
}

// scheduleLocked replaces the pending timer. The callback is dropped if the
// timer was superseded or cancelled in the meantime.
func (s *Session) scheduleLocked(d time.Duration, fn func()) {
	s.cancelTimerLocked()
	epoch := s.epoch
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch {
			return
		}
		s.timer = nil
		fn()
	})
}

func (s *Session) cancelTimerLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) broadcastLocked() View {
	v := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// drop the oldest snapshot so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}

func (s *Session) snapshotLocked() View {
	v := View{
		SessionID:  s.id,
		Descriptor: s.descriptor,
		Phase:      s.phase,
		Index:      s.index,
		Total:      len(s.questions),
		Score:      s.score,
	}

	switch s.phase {
	case PhaseEmpty:
		v.Message = MessageNoQuestions
	case PhasePresenting, PhaseLocked:
		q := s.questions[s.index]
		v.Question = q.Text
		v.TimeLeft = s.timeLeft
		v.TimedOut = s.selection.Kind == SelectionTimeout
		v.Options = make([]OptionView, len(s.options))
		for i, text := range s.options {
			v.Options[i] = OptionView{Text: text}
			if s.phase == PhaseLocked {
				v.Options[i].Mark = s.markLocked(q, i)
			}
		}
	case PhaseFinished:
		if s.result != nil {
			r := *s.result
			v.Result = &r
		}
		v.Verdict = verdictFor(s.score, len(s.questions))
		if v.Verdict == VerdictPositive {
			v.Message = MessagePositive
		} else {
			v.Message = MessageEncouraging
		}
		v.Navigation = []string{NavSelect, NavResults}
	}
	return v
}

func (s *Session) markLocked(q domain.Question, i int) OptionMark {
	correct := q.IsCorrect(s.options[i])
	chosen := s.selection.Kind == SelectionAnswer && s.selection.Index == i
	switch {
	case chosen && correct:
		return MarkChosenCorrect
	case chosen:
		return MarkChosenIncorrect
	case correct:
		return MarkCorrect
	default:
		return MarkOther
	}
}

// verdictFor is positive when score >= total/2.
func verdictFor(score, total int) Verdict {
	if 2*score >= total {
		return VerdictPositive
	}
	return VerdictEncouraging
}
