// Package flashcard drives the flashcard quiz: a Session judges one card,
// a Deck cycles sessions over a collection's notes, and a Registry keeps
// the decks of in-progress quizzes.
package flashcard

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// Delays before a judged card advances. An incorrect answer holds longer so
// the revealed answer can be read.
const (
	CorrectDelay   = 700 * time.Millisecond
	IncorrectDelay = 1500 * time.Millisecond
)

// Outcome is the judgement of a card.
type Outcome int

const (
	Pending Outcome = iota
	Correct
	Incorrect
)

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "pending"
	}
}

// Session is the quiz interaction for a single card. It starts Pending,
// moves to Correct or Incorrect on Commit and then schedules one advance.
type Session struct {
	mu        sync.Mutex
	note      domain.Note
	clock     clockwork.Clock
	onAdvance func(*Session)

	input     string
	outcome   Outcome
	revealed  bool
	advanced  bool
	disposed  bool
	advanceAt time.Time
	timer     clockwork.Timer
}

// NewSession creates a Pending session for note. onAdvance is called at most
// once, from the timer's goroutine, when the scheduled advance fires.
func NewSession(note domain.Note, clock clockwork.Clock, onAdvance func(*Session)) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{note: note, clock: clock, onAdvance: onAdvance}
}

// Note returns the card under test.
func (s *Session) Note() domain.Note { return s.note }

// Prompt returns the visible side of the card.
func (s *Session) Prompt() string { return s.note.Content }

// Input replaces the user's answer. It is ignored once the card is judged.
func (s *Session) Input(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.outcome != Pending {
		return
	}
	s.input = text
}

// UserInput returns the current answer text.
func (s *Session) UserInput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Commit judges the current input against the hidden side, ignoring
// surrounding whitespace on both. Committing a judged card is a no-op.
func (s *Session) Commit() Outcome {
	o, _ := s.commit()
	return o
}

// commit reports whether this call judged the card.
func (s *Session) commit() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.outcome != Pending {
		return s.outcome, false
	}

	delay := CorrectDelay
	if strings.TrimSpace(s.input) == strings.TrimSpace(s.note.HiddenContent) {
		s.outcome = Correct
	} else {
		s.outcome = Incorrect
		s.revealed = true
		delay = IncorrectDelay
	}
	s.advanceAt = s.clock.Now().Add(delay)
	s.timer = s.clock.AfterFunc(delay, s.fire)
	return s.outcome, true
}

func (s *Session) fire() {
	s.mu.Lock()
	if s.disposed || s.advanced {
		s.mu.Unlock()
		return
	}
	s.input = ""
	s.revealed = false
	s.advanced = true
	s.timer = nil
	cb := s.onAdvance
	s.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

// Outcome returns the judgement so far.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Correct reports whether the card was answered correctly.
func (s *Session) Correct() bool { return s.Outcome() == Correct }

// RevealedAnswer returns the stored hidden side, untrimmed, while an
// incorrect answer is waiting to advance.
func (s *Session) RevealedAnswer() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.revealed {
		return "", false
	}
	return s.note.HiddenContent, true
}

// AdvanceRequested reports whether the scheduled advance has fired.
func (s *Session) AdvanceRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanced
}

// AdvanceIn returns how long until the scheduled advance fires, or false if
// none is pending.
func (s *Session) AdvanceIn() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.disposed {
		return 0, false
	}
	d := s.advanceAt.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}

// Dispose cancels any pending advance. A disposed session never changes
// state again.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
