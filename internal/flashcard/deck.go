package flashcard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// NextIndex is the round-robin step over n cards.
func NextIndex(cur, n int) int {
	if n <= 0 {
		return 0
	}
	return (cur + 1) % n
}

// Deck owns one Session at a time over an ordered set of notes. When a
// session's advance fires, the deck moves to the next note and replaces it.
type Deck struct {
	mu         sync.Mutex
	notes      []domain.Note
	idx        int
	current    *Session
	closed     bool
	lastActive time.Time

	clock     clockwork.Clock
	onAdvance func(idx int)
	onAttempt func(note domain.Note, correct bool)
}

// Option configures a Deck.
type Option func(*Deck)

// WithClock sets the clock used for advance timers.
func WithClock(c clockwork.Clock) Option {
	return func(d *Deck) { d.clock = c }
}

// OnAdvance registers a hook called with the new index after each advance.
func OnAdvance(fn func(idx int)) Option {
	return func(d *Deck) { d.onAdvance = fn }
}

// OnAttempt registers a hook called once per judged card.
func OnAttempt(fn func(note domain.Note, correct bool)) Option {
	return func(d *Deck) { d.onAttempt = fn }
}

// NewDeck starts a deck at the first note.
func NewDeck(notes []domain.Note, opts ...Option) *Deck {
	d := &Deck{notes: notes}
	for _, opt := range opts {
		opt(d)
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	d.lastActive = d.clock.Now()
	if len(d.notes) > 0 {
		d.current = d.newSession()
	}
	return d
}

func (d *Deck) newSession() *Session {
	return NewSession(d.notes[d.idx], d.clock, d.advanceFrom)
}

// Len returns the number of notes in the deck.
func (d *Deck) Len() int { return len(d.notes) }

// Index returns the position of the current card.
func (d *Deck) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idx
}

// Current returns the live session, or nil for an empty or closed deck.
func (d *Deck) Current() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	return d.current
}

// Input forwards an input change to the current card.
func (d *Deck) Input(text string) {
	if s := d.touch(); s != nil {
		s.Input(text)
	}
}

// Commit judges the current card. ok is false when there is no card.
func (d *Deck) Commit() (o Outcome, ok bool) {
	s := d.touch()
	if s == nil {
		return Pending, false
	}
	o, judged := s.commit()
	if judged && d.onAttempt != nil {
		d.onAttempt(s.Note(), o == Correct)
	}
	return o, true
}

// Skip advances immediately, cancelling any pending advance.
func (d *Deck) Skip() {
	d.mu.Lock()
	if d.closed || d.current == nil {
		d.mu.Unlock()
		return
	}
	d.current.Dispose()
	d.lastActive = d.clock.Now()
	idx := d.step()
	d.mu.Unlock()

	if d.onAdvance != nil {
		d.onAdvance(idx)
	}
}

func (d *Deck) advanceFrom(s *Session) {
	d.mu.Lock()
	if d.closed || d.current != s {
		d.mu.Unlock()
		return
	}
	idx := d.step()
	d.mu.Unlock()

	if d.onAdvance != nil {
		d.onAdvance(idx)
	}
}

// step must be called with d.mu held.
func (d *Deck) step() int {
	d.idx = NextIndex(d.idx, len(d.notes))
	d.current = d.newSession()
	return d.idx
}

func (d *Deck) touch() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.lastActive = d.clock.Now()
	return d.current
}

// LastActive returns when the deck last received a signal.
func (d *Deck) LastActive() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActive
}

// Close disposes the current session. No advance happens afterwards.
func (d *Deck) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.current != nil {
		d.current.Dispose()
	}
}

// Closed reports whether Close was called.
func (d *Deck) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
