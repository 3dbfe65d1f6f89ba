package flashcard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// Quiz is a deck started for a collection.
type Quiz struct {
	ID           string
	CollectionID string
	Deck         *Deck
}

// Registry keeps the decks of in-progress quizzes keyed by quiz ID.
type Registry struct {
	mu       sync.Mutex
	quizzes  map[string]*Quiz
	clock    clockwork.Clock
	ttl      time.Duration
	onChange func(active int)
}

// NewRegistry creates a registry that evicts quizzes idle for longer than
// ttl. onChange, if set, is called with the number of live quizzes after
// every start, end or eviction.
func NewRegistry(clock clockwork.Clock, ttl time.Duration, onChange func(active int)) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		quizzes:  make(map[string]*Quiz),
		clock:    clock,
		ttl:      ttl,
		onChange: onChange,
	}
}

// Start creates a deck over notes and registers it.
func (r *Registry) Start(collectionID string, notes []domain.Note, opts ...Option) *Quiz {
	opts = append([]Option{WithClock(r.clock)}, opts...)
	q := &Quiz{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Deck:         NewDeck(notes, opts...),
	}

	r.mu.Lock()
	r.quizzes[q.ID] = q
	n := len(r.quizzes)
	r.mu.Unlock()

	r.changed(n)
	return q
}

// Get looks up a live quiz.
func (r *Registry) Get(id string) (*Quiz, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[id]
	return q, ok
}

// End closes and removes a quiz. It reports whether the quiz existed.
func (r *Registry) End(id string) bool {
	r.mu.Lock()
	q, ok := r.quizzes[id]
	if ok {
		delete(r.quizzes, id)
	}
	n := len(r.quizzes)
	r.mu.Unlock()

	if !ok {
		return false
	}
	q.Deck.Close()
	r.changed(n)
	return true
}

// EvictIdle closes quizzes whose deck has been idle longer than the TTL and
// returns how many were removed.
func (r *Registry) EvictIdle() int {
	if r.ttl <= 0 {
		return 0
	}
	now := r.clock.Now()

	r.mu.Lock()
	var evicted []*Quiz
	for id, q := range r.quizzes {
		if now.Sub(q.Deck.LastActive()) > r.ttl {
			evicted = append(evicted, q)
			delete(r.quizzes, id)
		}
	}
	n := len(r.quizzes)
	r.mu.Unlock()

	for _, q := range evicted {
		q.Deck.Close()
	}
	if len(evicted) > 0 {
		r.changed(n)
	}
	return len(evicted)
}

// Len returns the number of live quizzes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quizzes)
}

// CloseAll ends every quiz.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	quizzes := r.quizzes
	r.quizzes = make(map[string]*Quiz)
	r.mu.Unlock()

	for _, q := range quizzes {
		q.Deck.Close()
	}
	r.changed(0)
}

func (r *Registry) changed(n int) {
	if r.onChange != nil {
		r.onChange(n)
	}
}
