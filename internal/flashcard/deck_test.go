package flashcard

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolnotes/internal/domain"
)

func testNotes(n int) []domain.Note {
	notes := make([]domain.Note, n)
	for i := range notes {
		notes[i] = domain.Note{
			ID:            string(rune('a' + i)),
			Content:       "question " + string(rune('a'+i)),
			HiddenContent: "answer " + string(rune('a'+i)),
		}
	}
	return notes
}

func newTestDeck(n int, opts ...Option) (*Deck, *clockwork.FakeClock, chan int) {
	clock := clockwork.NewFakeClock()
	advanced := make(chan int, 8)
	opts = append([]Option{WithClock(clock), OnAdvance(func(idx int) { advanced <- idx })}, opts...)
	return NewDeck(testNotes(n), opts...), clock, advanced
}

func TestNextIndex(t *testing.T) {
	testCases := []struct {
		cur, n, expected int
	}{
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
		{0, 1, 0},
		{4, 0, 0},
	}
	for _, tc := range testCases {
		if got := NextIndex(tc.cur, tc.n); got != tc.expected {
			t.Errorf("NextIndex(%d, %d) = %d, expected %d", tc.cur, tc.n, got, tc.expected)
		}
	}
}

func TestDeckRoundRobin(t *testing.T) {
	d, clock, advanced := newTestDeck(3)

	for _, expected := range []int{1, 2, 0, 1} {
		s := d.Current()
		require.NotNil(t, s)
		d.Input(s.Note().HiddenContent)
		o, ok := d.Commit()
		require.True(t, ok)
		require.Equal(t, Correct, o)

		clock.Advance(CorrectDelay)
		assert.Equal(t, expected, waitFor(t, advanced))
		assert.Equal(t, expected, d.Index())
		assert.NotSame(t, s, d.Current())
	}
}

func TestDeckSingleNoteWraps(t *testing.T) {
	d, clock, advanced := newTestDeck(1)
	first := d.Current()

	d.Input("wrong")
	d.Commit()
	clock.Advance(IncorrectDelay)
	assert.Equal(t, 0, waitFor(t, advanced))

	next := d.Current()
	require.NotNil(t, next)
	assert.NotSame(t, first, next)
	assert.Equal(t, first.Note().ID, next.Note().ID)
	assert.Equal(t, Pending, next.Outcome())
}

func TestDeckCloseCancelsAdvance(t *testing.T) {
	d, clock, advanced := newTestDeck(2)
	s := d.Current()

	d.Input("wrong")
	d.Commit()
	d.Close()
	clock.Advance(2 * IncorrectDelay)
	expectNone(t, advanced)

	assert.True(t, d.Closed())
	assert.Nil(t, d.Current())
	assert.Equal(t, 0, d.Index())
	assert.False(t, s.AdvanceRequested())

	_, ok := d.Commit()
	assert.False(t, ok)
	d.Skip()
	assert.Equal(t, 0, d.Index())
}

func TestDeckEmpty(t *testing.T) {
	d, _, advanced := newTestDeck(0)

	assert.Nil(t, d.Current())
	d.Input("anything")
	_, ok := d.Commit()
	assert.False(t, ok)
	d.Skip()
	expectNone(t, advanced)
	d.Close()
}

func TestDeckSkip(t *testing.T) {
	d, clock, advanced := newTestDeck(2)
	s := d.Current()

	d.Input("wrong")
	d.Commit()
	d.Skip()
	assert.Equal(t, 1, waitFor(t, advanced))

	// The skipped card's timer must not advance the deck a second time.
	clock.Advance(IncorrectDelay)
	expectNone(t, advanced)
	assert.Equal(t, 1, d.Index())
	assert.False(t, s.AdvanceRequested())
}

func TestDeckOnAttempt(t *testing.T) {
	type attempt struct {
		id      string
		correct bool
	}
	var attempts []attempt
	d, clock, advanced := newTestDeck(2, OnAttempt(func(n domain.Note, correct bool) {
		attempts = append(attempts, attempt{n.ID, correct})
	}))

	d.Input("answer a")
	d.Commit()
	d.Commit()
	clock.Advance(CorrectDelay)
	waitFor(t, advanced)

	d.Input("no idea")
	d.Commit()

	assert.Equal(t, []attempt{{"a", true}, {"b", false}}, attempts)
}
