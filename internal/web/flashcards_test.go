package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolnotes/internal/flashcard"
	"github.com/conorfennell/knolnotes/internal/notes"
	"github.com/conorfennell/knolnotes/internal/storage"
)

var htmxHeader = map[string]string{"HX-Request": "true"}

func (ts *testServer) collection(t *testing.T, name string, ids ...string) string {
	t.Helper()
	ctx := context.Background()
	c, err := ts.svc.CreateCollection(ctx, notes.CollectionInput{Name: name})
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, ts.svc.AddToCollection(ctx, c.ID, id))
	}
	return c.ID
}

func (ts *testServer) startQuiz(t *testing.T, collectionID string) *flashcard.Quiz {
	t.Helper()
	rec := ts.postForm(t, "/flashcards/", url.Values{"collection_id": {collectionID}}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	push := rec.Header().Get("HX-Push-Url")
	id := strings.TrimSuffix(strings.TrimPrefix(push, "/flashcards/"), "/card")
	q, ok := ts.quizzes.Get(id)
	require.True(t, ok, "quiz %q not registered", id)
	return q
}

func TestFlashcardsPage(t *testing.T) {
	ts := newTestServer(t)
	ts.collection(t, "Capitals")

	rec := ts.do(t, http.MethodGet, "/flashcards/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Capitals")
}

func TestQuizFlow(t *testing.T) {
	ts := newTestServer(t)
	france := ts.note(t, "capital of France", "Paris")
	spain := ts.note(t, "capital of Spain", "Madrid")
	colID := ts.collection(t, "Capitals", france.ID, spain.ID)

	q := ts.startQuiz(t, colID)
	base := "/flashcards/" + q.ID

	rec := ts.do(t, http.MethodGet, base+"/card", nil, htmxHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capital of France")
	assert.Contains(t, rec.Body.String(), "1 / 2")

	rec = ts.postForm(t, base+"/input", url.Values{"input": {" Paris "}}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.postForm(t, base+"/answer", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct!")
	assert.Contains(t, rec.Body.String(), `hx-trigger="load delay:750ms"`)

	stats, err := ts.svc.CollectionStats(context.Background(), colID)
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{Attempts: 1, Correct: 1}, stats)

	mem, err := ts.svc.Memory(context.Background(), france.ID)
	require.NoError(t, err)
	assert.Greater(t, mem.Stability, 0.0)

	// A second commit on a judged card changes nothing.
	rec = ts.postForm(t, base+"/answer", url.Values{"input": {"wrong"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Correct!")

	ts.clock.Advance(flashcard.CorrectDelay)
	require.Eventually(t, func() bool { return q.Deck.Index() == 1 }, time.Second, 5*time.Millisecond)

	rec = ts.do(t, http.MethodGet, base+"/card", nil, htmxHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capital of Spain")

	rec = ts.postForm(t, base+"/answer", url.Values{"input": {"Barcelona"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Correct answer:")
	assert.Contains(t, body, "Madrid")

	stats, err = ts.svc.CollectionStats(context.Background(), colID)
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{Attempts: 2, Correct: 1}, stats)

	rec = ts.postForm(t, base+"/skip", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "capital of France", "skip wraps to the first card")
	assert.Equal(t, 0, q.Deck.Index())

	// The cancelled advance of the skipped card must not move the deck.
	ts.clock.Advance(flashcard.IncorrectDelay)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, q.Deck.Index())

	rec = ts.do(t, http.MethodDelete, base, nil, htmxHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quiz ended.")
	assert.True(t, q.Deck.Closed())

	rec = ts.do(t, http.MethodDelete, base, nil, htmxHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, base+"/card", nil, htmxHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuizFullPageAndRedirect(t *testing.T) {
	ts := newTestServer(t)
	n := ts.note(t, "2+2", "4")
	colID := ts.collection(t, "Maths", n.ID)

	rec := ts.postForm(t, "/flashcards/", url.Values{"collection_id": {colID}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/flashcards/"))

	rec = ts.do(t, http.MethodGet, loc, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), "End quiz")
}

func TestQuizEmptyCollection(t *testing.T) {
	ts := newTestServer(t)
	colID := ts.collection(t, "Empty")

	q := ts.startQuiz(t, colID)
	assert.Nil(t, q.Deck.Current())

	rec := ts.postForm(t, "/flashcards/"+q.ID+"/answer", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This collection has no notes.")
}

func TestQuizUnknownCollection(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.postForm(t, "/flashcards/", url.Values{"collection_id": {"missing"}}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, ts.quizzes.Len())
}
