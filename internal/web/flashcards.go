package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knolnotes/internal/codelike"
	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/flashcard"
	"github.com/conorfennell/knolnotes/internal/metrics"
	"github.com/conorfennell/knolnotes/internal/storage"
)

// recordTimeout bounds storing an answer. Answers are recorded from the
// deck's attempt hook, after the request that caused them may have ended.
const recordTimeout = 5 * time.Second

// cardView is what the card template renders for the current session.
type cardView struct {
	QuizID     string
	Collection string
	Index      int
	Total      int
	Prompt     string
	Widget     codelike.Widget
	Input      string
	Judged     bool
	Correct    bool
	Revealed   string
	HasReveal  bool
	// ReloadMs, when positive, is how long the page waits before fetching
	// the next card.
	ReloadMs int64
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	cols, err := s.notes.ListCollections(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "flashcards", cols)
}

// handleStartQuiz starts a quiz over the posted collection_id.
func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	collectionID := r.PostFormValue("collection_id")
	list, err := s.notes.CollectionNotes(r.Context(), collectionID)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	q := s.quizzes.Start(collectionID, list, flashcard.OnAttempt(s.recordAttempt(collectionID)))
	s.logger.InfoContext(r.Context(), "quiz started", "quiz_id", q.ID, "collection_id", collectionID, "notes", len(list))

	if !isHTMX(r) {
		http.Redirect(w, r, "/flashcards/"+q.ID+"/card", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Push-Url", "/flashcards/"+q.ID+"/card")
	s.render(w, r, http.StatusOK, "quiz", s.cardView(q))
}

// recordAttempt stores judged answers and feeds the memory model.
func (s *Server) recordAttempt(collectionID string) func(domain.Note, bool) {
	return func(note domain.Note, correct bool) {
		metrics.FlashcardAnswersTotal.WithLabelValues(outcomeLabel(correct)).Inc()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.notes.RecordAnswer(ctx, collectionID, note, correct); err != nil {
			s.logger.Error("failed to record answer", "note_id", note.ID, "collection_id", collectionID, "error", err)
		}
	}
}

func outcomeLabel(correct bool) string {
	if correct {
		return flashcard.Correct.String()
	}
	return flashcard.Incorrect.String()
}

func (s *Server) quiz(w http.ResponseWriter, r *http.Request) (*flashcard.Quiz, bool) {
	q, ok := s.quizzes.Get(chi.URLParam(r, "quiz"))
	if !ok {
		s.htmlError(w, r, storage.ErrNotFound)
		return nil, false
	}
	return q, true
}

func (s *Server) cardView(q *flashcard.Quiz) cardView {
	v := cardView{QuizID: q.ID, Collection: q.CollectionID, Total: q.Deck.Len()}
	sess := q.Deck.Current()
	if sess == nil {
		return v
	}
	v.Index = q.Deck.Index()
	v.Prompt = sess.Prompt()
	v.Widget = codelike.WidgetFor(sess.Prompt())
	v.Input = sess.UserInput()
	if o := sess.Outcome(); o != flashcard.Pending {
		v.Judged = true
		v.Correct = o == flashcard.Correct
	}
	v.Revealed, v.HasReveal = sess.RevealedAnswer()
	if d, ok := sess.AdvanceIn(); ok {
		v.ReloadMs = d.Milliseconds() + 50
	}
	return v
}

// handleCard renders the current card. A full page load gets the quiz
// page around it.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	q, ok := s.quiz(w, r)
	if !ok {
		return
	}
	name := "quiz_page"
	if isHTMX(r) {
		name = "card"
	}
	s.render(w, r, http.StatusOK, name, s.cardView(q))
}

// handleInput forwards the answer box's text to the current card.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	q, ok := s.quiz(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	q.Deck.Input(r.PostFormValue("input"))
	w.WriteHeader(http.StatusNoContent)
}

// handleAnswer is the commit signal. A posted input replaces the current
// text before the card is judged.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	q, ok := s.quiz(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	if _, posted := r.PostForm["input"]; posted {
		q.Deck.Input(r.PostForm.Get("input"))
	}
	q.Deck.Commit()
	s.render(w, r, http.StatusOK, "card", s.cardView(q))
}

// handleSkip moves to the next card without judging the current one.
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	q, ok := s.quiz(w, r)
	if !ok {
		return
	}
	q.Deck.Skip()
	s.render(w, r, http.StatusOK, "card", s.cardView(q))
}

// handleEndQuiz closes the quiz; no advance happens after this.
func (s *Server) handleEndQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quiz")
	if !s.quizzes.End(id) {
		s.htmlError(w, r, storage.ErrNotFound)
		return
	}
	s.logger.InfoContext(r.Context(), "quiz ended", "quiz_id", id)
	s.render(w, r, http.StatusOK, "quiz_ended", nil)
}
