package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knolnotes/internal/codelike"
	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/notes"
)

type indexPage struct {
	Notes       []domain.Note
	Collections []domain.Collection
}

// handleIndex renders the notes page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := s.notes.ListNotes(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	cols, err := s.notes.ListCollections(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index", indexPage{Notes: list, Collections: cols})
}

func noteInput(r *http.Request) notes.NoteInput {
	return notes.NoteInput{
		Content:       r.PostFormValue("content"),
		HiddenContent: r.PostFormValue("hidden_content"),
	}
}

// handleCreateNote adds a note and renders it for insertion at the top of
// the list.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	n, err := s.notes.CreateNote(r.Context(), noteInput(r))
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "note", n)
}

// handleUpdateNote autosaves a note. The response is the note's read view;
// the HX-Trigger header tells the page which editor the new text needs.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	n, err := s.notes.UpdateNote(r.Context(), chi.URLParam(r, "id"), noteInput(r))
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	trigger, _ := json.Marshal(map[string]any{
		"note-widget": map[string]string{"id": n.ID, "widget": string(codelike.WidgetFor(n.Content))},
	})
	w.Header().Set("HX-Trigger", string(trigger))
	s.render(w, r, http.StatusOK, "note_view", n)
}

// handleDeleteNote removes a note. The empty response removes it from the
// page.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.htmlError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleCreateCollection adds a collection and re-renders the collection
// list.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	if _, err := s.notes.CreateCollection(r.Context(), notes.CollectionInput{Name: r.PostFormValue("name")}); err != nil {
		s.htmlError(w, r, err)
		return
	}
	cols, err := s.notes.ListCollections(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "collection_list", cols)
}

type collectionPage struct {
	Collection *domain.Collection
	Notes      []domain.Note
	// Available are the user's notes not yet in the collection.
	Available []domain.Note
}

// handleGetCollection renders a collection with its notes in quiz order.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.notes.GetCollection(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	list, err := s.notes.CollectionNotes(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	all, err := s.notes.ListNotes(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	in := make(map[string]bool, len(list))
	for _, n := range list {
		in[n.ID] = true
	}
	page := collectionPage{Collection: c, Notes: list}
	for _, n := range all {
		if !in[n.ID] {
			page.Available = append(page.Available, n)
		}
	}
	s.render(w, r, http.StatusOK, "collection", page)
}

// handleAddToCollection links the posted note_id to the collection.
func (s *Server) handleAddToCollection(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	err := s.notes.AddToCollection(r.Context(), chi.URLParam(r, "id"), r.PostFormValue("note_id"))
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	w.Header().Set("HX-Trigger", "collection-changed")
	w.WriteHeader(http.StatusNoContent)
}
