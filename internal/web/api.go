package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knolnotes/internal/codelike"
	"github.com/conorfennell/knolnotes/internal/notes"
)

func (s *Server) apiRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", s.apiListNotes)
		r.Post("/", s.apiCreateNote)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.apiGetNote)
			r.Put("/", s.apiUpdateNote)
			r.Delete("/", s.apiDeleteNote)
			r.Get("/memory", s.apiNoteMemory)
		})
	})

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.apiListCollections)
		r.Post("/", s.apiCreateCollection)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.apiGetCollection)
			r.Delete("/", s.apiDeleteCollection)
			r.Get("/notes", s.apiCollectionNotes)
			r.Post("/notes/{noteID}", s.apiAddToCollection)
			r.Delete("/notes/{noteID}", s.apiRemoveFromCollection)
			r.Get("/stats", s.apiCollectionStats)
		})
	})

	r.Post("/classify", s.apiClassify)
}

func (s *Server) apiListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.notes.ListNotes(r.Context())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiCreateNote(w http.ResponseWriter, r *http.Request) {
	var in notes.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	n, err := s.notes.CreateNote(r.Context(), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) apiGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := s.notes.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) apiUpdateNote(w http.ResponseWriter, r *http.Request) {
	var in notes.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	n, err := s.notes.UpdateNote(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) apiDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiNoteMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.notes.Memory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) apiListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.notes.ListCollections(r.Context())
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) apiCreateCollection(w http.ResponseWriter, r *http.Request) {
	var in notes.CollectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.jsonError(w, r, err)
		return
	}
	c, err := s.notes.CreateCollection(r.Context(), in)
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) apiGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.notes.GetCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) apiDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.DeleteCollection(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiCollectionNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.notes.CollectionNotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiAddToCollection(w http.ResponseWriter, r *http.Request) {
	err := s.notes.AddToCollection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteID"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiRemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	err := s.notes.RemoveFromCollection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteID"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiCollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.notes.CollectionStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	CodeLike   bool            `json:"code_like"`
	Widget     codelike.Widget `json:"widget"`
	CodeLines  int             `json:"code_lines"`
	TotalLines int             `json:"total_lines"`
}

// apiClassify reports which editor a text would get.
func (s *Server) apiClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.jsonError(w, r, err)
		return
	}
	code, total := codelike.Count(req.Text)
	writeJSON(w, http.StatusOK, classifyResponse{
		CodeLike:   codelike.IsCodeLike(req.Text),
		Widget:     codelike.WidgetFor(req.Text),
		CodeLines:  code,
		TotalLines: total,
	})
}
