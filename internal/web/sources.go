package web

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conorfennell/knolnotes/internal/notes"
	"github.com/conorfennell/knolnotes/internal/storage"
)

type sourcesPage struct {
	Sources []storage.Source
	Synced  bool
	Error   string
}

func (s *Server) renderSourceList(w http.ResponseWriter, r *http.Request, page sourcesPage) {
	sources, err := s.db.GetAllSources(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	page.Sources = sources
	s.render(w, r, http.StatusOK, "source_list", page)
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources(r.Context())
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "sources", sourcesPage{Sources: sources})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.htmlError(w, r, err)
		return
	}
	path := strings.TrimSpace(r.PostFormValue("path"))
	if path == "" {
		s.htmlError(w, r, fmt.Errorf("%w: path cannot be empty", notes.ErrInvalidInput))
		return
	}

	_, err := s.syncer.AddSource(r.Context(), s.notes.UserID(), path, r.PostFormValue("collection"))
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %v", notes.ErrInvalidInput, err)
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.renderSourceList(w, r, sourcesPage{})
}

// handleDeleteSource deletes a source with its notes and re-renders the
// source list.
func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.htmlError(w, r, fmt.Errorf("%w: invalid source ID", notes.ErrInvalidInput))
		return
	}
	if err := s.db.DeleteSource(r.Context(), id); err != nil {
		s.htmlError(w, r, err)
		return
	}
	s.renderSourceList(w, r, sourcesPage{})
}

// handlePostSync runs a sync in the foreground and re-renders the source
// list with the outcome.
func (s *Server) handlePostSync(w http.ResponseWriter, r *http.Request) {
	page := sourcesPage{Synced: true}
	if err := s.syncer.Run(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "manual sync failed", "error", err)
		page.Error = err.Error()
	}
	s.renderSourceList(w, r, page)
}
