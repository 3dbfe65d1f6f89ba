// Package notes is the application layer over storage: it validates input,
// scopes notes and collections to the acting user and feeds quiz answers
// into the memory model.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/fsrs"
	"github.com/conorfennell/knolnotes/internal/metrics"
	"github.com/conorfennell/knolnotes/internal/storage"
)

// ErrInvalidInput wraps validation failures.
var ErrInvalidInput = errors.New("invalid input")

// MaxContentLength bounds each side of a note, in characters.
const MaxContentLength = 50000

// Store is the subset of storage.DB the service needs.
type Store interface {
	InsertNote(ctx context.Context, n *domain.Note) error
	UpdateNote(ctx context.Context, id, content, hidden string) (*domain.Note, error)
	DeleteNote(ctx context.Context, id string) error
	FindNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)

	CreateCollection(ctx context.Context, c *domain.Collection) error
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)
	FindCollection(ctx context.Context, id string) (*domain.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	AddNoteToCollection(ctx context.Context, noteID, collectionID string) error
	RemoveNoteFromCollection(ctx context.Context, noteID, collectionID string) error
	NotesForCollection(ctx context.Context, collectionID string) ([]domain.Note, error)

	RecordAttempt(ctx context.Context, a domain.Attempt) error
	CollectionStats(ctx context.Context, collectionID string) (storage.Stats, error)
	FindMemory(ctx context.Context, noteID string) (*storage.NoteMemory, error)
	UpsertMemory(ctx context.Context, m storage.NoteMemory) error
}

// NoteInput is the editable part of a note.
type NoteInput struct {
	Content       string `json:"content" validate:"max=50000"`
	HiddenContent string `json:"hidden_content" validate:"max=50000"`
}

// CollectionInput names a new collection.
type CollectionInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Memory is the memory-model view of a note.
type Memory struct {
	NoteID     string     `json:"note_id"`
	Stability  float64    `json:"stability"`
	Difficulty float64    `json:"difficulty"`
	LastReview *time.Time `json:"last_review,omitempty"`
	DueAt      time.Time  `json:"due_at"`
}

// Service manages one user's notes, collections and answer history.
type Service struct {
	store    Store
	userID   string
	params   *fsrs.Params
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service acting as userID.
func NewService(store Store, userID string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		userID:   userID,
		params:   fsrs.DefaultParams(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UserID is the user every note and collection belongs to.
func (s *Service) UserID() string { return s.userID }

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func observe(op string) {
	metrics.NotesOperationsTotal.WithLabelValues(op).Inc()
}

// CreateNote stores a new note for the acting user.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (*domain.Note, error) {
	observe("create_note")
	if err := s.check(in); err != nil {
		return nil, err
	}
	n := &domain.Note{
		UserID:        s.userID,
		Content:       in.Content,
		HiddenContent: in.HiddenContent,
	}
	if err := s.store.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "note created", "note_id", n.ID)
	return n, nil
}

// UpdateNote saves both sides of a note. It is called on every edit.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteInput) (*domain.Note, error) {
	observe("update_note")
	if err := s.check(in); err != nil {
		return nil, err
	}
	if _, err := s.GetNote(ctx, id); err != nil {
		return nil, err
	}
	return s.store.UpdateNote(ctx, id, in.Content, in.HiddenContent)
}

func (s *Service) DeleteNote(ctx context.Context, id string) error {
	observe("delete_note")
	if _, err := s.GetNote(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteNote(ctx, id)
}

// GetNote returns a note owned by the acting user. Notes of other users are
// reported as not found.
func (s *Service) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	n, err := s.store.FindNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != s.userID {
		return nil, fmt.Errorf("note %s: %w", id, storage.ErrNotFound)
	}
	return n, nil
}

// ListNotes returns the acting user's notes, newest first.
func (s *Service) ListNotes(ctx context.Context) ([]domain.Note, error) {
	observe("list_notes")
	return s.store.ListNotes(ctx, s.userID)
}

// CreateCollection stores a collection under a trimmed name.
func (s *Service) CreateCollection(ctx context.Context, in CollectionInput) (*domain.Collection, error) {
	observe("create_collection")
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	c := &domain.Collection{UserID: s.userID, Name: in.Name}
	if err := s.store.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "collection created", "collection_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	observe("list_collections")
	return s.store.ListCollections(ctx, s.userID)
}

// GetCollection returns a collection owned by the acting user.
func (s *Service) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	c, err := s.store.FindCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != s.userID {
		return nil, fmt.Errorf("collection %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	observe("delete_collection")
	if _, err := s.GetCollection(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteCollection(ctx, id)
}

// AddToCollection links a note to a collection. Linking twice is a conflict.
func (s *Service) AddToCollection(ctx context.Context, collectionID, noteID string) error {
	observe("add_to_collection")
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	if _, err := s.GetNote(ctx, noteID); err != nil {
		return err
	}
	return s.store.AddNoteToCollection(ctx, noteID, collectionID)
}

func (s *Service) RemoveFromCollection(ctx context.Context, collectionID, noteID string) error {
	observe("remove_from_collection")
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	return s.store.RemoveNoteFromCollection(ctx, noteID, collectionID)
}

// CollectionNotes returns a collection's notes in the order they were added,
// which is the order a quiz walks them.
func (s *Service) CollectionNotes(ctx context.Context, collectionID string) ([]domain.Note, error) {
	observe("collection_notes")
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	return s.store.NotesForCollection(ctx, collectionID)
}

func (s *Service) CollectionStats(ctx context.Context, collectionID string) (storage.Stats, error) {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return storage.Stats{}, err
	}
	return s.store.CollectionStats(ctx, collectionID)
}

// RecordAnswer stores a judged quiz answer and advances the note's memory
// state.
func (s *Service) RecordAnswer(ctx context.Context, collectionID string, note domain.Note, correct bool) error {
	now := s.now()
	err := s.store.RecordAttempt(ctx, domain.Attempt{
		NoteID:       note.ID,
		CollectionID: collectionID,
		Correct:      correct,
		AnsweredAt:   now,
	})
	if err != nil {
		return err
	}

	var current fsrs.CardState
	m, err := s.store.FindMemory(ctx, note.ID)
	switch {
	case err == nil:
		current = fsrs.CardState{Stability: m.Stability, Difficulty: m.Difficulty}
		if m.LastReview.Valid {
			current.LastReview = m.LastReview.Time
		}
	case !errors.Is(err, storage.ErrNotFound):
		return err
	}

	next, due := s.params.Review(current, correct, now)
	err = s.store.UpsertMemory(ctx, storage.NoteMemory{
		NoteID:     note.ID,
		Stability:  next.Stability,
		Difficulty: next.Difficulty,
		LastReview: sqlTime(next.LastReview),
		DueAt:      due,
	})
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "answer recorded",
		"note_id", note.ID, "correct", correct, "stability", next.Stability, "due_at", due)
	return nil
}

// Memory returns a note's memory state.
func (s *Service) Memory(ctx context.Context, noteID string) (*Memory, error) {
	if _, err := s.GetNote(ctx, noteID); err != nil {
		return nil, err
	}
	m, err := s.store.FindMemory(ctx, noteID)
	if err != nil {
		return nil, err
	}
	out := &Memory{
		NoteID:     m.NoteID,
		Stability:  m.Stability,
		Difficulty: m.Difficulty,
		DueAt:      m.DueAt,
	}
	if m.LastReview.Valid {
		t := m.LastReview.Time
		out.LastReview = &t
	}
	return out, nil
}

func sqlTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
