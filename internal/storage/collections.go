package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// CreateCollection stores a new collection, assigning its ID. A name the
// user already has returns ErrConflict.
func (db *DB) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = db.now()

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO collections (id, user_id, name, created_at)
		VALUES (:id, :user_id, :name, :created_at)
	`, c)
	if err != nil {
		return fmt.Errorf("failed to insert collection %s: %w", c.Name, constraintErr(err))
	}
	return nil
}

// ListCollections returns a user's collections, newest first.
func (db *DB) ListCollections(ctx context.Context, userID string) ([]domain.Collection, error) {
	cols := []domain.Collection{}
	err := db.conn.SelectContext(ctx, &cols, `
		SELECT id, user_id, name, created_at FROM collections
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections for user %s: %w", userID, err)
	}
	return cols, nil
}

// FindCollection retrieves a collection by ID.
func (db *DB) FindCollection(ctx context.Context, id string) (*domain.Collection, error) {
	var c domain.Collection
	err := db.conn.GetContext(ctx, &c, `
		SELECT id, user_id, name, created_at FROM collections WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find collection %s: %w", id, notFound(err))
	}
	return &c, nil
}

// FindCollectionByName retrieves a user's collection by exact name.
func (db *DB) FindCollectionByName(ctx context.Context, userID, name string) (*domain.Collection, error) {
	var c domain.Collection
	err := db.conn.GetContext(ctx, &c, `
		SELECT id, user_id, name, created_at FROM collections
		WHERE user_id = ? AND name = ?
	`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find collection %q: %w", name, notFound(err))
	}
	return &c, nil
}

// DeleteCollection removes a collection. Its notes are kept.
func (db *DB) DeleteCollection(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", id, err)
	}
	return nil
}

// AddNoteToCollection links a note to a collection. Linking twice returns
// ErrConflict; a missing note or collection returns ErrNotFound.
func (db *DB) AddNoteToCollection(ctx context.Context, noteID, collectionID string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO note_collections (note_id, collection_id, added_at)
		VALUES (?, ?, ?)
	`, noteID, collectionID, db.now())
	if err != nil {
		return fmt.Errorf("failed to add note %s to collection %s: %w", noteID, collectionID, constraintErr(err))
	}
	return nil
}

// RemoveNoteFromCollection unlinks a note from a collection.
func (db *DB) RemoveNoteFromCollection(ctx context.Context, noteID, collectionID string) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM note_collections WHERE note_id = ? AND collection_id = ?
	`, noteID, collectionID)
	if err != nil {
		return fmt.Errorf("failed to remove note %s from collection %s: %w", noteID, collectionID, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("failed to remove note %s from collection %s: %w", noteID, collectionID, err)
	}
	return nil
}

// NotesForCollection returns a collection's notes in the order they were added.
func (db *DB) NotesForCollection(ctx context.Context, collectionID string) ([]domain.Note, error) {
	notes := []domain.Note{}
	err := db.conn.SelectContext(ctx, &notes, `
		SELECT n.id, n.user_id, n.content, n.hidden_content, n.hash, n.source_id, n.created_at, n.updated_at
		FROM note_collections nc
		JOIN notes n ON n.id = nc.note_id
		WHERE nc.collection_id = ?
		ORDER BY nc.added_at, nc.rowid
	`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes for collection %s: %w", collectionID, err)
	}
	return notes, nil
}
