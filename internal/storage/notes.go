package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conorfennell/knolnotes/internal/domain"
)

const noteColumns = `id, user_id, content, hidden_content, hash, source_id, created_at, updated_at`

// InsertNote stores a new note, assigning its ID and timestamps.
func (db *DB) InsertNote(ctx context.Context, n *domain.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := db.now()
	n.CreatedAt, n.UpdatedAt = now, now

	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (:id, :user_id, :content, :hidden_content, :hash, :source_id, :created_at, :updated_at)
	`, n)
	if err != nil {
		return fmt.Errorf("failed to insert note %s: %w", n.ID, constraintErr(err))
	}
	return nil
}

// UpdateNote replaces both sides of a note and returns the stored result.
func (db *DB) UpdateNote(ctx context.Context, id, content, hidden string) (*domain.Note, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes
		SET content = ?, hidden_content = ?, updated_at = ?
		WHERE id = ?
	`, content, hidden, db.now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	return db.FindNote(ctx, id)
}

// DeleteNote removes a note along with its memberships and attempts.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return nil
}

// FindNote retrieves a note by ID.
func (db *DB) FindNote(ctx context.Context, id string) (*domain.Note, error) {
	var n domain.Note
	err := db.conn.GetContext(ctx, &n, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find note %s: %w", id, notFound(err))
	}
	return &n, nil
}

// ListNotes returns a user's notes, newest first.
func (db *DB) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	notes := []domain.Note{}
	err := db.conn.SelectContext(ctx, &notes, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for user %s: %w", userID, err)
	}
	return notes, nil
}

// FindNoteByHash looks up an imported note by its content hash within a source.
func (db *DB) FindNoteByHash(ctx context.Context, sourceID int64, hash string) (*domain.Note, error) {
	var n domain.Note
	err := db.conn.GetContext(ctx, &n, `
		SELECT `+noteColumns+` FROM notes WHERE source_id = ? AND hash = ?
	`, sourceID, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to find note by hash %s: %w", hash, notFound(err))
	}
	return &n, nil
}

// NotesBySource returns every note imported from a source.
func (db *DB) NotesBySource(ctx context.Context, sourceID int64) ([]domain.Note, error) {
	notes := []domain.Note{}
	err := db.conn.SelectContext(ctx, &notes, `
		SELECT `+noteColumns+` FROM notes WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes for source ID %d: %w", sourceID, err)
	}
	return notes, nil
}
