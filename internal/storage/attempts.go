package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// RecordAttempt stores one committed flashcard answer.
func (db *DB) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = db.now()
	}
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO attempts (note_id, collection_id, correct, answered_at)
		VALUES (:note_id, :collection_id, :correct, :answered_at)
	`, a)
	if err != nil {
		return fmt.Errorf("failed to record attempt for note %s: %w", a.NoteID, constraintErr(err))
	}
	return nil
}

// Stats summarises the attempts made in a collection's quizzes.
type Stats struct {
	Attempts int `db:"attempts" json:"attempts"`
	Correct  int `db:"correct" json:"correct"`
}

// CollectionStats counts attempts and correct answers for a collection.
func (db *DB) CollectionStats(ctx context.Context, collectionID string) (Stats, error) {
	var s Stats
	err := db.conn.GetContext(ctx, &s, `
		SELECT COUNT(*) AS attempts, COALESCE(SUM(correct), 0) AS correct
		FROM attempts WHERE collection_id = ?
	`, collectionID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats for collection %s: %w", collectionID, err)
	}
	return s, nil
}

// NoteMemory is the stored memory-model state of a note.
type NoteMemory struct {
	NoteID     string       `db:"note_id"`
	Stability  float64      `db:"stability"`
	Difficulty float64      `db:"difficulty"`
	LastReview sql.NullTime `db:"last_review"`
	DueAt      time.Time    `db:"due_at"`
}

// FindMemory retrieves a note's memory state.
func (db *DB) FindMemory(ctx context.Context, noteID string) (*NoteMemory, error) {
	var m NoteMemory
	err := db.conn.GetContext(ctx, &m, `
		SELECT note_id, stability, difficulty, last_review, due_at
		FROM note_memory WHERE note_id = ?
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to find memory for note %s: %w", noteID, notFound(err))
	}
	return &m, nil
}

// UpsertMemory stores a note's memory state.
func (db *DB) UpsertMemory(ctx context.Context, m NoteMemory) error {
	_, err := db.conn.NamedExecContext(ctx, `
		INSERT INTO note_memory (note_id, stability, difficulty, last_review, due_at)
		VALUES (:note_id, :stability, :difficulty, :last_review, :due_at)
		ON CONFLICT(note_id) DO UPDATE SET
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			last_review = excluded.last_review,
			due_at = excluded.due_at
	`, m)
	if err != nil {
		return fmt.Errorf("failed to update memory for note %s: %w", m.NoteID, constraintErr(err))
	}
	return nil
}
