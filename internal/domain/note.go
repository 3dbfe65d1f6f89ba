package domain

import "time"

// Note is a user's text entry. HiddenContent is the recall side used as the
// flashcard answer.
type Note struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Content       string    `db:"content" json:"content"`
	HiddenContent string    `db:"hidden_content" json:"hidden_content"`
	Hash          string    `db:"hash" json:"-"`
	SourceID      *int64    `db:"source_id" json:"source_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Collection is a named grouping of notes. Notes and collections are
// many-to-many.
type Collection struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Attempt records a single committed flashcard answer.
type Attempt struct {
	NoteID       string    `db:"note_id" json:"note_id"`
	CollectionID string    `db:"collection_id" json:"collection_id,omitempty"`
	Correct      bool      `db:"correct" json:"correct"`
	AnsweredAt   time.Time `db:"answered_at" json:"answered_at"`
}

// SourceType tells the importer how to read a source path.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
	SourceSheet SourceType = "sheet"
)
