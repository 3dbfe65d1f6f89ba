package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conorfennell/knolnotes/internal/domain"
)

// Source represents an import origin: a local directory, a git URL or a
// spreadsheet file.
type Source struct {
	ID           int64             `db:"id"`
	Path         string            `db:"path"`
	Type         domain.SourceType `db:"type"`
	UserID       string            `db:"user_id"`
	CollectionID sql.NullString    `db:"collection_id"`
	LastScanned  sql.NullTime      `db:"last_scanned"`
}

const sourceColumns = `id, path, type, user_id, collection_id, last_scanned`

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(ctx context.Context, s *Source) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (path, type, user_id, collection_id)
		VALUES (?, ?, ?, ?)
	`, s.Path, s.Type, s.UserID, s.CollectionID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", s.Path, constraintErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", s.Path, err)
	}
	s.ID = id
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	err := db.conn.GetContext(ctx, &s, `SELECT `+sourceColumns+` FROM sources WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, notFound(err))
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources(ctx context.Context) ([]Source, error) {
	sources := []Source{}
	if err := db.conn.SelectContext(ctx, &sources, `SELECT `+sourceColumns+` FROM sources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// DeleteSource removes a source and the notes imported from it.
func (db *DB) DeleteSource(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin deleting source %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete notes of source %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return tx.Commit()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, db.now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
