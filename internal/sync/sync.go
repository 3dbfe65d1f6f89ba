// Package sync reconciles stored notes with their import sources: markdown
// directories, git repositories and spreadsheets.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/gitsource"
	"github.com/conorfennell/knolnotes/internal/knol"
	"github.com/conorfennell/knolnotes/internal/metrics"
	"github.com/conorfennell/knolnotes/internal/parser"
	"github.com/conorfennell/knolnotes/internal/sheet"
	"github.com/conorfennell/knolnotes/internal/storage"
)

type Options struct {
	// ReposDir holds checkouts of git sources.
	ReposDir string
	Sheet    sheet.Options
}

// Result counts the changes one source sync made.
type Result struct {
	Parsed    int
	Created   int
	Deleted   int
	Unchanged int
}

type Syncer struct {
	db     *storage.DB
	logger *slog.Logger
	opts   Options
}

func New(db *storage.DB, logger *slog.Logger, opts Options) *Syncer {
	return &Syncer{db: db, logger: logger, opts: opts}
}

// SourceType infers how a source path is read.
func SourceType(path string) domain.SourceType {
	switch {
	case gitsource.IsURL(path):
		return domain.SourceGit
	case sheet.Supported(path):
		return domain.SourceSheet
	}
	return domain.SourceLocal
}

// AddSource registers a source for userID. When collection is non-empty,
// imported notes are added to the collection of that name, which is created
// if needed. Registering the same path twice returns storage.ErrConflict.
func (s *Syncer) AddSource(ctx context.Context, userID, path, collection string) (*storage.Source, error) {
	src := &storage.Source{Path: path, Type: SourceType(path), UserID: userID}
	if src.Type != domain.SourceGit {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source path %s: %w", path, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("source %s: %w", abs, err)
		}
		src.Path = abs
	}

	if collection = strings.TrimSpace(collection); collection != "" {
		c, err := s.collectionByName(ctx, userID, collection)
		if err != nil {
			return nil, err
		}
		src.CollectionID.String, src.CollectionID.Valid = c.ID, true
	}

	if _, err := s.db.InsertSource(ctx, src); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "source added", "id", src.ID, "type", src.Type, "path", src.Path)
	return src, nil
}

// Run iterates over all sources and reconciles them. A failing source does
// not stop the others; their errors are returned joined.
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting sync for all sources")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		s.logger.InfoContext(ctx, "no sources configured, add one with --add-source <path/or/url.git>")
		return nil
	}

	var errs []error
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.SyncSource(ctx, source); err != nil {
			s.logger.ErrorContext(ctx, "source sync failed", "id", source.ID, "path", source.Path, "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", source.Path, err))
		}
	}
	s.logger.InfoContext(ctx, "sync complete", "sources", len(sources), "failed", len(errs))
	return errors.Join(errs...)
}

// SyncSource reads one source and applies the difference to storage: new
// entries become notes, notes whose entry disappeared are deleted. Orphans are
// kept when any part of the source failed to read.
func (s *Syncer) SyncSource(ctx context.Context, source storage.Source) (Result, error) {
	logger := s.logger.With("source_id", source.ID, "type", source.Type, "path", source.Path)
	logger.InfoContext(ctx, "syncing source")

	entries, readErr := s.gather(ctx, source)
	if entries == nil && readErr != nil {
		return Result{}, readErr
	}

	res := Result{Parsed: len(entries)}
	var errs []error
	if readErr != nil {
		errs = append(errs, readErr)
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		hash := knol.Hash(entry)
		if seen[hash] {
			continue
		}
		seen[hash] = true

		created, err := s.importEntry(ctx, source, entry, hash)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if created {
			res.Created++
			logger.DebugContext(ctx, "new note imported", "hash", hash)
		} else {
			res.Unchanged++
		}
	}

	if len(errs) == 0 {
		deleted, err := s.deleteOrphans(ctx, source, seen)
		res.Deleted = deleted
		if err != nil {
			errs = append(errs, err)
		}
	} else {
		logger.WarnContext(ctx, "skipping orphan cleanup after read errors", "errors", len(errs))
	}

	if err := s.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		errs = append(errs, err)
	}

	metrics.ImportedNotesTotal.WithLabelValues("created").Add(float64(res.Created))
	metrics.ImportedNotesTotal.WithLabelValues("deleted").Add(float64(res.Deleted))
	logger.InfoContext(ctx, "reconciliation complete",
		"parsed", res.Parsed,
		"created", res.Created,
		"deleted", res.Deleted,
		"unchanged", res.Unchanged,
		"errors", len(errs),
	)
	return res, errors.Join(errs...)
}

// gather returns the source's entries. A non-nil error with non-nil entries
// means some files could not be read.
func (s *Syncer) gather(ctx context.Context, source storage.Source) ([]parser.Entry, error) {
	switch source.Type {
	case domain.SourceLocal:
		return walkMarkdown(source.Path)

	case domain.SourceGit:
		if err := os.MkdirAll(s.opts.ReposDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localPath, err := gitsource.RepoPath(s.opts.ReposDir, source.Path)
		if err != nil {
			return nil, err
		}
		if err := gitsource.Sync(ctx, s.logger, source.Path, localPath); err != nil {
			return nil, err
		}
		return walkMarkdown(localPath)

	case domain.SourceSheet:
		entries, err := sheet.Read(source.Path, s.opts.Sheet)
		if err != nil {
			return nil, err
		}
		return nonNil(entries), nil
	}
	return nil, fmt.Errorf("unknown source type %q", source.Type)
}

func walkMarkdown(root string) ([]parser.Entry, error) {
	entries := []parser.Entry{}
	var parseErrs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileEntries, err := parser.ParseFile(path)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("parsing %s: %w", path, err))
			return nil
		}
		entries = append(entries, fileEntries...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, walkErr)
	}
	return entries, errors.Join(parseErrs...)
}

func nonNil(entries []parser.Entry) []parser.Entry {
	if entries == nil {
		return []parser.Entry{}
	}
	return entries
}

func (s *Syncer) importEntry(ctx context.Context, source storage.Source, entry parser.Entry, hash string) (bool, error) {
	_, err := s.db.FindNoteByHash(ctx, source.ID, hash)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	sourceID := source.ID
	note := &domain.Note{
		UserID:        source.UserID,
		Content:       entry.Content,
		HiddenContent: entry.HiddenContent,
		Hash:          hash,
		SourceID:      &sourceID,
	}
	if err := s.db.InsertNote(ctx, note); err != nil {
		return false, err
	}

	if source.CollectionID.Valid {
		if err := s.link(ctx, note.ID, source.CollectionID.String); err != nil {
			return true, err
		}
	}
	if entry.Collection != "" {
		c, err := s.collectionByName(ctx, source.UserID, entry.Collection)
		if err != nil {
			return true, err
		}
		if err := s.link(ctx, note.ID, c.ID); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Syncer) link(ctx context.Context, noteID, collectionID string) error {
	err := s.db.AddNoteToCollection(ctx, noteID, collectionID)
	if errors.Is(err, storage.ErrConflict) {
		return nil
	}
	return err
}

func (s *Syncer) collectionByName(ctx context.Context, userID, name string) (*domain.Collection, error) {
	c, err := s.db.FindCollectionByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	c = &domain.Collection{UserID: userID, Name: name}
	if err := s.db.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Syncer) deleteOrphans(ctx context.Context, source storage.Source, seen map[string]bool) (int, error) {
	stored, err := s.db.NotesBySource(ctx, source.ID)
	if err != nil {
		return 0, err
	}

	var deleted int
	var errs []error
	for _, n := range stored {
		if seen[n.Hash] {
			continue
		}
		if err := s.db.DeleteNote(ctx, n.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
		s.logger.DebugContext(ctx, "orphaned note deleted", "note_id", n.ID, "hash", n.Hash)
	}
	return deleted, errors.Join(errs...)
}
