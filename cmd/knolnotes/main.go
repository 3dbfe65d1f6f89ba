package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knolnotes/internal/config"
	"github.com/conorfennell/knolnotes/internal/console"
	"github.com/conorfennell/knolnotes/internal/domain"
	"github.com/conorfennell/knolnotes/internal/flashcard"
	"github.com/conorfennell/knolnotes/internal/logging"
	"github.com/conorfennell/knolnotes/internal/metrics"
	"github.com/conorfennell/knolnotes/internal/notes"
	"github.com/conorfennell/knolnotes/internal/scheduler"
	"github.com/conorfennell/knolnotes/internal/sheet"
	"github.com/conorfennell/knolnotes/internal/storage"
	"github.com/conorfennell/knolnotes/internal/sync"
	"github.com/conorfennell/knolnotes/internal/web"
)

const shutdownTimeout = 10 * time.Second

type commands struct {
	addSource  string
	collection string
	sync       bool
	quiz       string
}

func main() {
	fs := pflag.NewFlagSet("knolnotes", pflag.ExitOnError)
	config.RegisterFlags(fs)
	var cmd commands
	fs.StringVar(&cmd.addSource, "add-source", "", "Register a directory, spreadsheet or git URL as a note source and exit")
	fs.StringVar(&cmd.collection, "collection", "", "Collection that notes from --add-source are added to")
	fs.BoolVar(&cmd.sync, "sync", false, "Sync all sources once and exit")
	fs.StringVar(&cmd.quiz, "quiz", "", "Run a terminal quiz over the named collection and exit")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cmd, logger); err != nil {
		logger.Error("knolnotes failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd commands, logger *slog.Logger) error {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.DB)

	svc := notes.NewService(db, cfg.Server.UserID, logger)
	syncer := sync.New(db, logger, sync.Options{
		ReposDir: cfg.Sync.ReposDir,
		Sheet: sheet.Options{
			Sheet:         cfg.Sheet.Sheet,
			ContentCol:    cfg.Sheet.ContentCol,
			HiddenCol:     cfg.Sheet.HiddenCol,
			CollectionCol: cfg.Sheet.CollectionCol,
			StartRow:      cfg.Sheet.StartRow,
		},
	})

	switch {
	case cmd.addSource != "":
		src, err := syncer.AddSource(ctx, cfg.Server.UserID, cmd.addSource, cmd.collection)
		if errors.Is(err, storage.ErrConflict) {
			logger.Info("source already registered", "path", cmd.addSource)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("source added", "id", src.ID, "path", src.Path, "type", src.Type)
		return nil
	case cmd.sync:
		return syncer.Run(ctx)
	case cmd.quiz != "":
		return quiz(ctx, db, svc, cmd.quiz, logger)
	}
	return serve(ctx, cfg, db, svc, syncer, logger)
}

// quiz runs a terminal quiz over the collection with the given name or ID.
func quiz(ctx context.Context, db *storage.DB, svc *notes.Service, name string, logger *slog.Logger) error {
	col, err := db.FindCollectionByName(ctx, svc.UserID(), name)
	if errors.Is(err, storage.ErrNotFound) {
		col, err = svc.GetCollection(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("collection %q: %w", name, err)
	}
	list, err := svc.CollectionNotes(ctx, col.ID)
	if err != nil {
		return err
	}

	sum, err := console.Run(ctx, os.Stdin, os.Stdout, list, flashcard.OnAttempt(func(note domain.Note, correct bool) {
		if err := svc.RecordAnswer(ctx, col.ID, note, correct); err != nil {
			logger.Error("failed to record answer", "note_id", note.ID, "error", err)
		}
	}))
	logger.Debug("quiz finished", "collection", col.Name, "answered", sum.Answered, "correct", sum.Correct)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(ctx context.Context, cfg *config.Config, db *storage.DB, svc *notes.Service, syncer *sync.Syncer, logger *slog.Logger) error {
	quizzes := flashcard.NewRegistry(clockwork.NewRealClock(), cfg.Quiz.IdleTTL, func(active int) {
		metrics.ActiveQuizzes.Set(float64(active))
	})
	defer quizzes.CloseAll()

	sched := scheduler.New(syncer, quizzes, scheduler.Options{SyncInterval: cfg.Sync.Interval}, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	handler, err := web.NewServer(web.Deps{
		DB:          db,
		Notes:       svc,
		Syncer:      syncer,
		Quizzes:     quizzes,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "user_id", cfg.Server.UserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
