// Package scheduler runs the background jobs: periodic source sync and
// eviction of abandoned quizzes.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultEvictInterval is how often idle quizzes are looked for.
const DefaultEvictInterval = time.Minute

// Syncer reconciles every import source.
type Syncer interface {
	Run(ctx context.Context) error
}

// Evictor closes quizzes that have been idle too long.
type Evictor interface {
	EvictIdle() int
}

type Options struct {
	// SyncInterval of zero disables the sync job.
	SyncInterval  time.Duration
	EvictInterval time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	evictor   Evictor
	opts      Options
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler instance. Either job source may be nil.
func New(syncer Syncer, evictor Evictor, opts Options, logger *slog.Logger) *Scheduler {
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = DefaultEvictInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		syncer:    syncer,
		evictor:   evictor,
		opts:      opts,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.syncer != nil && s.opts.SyncInterval > 0 {
		_, err := s.scheduler.Every(s.opts.SyncInterval).SingletonMode().Do(s.runSync)
		if err != nil {
			return err
		}
		s.logger.Info("source sync scheduled", "interval", s.opts.SyncInterval)
	}
	if s.evictor != nil {
		if _, err := s.scheduler.Every(s.opts.EvictInterval).Do(s.evictIdle); err != nil {
			return err
		}
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks and cancels a running sync.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) runSync() {
	start := time.Now()
	if err := s.syncer.Run(s.ctx); err != nil {
		s.logger.Error("scheduled sync failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled sync finished", "duration", time.Since(start))
}

func (s *Scheduler) evictIdle() {
	if n := s.evictor.EvictIdle(); n > 0 {
		s.logger.Info("evicted idle quizzes", "count", n)
	}
}
