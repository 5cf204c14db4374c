// Package scheduler runs periodic library maintenance with robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/scanner"
)

// parser accepts standard five-field schedules and descriptors like @hourly.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is a valid cron schedule.
// An empty spec disables the job and is valid.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// LibraryLister lists the libraries to rescan.
type LibraryLister interface {
	ListLibraries(ctx context.Context) ([]*domain.Library, error)
}

// LibraryScanner rescans libraries.
type LibraryScanner interface {
	ScanAll(ctx context.Context, libraries []*domain.Library) ([]*scanner.Result, error)
}

// Reindexer rebuilds the search index.
type Reindexer interface {
	ReindexAll(ctx context.Context) error
}

// Config holds the job schedules. An empty schedule disables its job.
type Config struct {
	RescanSchedule  string
	ReindexSchedule string
}

// Scheduler runs the sidecar rescan and search reindex jobs.
type Scheduler struct {
	libraries LibraryLister
	scanner   LibraryScanner
	reindexer Reindexer
	cfg       Config
	logger    *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

// New creates a scheduler. It does not start any job until Start.
func New(libraries LibraryLister, sc LibraryScanner, reindexer Reindexer, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		libraries: libraries,
		scanner:   sc,
		reindexer: reindexer,
		cfg:       cfg,
		logger:    logger,
		cron:      cron.New(cron.WithParser(parser)),
		entries:   make(map[string]cron.EntryID),
	}
}

// Start registers the configured jobs and starts the cron runner. Jobs run
// with a context derived from ctx; cancelling it stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"rescan", s.cfg.RescanSchedule, s.runRescan},
		{"reindex", s.cfg.ReindexSchedule, s.runReindex},
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range jobs {
		if job.spec == "" {
			s.logger.Info("scheduled job disabled", "job", job.name)
			continue
		}
		if err := ValidateSchedule(job.spec); err != nil {
			s.cancel()
			return err
		}
		run := job.run
		id, err := s.cron.AddFunc(job.spec, func() { run(s.ctx) })
		if err != nil {
			s.cancel()
			return fmt.Errorf("schedule %s job: %w", job.name, err)
		}
		s.entries[job.name] = id
	}

	s.cron.Start()
	s.running = true

	for name, id := range s.entries {
		s.logger.Info("scheduled job", "job", name, "next_run", s.cron.Entry(id).Next)
	}

	go func(done <-chan struct{}) {
		<-done
		s.Stop()
	}(s.ctx.Done())

	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	clear(s.entries)
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns when the named job ("rescan" or "reindex") runs next.
func (s *Scheduler) NextRun(job string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[job]
	if !ok || !s.running {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) runRescan(ctx context.Context) {
	start := time.Now()
	libs, err := s.libraries.ListLibraries(ctx)
	if err != nil {
		s.logger.Error("scheduled rescan: list libraries failed", "error", err)
		return
	}
	results, err := s.scanner.ScanAll(ctx, libs)
	if err != nil {
		s.logger.Error("scheduled rescan failed", "error", err)
		return
	}
	s.logger.Info("scheduled rescan complete",
		"libraries", len(results),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

func (s *Scheduler) runReindex(ctx context.Context) {
	start := time.Now()
	if err := s.reindexer.ReindexAll(ctx); err != nil {
		s.logger.Error("scheduled reindex failed", "error", err)
		return
	}
	s.logger.Info("scheduled reindex complete", "duration", time.Since(start).Round(time.Millisecond))
}

// RunNow runs the named job immediately in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, job string) error {
	switch job {
	case "rescan":
		s.runRescan(ctx)
	case "reindex":
		s.runReindex(ctx)
	default:
		return fmt.Errorf("unknown job %q", job)
	}
	return nil
}
