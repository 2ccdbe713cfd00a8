package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/xacro/pkg/config"
	"mercator-hq/xacro/pkg/telemetry/metrics"
)

// Pruner enforces the retention settings on a store.
type Pruner struct {
	store   Store
	config  config.RetentionConfig
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewPruner creates a pruner. collector may be nil.
func NewPruner(store Store, cfg config.RetentionConfig, collector *metrics.Collector) *Pruner {
	return &Pruner{
		store:   store,
		config:  cfg,
		logger:  slog.Default().With("component", "cache.retention"),
		metrics: collector,
		now:     time.Now,
	}
}

// Prune removes entries unused for longer than MaxAge, then the least
// recently used entries beyond MaxEntries. It returns the number removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.MaxAge > 0 {
		cutoff := p.now().Add(-p.config.MaxAge)
		deleted, err := p.store.PruneOlderThan(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned cache by age", "deleted_count", deleted, "cutoff", cutoff)
	}

	if p.config.MaxEntries > 0 {
		deleted, err := p.store.PruneToCount(ctx, p.config.MaxEntries)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned cache by count", "deleted_count", deleted, "max_entries", p.config.MaxEntries)
	}

	p.metrics.RecordCacheEvictions(int(total))
	if n, err := p.store.Count(ctx); err == nil {
		p.metrics.UpdateCacheEntries(n)
	}

	if total > 0 {
		p.logger.Info("cache pruning completed",
			"total_deleted", total,
			"max_age", p.config.MaxAge,
			"max_entries", p.config.MaxEntries,
		)
	}
	return total, nil
}

// Scheduler runs a Pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler for pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "cache.scheduler"),
	}
}

// Start schedules pruning using the pruner's Schedule expression (standard
// five-field cron syntax, e.g. "0 3 * * *"). An empty schedule is a no-op.
// The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.Schedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cache retention scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	s.logger.Debug("scheduled pruning completed", "deleted_count", deleted)
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.cron = cron.New()
		s.running = false
		s.logger.Info("cache retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
