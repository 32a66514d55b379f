// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: purging expired access
// tokens and pruning old event log entries.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/navcms/internal/model"
	"github.com/olegiv/navcms/internal/store"
)

// Job names.
const (
	JobPurgeTokens = "purge_expired_tokens"
	JobPruneEvents = "prune_events"
)

// Default schedules.
const (
	DefaultTokenPurgeSchedule = "@hourly"
	DefaultEventPruneSchedule = "0 3 * * *"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// Options configures the scheduler.
type Options struct {
	// EventRetention is how long event log entries are kept.
	EventRetention time.Duration
	// Schedules override the defaults when non-empty.
	TokenPurgeSchedule string
	EventPruneSchedule string
}

// job holds metadata about a registered cron job.
type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) (int64, error)
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
}

// Scheduler handles the periodic maintenance jobs.
type Scheduler struct {
	db        *sql.DB
	queries   *store.Queries
	cron      *cron.Cron
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a new scheduler instance and registers its jobs. It fails on
// an invalid schedule or a non-positive retention.
func New(db *sql.DB, logger *slog.Logger, opts Options) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.EventRetention <= 0 {
		return nil, fmt.Errorf("event retention must be positive, got %s", opts.EventRetention)
	}
	if opts.TokenPurgeSchedule == "" {
		opts.TokenPurgeSchedule = DefaultTokenPurgeSchedule
	}
	if opts.EventPruneSchedule == "" {
		opts.EventPruneSchedule = DefaultEventPruneSchedule
	}

	s := &Scheduler{
		db:        db,
		queries:   store.New(db),
		cron:      cron.New(),
		logger:    logger,
		retention: opts.EventRetention,
		now:       func() time.Time { return time.Now().UTC() },
		jobs:      make(map[string]*job),
	}

	if err := s.register(JobPurgeTokens, "Delete access tokens past their expiry", opts.TokenPurgeSchedule, s.PurgeExpiredTokens); err != nil {
		return nil, err
	}
	if err := s.register(JobPruneEvents, "Delete event log entries older than the retention period", opts.EventPruneSchedule, s.PruneEvents); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds a job to the cron instance.
func (s *Scheduler) register(name, description, schedule string, run func(ctx context.Context) (int64, error)) error {
	j := &job{name: name, description: description, schedule: schedule, run: run}

	entryID, err := s.cron.AddFunc(schedule, func() { s.execute(j) })
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", schedule, name, err)
	}
	j.entryID = entryID

	s.mu.Lock()
	s.jobs[name] = j
	s.mu.Unlock()

	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// execute runs a job and logs its outcome.
func (s *Scheduler) execute(j *job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.run(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", "category", model.EventCategorySystem, "job", j.name, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("scheduled job completed", "job", j.name, "deleted", n)
	}
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns all registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}

	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// Trigger runs a job immediately and returns the number of deleted rows.
func (s *Scheduler) Trigger(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return j.run(ctx)
}

// PurgeExpiredTokens deletes access tokens that expired before now.
func (s *Scheduler) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredAccessTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging expired access tokens: %w", err)
	}
	return n, nil
}

// PruneEvents deletes event log entries older than the retention period.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteEventsBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return n, nil
}
