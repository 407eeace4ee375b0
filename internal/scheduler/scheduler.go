// Package scheduler runs the periodic maintenance of the blob server.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ArubikU/blobcraft/internal/session"
)

// Maintainer is the part of the service the periodic jobs drive.
type Maintainer interface {
	SweepSessions(ctx context.Context) session.SweepResult
	PurgeExpired(ctx context.Context) (int, error)
}

type Config struct {
	SweepInterval time.Duration
	// CleanupInterval is 0 when blob expiration is disabled.
	CleanupInterval time.Duration
	Logger          *slog.Logger
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(svc Maintainer, cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "cron")

	c := cron.New(
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.SkipIfStillRunning(cronLogger{logger}),
		),
	)
	s := &Scheduler{cron: c, logger: logger}

	if err := s.add(cfg.SweepInterval, &SweepSessionsJob{svc: svc}); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval > 0 {
		if err := s.add(cfg.CleanupInterval, &PurgeExpiredJob{svc: svc}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(every time.Duration, job namedJob) error {
	if every <= 0 {
		return fmt.Errorf("job %s needs a positive interval", job.Name())
	}
	if _, err := s.cron.AddJob("@every "+every.String(), job); err != nil {
		return fmt.Errorf("add job %s: %w", job.Name(), err)
	}
	s.logger.Info("job registered", "job_name", job.Name(), "every", every)
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info("cron scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron scheduler stopped")
}

type namedJob interface {
	cron.Job
	Name() string
}

type SweepSessionsJob struct {
	svc Maintainer
}

func (j *SweepSessionsJob) Name() string { return "sweep_sessions" }

func (j *SweepSessionsJob) Run() {
	j.svc.SweepSessions(context.Background())
}

type PurgeExpiredJob struct {
	svc Maintainer
}

func (j *PurgeExpiredJob) Name() string { return "purge_expired_blobs" }

func (j *PurgeExpiredJob) Run() {
	if _, err := j.svc.PurgeExpired(context.Background()); err != nil {
		slog.Error("failed to purge expired blobs", "error", err)
	}
}
