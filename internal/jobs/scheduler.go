package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"realty/api/internal/config"
	"realty/api/internal/service"
	"realty/api/internal/store"
)

// Scheduler runs housekeeping over the in-memory tables.
type Scheduler struct {
	cron         *cron.Cron
	store        *store.Store
	verification *service.VerificationService
	cfg          config.JobsConfig
	log          zerolog.Logger
}

func NewScheduler(st *store.Store, verification *service.VerificationService, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:         c,
		store:        st,
		verification: verification,
		cfg:          cfg,
		log:          log,
	}
}

func (s *Scheduler) Start() error {
	if s.cfg.VerificationSweep != "" {
		if _, err := s.cron.AddFunc(s.cfg.VerificationSweep, s.SweepVerificationCodes); err != nil {
			return err
		}
	}
	if s.cfg.SessionPrune != "" {
		if _, err := s.cron.AddFunc(s.cfg.SessionPrune, s.PruneSessions); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) SweepVerificationCodes() {
	if cleared := s.verification.SweepExpired(); cleared > 0 {
		s.log.Info().Int("cleared", cleared).Msg("expired verification codes cleared")
	}
}

func (s *Scheduler) PruneSessions() {
	if pruned := s.store.PruneExpiredSessions(time.Now()); pruned > 0 {
		s.log.Info().Int("pruned", pruned).Msg("expired sessions pruned")
	}
}
