package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/service"
)

type Scheduler struct {
	cron       *cron.Cron
	visits     *service.VisitService
	sessions   *repository.SessionRepository
	dashboards *service.DashboardService
	companies  *repository.CompanyRepository
	log        zerolog.Logger
}

func NewScheduler(
	visits *service.VisitService,
	sessions *repository.SessionRepository,
	dashboards *service.DashboardService,
	companies *repository.CompanyRepository,
	log zerolog.Logger,
) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		visits:     visits,
		sessions:   sessions,
		dashboards: dashboards,
		companies:  companies,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 2 * * *", s.generateVisits); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.purgeSessions); err != nil { // hourly
		return err
	}
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.refreshDashboards); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs to drain, bounded so a
// stuck job cannot hold up shutdown.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out waiting for jobs")
	}
}

// generateVisits materializes today's recurring service visits from each
// active pool's service weekday.
func (s *Scheduler) generateVisits() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, err := s.visits.GenerateForDate(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("visit generation failed")
		return
	}
	s.log.Info().Int("created", created).Msg("visit generation done")
}

// refreshDashboards recomputes each active tenant's cached dashboard so
// the office landing page stays warm.
func (s *Scheduler) refreshDashboards() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	companies, err := s.companies.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard refresh list failed")
		return
	}

	for _, company := range companies {
		if company.Status != models.CompanyStatusActive {
			continue
		}
		s.dashboards.Invalidate(ctx, company.ID)
		if _, err := s.dashboards.Stats(ctx, company.ID); err != nil {
			s.log.Warn().Err(err).Str("company_id", company.ID).Msg("dashboard refresh failed")
		}
	}
}

// purgeSessions drops expired refresh sessions across every domain.
func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("expired sessions purged")
	}
}
