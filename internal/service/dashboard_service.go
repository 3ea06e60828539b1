package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
)

const dashboardCacheTTL = 60 * time.Second

// DashboardStats is the per-company summary shown on the office landing
// page. Cheap aggregate queries, cached briefly in Redis.
type DashboardStats struct {
	VisitsScheduledThisWeek int   `json:"visitsScheduledThisWeek"`
	VisitsCompletedThisWeek int   `json:"visitsCompletedThisWeek"`
	RevenueThisMonthCents   int64 `json:"revenueThisMonthCents"`
	LowStockItems           int   `json:"lowStockItems"`
}

type DashboardService struct {
	visits    *repository.VisitRepository
	invoices  *repository.InvoiceRepository
	inventory *repository.InventoryRepository
	cache     *redis.Client
	log       zerolog.Logger
}

func NewDashboardService(
	visits *repository.VisitRepository,
	invoices *repository.InvoiceRepository,
	inventory *repository.InventoryRepository,
	cache *redis.Client,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		visits:    visits,
		invoices:  invoices,
		inventory: inventory,
		cache:     cache,
		log:       log,
	}
}

func (s *DashboardService) Stats(ctx context.Context, companyID string) (DashboardStats, error) {
	key := "dashboard:" + companyID

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal(raw, &stats); err == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.compute(ctx, companyID)
	if err != nil {
		return DashboardStats{}, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, key, raw, dashboardCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Str("company_id", companyID).Msg("dashboard cache write failed")
			}
		}
	}

	return stats, nil
}

// Invalidate drops the cached stats; jobs call it after bulk generation.
func (s *DashboardService) Invalidate(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "dashboard:"+companyID).Err()
}

func (s *DashboardService) compute(ctx context.Context, companyID string) (DashboardStats, error) {
	now := time.Now()
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, now.Location())
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	scheduled, err := s.visits.CountByStatusBetween(ctx, companyID, models.VisitStatusScheduled, weekStart, weekEnd)
	if err != nil {
		return DashboardStats{}, err
	}
	completed, err := s.visits.CountByStatusBetween(ctx, companyID, models.VisitStatusCompleted, weekStart, weekEnd)
	if err != nil {
		return DashboardStats{}, err
	}
	revenue, err := s.invoices.SumPaidBetween(ctx, companyID, monthStart, now)
	if err != nil {
		return DashboardStats{}, err
	}
	lowStock, err := s.inventory.ListLowStock(ctx, companyID)
	if err != nil {
		return DashboardStats{}, err
	}

	return DashboardStats{
		VisitsScheduledThisWeek: scheduled,
		VisitsCompletedThisWeek: completed,
		RevenueThisMonthCents:   revenue,
		LowStockItems:           len(lowStock),
	}, nil
}
