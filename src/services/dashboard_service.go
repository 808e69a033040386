package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/model"
	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/processors"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

type dashboardServiceImpl struct {
	db               *sql.DB
	metricsProcessor processors.PortfolioMetricsProcessor
	reportCache      *cache.Cache
	opts             serviceOptions
}

func NewDashboardService(db *sql.DB, metricsProcessor processors.PortfolioMetricsProcessor, reportCache *cache.Cache, opts ...Option) DashboardService {
	return &dashboardServiceImpl{
		db:               db,
		metricsProcessor: metricsProcessor,
		reportCache:      reportCache,
		opts:             buildOptions(opts),
	}
}

// cachedDashboard is a summary tagged with the generation it was built from.
type cachedDashboard struct {
	generation uint64
	summary    *models.DashboardSummary
}

// GetDashboard loads every investment and its exit record and derives the
// portfolio metrics. The result is cached until the next mutation.
func (s *dashboardServiceImpl) GetDashboard(ctx context.Context) (summary *models.DashboardSummary, err error) {
	var generation uint64
	if s.reportCache != nil {
		generation = dashboardGeneration(s.reportCache)
		if cached, found := s.reportCache.Get(dashboardCacheKey); found {
			if entry, ok := cached.(cachedDashboard); ok && entry.generation == generation {
				s.opts.recorder.CacheHit()
				return entry.summary, nil
			}
		}
		s.opts.recorder.CacheMiss()
	}
	defer s.opts.track("build_dashboard")(&err)

	investments, err := model.ListInvestments(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load investments: %w", err)
	}

	holdings := make([]models.HoldingWithExit, len(investments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.fetchConcurrency)
	for i, inv := range investments {
		g.Go(func() error {
			exit, err := model.GetExitDetailsByInvestmentID(gctx, s.db, inv.ID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("load exit of investment %d: %w", inv.ID, err)
			}
			holdings[i] = models.HoldingWithExit{Investment: inv, Exit: exit}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		logger.FromContext(ctx).Error("Failed to load dashboard exits", "error", err)
		return nil, err
	}

	summary = &models.DashboardSummary{
		Metrics:  s.metricsProcessor.Calculate(holdings),
		Holdings: holdings,
	}
	// A mutation during the rebuild leaves this summary stale; the tag keeps it from being served.
	if s.reportCache != nil && dashboardGeneration(s.reportCache) == generation {
		s.reportCache.Set(dashboardCacheKey, cachedDashboard{generation: generation, summary: summary}, cache.DefaultExpiration)
	}
	logger.FromContext(ctx).Debug("Dashboard rebuilt", "investments", len(investments))
	return summary, nil
}

func (s *dashboardServiceImpl) InvalidateCache() {
	invalidateDashboard(s.reportCache)
}
