package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/metrics"
	"github.com/patrickmn/go-cache"
)

// Option configures the services built by this package.
type Option func(*serviceOptions)

type serviceOptions struct {
	now              func() time.Time
	recorder         *metrics.Recorder
	fetchConcurrency int
}

func defaultOptions() serviceOptions {
	return serviceOptions{
		now:              func() time.Time { return time.Now().UTC() },
		fetchConcurrency: 8,
	}
}

func buildOptions(opts []Option) serviceOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics records operation outcomes and status transitions.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *serviceOptions) { o.recorder = r }
}

// WithFetchConcurrency bounds the parallel exit lookups of the dashboard.
func WithFetchConcurrency(n int) Option {
	return func(o *serviceOptions) {
		if n > 0 {
			o.fetchConcurrency = n
		}
	}
}

// track starts timing operation; call the returned func with the
// operation's named error when it returns.
func (o serviceOptions) track(operation string) func(*error) {
	start := time.Now()
	return func(err *error) {
		o.recorder.Observe(operation, *err == nil, time.Since(start))
	}
}

// withTx runs fn inside one transaction. Only tx may be used inside fn:
// the pool holds a single connection.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// invalidateDashboard bumps the dashboard generation before dropping the
// cached summary, so a rebuild that started earlier cannot be served.
func invalidateDashboard(reportCache *cache.Cache) {
	if reportCache == nil {
		return
	}
	_ = reportCache.Add(dashboardGenerationKey, uint64(0), cache.NoExpiration)
	if _, err := reportCache.IncrementUint64(dashboardGenerationKey, 1); err != nil {
		logger.L.Warn("Failed to bump dashboard generation", "error", err)
	}
	reportCache.Delete(dashboardCacheKey)
}

func dashboardGeneration(reportCache *cache.Cache) uint64 {
	if v, found := reportCache.Get(dashboardGenerationKey); found {
		if gen, ok := v.(uint64); ok {
			return gen
		}
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
