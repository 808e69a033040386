package services

import (
	"context"
	"errors"
	"time"

	"github.com/fundledger/backend/src/models"
)

// Define common service errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with existing data")
)

const (
	dashboardCacheKey      = "dashboard_summary"
	dashboardGenerationKey = "dashboard_generation"
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

// InvestmentService manages investment records.
type InvestmentService interface {
	CreateInvestment(ctx context.Context, in models.InvestmentInput) (*models.Investment, error)
	ListInvestments(ctx context.Context) ([]models.Investment, error)
	// GetInvestment returns nil, nil when no investment has that id.
	GetInvestment(ctx context.Context, id int64) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, id int64, u models.InvestmentUpdate) (*models.Investment, error)
	// DeleteInvestment reports whether a row was removed; its exit record goes with it.
	DeleteInvestment(ctx context.Context, id int64) (bool, error)
}

// ExitService manages exit records and keeps the parent investment's
// status in step with them.
type ExitService interface {
	CreateExitDetails(ctx context.Context, in models.ExitDetailsInput) (*models.ExitDetails, error)
	// GetExitDetailsByInvestment returns nil, nil when there is no exit.
	GetExitDetailsByInvestment(ctx context.Context, investmentID int64) (*models.ExitDetails, error)
	UpdateExitDetails(ctx context.Context, id int64, u models.ExitDetailsUpdate) (*models.ExitDetails, error)
	DeleteExitDetails(ctx context.Context, id int64) error
}

// DashboardService builds the aggregated portfolio view.
type DashboardService interface {
	GetDashboard(ctx context.Context) (*models.DashboardSummary, error)
	InvalidateCache()
}
