package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/model"
	"github.com/fundledger/backend/src/models"
	"github.com/patrickmn/go-cache"
)

type investmentServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
	opts        serviceOptions
}

func NewInvestmentService(db *sql.DB, reportCache *cache.Cache, opts ...Option) InvestmentService {
	return &investmentServiceImpl{
		db:          db,
		reportCache: reportCache,
		opts:        buildOptions(opts),
	}
}

func (s *investmentServiceImpl) CreateInvestment(ctx context.Context, in models.InvestmentInput) (inv *models.Investment, err error) {
	defer s.opts.track("create_investment")(&err)

	if err = in.Prepare(); err != nil {
		return nil, err
	}

	inv, err = model.CreateInvestment(ctx, s.db, in, s.opts.now())
	if err != nil {
		logger.FromContext(ctx).Error("Failed to insert investment", "company", in.CompanyName, "error", err)
		return nil, fmt.Errorf("create investment: %w", err)
	}
	invalidateDashboard(s.reportCache)
	logger.FromContext(ctx).Info("Investment created", "investmentID", inv.ID, "fundingRound", inv.FundingRound)
	return inv, nil
}

func (s *investmentServiceImpl) ListInvestments(ctx context.Context) ([]models.Investment, error) {
	investments, err := model.ListInvestments(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return investments, nil
}

func (s *investmentServiceImpl) GetInvestment(ctx context.Context, id int64) (*models.Investment, error) {
	inv, err := model.GetInvestmentByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get investment %d: %w", id, err)
	}
	return inv, nil
}

func (s *investmentServiceImpl) UpdateInvestment(ctx context.Context, id int64, u models.InvestmentUpdate) (inv *models.Investment, err error) {
	defer s.opts.track("update_investment")(&err)

	if err = u.Prepare(); err != nil {
		return nil, err
	}

	inv, err = model.UpdateInvestment(ctx, s.db, id, u, s.opts.now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("investment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update investment", "investmentID", id, "error", err)
		return nil, fmt.Errorf("update investment %d: %w", id, err)
	}
	invalidateDashboard(s.reportCache)
	logger.FromContext(ctx).Info("Investment updated", "investmentID", id)
	return inv, nil
}

func (s *investmentServiceImpl) DeleteInvestment(ctx context.Context, id int64) (removed bool, err error) {
	defer s.opts.track("delete_investment")(&err)

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := model.DeleteExitDetailsByInvestmentID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete exit of investment %d: %w", id, err)
		}
		deleted, err := model.DeleteInvestment(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("delete investment %d: %w", id, err)
		}
		removed = deleted
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Error("Failed to delete investment", "investmentID", id, "error", err)
		return false, err
	}
	if removed {
		invalidateDashboard(s.reportCache)
		logger.FromContext(ctx).Info("Investment deleted", "investmentID", id)
	}
	return removed, nil
}
