package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/model"
	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/security/validation"
	"github.com/patrickmn/go-cache"
)

type exitServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
	opts        serviceOptions
}

func NewExitService(db *sql.DB, reportCache *cache.Cache, opts ...Option) ExitService {
	return &exitServiceImpl{
		db:          db,
		reportCache: reportCache,
		opts:        buildOptions(opts),
	}
}

// CreateExitDetails records the exit and marks the parent investment as
// Exited. The status write is skipped when the parent is already Exited, so
// its updated_at is left alone in that case.
func (s *exitServiceImpl) CreateExitDetails(ctx context.Context, in models.ExitDetailsInput) (exit *models.ExitDetails, err error) {
	defer s.opts.track("create_exit")(&err)

	if err = in.Prepare(); err != nil {
		return nil, err
	}

	var statusChanged bool
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		inv, err := model.GetInvestmentByID(ctx, tx, in.InvestmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("investment %d: %w", in.InvestmentID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load investment %d: %w", in.InvestmentID, err)
		}

		if _, err := model.GetExitDetailsByInvestmentID(ctx, tx, inv.ID); err == nil {
			return fmt.Errorf("investment %d already has an exit: %w", inv.ID, ErrConflict)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check existing exit: %w", err)
		}

		if err := in.ResolveMultiple(inv.AmountInvested); err != nil {
			return err
		}

		now := s.opts.now()
		created, err := model.CreateExitDetails(ctx, tx, in, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("investment %d already has an exit: %w", inv.ID, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert exit: %w", err)
		}

		statusChanged, err = model.MarkInvestmentExited(ctx, tx, inv.ID, now)
		if err != nil {
			return fmt.Errorf("mark investment %d exited: %w", inv.ID, err)
		}
		exit = created
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrConflict) && !errors.Is(err, validation.ErrValidationFailed) {
			logger.FromContext(ctx).Error("Failed to create exit", "investmentID", in.InvestmentID, "error", err)
		}
		return nil, err
	}

	if statusChanged {
		s.opts.recorder.StatusTransition(string(models.StatusExited))
	}
	invalidateDashboard(s.reportCache)
	logger.FromContext(ctx).Info("Exit recorded", "exitID", exit.ID, "investmentID", exit.InvestmentID, "statusChanged", statusChanged)
	return exit, nil
}

func (s *exitServiceImpl) GetExitDetailsByInvestment(ctx context.Context, investmentID int64) (*models.ExitDetails, error) {
	exit, err := model.GetExitDetailsByInvestmentID(ctx, s.db, investmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exit of investment %d: %w", investmentID, err)
	}
	return exit, nil
}

// UpdateExitDetails changes the exit record only; the parent status is untouched.
func (s *exitServiceImpl) UpdateExitDetails(ctx context.Context, id int64, u models.ExitDetailsUpdate) (exit *models.ExitDetails, err error) {
	defer s.opts.track("update_exit")(&err)

	if err = u.Prepare(); err != nil {
		return nil, err
	}

	exit, err = model.UpdateExitDetails(ctx, s.db, id, u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		logger.FromContext(ctx).Error("Failed to update exit", "exitID", id, "error", err)
		return nil, fmt.Errorf("update exit %d: %w", id, err)
	}
	invalidateDashboard(s.reportCache)
	logger.FromContext(ctx).Info("Exit updated", "exitID", id)
	return exit, nil
}

// DeleteExitDetails removes the exit and sets the parent back to Active,
// whatever its status was.
func (s *exitServiceImpl) DeleteExitDetails(ctx context.Context, id int64) (err error) {
	defer s.opts.track("delete_exit")(&err)

	var investmentID int64
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		exit, err := model.GetExitDetailsByID(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("exit %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load exit %d: %w", id, err)
		}
		investmentID = exit.InvestmentID

		if _, err := model.DeleteExitDetails(ctx, tx, id); err != nil {
			return fmt.Errorf("delete exit %d: %w", id, err)
		}
		if _, err := model.SetInvestmentStatus(ctx, tx, investmentID, models.StatusActive, s.opts.now()); err != nil {
			return fmt.Errorf("reset investment %d status: %w", investmentID, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.FromContext(ctx).Error("Failed to delete exit", "exitID", id, "error", err)
		}
		return err
	}

	s.opts.recorder.StatusTransition(string(models.StatusActive))
	invalidateDashboard(s.reportCache)
	logger.FromContext(ctx).Info("Exit deleted", "exitID", id, "investmentID", investmentID)
	return nil
}
