package model

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fundledger/backend/src/models"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every function here can
// run standalone or inside a workflow transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const investmentColumns = `id, company_name, investment_date, amount_invested, funding_round,
	equity_percentage, current_valuation, status, notes, created_at, updated_at`

// fixed renders a decimal in the fixed-precision text form stored in SQLite.
func fixed(d decimal.Decimal) string {
	return d.StringFixed(models.MoneyPlaces)
}

func nullableFixed(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return fixed(d.Decimal)
}

func nullableText(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func scanInvestment(row rowScanner) (*models.Investment, error) {
	var inv models.Investment
	var notes sql.NullString
	err := row.Scan(
		&inv.ID, &inv.CompanyName, &inv.InvestmentDate, &inv.AmountInvested, &inv.FundingRound,
		&inv.EquityPercentage, &inv.CurrentValuation, &inv.Status, &notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		inv.Notes = &notes.String
	}
	return &inv, nil
}

// CreateInvestment inserts a new investment and returns the stored row.
func CreateInvestment(ctx context.Context, db DBTX, in models.InvestmentInput, now time.Time) (*models.Investment, error) {
	query := `
	INSERT INTO investments (company_name, investment_date, amount_invested, funding_round, equity_percentage,
	                         current_valuation, status, notes, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query,
		in.CompanyName,
		in.InvestmentDate.String(),
		fixed(in.AmountInvested),
		string(in.FundingRound),
		fixed(in.EquityPercentage.Decimal),
		nullableFixed(in.CurrentValuation),
		string(in.Status),
		nullableText(in.Notes),
		now,
		now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetInvestmentByID(ctx, db, id)
}

// GetInvestmentByID returns sql.ErrNoRows when no investment has that id.
func GetInvestmentByID(ctx context.Context, db DBTX, id int64) (*models.Investment, error) {
	row := db.QueryRowContext(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = ?`, id)
	inv, err := scanInvestment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return inv, nil
}

// ListInvestments returns every investment, newest first.
func ListInvestments(ctx context.Context, db DBTX) ([]models.Investment, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+investmentColumns+` FROM investments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

// UpdateInvestment writes the fields present in u and always refreshes updated_at.
// It returns sql.ErrNoRows when no investment has that id.
func UpdateInvestment(ctx context.Context, db DBTX, id int64, u models.InvestmentUpdate, now time.Time) (*models.Investment, error) {
	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.CompanyName.Set {
		set("company_name", u.CompanyName.Value)
	}
	if u.InvestmentDate.Set {
		set("investment_date", u.InvestmentDate.Value.String())
	}
	if u.AmountInvested.Set {
		set("amount_invested", fixed(u.AmountInvested.Value))
	}
	if u.FundingRound.Set {
		set("funding_round", string(u.FundingRound.Value))
	}
	if u.EquityPercentage.Set {
		set("equity_percentage", fixed(u.EquityPercentage.Value))
	}
	if u.CurrentValuation.Set {
		set("current_valuation", nullableFixed(u.CurrentValuation.Value))
	}
	if u.Status.Set {
		set("status", string(u.Status.Value))
	}
	if u.Notes.Set {
		set("notes", nullableText(u.Notes.Value))
	}
	set("updated_at", now)
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE investments SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, sql.ErrNoRows
	}
	return GetInvestmentByID(ctx, db, id)
}

// DeleteInvestment reports whether a row was removed.
func DeleteInvestment(ctx context.Context, db DBTX, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM investments WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkInvestmentExited sets status to Exited only when it is not already Exited,
// so updated_at of an already-exited investment is left untouched.
func MarkInvestmentExited(ctx context.Context, db DBTX, id int64, now time.Time) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE investments SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		string(models.StatusExited), now, id, string(models.StatusExited))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetInvestmentStatus unconditionally writes status and refreshes updated_at.
func SetInvestmentStatus(ctx context.Context, db DBTX, id int64, status models.InvestmentStatus, now time.Time) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE investments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
