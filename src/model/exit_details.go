package model

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fundledger/backend/src/models"
)

const exitDetailsColumns = `id, investment_id, exit_date, proceeds_received, exit_multiple, notes, created_at`

func scanExitDetails(row rowScanner) (*models.ExitDetails, error) {
	var exit models.ExitDetails
	var notes sql.NullString
	err := row.Scan(&exit.ID, &exit.InvestmentID, &exit.ExitDate, &exit.ProceedsReceived, &exit.ExitMultiple, &notes, &exit.CreatedAt)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		exit.Notes = &notes.String
	}
	return &exit, nil
}

// CreateExitDetails inserts an exit row. The exit multiple is stored as supplied.
func CreateExitDetails(ctx context.Context, db DBTX, in models.ExitDetailsInput, now time.Time) (*models.ExitDetails, error) {
	query := `
	INSERT INTO exit_details (investment_id, exit_date, proceeds_received, exit_multiple, notes, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query,
		in.InvestmentID,
		in.ExitDate.String(),
		fixed(in.ProceedsReceived.Decimal),
		in.ExitMultiple.String(),
		nullableText(in.Notes),
		now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetExitDetailsByID(ctx, db, id)
}

// GetExitDetailsByID returns sql.ErrNoRows when no exit has that id.
func GetExitDetailsByID(ctx context.Context, db DBTX, id int64) (*models.ExitDetails, error) {
	row := db.QueryRowContext(ctx, `SELECT `+exitDetailsColumns+` FROM exit_details WHERE id = ?`, id)
	exit, err := scanExitDetails(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return exit, nil
}

// GetExitDetailsByInvestmentID returns sql.ErrNoRows when the investment has no exit.
func GetExitDetailsByInvestmentID(ctx context.Context, db DBTX, investmentID int64) (*models.ExitDetails, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+exitDetailsColumns+` FROM exit_details WHERE investment_id = ? ORDER BY id LIMIT 1`, investmentID)
	exit, err := scanExitDetails(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return exit, nil
}

// UpdateExitDetails writes the fields present in u.
// It returns sql.ErrNoRows when no exit has that id.
func UpdateExitDetails(ctx context.Context, db DBTX, id int64, u models.ExitDetailsUpdate) (*models.ExitDetails, error) {
	var sets []string
	var args []any
	if u.ExitDate.Set {
		sets = append(sets, "exit_date = ?")
		args = append(args, u.ExitDate.Value.String())
	}
	if u.ProceedsReceived.Set {
		sets = append(sets, "proceeds_received = ?")
		args = append(args, fixed(u.ProceedsReceived.Value))
	}
	if u.ExitMultiple.Set {
		sets = append(sets, "exit_multiple = ?")
		args = append(args, u.ExitMultiple.Value.String())
	}
	if u.Notes.Set {
		sets = append(sets, "notes = ?")
		args = append(args, nullableText(u.Notes.Value))
	}

	if len(sets) == 0 {
		// Nothing to write; still report whether the row exists.
		return GetExitDetailsByID(ctx, db, id)
	}

	args = append(args, id)
	res, err := db.ExecContext(ctx, `UPDATE exit_details SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, sql.ErrNoRows
	}
	return GetExitDetailsByID(ctx, db, id)
}

// DeleteExitDetails reports whether a row was removed.
func DeleteExitDetails(ctx context.Context, db DBTX, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM exit_details WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExitDetailsByInvestmentID removes the exit rows of one investment and returns how many were removed.
func DeleteExitDetailsByInvestmentID(ctx context.Context, db DBTX, investmentID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM exit_details WHERE investment_id = ?`, investmentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
