package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fundledger/backend/src/models"
	"github.com/fundledger/backend/src/security/validation"
	"github.com/fundledger/backend/src/services"
	"github.com/shopspring/decimal"
)

func formDate(r *http.Request, field string) (models.Date, error) {
	raw := strings.TrimSpace(r.PostFormValue(field))
	if raw == "" {
		return models.Date{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", validation.ErrValidationFailed, field)
	}
	return d, nil
}

func formDecimal(r *http.Request, field string) (decimal.Decimal, bool, error) {
	return validation.ParseDecimalString(r.PostFormValue(field), field)
}

// formRequiredDecimal is formDecimal for columns that may hold zero but not nothing.
func formRequiredDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	d, ok, err := formDecimal(r, field)
	if err != nil {
		return d, err
	}
	if !ok {
		return d, fmt.Errorf("%w: %s is required", validation.ErrValidationFailed, field)
	}
	return d, nil
}

func formText(r *http.Request, field string) *string {
	s := r.PostFormValue(field)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// hasField reports whether the form carried field at all, empty or not.
func hasField(r *http.Request, field string) bool {
	_, ok := r.PostForm[field]
	return ok
}

func investmentInputFromForm(r *http.Request) (models.InvestmentInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.InvestmentInput{}, fmt.Errorf("%w: malformed form", validation.ErrValidationFailed)
	}
	in := models.InvestmentInput{
		CompanyName:  r.PostFormValue("company_name"),
		FundingRound: models.FundingRound(r.PostFormValue("funding_round")),
		Status:       models.InvestmentStatus(r.PostFormValue("status")),
		Notes:        formText(r, "notes"),
	}

	var err error
	if in.InvestmentDate, err = formDate(r, "investment_date"); err != nil {
		return in, err
	}
	if in.AmountInvested, _, err = formDecimal(r, "amount_invested"); err != nil {
		return in, err
	}
	equity, err := formRequiredDecimal(r, "equity_percentage")
	if err != nil {
		return in, err
	}
	in.EquityPercentage = decimal.NewNullDecimal(equity)
	valuation, ok, err := formDecimal(r, "current_valuation")
	if err != nil {
		return in, err
	}
	if ok {
		in.CurrentValuation = decimal.NewNullDecimal(valuation)
	}
	return in, nil
}

// investmentUpdateFromForm sets only the fields the form submitted. An empty
// valuation or notes field clears the stored value.
func investmentUpdateFromForm(r *http.Request) (models.InvestmentUpdate, error) {
	var u models.InvestmentUpdate
	if err := r.ParseForm(); err != nil {
		return u, fmt.Errorf("%w: malformed form", validation.ErrValidationFailed)
	}

	if hasField(r, "company_name") {
		u.CompanyName = models.Some(r.PostFormValue("company_name"))
	}
	if hasField(r, "investment_date") {
		d, err := formDate(r, "investment_date")
		if err != nil {
			return u, err
		}
		u.InvestmentDate = models.Some(d)
	}
	if hasField(r, "amount_invested") {
		d, err := formRequiredDecimal(r, "amount_invested")
		if err != nil {
			return u, err
		}
		u.AmountInvested = models.Some(d)
	}
	if hasField(r, "funding_round") {
		u.FundingRound = models.Some(models.FundingRound(r.PostFormValue("funding_round")))
	}
	if hasField(r, "equity_percentage") {
		d, err := formRequiredDecimal(r, "equity_percentage")
		if err != nil {
			return u, err
		}
		u.EquityPercentage = models.Some(d)
	}
	if hasField(r, "current_valuation") {
		d, ok, err := formDecimal(r, "current_valuation")
		if err != nil {
			return u, err
		}
		u.CurrentValuation = models.Some(decimal.NullDecimal{Decimal: d, Valid: ok})
	}
	if hasField(r, "status") {
		u.Status = models.Some(models.InvestmentStatus(r.PostFormValue("status")))
	}
	if hasField(r, "notes") {
		u.Notes = models.Some(formText(r, "notes"))
	}
	return u, nil
}

func exitInputFromForm(r *http.Request, investmentID int64) (models.ExitDetailsInput, error) {
	in := models.ExitDetailsInput{InvestmentID: investmentID}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: malformed form", validation.ErrValidationFailed)
	}
	var err error
	if in.ExitDate, err = formDate(r, "exit_date"); err != nil {
		return in, err
	}
	proceeds, err := formRequiredDecimal(r, "proceeds_received")
	if err != nil {
		return in, err
	}
	in.ProceedsReceived = decimal.NewNullDecimal(proceeds)
	// Left blank, the multiple is derived from the amount invested.
	if in.ExitMultiple, _, err = formDecimal(r, "exit_multiple"); err != nil {
		return in, err
	}
	in.Notes = formText(r, "notes")
	return in, nil
}

// userMessage turns an action error into text safe to show on the page.
func userMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		return err.Error()
	case errors.Is(err, services.ErrConflict):
		return "this investment already has an exit record"
	case errors.Is(err, services.ErrNotFound):
		return "record not found"
	case errors.Is(err, errInvalidID):
		return "invalid id"
	default:
		return "unexpected error"
	}
}
