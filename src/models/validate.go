package models

import (
	"fmt"

	"github.com/fundledger/backend/src/security/validation"
	"github.com/shopspring/decimal"
)

var (
	minEquity = decimal.Zero
	maxEquity = decimal.NewFromInt(100)
)

// Prepare scans the raw text, then normalizes and validates the payload.
// The scan runs first because cleaning strips the tags it looks for.
func (in *InvestmentInput) Prepare() error {
	if err := scanRawText(in.CompanyName, in.Notes); err != nil {
		return err
	}
	in.Normalize()
	return in.Validate()
}

// Normalize cleans free text, rounds decimals to stored precision and applies defaults.
func (in *InvestmentInput) Normalize() {
	in.CompanyName = validation.CleanText(in.CompanyName)
	in.Notes = validation.CleanOptionalText(in.Notes)
	in.AmountInvested = in.AmountInvested.Round(MoneyPlaces)
	if in.EquityPercentage.Valid {
		in.EquityPercentage.Decimal = in.EquityPercentage.Decimal.Round(MoneyPlaces)
	}
	if in.CurrentValuation.Valid {
		in.CurrentValuation.Decimal = in.CurrentValuation.Decimal.Round(MoneyPlaces)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
}

// Validate checks the ranges of every field. Call Normalize first.
func (in *InvestmentInput) Validate() error {
	if err := validateCompanyName(in.CompanyName); err != nil {
		return err
	}
	if in.InvestmentDate.IsZero() {
		return fmt.Errorf("%w: investment_date is required", validation.ErrValidationFailed)
	}
	if err := validation.ValidateDecimalPositive(in.AmountInvested, "amount_invested"); err != nil {
		return err
	}
	if err := validation.ValidateOneOf(in.FundingRound, FundingRounds, "funding_round"); err != nil {
		return err
	}
	if !in.EquityPercentage.Valid {
		return fmt.Errorf("%w: equity_percentage is required", validation.ErrValidationFailed)
	}
	if err := validation.ValidateDecimalRange(in.EquityPercentage.Decimal, "equity_percentage", minEquity, maxEquity); err != nil {
		return err
	}
	if in.CurrentValuation.Valid {
		if err := validation.ValidateDecimalPositive(in.CurrentValuation.Decimal, "current_valuation"); err != nil {
			return err
		}
	}
	if err := validation.ValidateOneOf(in.Status, InvestmentStatuses, "status"); err != nil {
		return err
	}
	return validateNotes(in.Notes)
}

func (u *InvestmentUpdate) Prepare() error {
	var notes *string
	if u.Notes.Set {
		notes = u.Notes.Value
	}
	if err := scanRawText(u.CompanyName.Value, notes); err != nil {
		return err
	}
	u.Normalize()
	return u.Validate()
}

// Normalize cleans and rounds the fields that are present.
func (u *InvestmentUpdate) Normalize() {
	if u.CompanyName.Set {
		u.CompanyName.Value = validation.CleanText(u.CompanyName.Value)
	}
	if u.Notes.Set {
		u.Notes.Value = validation.CleanOptionalText(u.Notes.Value)
	}
	if u.AmountInvested.Set {
		u.AmountInvested.Value = u.AmountInvested.Value.Round(MoneyPlaces)
	}
	if u.EquityPercentage.Set {
		u.EquityPercentage.Value = u.EquityPercentage.Value.Round(MoneyPlaces)
	}
	if u.CurrentValuation.Set && u.CurrentValuation.Value.Valid {
		u.CurrentValuation.Value.Decimal = u.CurrentValuation.Value.Decimal.Round(MoneyPlaces)
	}
}

// Validate checks the fields that are present.
func (u *InvestmentUpdate) Validate() error {
	if err := rejectNulls([]nullableField{
		{"company_name", u.CompanyName.Null},
		{"investment_date", u.InvestmentDate.Null},
		{"amount_invested", u.AmountInvested.Null},
		{"funding_round", u.FundingRound.Null},
		{"equity_percentage", u.EquityPercentage.Null},
		{"status", u.Status.Null},
	}); err != nil {
		return err
	}
	if u.CompanyName.Set {
		if err := validateCompanyName(u.CompanyName.Value); err != nil {
			return err
		}
	}
	if u.InvestmentDate.Set && u.InvestmentDate.Value.IsZero() {
		return fmt.Errorf("%w: investment_date cannot be cleared", validation.ErrValidationFailed)
	}
	if u.AmountInvested.Set {
		if err := validation.ValidateDecimalPositive(u.AmountInvested.Value, "amount_invested"); err != nil {
			return err
		}
	}
	if u.FundingRound.Set {
		if err := validation.ValidateOneOf(u.FundingRound.Value, FundingRounds, "funding_round"); err != nil {
			return err
		}
	}
	if u.EquityPercentage.Set {
		if err := validation.ValidateDecimalRange(u.EquityPercentage.Value, "equity_percentage", minEquity, maxEquity); err != nil {
			return err
		}
	}
	if u.CurrentValuation.Set && u.CurrentValuation.Value.Valid {
		if err := validation.ValidateDecimalPositive(u.CurrentValuation.Value.Decimal, "current_valuation"); err != nil {
			return err
		}
	}
	if u.Status.Set {
		if err := validation.ValidateOneOf(u.Status.Value, InvestmentStatuses, "status"); err != nil {
			return err
		}
	}
	if u.Notes.Set {
		return validateNotes(u.Notes.Value)
	}
	return nil
}

func (in *ExitDetailsInput) Prepare() error {
	if err := scanRawText("", in.Notes); err != nil {
		return err
	}
	in.Normalize()
	return in.Validate()
}

func (in *ExitDetailsInput) Normalize() {
	in.Notes = validation.CleanOptionalText(in.Notes)
	if in.ProceedsReceived.Valid {
		in.ProceedsReceived.Decimal = in.ProceedsReceived.Decimal.Round(MoneyPlaces)
	}
}

// Validate checks the exit payload. A zero exit multiple is accepted here
// because it is derived later from the parent investment.
func (in *ExitDetailsInput) Validate() error {
	if in.InvestmentID <= 0 {
		return fmt.Errorf("%w: investment_id is required", validation.ErrValidationFailed)
	}
	if in.ExitDate.IsZero() {
		return fmt.Errorf("%w: exit_date is required", validation.ErrValidationFailed)
	}
	if !in.ProceedsReceived.Valid {
		return fmt.Errorf("%w: proceeds_received is required", validation.ErrValidationFailed)
	}
	if err := validation.ValidateDecimalNonNegative(in.ProceedsReceived.Decimal, "proceeds_received"); err != nil {
		return err
	}
	if !in.ExitMultiple.IsZero() {
		if err := validation.ValidateDecimalPositive(in.ExitMultiple, "exit_multiple"); err != nil {
			return err
		}
	}
	return validateNotes(in.Notes)
}

// ResolveMultiple fills a zero ExitMultiple from the amount invested. A
// multiple that would not be positive is rejected instead of stored.
func (in *ExitDetailsInput) ResolveMultiple(invested decimal.Decimal) error {
	if in.ExitMultiple.IsZero() {
		in.ExitMultiple = ExitMultipleFor(in.ProceedsReceived.Decimal, invested)
	}
	if !in.ExitMultiple.IsPositive() {
		return fmt.Errorf("%w: exit_multiple cannot be derived from proceeds of %s, supply a positive exit_multiple",
			validation.ErrValidationFailed, in.ProceedsReceived.Decimal.StringFixed(MoneyPlaces))
	}
	return nil
}

func (u *ExitDetailsUpdate) Prepare() error {
	var notes *string
	if u.Notes.Set {
		notes = u.Notes.Value
	}
	if err := scanRawText("", notes); err != nil {
		return err
	}
	u.Normalize()
	return u.Validate()
}

func (u *ExitDetailsUpdate) Normalize() {
	if u.Notes.Set {
		u.Notes.Value = validation.CleanOptionalText(u.Notes.Value)
	}
	if u.ProceedsReceived.Set {
		u.ProceedsReceived.Value = u.ProceedsReceived.Value.Round(MoneyPlaces)
	}
}

func (u *ExitDetailsUpdate) Validate() error {
	if err := rejectNulls([]nullableField{
		{"exit_date", u.ExitDate.Null},
		{"proceeds_received", u.ProceedsReceived.Null},
		{"exit_multiple", u.ExitMultiple.Null},
	}); err != nil {
		return err
	}
	if u.ExitDate.Set && u.ExitDate.Value.IsZero() {
		return fmt.Errorf("%w: exit_date cannot be cleared", validation.ErrValidationFailed)
	}
	if u.ProceedsReceived.Set {
		if err := validation.ValidateDecimalNonNegative(u.ProceedsReceived.Value, "proceeds_received"); err != nil {
			return err
		}
	}
	if u.ExitMultiple.Set {
		if err := validation.ValidateDecimalPositive(u.ExitMultiple.Value, "exit_multiple"); err != nil {
			return err
		}
	}
	if u.Notes.Set {
		return validateNotes(u.Notes.Value)
	}
	return nil
}

type nullableField struct {
	name string
	null bool
}

func rejectNulls(fields []nullableField) error {
	for _, f := range fields {
		if f.null {
			return fmt.Errorf("%w: %s cannot be null", validation.ErrValidationFailed, f.name)
		}
	}
	return nil
}

// scanRawText checks text as submitted, before CleanText removes markup.
func scanRawText(companyName string, notes *string) error {
	if err := validation.CheckXSSPatterns(companyName, "company_name"); err != nil {
		return err
	}
	if notes != nil {
		return validation.CheckXSSPatterns(*notes, "notes")
	}
	return nil
}

func validateCompanyName(name string) error {
	if err := validation.ValidateStringNotEmpty(name, "company_name"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxCompanyNameLength, "company_name"); err != nil {
		return err
	}
	// Cleaning unescapes entities, so encoded payloads only show up here.
	return validation.CheckXSSPatterns(name, "company_name")
}

func validateNotes(notes *string) error {
	if notes == nil {
		return nil
	}
	if err := validation.ValidateStringMaxLength(*notes, validation.MaxNotesLength, "notes"); err != nil {
		return err
	}
	return validation.CheckXSSPatterns(*notes, "notes")
}
