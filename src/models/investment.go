package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Monetary and percentage values are emitted as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MoneyPlaces is the fixed precision of stored monetary and percentage values.
const MoneyPlaces = 2

// FundingRound is the stage at which the fund invested.
type FundingRound string

const (
	RoundPreSeed    FundingRound = "Pre-Seed"
	RoundSeed       FundingRound = "Seed"
	RoundSeriesA    FundingRound = "Series A"
	RoundSeriesB    FundingRound = "Series B"
	RoundSeriesC    FundingRound = "Series C"
	RoundSeriesD    FundingRound = "Series D"
	RoundLaterStage FundingRound = "Later Stage"
	RoundBridge     FundingRound = "Bridge"
)

// FundingRounds lists every round in display order.
var FundingRounds = []FundingRound{
	RoundPreSeed, RoundSeed, RoundSeriesA, RoundSeriesB,
	RoundSeriesC, RoundSeriesD, RoundLaterStage, RoundBridge,
}

func (r FundingRound) Valid() bool {
	for _, known := range FundingRounds {
		if r == known {
			return true
		}
	}
	return false
}

// InvestmentStatus is the denormalized lifecycle state of an investment.
type InvestmentStatus string

const (
	StatusActive     InvestmentStatus = "Active"
	StatusExited     InvestmentStatus = "Exited"
	StatusWrittenOff InvestmentStatus = "Written Off"
)

// InvestmentStatuses lists every status in display order.
var InvestmentStatuses = []InvestmentStatus{StatusActive, StatusExited, StatusWrittenOff}

func (s InvestmentStatus) Valid() bool {
	return s == StatusActive || s == StatusExited || s == StatusWrittenOff
}

// Investment is a stored investment record.
type Investment struct {
	ID               int64               `json:"id"`
	CompanyName      string              `json:"company_name"`
	InvestmentDate   Date                `json:"investment_date"`
	AmountInvested   decimal.Decimal     `json:"amount_invested"`
	FundingRound     FundingRound        `json:"funding_round"`
	EquityPercentage decimal.Decimal     `json:"equity_percentage"`
	CurrentValuation decimal.NullDecimal `json:"current_valuation"`
	Status           InvestmentStatus    `json:"status"`
	Notes            *string             `json:"notes"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ExitDetails records how and when the fund exited an investment.
type ExitDetails struct {
	ID               int64           `json:"id"`
	InvestmentID     int64           `json:"investment_id"`
	ExitDate         Date            `json:"exit_date"`
	ProceedsReceived decimal.Decimal `json:"proceeds_received"`
	ExitMultiple     decimal.Decimal `json:"exit_multiple"`
	Notes            *string         `json:"notes"`
	CreatedAt        time.Time       `json:"created_at"`
}

// InvestmentInput is the payload for creating an investment. Equity is a
// NullDecimal so a missing value is not mistaken for 0%.
type InvestmentInput struct {
	CompanyName      string              `json:"company_name"`
	InvestmentDate   Date                `json:"investment_date"`
	AmountInvested   decimal.Decimal     `json:"amount_invested"`
	FundingRound     FundingRound        `json:"funding_round"`
	EquityPercentage decimal.NullDecimal `json:"equity_percentage"`
	CurrentValuation decimal.NullDecimal `json:"current_valuation"`
	Status           InvestmentStatus    `json:"status"`
	Notes            *string             `json:"notes"`
}

// InvestmentUpdate is a partial update: only fields with Set are written.
type InvestmentUpdate struct {
	CompanyName      Optional[string]              `json:"company_name"`
	InvestmentDate   Optional[Date]                `json:"investment_date"`
	AmountInvested   Optional[decimal.Decimal]     `json:"amount_invested"`
	FundingRound     Optional[FundingRound]        `json:"funding_round"`
	EquityPercentage Optional[decimal.Decimal]     `json:"equity_percentage"`
	CurrentValuation Optional[decimal.NullDecimal] `json:"current_valuation"`
	Status           Optional[InvestmentStatus]    `json:"status"`
	Notes            Optional[*string]             `json:"notes"`
}

// ExitDetailsInput is the payload for recording an exit. A zero ExitMultiple
// is derived from the parent's amount invested.
type ExitDetailsInput struct {
	InvestmentID     int64               `json:"investment_id"`
	ExitDate         Date                `json:"exit_date"`
	ProceedsReceived decimal.NullDecimal `json:"proceeds_received"`
	ExitMultiple     decimal.Decimal     `json:"exit_multiple"`
	Notes            *string             `json:"notes"`
}

// ExitDetailsUpdate is a partial update of an exit record.
type ExitDetailsUpdate struct {
	ExitDate         Optional[Date]            `json:"exit_date"`
	ProceedsReceived Optional[decimal.Decimal] `json:"proceeds_received"`
	ExitMultiple     Optional[decimal.Decimal] `json:"exit_multiple"`
	Notes            Optional[*string]         `json:"notes"`
}

// ExitMultipleFor returns proceeds ÷ invested at stored precision, or zero when nothing was invested.
func ExitMultipleFor(proceeds, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return proceeds.DivRound(invested, MoneyPlaces)
}
