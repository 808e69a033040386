package models

import "github.com/shopspring/decimal"

// HoldingWithExit pairs an investment with its exit record, if any.
type HoldingWithExit struct {
	Investment Investment   `json:"investment"`
	Exit       *ExitDetails `json:"exit"`
}

// Value is the exit proceeds when an exit exists, else the current
// valuation when known, else the amount invested.
func (h HoldingWithExit) Value() decimal.Decimal {
	if h.Exit != nil {
		return h.Exit.ProceedsReceived
	}
	if h.Investment.CurrentValuation.Valid {
		return h.Investment.CurrentValuation.Decimal
	}
	return h.Investment.AmountInvested
}

// Realized is the exit proceeds, or zero without an exit.
func (h HoldingWithExit) Realized() decimal.Decimal {
	if h.Exit != nil {
		return h.Exit.ProceedsReceived
	}
	return decimal.Zero
}

// BucketTotals aggregates the investments of one status or funding round.
type BucketTotals struct {
	Count         int             `json:"count"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// PortfolioMetrics is the dashboard summary.
type PortfolioMetrics struct {
	TotalInvested   decimal.Decimal `json:"total_invested"`
	PortfolioValue  decimal.Decimal `json:"portfolio_value"`
	TotalRealized   decimal.Decimal `json:"total_realized"`
	UnrealizedValue decimal.Decimal `json:"unrealized_value"`
	// MOIC is portfolio value over total invested, zero when nothing is invested.
	MOIC            decimal.Decimal                   `json:"moic"`
	InvestmentCount int                               `json:"investment_count"`
	ByStatus        map[InvestmentStatus]BucketTotals `json:"by_status"`
	ByFundingRound  map[FundingRound]BucketTotals     `json:"by_funding_round"`
}

// DashboardSummary is what the dashboard endpoint and page render.
type DashboardSummary struct {
	Metrics  PortfolioMetrics  `json:"metrics"`
	Holdings []HoldingWithExit `json:"holdings"`
}
