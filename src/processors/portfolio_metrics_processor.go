package processors

import (
	"github.com/fundledger/backend/src/models"
	"github.com/shopspring/decimal"
)

type portfolioMetricsProcessorImpl struct{}

func NewPortfolioMetricsProcessor() PortfolioMetricsProcessor {
	return &portfolioMetricsProcessorImpl{}
}

// Calculate sums invested, value and realized amounts overall, per status
// and per funding round. Every status and round appears in the result, with
// zero totals when nothing falls into it.
func (p *portfolioMetricsProcessorImpl) Calculate(holdings []models.HoldingWithExit) models.PortfolioMetrics {
	metrics := models.PortfolioMetrics{
		TotalInvested:   decimal.Zero,
		PortfolioValue:  decimal.Zero,
		TotalRealized:   decimal.Zero,
		UnrealizedValue: decimal.Zero,
		MOIC:            decimal.Zero,
		ByStatus:        make(map[models.InvestmentStatus]models.BucketTotals, len(models.InvestmentStatuses)),
		ByFundingRound:  make(map[models.FundingRound]models.BucketTotals, len(models.FundingRounds)),
	}
	for _, s := range models.InvestmentStatuses {
		metrics.ByStatus[s] = emptyBucket()
	}
	for _, r := range models.FundingRounds {
		metrics.ByFundingRound[r] = emptyBucket()
	}

	for _, h := range holdings {
		invested := h.Investment.AmountInvested
		value := h.Value()

		metrics.InvestmentCount++
		metrics.TotalInvested = metrics.TotalInvested.Add(invested)
		metrics.PortfolioValue = metrics.PortfolioValue.Add(value)
		metrics.TotalRealized = metrics.TotalRealized.Add(h.Realized())

		metrics.ByStatus[h.Investment.Status] = addToBucket(metrics.ByStatus[h.Investment.Status], invested, value)
		metrics.ByFundingRound[h.Investment.FundingRound] = addToBucket(metrics.ByFundingRound[h.Investment.FundingRound], invested, value)
	}

	metrics.UnrealizedValue = metrics.PortfolioValue.Sub(metrics.TotalRealized)
	if metrics.TotalInvested.IsPositive() {
		metrics.MOIC = metrics.PortfolioValue.DivRound(metrics.TotalInvested, models.MoneyPlaces)
	}
	return metrics
}

func emptyBucket() models.BucketTotals {
	return models.BucketTotals{TotalInvested: decimal.Zero, TotalValue: decimal.Zero}
}

func addToBucket(b models.BucketTotals, invested, value decimal.Decimal) models.BucketTotals {
	b.Count++
	b.TotalInvested = b.TotalInvested.Add(invested)
	b.TotalValue = b.TotalValue.Add(value)
	return b
}
