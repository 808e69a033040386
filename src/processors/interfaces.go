package processors

import "github.com/fundledger/backend/src/models"

// PortfolioMetricsProcessor derives dashboard metrics from loaded holdings.
type PortfolioMetricsProcessor interface {
	Calculate(holdings []models.HoldingWithExit) models.PortfolioMetrics
}
