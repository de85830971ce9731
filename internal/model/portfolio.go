package model

import "time"

// PurchaseBreakdown echoes one lot inside an aggregated position.
// Cost and shares are rounded to two decimals; PurchaseDate is formatted as YYYY-MM-DD.
type PurchaseBreakdown struct {
	HoldingID    string  `json:"holding_id"`
	PurchaseCost float64 `json:"purchase_cost"`
	Shares       float64 `json:"shares"`
	PurchaseDate string  `json:"purchase_date"`
}

// InstrumentPosition aggregates every lot of one instrument for one user,
// valued at the live quote. All monetary and percentage values are rounded
// to two decimal places.
type InstrumentPosition struct {
	Symbol                    string              `json:"stock_symbol"`
	Name                      string              `json:"stock_name"`
	Sector                    string              `json:"sector"`
	TotalCost                 float64             `json:"total_cost"`
	TotalShares               float64             `json:"total_shares"`
	CurrentPrice              float64             `json:"current_price"`
	MarketValue               float64             `json:"market_value"`
	TotalProfitLoss           float64             `json:"total_profit_loss"`
	TotalProfitLossPercentage float64             `json:"total_profit_loss_percentage"`
	DailyProfitLoss           float64             `json:"daily_profit_loss"`
	DailyProfitLossPercentage float64             `json:"daily_profit_loss_percentage"`
	Purchases                 []PurchaseBreakdown `json:"purchases"`
}

// PortfolioSummary holds the portfolio-wide totals. They are computed from
// unrounded position values and rounded once at the end.
type PortfolioSummary struct {
	TotalCost                 float64 `json:"total_cost"`
	TotalValue                float64 `json:"total_value"`
	TotalProfitLoss           float64 `json:"total_profit_loss"`
	TotalProfitLossPercentage float64 `json:"total_profit_loss_percentage"`
}

// PortfolioResult is the complete valuation of one user's portfolio.
// Holdings is empty, never nil, for a user with no lots.
type PortfolioResult struct {
	Summary  PortfolioSummary     `json:"portfolio_summary"`
	Holdings []InstrumentPosition `json:"holdings"`
}

// PortfolioSnapshot is a stored end-of-day valuation. At most one exists per user per date.
type PortfolioSnapshot struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	Date         time.Time            `json:"date"`
	Summary      PortfolioSummary     `json:"portfolio_summary"`
	Positions    []InstrumentPosition `json:"holdings"`
	CalculatedAt time.Time            `json:"calculated_at"`
}
