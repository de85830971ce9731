package request

// CreateHoldingRequest represents the request body for recording a purchase lot
type CreateHoldingRequest struct {
	StockSymbol  string  `json:"stock_symbol"`
	Shares       float64 `json:"shares"`
	PurchaseCost float64 `json:"purchase_cost"`
	PurchaseDate string  `json:"purchase_date"`
}

// UpdateHoldingRequest is a partial update; nil fields are left unchanged.
type UpdateHoldingRequest struct {
	Shares       *float64 `json:"shares,omitempty"`
	PurchaseCost *float64 `json:"purchase_cost,omitempty"`
	PurchaseDate *string  `json:"purchase_date,omitempty"`
}
