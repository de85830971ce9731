package model

import "time"

// Lot is a single purchase of shares of one instrument by one user.
// Several lots of the same instrument may coexist; they are never merged in storage.
type Lot struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Symbol       string    `json:"stock_symbol"`
	Shares       float64   `json:"shares"`
	PurchaseCost float64   `json:"purchase_cost"` // total amount paid for the lot
	PurchaseDate time.Time `json:"purchase_date"`
}
