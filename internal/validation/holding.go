package validation

import (
	"math"
	"strings"
	"time"

	"github.com/finsight-ai/finsight-backend/internal/api/request"
)

const maxSymbolLength = 10

// ValidateCreateHolding validates a lot creation request.
//
// Required fields:
//   - stock_symbol: non-empty, at most 10 characters
//   - shares: finite and non-negative
//   - purchase_cost: finite and non-negative
//   - purchase_date: YYYY-MM-DD
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateHolding(req request.CreateHoldingRequest) error {
	errors := make(map[string]string)

	symbol := strings.TrimSpace(req.StockSymbol)
	if symbol == "" {
		errors["stock_symbol"] = "stock_symbol is required"
	} else if len(symbol) > maxSymbolLength {
		errors["stock_symbol"] = "stock_symbol must be 10 characters or less"
	}

	if msg := checkAmount(req.Shares, "shares"); msg != "" {
		errors["shares"] = msg
	}
	if msg := checkAmount(req.PurchaseCost, "purchase_cost"); msg != "" {
		errors["purchase_cost"] = msg
	}

	if strings.TrimSpace(req.PurchaseDate) == "" {
		errors["purchase_date"] = "purchase_date is required"
	} else if _, err := time.Parse("2006-01-02", req.PurchaseDate); err != nil {
		errors["purchase_date"] = "purchase_date must be in YYYY-MM-DD format"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateHolding validates only the fields present in a partial update.
func ValidateUpdateHolding(req request.UpdateHoldingRequest) error {
	errors := make(map[string]string)

	if req.Shares != nil {
		if msg := checkAmount(*req.Shares, "shares"); msg != "" {
			errors["shares"] = msg
		}
	}
	if req.PurchaseCost != nil {
		if msg := checkAmount(*req.PurchaseCost, "purchase_cost"); msg != "" {
			errors["purchase_cost"] = msg
		}
	}
	if req.PurchaseDate != nil {
		if _, err := time.Parse("2006-01-02", *req.PurchaseDate); err != nil {
			errors["purchase_date"] = "purchase_date must be in YYYY-MM-DD format"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

func checkAmount(v float64, field string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return field + " must be a finite number"
	}
	if v < 0 {
		return field + " cannot be negative"
	}
	return ""
}
