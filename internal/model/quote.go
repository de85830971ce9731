package model

import "time"

// Quote is a live market observation for one symbol.
// DailyChange is the per-share price change since the previous close.
type Quote struct {
	Symbol       string
	CurrentPrice float64
	DailyChange  float64
	FetchedAt    time.Time
}
