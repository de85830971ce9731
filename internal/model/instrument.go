package model

// Instrument is a tradable stock identified by its unique ticker symbol.
type Instrument struct {
	Symbol string `json:"stock_symbol"`
	Name   string `json:"stock_name"`
	Sector string `json:"sector"`
}
