package model

import "time"

// Quote represents a single OHLCV bar for one symbol.
type Quote struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SymbolData holds the pre-loaded history for one symbol.
// Quotes must be sorted ascending by time.
type SymbolData struct {
	Open   float64 // session-open reference price for change-rate calculation
	Quotes []Quote
}

// Group is a static collection of symbols traded as one trend unit.
// A symbol may belong to more than one group.
type Group struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Symbols []string `yaml:"symbols"`
}
