package models

import "time"

// TradeRecord is appended on every position close. The record history
// accumulates for the life of the process and feeds the Kelly sizer.
type TradeRecord struct {
	ID        string    `csv:"id" db:"id"`
	Symbol    string    `csv:"symbol" db:"symbol"`
	Side      string    `csv:"side" db:"side"`
	Strike    float64   `csv:"strike" db:"strike"`
	Quantity  int       `csv:"quantity" db:"quantity"`
	Pnl       float64   `csv:"pnl" db:"pnl"`
	EntryTime time.Time `csv:"entry_time" db:"entry_time"`
	ExitTime  time.Time `csv:"exit_time" db:"exit_time"`
}
