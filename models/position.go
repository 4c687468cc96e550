package models

import "time"

// Position is a short option position. At most one call and one put may
// be open at a time.
type Position struct {
	Side             string // Call or Put
	Strike           float64
	ContractID       string
	EntryPrice       float64
	CurrentPrice     float64
	Quantity         int
	EntryTime        time.Time
	TimeHeld         int // minutes
	PremiumCollected float64
	NetCredit        float64
	CurrentPnl       float64
	StopLoss         float64
}
