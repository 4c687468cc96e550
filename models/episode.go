package models

import "time"

// EpisodeContext holds all market data for one simulated trading day.
// It is built once at episode reset and never mutated afterwards, so a
// fixed context plus a fixed action sequence replays identically.
type EpisodeContext struct {
	Date        time.Time
	Timestamps  []time.Time
	SpotPrices  map[time.Time]float64
	ChainByTime map[time.Time][]OptionContract
}

// ChainAt returns the chain snapshot for a timestamp.
func (e *EpisodeContext) ChainAt(ts time.Time) []OptionContract {
	return e.ChainByTime[ts]
}

// SpotAt returns the underlying price for a timestamp.
func (e *EpisodeContext) SpotAt(ts time.Time) float64 {
	return e.SpotPrices[ts]
}
