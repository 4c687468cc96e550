// Package data supplies episode market data to the trading environment.
package data

import (
	"errors"
	"time"

	"github.com/tantralabs/zdte/models"
)

// ErrNoData is returned by LoadEpisode when a date has no market data.
// Reset treats this as fatal rather than substituting a different date.
var ErrNoData = errors.New("no market data for date")

// ChainProvider materializes a full trading day of spot prices and chain
// snapshots. Everything the episode needs is loaded up front; the step
// loop never performs I/O.
type ChainProvider interface {
	TradingDates() []time.Time
	LoadEpisode(date time.Time) (*models.EpisodeContext, error)
}

// SessionTimestamps builds the fixed 5-minute grid from market open to
// close for a date. With a 390 minute session that is 79 instants, open
// and close inclusive.
func SessionTimestamps(date time.Time, stepMinutes int, sessionMinutes int) []time.Time {
	open := time.Date(date.Year(), date.Month(), date.Day(), 9, 30, 0, 0, time.UTC)
	numSteps := sessionMinutes/stepMinutes + 1
	timestamps := make([]time.Time, numSteps)
	for i := 0; i < numSteps; i++ {
		timestamps[i] = open.Add(time.Duration(i*stepMinutes) * time.Minute)
	}
	return timestamps
}
