package zdte

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Position sizing policy constants. The quarter-Kelly multiplier and the
// bucket thresholds are conformance values, not tunables.
const (
	kellyMinHistory    = 20
	kellyFraction      = 0.25
	kellyLowThreshold  = 0.33
	kellyHighThreshold = 0.67
	kellyDefaultSize   = 20
)

// KellySizer maps the accumulated realized trade history to a bucketed
// contract count. The history outlives any single episode; it is guarded
// so a sizer may be shared across vectorized environments.
type KellySizer struct {
	mu      sync.Mutex
	history []float64
}

func NewKellySizer() *KellySizer {
	return &KellySizer{history: make([]float64, 0)}
}

func (k *KellySizer) RecordTrade(pnl float64) {
	k.mu.Lock()
	k.history = append(k.history, pnl)
	k.mu.Unlock()
}

func (k *KellySizer) TradeCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.history)
}

func (k *KellySizer) History() []float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	history := make([]float64, len(k.history))
	copy(history, k.history)
	return history
}

// Size returns 0, 10, 20 or 30 contracts. Below 20 recorded trades, or
// without at least one win and one loss, there is no edge estimate and
// the moderate default applies. A 0 means refuse to trade.
func (k *KellySizer) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.history) < kellyMinHistory {
		return kellyDefaultSize
	}

	var wins, losses []float64
	for _, pnl := range k.history {
		if pnl > 0 {
			wins = append(wins, pnl)
		} else if pnl < 0 {
			losses = append(losses, -pnl)
		}
	}
	if len(wins) == 0 || len(losses) == 0 {
		return kellyDefaultSize
	}

	winRate := float64(len(wins)) / float64(len(k.history))
	avgWin := stat.Mean(wins, nil)
	avgLoss := stat.Mean(losses, nil)
	b := avgWin / avgLoss
	fullKelly := (winRate*b - (1 - winRate)) / b
	appliedKelly := fullKelly * kellyFraction

	switch {
	case appliedKelly <= 0:
		return 0
	case appliedKelly < kellyLowThreshold:
		return 10
	case appliedKelly < kellyHighThreshold:
		return 20
	default:
		return 30
	}
}
