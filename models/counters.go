package models

// DailyTradeCounters enforces the one-trade-per-side-per-day rule. Reset
// at episode start, mutated only on successful execution, never reset
// mid-episode.
type DailyTradeCounters struct {
	HasTradedCalls bool
	HasTradedPuts  bool
	CallContracts  int
	PutContracts   int
}

func (c *DailyTradeCounters) HasTraded(side string) bool {
	if side == Call {
		return c.HasTradedCalls
	}
	return c.HasTradedPuts
}

func (c *DailyTradeCounters) MarkTraded(side string, contracts int) {
	if side == Call {
		c.HasTradedCalls = true
		c.CallContracts += contracts
	} else {
		c.HasTradedPuts = true
		c.PutContracts += contracts
	}
}
