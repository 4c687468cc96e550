package models

// Action is one of the discrete decisions the agent can take each step.
type Action int

const (
	Hold Action = iota
	SellPut15D
	SellPut10D
	SellCall15D
	Close
)

func (a Action) String() string {
	switch a {
	case Hold:
		return "HOLD"
	case SellPut15D:
		return "SELL_PUT_15D"
	case SellPut10D:
		return "SELL_PUT_10D"
	case SellCall15D:
		return "SELL_CALL_15D"
	case Close:
		return "CLOSE"
	}
	return "UNKNOWN"
}

// TargetDelta returns the delta search seed for a sell action. The seed
// is where the contract search starts, not a hard filter; the 0.20 cap
// is applied at execution.
func (a Action) TargetDelta() float64 {
	switch a {
	case SellPut15D:
		return -0.15
	case SellPut10D:
		return -0.10
	case SellCall15D:
		return 0.15
	}
	return 0
}

// Side returns which side of the book a sell action trades.
func (a Action) Side() string {
	switch a {
	case SellPut15D, SellPut10D:
		return Put
	case SellCall15D:
		return Call
	}
	return ""
}

func (a Action) IsSell() bool {
	return a == SellPut15D || a == SellPut10D || a == SellCall15D
}

// EnvState labels where the episode state machine currently is.
type EnvState string

const (
	StateWaiting    EnvState = "WAITING"
	StateFlat       EnvState = "FLAT"
	StateCallOpen   EnvState = "CALL_OPEN"
	StatePutOpen    EnvState = "PUT_OPEN"
	StateBothOpen   EnvState = "BOTH_OPEN"
	StateTerminated EnvState = "TERMINATED"
)
