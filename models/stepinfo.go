package models

import "time"

// StepInfo is the info bundle emitted by every call to Step and Reset.
// It carries everything a reward calculator or external learning loop
// needs beyond the observation vector itself.
type StepInfo struct {
	Timestamp     time.Time
	EpisodeDate   time.Time
	State         EnvState
	RiskLevel     string
	RiskScore     float64
	Cash          float64
	TotalPnl      float64
	CallPosition  *Position
	PutPosition   *Position
	TradeExecuted bool
	TradeRejected bool
	RejectReason  string
	ActionCoerced bool
	KellySized    bool
	StopTriggered bool
	EpisodeEnded  bool
	EpisodePnl    float64
}

// Reasons a sell or close does not execute. These are reporting strings,
// not errors; a rejected action is a no-op that still advances time.
const (
	ReasonAlreadyHaveCall   = "Already have call position"
	ReasonAlreadyHavePut    = "Already have put position"
	ReasonAlreadyTradedCall = "Already traded calls today"
	ReasonAlreadyTradedPut  = "Already traded puts today"
	ReasonNoMatch           = "No contracts match target delta"
	ReasonDeltaLimit        = "Delta exceeds limit"
	ReasonLowVolume         = "Insufficient volume"
	ReasonKellyZero         = "Kelly criterion suggests no trade"
	ReasonNoPosition        = "No position to close"
)
