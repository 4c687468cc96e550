package zdte

// RewardContext is everything the environment knows about a step that a
// reward shape may care about. The environment makes no assumption about
// the shape itself.
type RewardContext struct {
	PnlChange     float64
	RiskLevel     string
	RiskScore     float64
	TradeExecuted bool
	TradeRejected bool
	HasPosition   bool
	EpisodeEnded  bool
	EpisodePnl    float64
	KellySized    bool
}

// RewardCalculator is the extension point for alternative reward designs.
type RewardCalculator interface {
	Calculate(ctx RewardContext) float64
}

// PnlReward rewards the raw step P&L delta, lightly penalizes rejected
// actions so agents learn the action mask, and adds a terminal bonus
// proportional to the episode P&L.
type PnlReward struct {
	Scale float64
}

func NewPnlReward() *PnlReward {
	return &PnlReward{Scale: 100}
}

func (r *PnlReward) Calculate(ctx RewardContext) float64 {
	reward := ctx.PnlChange / r.Scale
	if ctx.TradeRejected {
		reward -= 0.05
	}
	if ctx.EpisodeEnded {
		reward += ctx.EpisodePnl / (r.Scale * 10)
	}
	return reward
}

// RiskAdjustedReward scales the P&L delta down as the classified risk
// score rises, and charges a carry penalty for holding positions on
// high risk days.
type RiskAdjustedReward struct {
	Scale float64
}

func NewRiskAdjustedReward() *RiskAdjustedReward {
	return &RiskAdjustedReward{Scale: 100}
}

func (r *RiskAdjustedReward) Calculate(ctx RewardContext) float64 {
	reward := ctx.PnlChange / (r.Scale * (1 + ctx.RiskScore))
	if ctx.TradeRejected {
		reward -= 0.05
	}
	if ctx.HasPosition && ctx.RiskScore > 0.5 {
		reward -= 0.01
	}
	if ctx.EpisodeEnded {
		reward += ctx.EpisodePnl / (r.Scale * 10 * (1 + ctx.RiskScore))
	}
	return reward
}
