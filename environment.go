// Package zdte implements an episodic simulation of same-day-expiration
// SPY option selling. One environment replays one trading day at a time
// in fixed 5-minute steps; an external learning loop drives it through
// Reset and Step.
package zdte

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tantralabs/zdte/data"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
	"github.com/tantralabs/zdte/risk"
	"github.com/tantralabs/zdte/settings"
)

// TradeSink receives every closed trade. The postgres ledger satisfies
// this; so does anything else that wants the records.
type TradeSink interface {
	InsertTrade(trade models.TradeRecord) error
}

// TradingEnvironment is the episode state machine. It owns simulated
// cash, at most one open position per side, the per-day trade counters
// and the clock. Everything inside Step is synchronous; all market data
// is materialized at Reset, so a fixed date and action sequence replays
// bit-identically.
type TradingEnvironment struct {
	config            settings.Config
	observationConfig ObservationConfig
	provider          data.ChainProvider
	classifier        risk.Classifier
	sizer             *KellySizer
	reward            RewardCalculator
	sink              TradeSink
	rng               *rand.Rand

	episode         *models.EpisodeContext
	riskParams      models.RiskParameters
	riskScore       float64
	index           int
	cash            float64
	realizedPnl     float64
	callPosition    *models.Position
	putPosition     *models.Position
	counters        models.DailyTradeCounters
	positionHistory []models.Position
	tradeHistory    []models.TradeRecord
	result          models.EpisodeResult
	terminated      bool
}

func NewTradingEnvironment(config settings.Config, provider data.ChainProvider, classifier risk.Classifier) *TradingEnvironment {
	return NewTradingEnvironmentWithSizer(config, provider, classifier, NewKellySizer())
}

// NewTradingEnvironmentWithSizer injects a shared sizer. Use this when
// running vectorized environments that should pool their trade history.
func NewTradingEnvironmentWithSizer(config settings.Config, provider data.ChainProvider, classifier risk.Classifier, sizer *KellySizer) *TradingEnvironment {
	logger.SetLevel(config.LogLevel)
	return &TradingEnvironment{
		config:            config,
		observationConfig: ObservationConfig{PriceScale: config.PriceScale, SessionMinutes: float64(config.SessionMinutes), PnlScale: config.PnlScale},
		provider:          provider,
		classifier:        classifier,
		sizer:             sizer,
		reward:            NewPnlReward(),
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRewardCalculator swaps the reward shape. Call between episodes.
func (env *TradingEnvironment) SetRewardCalculator(reward RewardCalculator) {
	env.reward = reward
}

// SetTradeSink attaches a persistent ledger for closed trades.
func (env *TradingEnvironment) SetTradeSink(sink TradeSink) {
	env.sink = sink
}

// SetSeed fixes the date sampling sequence used by Reset.
func (env *TradingEnvironment) SetSeed(seed int64) {
	env.rng = rand.New(rand.NewSource(seed))
}

// Reset samples a trading day uniformly from the provider and starts an
// episode on it.
func (env *TradingEnvironment) Reset() ([]float64, models.StepInfo, error) {
	dates := env.provider.TradingDates()
	if len(dates) == 0 {
		return nil, models.StepInfo{}, fmt.Errorf("%w: provider has no trading dates", data.ErrNoData)
	}
	return env.ResetTo(dates[env.rng.Intn(len(dates))])
}

// ResetTo starts an episode on an explicit date. It is the only fallible
// engine call: a date without data errors rather than substituting
// another day.
func (env *TradingEnvironment) ResetTo(date time.Time) ([]float64, models.StepInfo, error) {
	episode, err := env.provider.LoadEpisode(date)
	if err != nil {
		return nil, models.StepInfo{}, err
	}
	if len(episode.Timestamps) == 0 {
		return nil, models.StepInfo{}, fmt.Errorf("%w: episode %v has no timestamps", data.ErrNoData, date.Format("2006-01-02"))
	}

	env.episode = episode
	env.cash = env.config.InitialCapital
	env.realizedPnl = 0
	env.callPosition = nil
	env.putPosition = nil
	env.counters = models.DailyTradeCounters{}
	env.positionHistory = nil
	env.terminated = false
	env.riskParams, env.riskScore = env.classifier.Classify(date)

	// The mandated post-open wait is consumed here, so the first decision
	// point already sits WaitMinutes into the session.
	env.index = env.riskParams.WaitMinutes / env.config.StepMinutes
	if env.index >= len(episode.Timestamps) {
		env.index = len(episode.Timestamps) - 1
	}

	env.result = models.EpisodeResult{Date: date, RiskLevel: env.riskParams.RiskLevel}
	logger.Infof("Reset episode %v with %v risk, wait %v minutes, stop multiple %v.\n",
		date.Format("2006-01-02"), env.riskParams.RiskLevel, env.riskParams.WaitMinutes, env.riskParams.StopMultiple)
	return env.observation(), env.stepInfo(), nil
}

// Step executes one action and advances the clock one tick. Execution
// happens against the snapshot at the current timestamp, then time moves,
// then open positions are marked and stop-losses checked, then the reward
// is computed from the resulting P&L delta. Step never returns an error;
// illegal actions are coerced to HOLD and reported through the info.
func (env *TradingEnvironment) Step(action models.Action) ([]float64, float64, bool, bool, models.StepInfo) {
	if env.episode == nil || env.terminated {
		info := env.stepInfo()
		info.EpisodeEnded = true
		return env.observation(), 0, true, false, info
	}

	pnlBefore := env.episodePnl()
	exec := env.executeAction(action)

	env.index++
	stopTriggered := false
	if env.index >= len(env.episode.Timestamps) {
		env.index = len(env.episode.Timestamps) - 1
		env.forceCloseAll()
		env.terminated = true
	} else {
		stopTriggered = env.markToMarket()
	}

	episodePnl := env.episodePnl()
	env.result.Steps++
	if exec.Rejected {
		env.result.Rejections++
	}
	if stopTriggered {
		env.result.StopOuts++
	}

	ctx := RewardContext{
		PnlChange:     episodePnl - pnlBefore,
		RiskLevel:     env.riskParams.RiskLevel,
		RiskScore:     env.riskScore,
		TradeExecuted: exec.Executed,
		TradeRejected: exec.Rejected,
		HasPosition:   env.callPosition != nil || env.putPosition != nil,
		EpisodeEnded:  env.terminated,
		EpisodePnl:    episodePnl,
		KellySized:    exec.KellySized,
	}
	reward := env.reward.Calculate(ctx)

	info := env.stepInfo()
	info.TradeExecuted = exec.Executed
	info.TradeRejected = exec.Rejected
	info.RejectReason = exec.Reason
	info.ActionCoerced = exec.Coerced
	info.KellySized = exec.KellySized
	info.StopTriggered = stopTriggered
	if env.terminated {
		info.EpisodeEnded = true
		info.EpisodePnl = episodePnl
		env.result.Pnl = episodePnl
		env.result.EndCash = env.cash
		mtxEpisodes.Inc()
		logger.Infof("Episode %v terminated with pnl %0.2f after %v steps.\n",
			env.episode.Date.Format("2006-01-02"), episodePnl, env.result.Steps)
	}
	mtxEquity.Set(env.cash)
	return env.observation(), reward, env.terminated, false, info
}

// ValidActions returns the actions that would not be coerced to HOLD in
// the current state.
func (env *TradingEnvironment) ValidActions() []models.Action {
	actions := []models.Action{models.Hold}
	if env.terminated || env.episode == nil {
		return actions
	}
	if env.putPosition == nil && !env.counters.HasTradedPuts {
		actions = append(actions, models.SellPut15D, models.SellPut10D)
	}
	if env.callPosition == nil && !env.counters.HasTradedCalls {
		actions = append(actions, models.SellCall15D)
	}
	if env.callPosition != nil || env.putPosition != nil {
		actions = append(actions, models.Close)
	}
	return actions
}

// State reports where the state machine currently is.
func (env *TradingEnvironment) State() models.EnvState {
	switch {
	case env.episode == nil || env.terminated:
		return models.StateTerminated
	case env.callPosition != nil && env.putPosition != nil:
		return models.StateBothOpen
	case env.callPosition != nil:
		return models.StateCallOpen
	case env.putPosition != nil:
		return models.StatePutOpen
	case env.index*env.config.StepMinutes < env.riskParams.WaitMinutes:
		return models.StateWaiting
	default:
		return models.StateFlat
	}
}

// Result summarizes the episode so far.
func (env *TradingEnvironment) Result() models.EpisodeResult {
	return env.result
}

// TradeHistory is the accumulated record of every closed trade across
// all episodes run by this environment.
func (env *TradingEnvironment) TradeHistory() []models.TradeRecord {
	history := make([]models.TradeRecord, len(env.tradeHistory))
	copy(history, env.tradeHistory)
	return history
}

// PositionHistory is the per-step snapshots of open positions for the
// current episode.
func (env *TradingEnvironment) PositionHistory() []models.Position {
	return env.positionHistory
}

func (env *TradingEnvironment) Cash() float64 {
	return env.cash
}

func (env *TradingEnvironment) Sizer() *KellySizer {
	return env.sizer
}

func (env *TradingEnvironment) currentTime() time.Time {
	if env.episode == nil {
		return time.Time{}
	}
	return env.episode.Timestamps[env.index]
}

func (env *TradingEnvironment) currentChain() []models.OptionContract {
	return env.episode.ChainAt(env.currentTime())
}

// episodePnl is realized plus marked-to-market unrealized P&L.
func (env *TradingEnvironment) episodePnl() float64 {
	pnl := env.realizedPnl
	if env.callPosition != nil {
		pnl += env.callPosition.CurrentPnl
	}
	if env.putPosition != nil {
		pnl += env.putPosition.CurrentPnl
	}
	return pnl
}

type execResult struct {
	Executed   bool
	Rejected   bool
	Coerced    bool
	Reason     string
	KellySized bool
}

func (env *TradingEnvironment) executeAction(action models.Action) execResult {
	switch action {
	case models.Hold:
		return execResult{}
	case models.SellPut15D, models.SellPut10D:
		if env.putPosition != nil {
			return env.coerce(models.ReasonAlreadyHavePut)
		}
		if env.counters.HasTradedPuts {
			return env.coerce(models.ReasonAlreadyTradedPut)
		}
		return env.executeSell(action)
	case models.SellCall15D:
		if env.callPosition != nil {
			return env.coerce(models.ReasonAlreadyHaveCall)
		}
		if env.counters.HasTradedCalls {
			return env.coerce(models.ReasonAlreadyTradedCall)
		}
		return env.executeSell(action)
	case models.Close:
		if env.callPosition == nil && env.putPosition == nil {
			return env.coerce(models.ReasonNoPosition)
		}
		env.closeAllOpen("close")
		return execResult{Executed: true}
	}
	return env.coerce(fmt.Sprintf("Unknown action %v", action))
}

// coerce remaps an illegal action to HOLD. Deliberately not an error:
// the learning loop expects no exceptions mid-episode, and the coercion
// is surfaced through the info for reward shaping.
func (env *TradingEnvironment) coerce(reason string) execResult {
	logger.Debugf("Action coerced to HOLD: %v\n", reason)
	mtxRejections.WithLabelValues(reason).Inc()
	return execResult{Rejected: true, Coerced: true, Reason: reason}
}

func (env *TradingEnvironment) reject(reason string) execResult {
	logger.Debugf("Trade rejected: %v\n", reason)
	mtxRejections.WithLabelValues(reason).Inc()
	return execResult{Rejected: true, Reason: reason}
}

func (env *TradingEnvironment) executeSell(action models.Action) execResult {
	contract, found := SelectByDelta(env.currentChain(), action.TargetDelta(), action.Side())
	if !found {
		return env.reject(models.ReasonNoMatch)
	}
	// The target delta is a search seed; the cap is the hard constraint.
	if contract.Delta > env.config.MaxSellDelta || contract.Delta < -env.config.MaxSellDelta {
		return env.reject(models.ReasonDeltaLimit)
	}
	if contract.Volume < env.config.MinVolume {
		return env.reject(models.ReasonLowVolume)
	}
	quantity := env.sizer.Size()
	if quantity == 0 {
		return env.reject(models.ReasonKellyZero)
	}
	if quantity > env.config.MaxContractsPerSide {
		quantity = env.config.MaxContractsPerSide
	}

	// Selling hits the bid; the credit arrives up front.
	fill := contract.Bid
	premium := fill * 100 * float64(quantity)
	commission := env.config.Commission * float64(quantity)
	netCredit := premium - commission
	env.cash += netCredit

	position := &models.Position{
		Side:             action.Side(),
		Strike:           contract.Strike,
		ContractID:       contract.ID,
		EntryPrice:       fill,
		CurrentPrice:     contract.Ask,
		Quantity:         quantity,
		EntryTime:        env.currentTime(),
		PremiumCollected: premium,
		NetCredit:        netCredit,
		CurrentPnl:       netCredit - (contract.Ask*100*float64(quantity) + commission),
		StopLoss:         fill * env.riskParams.StopMultiple,
	}
	if action.Side() == models.Call {
		env.callPosition = position
	} else {
		env.putPosition = position
	}
	env.counters.MarkTraded(action.Side(), quantity)
	mtxTrades.WithLabelValues(action.Side(), "sell").Inc()
	logger.Infof("Sold %v %v %v at %0.2f (delta %0.3f), credit %0.2f, stop %0.2f.\n",
		quantity, contract.Strike, action.Side(), fill, contract.Delta, netCredit, position.StopLoss)
	return execResult{Executed: true, KellySized: true}
}

// closePosition buys back a short position at the current ask. With no
// quotable ask the buy-back marks up the last close as an illiquidity
// penalty.
func (env *TradingEnvironment) closePosition(position *models.Position, kind string) {
	contract, found := findContract(env.currentChain(), position.ContractID)
	var buyBack float64
	switch {
	case found && contract.Ask > 0:
		buyBack = contract.Ask
	case found:
		buyBack = contract.LastClose * env.config.IlliquidityMarkup
	default:
		buyBack = position.CurrentPrice * env.config.IlliquidityMarkup
	}

	commission := env.config.Commission * float64(position.Quantity)
	totalCost := buyBack*100*float64(position.Quantity) + commission
	realized := position.NetCredit - totalCost
	env.cash -= totalCost
	env.realizedPnl += realized

	record := models.TradeRecord{
		ID:        uuid.New().String(),
		Symbol:    env.config.Symbol,
		Side:      position.Side,
		Strike:    position.Strike,
		Quantity:  position.Quantity,
		Pnl:       realized,
		EntryTime: position.EntryTime,
		ExitTime:  env.currentTime(),
	}
	env.tradeHistory = append(env.tradeHistory, record)
	env.sizer.RecordTrade(realized)
	env.result.Trades++
	if env.sink != nil {
		if err := env.sink.InsertTrade(record); err != nil {
			logger.Errorf("Error persisting trade %v: %v\n", record.ID, err)
		}
	}

	if position.Side == models.Call {
		env.callPosition = nil
	} else {
		env.putPosition = nil
	}
	mtxTrades.WithLabelValues(position.Side, kind).Inc()
	logger.Infof("Closed %v %v at %0.2f (%v), realized %0.2f.\n",
		position.Side, position.Strike, buyBack, kind, realized)
}

func (env *TradingEnvironment) closeAllOpen(kind string) {
	if env.callPosition != nil {
		env.closePosition(env.callPosition, kind)
	}
	if env.putPosition != nil {
		env.closePosition(env.putPosition, kind)
	}
}

func (env *TradingEnvironment) forceCloseAll() {
	env.closeAllOpen("expiry")
}

// markToMarket reprices open positions from the current snapshot and
// fires stop-losses. Runs after the clock advances and before the reward
// is computed, so a stop-out's P&L is the one rewarded.
func (env *TradingEnvironment) markToMarket() bool {
	stopTriggered := false
	for _, position := range []*models.Position{env.callPosition, env.putPosition} {
		if position == nil {
			continue
		}
		contract, found := findContract(env.currentChain(), position.ContractID)
		if found {
			if contract.Ask > 0 {
				position.CurrentPrice = contract.Ask
			} else {
				position.CurrentPrice = contract.LastClose
			}
		}
		position.TimeHeld += env.config.StepMinutes
		commission := env.config.Commission * float64(position.Quantity)
		position.CurrentPnl = position.NetCredit - (position.CurrentPrice*100*float64(position.Quantity) + commission)

		var snapshot models.Position
		copier.Copy(&snapshot, position)
		env.positionHistory = append(env.positionHistory, snapshot)

		if position.CurrentPrice >= position.StopLoss {
			logger.Infof("Stop loss hit on %v %v: price %0.2f >= %0.2f.\n",
				position.Side, position.Strike, position.CurrentPrice, position.StopLoss)
			env.closePosition(position, "stop")
			stopTriggered = true
		}
	}
	return stopTriggered
}

func (env *TradingEnvironment) stepInfo() models.StepInfo {
	info := models.StepInfo{
		State:     env.State(),
		RiskLevel: env.riskParams.RiskLevel,
		RiskScore: env.riskScore,
		Cash:      env.cash,
		TotalPnl:  env.episodePnl(),
	}
	if env.episode != nil {
		info.Timestamp = env.currentTime()
		info.EpisodeDate = env.episode.Date
	}
	info.CallPosition = env.callPosition
	info.PutPosition = env.putPosition
	return info
}
