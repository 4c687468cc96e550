package zdte

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tantralabs/zdte/data"
	"github.com/tantralabs/zdte/models"
	"github.com/tantralabs/zdte/risk"
	"github.com/tantralabs/zdte/settings"
)

var testDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type stubProvider struct {
	episode *models.EpisodeContext
}

func (p *stubProvider) TradingDates() []time.Time {
	return []time.Time{p.episode.Date}
}

func (p *stubProvider) LoadEpisode(date time.Time) (*models.EpisodeContext, error) {
	if !date.Equal(p.episode.Date) {
		return nil, fmt.Errorf("%w: %v", data.ErrNoData, date.Format("2006-01-02"))
	}
	return p.episode, nil
}

func testContract(right string, delta, bid, ask float64, volume int) models.OptionContract {
	strike := 450 - delta*100
	return models.OptionContract{
		ID:        fmt.Sprintf("TEST-%s-%0.2f", right, delta),
		Symbol:    "SPY",
		Strike:    strike,
		Right:     right,
		Bid:       bid,
		Ask:       ask,
		Delta:     delta,
		Volume:    volume,
		IV:        0.18,
		LastClose: (bid + ask) / 2,
	}
}

// buildEpisode constructs a small deterministic day: flat spot at 450
// with the same chain at every timestamp unless chainAt overrides it.
func buildEpisode(sessionMinutes int, chainAt func(i int) []models.OptionContract) *models.EpisodeContext {
	timestamps := data.SessionTimestamps(testDate, 5, sessionMinutes)
	episode := &models.EpisodeContext{
		Date:        testDate,
		Timestamps:  timestamps,
		SpotPrices:  make(map[time.Time]float64),
		ChainByTime: make(map[time.Time][]models.OptionContract),
	}
	for i, ts := range timestamps {
		episode.SpotPrices[ts] = 450
		episode.ChainByTime[ts] = chainAt(i)
	}
	return episode
}

func defaultChain(i int) []models.OptionContract {
	return []models.OptionContract{
		testContract(models.Put, -0.15, 1.20, 1.30, 500),
		testContract(models.Put, -0.10, 0.80, 0.90, 400),
		testContract(models.Call, 0.15, 1.10, 1.20, 600),
	}
}

func newTestEnv(t *testing.T, episode *models.EpisodeContext) *TradingEnvironment {
	t.Helper()
	config := settings.DefaultConfig()
	config.LogLevel = "error"
	env := NewTradingEnvironment(config, &stubProvider{episode: episode}, &risk.FixedClassifier{Level: models.RiskLow})
	return env
}

func TestResetUnknownDateFails(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	_, _, err := env.ResetTo(testDate.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, data.ErrNoData)
}

func TestResetSkipsWaitPeriod(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	obs, info, err := env.ResetTo(testDate)
	require.NoError(t, err)

	// LOW risk waits 30 minutes: first decision point is 10:00.
	expected := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, expected, info.Timestamp)
	assert.Equal(t, models.StateFlat, info.State)
	assert.Equal(t, models.RiskLow, info.RiskLevel)

	require.Len(t, obs, ObservationSize)
	assert.InDelta(t, 30.0/390.0, obs[0], 1e-12)
	assert.InDelta(t, 450.0/500.0, obs[1], 1e-12)
	assert.Equal(t, 0.0, obs[3])
	assert.InDelta(t, 360.0/390.0, obs[7], 1e-12)
}

func TestSellPutFillsAtBid(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	_, _, terminated, _, info := env.Step(models.SellPut15D)
	require.False(t, terminated)
	assert.True(t, info.TradeExecuted)
	assert.True(t, info.KellySized)
	require.NotNil(t, info.PutPosition)

	position := info.PutPosition
	assert.Equal(t, 1.20, position.EntryPrice)
	assert.Equal(t, 20, position.Quantity) // Kelly default with no history
	// stop = fill x LOW stop multiple (3.0)
	assert.InDelta(t, 3.60, position.StopLoss, 1e-12)
	// credit = 1.20*100*20 - 0.65*20
	assert.InDelta(t, 2387.0, position.NetCredit, 1e-9)
	assert.InDelta(t, 100000+2387.0, info.Cash, 1e-9)
}

func TestSellCloseRoundTripCashMath(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)
	cashBefore := env.Cash()

	env.Step(models.SellPut15D)
	_, _, _, _, info := env.Step(models.Close)

	// netCredit = 2400 - 13 = 2387; buy back at ask:
	// totalCost = 1.30*100*20 + 13 = 2613; realized = -226.
	require.Nil(t, info.PutPosition)
	assert.InDelta(t, cashBefore+2387-2613, info.Cash, 1e-9)

	history := env.TradeHistory()
	require.Len(t, history, 1)
	assert.InDelta(t, -226.0, history[0].Pnl, 1e-9)
	assert.Equal(t, models.Put, history[0].Side)
	assert.Equal(t, 20, history[0].Quantity)
}

func TestOneTradePerSidePerDay(t *testing.T) {
	env := newTestEnv(t, buildEpisode(240, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	env.Step(models.SellPut15D)

	// Second sell while the put is open.
	_, _, _, _, info := env.Step(models.SellPut10D)
	assert.False(t, info.TradeExecuted)
	assert.True(t, info.ActionCoerced)
	assert.Equal(t, models.ReasonAlreadyHavePut, info.RejectReason)

	// Close, then retry the same side.
	env.Step(models.Close)
	_, _, _, _, info = env.Step(models.SellPut15D)
	assert.True(t, info.ActionCoerced)
	assert.Equal(t, models.ReasonAlreadyTradedPut, info.RejectReason)

	// Calls are still fair game.
	_, _, _, _, info = env.Step(models.SellCall15D)
	assert.True(t, info.TradeExecuted)
	require.NotNil(t, info.CallPosition)
	assert.Nil(t, info.PutPosition)
}

func TestBothSidesOpenSimultaneously(t *testing.T) {
	env := newTestEnv(t, buildEpisode(240, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	env.Step(models.SellPut15D)
	_, _, _, _, info := env.Step(models.SellCall15D)
	assert.Equal(t, models.StateBothOpen, info.State)
	require.NotNil(t, info.CallPosition)
	require.NotNil(t, info.PutPosition)
}

func TestCloseWithoutPositionCoerced(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)
	cashBefore := env.Cash()
	infoBefore := env.stepInfo()

	_, _, _, _, info := env.Step(models.Close)
	assert.True(t, info.ActionCoerced)
	assert.Equal(t, models.ReasonNoPosition, info.RejectReason)
	assert.Equal(t, cashBefore, info.Cash)
	// Time still advances on a coerced action.
	assert.True(t, info.Timestamp.After(infoBefore.Timestamp))
}

func TestDeltaCapRejectsAggressiveContract(t *testing.T) {
	chain := func(i int) []models.OptionContract {
		return []models.OptionContract{
			testContract(models.Put, -0.28, 2.50, 2.60, 500),
		}
	}
	env := newTestEnv(t, buildEpisode(120, chain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	_, _, _, _, info := env.Step(models.SellPut15D)
	assert.False(t, info.TradeExecuted)
	assert.False(t, info.ActionCoerced)
	assert.Equal(t, models.ReasonDeltaLimit, info.RejectReason)
	assert.Nil(t, info.PutPosition)
}

func TestVolumeFloorRejects(t *testing.T) {
	chain := func(i int) []models.OptionContract {
		return []models.OptionContract{
			testContract(models.Put, -0.15, 1.20, 1.30, 5),
		}
	}
	env := newTestEnv(t, buildEpisode(120, chain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	_, _, _, _, info := env.Step(models.SellPut15D)
	assert.Equal(t, models.ReasonLowVolume, info.RejectReason)
}

func TestNoMatchingContractRejects(t *testing.T) {
	chain := func(i int) []models.OptionContract {
		return []models.OptionContract{
			testContract(models.Call, 0.15, 1.10, 1.20, 600),
		}
	}
	env := newTestEnv(t, buildEpisode(120, chain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	_, _, _, _, info := env.Step(models.SellPut15D)
	assert.Equal(t, models.ReasonNoMatch, info.RejectReason)
}

func TestKellyZeroRejectsDistinctly(t *testing.T) {
	env := newTestEnv(t, buildEpisode(120, defaultChain))
	// Seed a 20-trade history with a clearly negative edge:
	// 8 wins of 50 against 12 losses of 100.
	for i := 0; i < 8; i++ {
		env.Sizer().RecordTrade(50)
	}
	for i := 0; i < 12; i++ {
		env.Sizer().RecordTrade(-100)
	}
	require.Equal(t, 0, env.Sizer().Size())

	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)
	_, _, _, _, info := env.Step(models.SellPut15D)
	assert.False(t, info.TradeExecuted)
	assert.Equal(t, models.ReasonKellyZero, info.RejectReason)
}

func TestStopLossForcesClose(t *testing.T) {
	// Put ask blows through the 3.60 stop right after entry.
	chain := func(i int) []models.OptionContract {
		put := testContract(models.Put, -0.15, 1.20, 1.30, 500)
		if i > 6 {
			put.Bid = 3.80
			put.Ask = 3.90
		}
		return []models.OptionContract{put}
	}
	env := newTestEnv(t, buildEpisode(120, chain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	// The stop fires on the very next mark, within the same step.
	_, _, _, _, info := env.Step(models.SellPut15D)
	assert.True(t, info.TradeExecuted)
	assert.True(t, info.StopTriggered)
	assert.Nil(t, info.PutPosition)

	history := env.TradeHistory()
	require.Len(t, history, 1)
	// Bought back at 3.90: realized = 2387 - (3.90*100*20 + 13)
	assert.InDelta(t, 2387-(3.90*100*20+13), history[0].Pnl, 1e-9)
	assert.Equal(t, 1, env.Result().StopOuts)
}

func TestTerminationForceClosesPositions(t *testing.T) {
	env := newTestEnv(t, buildEpisode(60, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	_, _, terminated, _, _ := env.Step(models.SellPut15D)
	var info models.StepInfo
	for !terminated {
		_, _, terminated, _, info = env.Step(models.Hold)
	}
	assert.True(t, info.EpisodeEnded)
	assert.Nil(t, info.PutPosition)
	require.Len(t, env.TradeHistory(), 1)
	// Forced close at the final ask: realized = 2387 - 2613.
	assert.InDelta(t, -226.0, info.EpisodePnl, 1e-9)
	assert.Equal(t, models.StateTerminated, env.State())
}

func TestQuantityAlwaysBucketed(t *testing.T) {
	env := newTestEnv(t, buildEpisode(240, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	env.Step(models.SellPut15D)
	env.Step(models.SellCall15D)
	for _, position := range []*models.Position{env.callPosition, env.putPosition} {
		require.NotNil(t, position)
		assert.Contains(t, []int{10, 20, 30}, position.Quantity)
	}
}

func TestDeterministicReplay(t *testing.T) {
	actions := []models.Action{
		models.Hold, models.SellPut15D, models.Hold, models.Hold,
		models.Close, models.SellCall15D, models.Hold,
	}
	run := func() ([][]float64, []float64) {
		env := newTestEnv(t, buildEpisode(120, defaultChain))
		_, _, err := env.ResetTo(testDate)
		require.NoError(t, err)
		var observations [][]float64
		var rewards []float64
		for _, action := range actions {
			obs, reward, terminated, _, _ := env.Step(action)
			observations = append(observations, obs)
			rewards = append(rewards, reward)
			if terminated {
				break
			}
		}
		return observations, rewards
	}

	obs1, rewards1 := run()
	obs2, rewards2 := run()
	require.Equal(t, len(rewards1), len(rewards2))
	for i := range rewards1 {
		assert.Equal(t, rewards1[i], rewards2[i])
		assert.Equal(t, obs1[i], obs2[i])
	}
}

func TestValidActionsMask(t *testing.T) {
	env := newTestEnv(t, buildEpisode(240, defaultChain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]models.Action{models.Hold, models.SellPut15D, models.SellPut10D, models.SellCall15D},
		env.ValidActions())

	env.Step(models.SellPut15D)
	assert.ElementsMatch(t,
		[]models.Action{models.Hold, models.SellCall15D, models.Close},
		env.ValidActions())

	env.Step(models.Close)
	assert.ElementsMatch(t,
		[]models.Action{models.Hold, models.SellCall15D},
		env.ValidActions())
}

func TestMarkToMarketUpdatesPnl(t *testing.T) {
	// Ask drifts up a tick each step after entry.
	chain := func(i int) []models.OptionContract {
		put := testContract(models.Put, -0.15, 1.20, 1.30, 500)
		if i > 6 {
			put.Ask = 1.30 + 0.05*float64(i-6)
			put.Bid = put.Ask - 0.10
		}
		return []models.OptionContract{put}
	}
	env := newTestEnv(t, buildEpisode(120, chain))
	_, _, err := env.ResetTo(testDate)
	require.NoError(t, err)

	env.Step(models.SellPut15D)
	_, _, _, _, info := env.Step(models.Hold)
	require.NotNil(t, info.PutPosition)
	assert.Equal(t, 10, info.PutPosition.TimeHeld)
	// Two marks after entry: ask = 1.30 + 0.05*2.
	assert.InDelta(t, 1.40, info.PutPosition.CurrentPrice, 1e-9)
	expectedPnl := 2387 - (1.40*100*20 + 13)
	assert.InDelta(t, expectedPnl, info.PutPosition.CurrentPnl, 1e-9)
	assert.True(t, info.PutPosition.CurrentPnl < 0)
}
