package zdte

import (
	"math"

	"github.com/tantralabs/zdte/models"
)

// ObservationSize is the length of the observation vector.
const ObservationSize = 8

// ObservationConfig carries the normalization constants. The defaults
// are tied to SPY's price range and a 6.5 hour session; they are fields
// rather than literals so other underlyings can reuse the encoding.
type ObservationConfig struct {
	PriceScale     float64
	SessionMinutes float64
	PnlScale       float64
}

func DefaultObservationConfig() ObservationConfig {
	return ObservationConfig{
		PriceScale:     500,
		SessionMinutes: 390,
		PnlScale:       1000,
	}
}

// observation encodes the current simulation state as 8 features:
// minutes-since-open fraction, normalized spot, ATM implied volatility,
// has-position flag, normalized open P&L, normalized time in position,
// risk score, minutes-until-close fraction.
func (env *TradingEnvironment) observation() []float64 {
	obs := make([]float64, ObservationSize)
	if env.episode == nil {
		return obs
	}
	ts := env.currentTime()
	spot := env.episode.SpotAt(ts)
	minutesSinceOpen := float64(env.index * env.config.StepMinutes)

	openPnl := 0.0
	timeHeld := 0
	hasPosition := 0.0
	for _, position := range []*models.Position{env.callPosition, env.putPosition} {
		if position == nil {
			continue
		}
		hasPosition = 1
		openPnl += position.CurrentPnl
		if position.TimeHeld > timeHeld {
			timeHeld = position.TimeHeld
		}
	}

	obs[0] = minutesSinceOpen / env.observationConfig.SessionMinutes
	obs[1] = spot / env.observationConfig.PriceScale
	obs[2] = atmIV(env.episode.ChainAt(ts), spot)
	obs[3] = hasPosition
	obs[4] = openPnl / env.observationConfig.PnlScale
	obs[5] = float64(timeHeld) / env.observationConfig.SessionMinutes
	obs[6] = env.riskScore
	obs[7] = math.Max(0, (env.observationConfig.SessionMinutes-minutesSinceOpen)/env.observationConfig.SessionMinutes)
	return obs
}

// atmIV is the implied volatility at the strike closest to spot.
func atmIV(chain []models.OptionContract, spot float64) float64 {
	bestDistance := math.MaxFloat64
	iv := 0.0
	for i := range chain {
		distance := math.Abs(chain[i].Strike - spot)
		if distance < bestDistance {
			bestDistance = distance
			iv = chain[i].IV
		}
	}
	return iv
}
