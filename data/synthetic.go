package data

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/chobie/go-gaussian"
	"github.com/tantralabs/zdte/models"
)

// SyntheticProvider generates a Black-Scholes priced 0DTE chain around a
// random-walk spot path. The walk is seeded from the date, so loading the
// same episode twice yields identical data.
type SyntheticProvider struct {
	Symbol         string
	Dates          []time.Time
	BasePrice      float64
	BaseVol        float64
	StepMinutes    int
	SessionMinutes int
}

func NewSyntheticProvider(symbol string, dates []time.Time) *SyntheticProvider {
	return &SyntheticProvider{
		Symbol:         symbol,
		Dates:          dates,
		BasePrice:      450,
		BaseVol:        0.18,
		StepMinutes:    5,
		SessionMinutes: 390,
	}
}

func (p *SyntheticProvider) TradingDates() []time.Time {
	return p.Dates
}

func (p *SyntheticProvider) LoadEpisode(date time.Time) (*models.EpisodeContext, error) {
	found := false
	for _, candidate := range p.Dates {
		if candidate.Equal(date) {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrNoData, date.Format(dateLayout))
	}

	rng := rand.New(rand.NewSource(date.Unix()))
	timestamps := SessionTimestamps(date, p.StepMinutes, p.SessionMinutes)
	episode := &models.EpisodeContext{
		Date:        date,
		Timestamps:  timestamps,
		SpotPrices:  make(map[time.Time]float64),
		ChainByTime: make(map[time.Time][]models.OptionContract),
	}

	// Per-step sigma from annualized vol, 252 trading days.
	stepSigma := p.BaseVol * math.Sqrt(float64(p.StepMinutes)/(252*float64(p.SessionMinutes)))
	spot := p.BasePrice * (1 + 0.01*rng.NormFloat64())
	for i, ts := range timestamps {
		if i > 0 {
			spot *= 1 + stepSigma*rng.NormFloat64()
		}
		episode.SpotPrices[ts] = spot
		minutesLeft := float64(p.SessionMinutes - i*p.StepMinutes)
		episode.ChainByTime[ts] = p.buildChain(date, spot, minutesLeft)
	}
	return episode, nil
}

func (p *SyntheticProvider) buildChain(date time.Time, spot float64, minutesLeft float64) []models.OptionContract {
	// Expired contracts have no time value left to quote.
	if minutesLeft <= 0 {
		minutesLeft = 0.5
	}
	timeLeft := minutesLeft / (252 * float64(p.SessionMinutes))
	norm := gaussian.NewGaussian(0, 1)
	atm := math.Round(spot)
	var chain []models.OptionContract
	for offset := -15.0; offset <= 15.0; offset++ {
		strike := atm + offset
		for _, right := range []string{models.Call, models.Put} {
			// Mild smile away from the money.
			iv := p.BaseVol + 0.004*math.Abs(strike-spot)
			d1 := (math.Log(spot/strike) + (iv*iv/2)*timeLeft) / (iv * math.Sqrt(timeLeft))
			d2 := d1 - iv*math.Sqrt(timeLeft)
			var theo, delta float64
			if right == models.Call {
				theo = spot*norm.Cdf(d1) - strike*norm.Cdf(d2)
				delta = norm.Cdf(d1)
			} else {
				theo = strike*norm.Cdf(-d2) - spot*norm.Cdf(-d1)
				delta = norm.Cdf(d1) - 1
			}
			spread := math.Max(0.02, theo*0.04)
			bid := math.Max(0.01, theo-spread/2)
			ask := bid + spread
			volume := int(3000 / (1 + math.Abs(strike-spot)))
			chain = append(chain, models.OptionContract{
				ID:        fmt.Sprintf("%s%s%s%08d", p.Symbol, date.Format("060102"), right, int(strike*1000)),
				Symbol:    p.Symbol,
				Strike:    strike,
				Right:     right,
				Bid:       bid,
				Ask:       ask,
				Delta:     delta,
				Volume:    volume,
				IV:        iv,
				LastClose: theo,
			})
		}
	}
	return chain
}
