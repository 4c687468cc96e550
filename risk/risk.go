// Package risk classifies episode dates into discrete risk levels and
// maps each level to the trading parameters the environment consumes.
package risk

import (
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
)

// Classifier returns the risk parameter bundle and a 0..1 risk score for
// an episode date. The environment queries it exactly once per reset.
type Classifier interface {
	Classify(date time.Time) (models.RiskParameters, float64)
}

// Per-level parameter bundles. Higher risk waits longer after the open
// and runs a tighter stop.
var levelParams = map[string]models.RiskParameters{
	models.RiskLow:    {RiskLevel: models.RiskLow, WaitMinutes: 30, StopMultiple: 3.0},
	models.RiskMedium: {RiskLevel: models.RiskMedium, WaitMinutes: 60, StopMultiple: 2.5},
	models.RiskHigh:   {RiskLevel: models.RiskHigh, WaitMinutes: 90, StopMultiple: 2.0},
}

var levelScores = map[string]float64{
	models.RiskLow:    0.2,
	models.RiskMedium: 0.5,
	models.RiskHigh:   0.8,
}

// ParamsForLevel exposes the bundle for a level.
func ParamsForLevel(level string) models.RiskParameters {
	return levelParams[level]
}

// FixedClassifier always returns the same level. Used for deterministic
// tests and replays.
type FixedClassifier struct {
	Level string
}

func (c *FixedClassifier) Classify(date time.Time) (models.RiskParameters, float64) {
	return levelParams[c.Level], levelScores[c.Level]
}

// IndicatorClassifier derives the level from prior daily bars using RSI
// and average true range. Dates without enough history classify MEDIUM.
type IndicatorClassifier struct {
	DailyBars map[string][]models.Bar
	RsiPeriod int
	AtrPeriod int
}

func NewIndicatorClassifier(dailyBars map[string][]models.Bar) *IndicatorClassifier {
	return &IndicatorClassifier{
		DailyBars: dailyBars,
		RsiPeriod: 14,
		AtrPeriod: 14,
	}
}

func (c *IndicatorClassifier) Classify(date time.Time) (models.RiskParameters, float64) {
	bars := c.DailyBars[date.Format("2006-01-02")]
	if len(bars) <= c.AtrPeriod || len(bars) <= c.RsiPeriod {
		logger.Debugf("Not enough daily bars for %v, defaulting to %v risk.\n", date, models.RiskMedium)
		return levelParams[models.RiskMedium], levelScores[models.RiskMedium]
	}

	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i := range bars {
		high[i] = bars[i].High
		low[i] = bars[i].Low
		closes[i] = bars[i].Close
	}

	rsi := talib.Rsi(closes, c.RsiPeriod)
	atr := talib.Atr(high, low, closes, c.AtrPeriod)
	lastRsi := rsi[len(rsi)-1]
	lastAtr := atr[len(atr)-1]
	lastClose := closes[len(closes)-1]
	atrPct := lastAtr / lastClose

	level := models.RiskMedium
	switch {
	case atrPct > 0.02 || lastRsi > 75 || lastRsi < 25:
		level = models.RiskHigh
	case atrPct < 0.01 && lastRsi > 40 && lastRsi < 60:
		level = models.RiskLow
	}
	logger.Debugf("Classified %v as %v risk (rsi %0.2f, atr %0.4f).\n", date, level, lastRsi, atrPct)
	return levelParams[level], levelScores[level]
}
