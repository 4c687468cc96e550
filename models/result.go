package models

import "time"

// EpisodeResult summarizes one completed episode.
type EpisodeResult struct {
	Date       time.Time `csv:"date"`
	Pnl        float64   `csv:"pnl"`
	EndCash    float64   `csv:"end_cash"`
	Trades     int       `csv:"trades"`
	Steps      int       `csv:"steps"`
	RiskLevel  string    `csv:"risk_level"`
	StopOuts   int       `csv:"stop_outs"`
	Rejections int       `csv:"rejections"`
}

// RunStats aggregates performance across the accumulated trade history.
type RunStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	AverageWin    float64
	AverageLoss   float64
	ProfitFactor  float64
	TotalPnl      float64
	Sharpe        float64
}
