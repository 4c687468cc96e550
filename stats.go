package zdte

import (
	"os"

	"github.com/fatih/structs"
	"github.com/gocarina/gocsv"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
	"github.com/tantralabs/zdte/utils"
	"gonum.org/v1/gonum/stat"
)

// ComputeRunStats aggregates the accumulated trade history into the
// summary metrics used to compare runs.
func ComputeRunStats(trades []models.TradeRecord) models.RunStats {
	runStats := models.RunStats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return runStats
	}

	pnls := make([]float64, len(trades))
	var wins, losses []float64
	for i, trade := range trades {
		pnls[i] = trade.Pnl
		runStats.TotalPnl += trade.Pnl
		if trade.Pnl > 0 {
			wins = append(wins, trade.Pnl)
		} else if trade.Pnl < 0 {
			losses = append(losses, trade.Pnl)
		}
	}
	runStats.WinningTrades = len(wins)
	runStats.LosingTrades = len(losses)
	runStats.WinRate = float64(len(wins)) / float64(len(trades))
	if len(wins) > 0 {
		runStats.AverageWin = stat.Mean(wins, nil)
	}
	if len(losses) > 0 {
		runStats.AverageLoss = stat.Mean(losses, nil)
		totalLoss := utils.SumArr(losses)
		if totalLoss != 0 {
			runStats.ProfitFactor = utils.SumArr(wins) / -totalLoss
		}
	}
	mean, std := stat.MeanStdDev(pnls, nil)
	if std > 0 {
		runStats.Sharpe = utils.ToFixed(mean/std, 3)
	}
	return runStats
}

// LogRunStats prints the stats as a key/value block.
func LogRunStats(runStats models.RunStats) {
	statsMap := structs.Map(runStats)
	logger.Infof("Run stats:%s\n", utils.CreateKeyValuePairs(statsMap, true))
}

// WriteTradesCSV dumps the trade history to a csv file.
func WriteTradesCSV(path string, trades []models.TradeRecord) error {
	os.Remove(path)
	tradeFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, os.ModePerm)
	if err != nil {
		return err
	}
	defer tradeFile.Close()
	return gocsv.MarshalFile(&trades, tradeFile)
}

// WriteResultsCSV dumps per-episode results to a csv file.
func WriteResultsCSV(path string, results []models.EpisodeResult) error {
	os.Remove(path)
	resultFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, os.ModePerm)
	if err != nil {
		return err
	}
	defer resultFile.Close()
	return gocsv.MarshalFile(&results, resultFile)
}
