package zdte

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tantralabs/zdte/models"
)

func TestComputeRunStats(t *testing.T) {
	trades := []models.TradeRecord{
		{Pnl: 100},
		{Pnl: 200},
		{Pnl: -100},
	}
	runStats := ComputeRunStats(trades)
	assert.Equal(t, 3, runStats.TotalTrades)
	assert.Equal(t, 2, runStats.WinningTrades)
	assert.Equal(t, 1, runStats.LosingTrades)
	assert.InDelta(t, 2.0/3.0, runStats.WinRate, 1e-12)
	assert.InDelta(t, 150.0, runStats.AverageWin, 1e-9)
	assert.InDelta(t, -100.0, runStats.AverageLoss, 1e-9)
	assert.InDelta(t, 3.0, runStats.ProfitFactor, 1e-9)
	assert.InDelta(t, 200.0, runStats.TotalPnl, 1e-9)
	assert.Equal(t, 0.436, runStats.Sharpe)
}

func TestComputeRunStatsEmpty(t *testing.T) {
	runStats := ComputeRunStats(nil)
	assert.Equal(t, 0, runStats.TotalTrades)
	assert.Equal(t, 0.0, runStats.WinRate)
}

func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	trades := []models.TradeRecord{{ID: "a", Symbol: "SPY", Side: models.Put, Pnl: -226}}
	require.NoError(t, WriteTradesCSV(path, trades))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SPY")
}
