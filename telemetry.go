package zdte

import (
	"os"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
)

// PushEpisodeResults writes per-episode results to an influx database.
// Credentials come from ZDTE_BACKTEST_DB_USER / ZDTE_BACKTEST_DB_PASSWORD.
func PushEpisodeResults(influxURL string, runName string, results []models.EpisodeResult) error {
	influx, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     influxURL,
		Username: os.Getenv("ZDTE_BACKTEST_DB_USER"),
		Password: os.Getenv("ZDTE_BACKTEST_DB_PASSWORD"),
		Timeout:  time.Millisecond * 1000 * 10,
	})
	if err != nil {
		return err
	}
	defer influx.Close()

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  "zdte",
		Precision: "us",
	})
	if err != nil {
		return err
	}

	tags := map[string]string{
		"run_name": runName,
	}
	for _, result := range results {
		pt, err := client.NewPoint(
			"episodes",
			tags,
			map[string]interface{}{
				"pnl":        result.Pnl,
				"trades":     result.Trades,
				"stop_outs":  result.StopOuts,
				"rejections": result.Rejections,
				"risk_level": result.RiskLevel,
			},
			result.Date,
		)
		if err != nil {
			return err
		}
		bp.AddPoint(pt)
	}
	err = influx.Write(bp)
	logger.Infof("Pushed %v episode results to %v: %v\n", len(results), influxURL, err)
	return err
}
