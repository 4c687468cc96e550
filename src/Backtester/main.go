package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	zdte "github.com/tantralabs/zdte"
	"github.com/tantralabs/zdte/data"
	"github.com/tantralabs/zdte/database"
	"github.com/tantralabs/zdte/logger"
	"github.com/tantralabs/zdte/models"
	"github.com/tantralabs/zdte/risk"
	"github.com/tantralabs/zdte/settings"
	"github.com/tantralabs/zdte/utils"
)

var (
	configPath  string
	dataDir     string
	episodes    int
	seed        int64
	rewardShape string
	tradesCSV   string
	resultsCSV  string
	metricsAddr string
	runName     string
)

func main() {
	root := &cobra.Command{
		Use:   "backtester",
		Short: "Run 0DTE option selling episodes with a random valid-action policy",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "yaml config file")
	root.Flags().StringVar(&dataDir, "data-dir", "", "csv market data directory; synthetic data when empty")
	root.Flags().IntVar(&episodes, "episodes", 30, "number of episodes to run")
	root.Flags().Int64Var(&seed, "seed", 42, "seed for date sampling and the policy")
	root.Flags().StringVar(&rewardShape, "reward", "pnl", "reward shape: pnl or risk")
	root.Flags().StringVar(&tradesCSV, "trades-csv", "", "write trade history csv")
	root.Flags().StringVar(&resultsCSV, "results-csv", "", "write episode results csv")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	root.Flags().StringVar(&runName, "run-name", "backtest", "run name tag for telemetry")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	config, err := settings.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var provider data.ChainProvider
	if dataDir != "" {
		provider = data.NewCSVProvider(dataDir, config.Symbol)
	} else {
		provider = data.NewSyntheticProvider(config.Symbol, syntheticDates(episodes))
	}

	env := zdte.NewTradingEnvironment(config, provider, &risk.FixedClassifier{Level: models.RiskMedium})
	env.SetSeed(seed)
	if rewardShape == "risk" {
		env.SetRewardCalculator(zdte.NewRiskAdjustedReward())
	}
	// Ledger credentials can live in secrets manager instead of config.
	if config.LedgerDSN == "" {
		if secretName := os.Getenv("ZDTE_LEDGER_SECRET"); secretName != "" {
			var secret struct {
				DSN string `json:"dsn"`
			}
			if err := utils.LoadSecret(secretName, "us-west-1", &secret); err != nil {
				return err
			}
			config.LedgerDSN = secret.DSN
		}
	}
	if config.LedgerDSN != "" {
		ledger, err := database.Connect(config.LedgerDSN)
		if err != nil {
			return err
		}
		defer ledger.Close()
		env.SetTradeSink(ledger)
	}
	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			logger.Errorf("Metrics server stopped: %v\n", http.ListenAndServe(metricsAddr, nil))
		}()
	}

	policy := rand.New(rand.NewSource(seed))
	var results []models.EpisodeResult
	start := time.Now()
	for i := 0; i < episodes; i++ {
		_, _, err := env.Reset()
		if err != nil {
			return fmt.Errorf("episode %v: %w", i, err)
		}
		terminated := false
		for !terminated {
			valid := env.ValidActions()
			action := valid[policy.Intn(len(valid))]
			_, _, terminated, _, _ = env.Step(action)
		}
		results = append(results, env.Result())
	}

	runStats := zdte.ComputeRunStats(env.TradeHistory())
	zdte.LogRunStats(runStats)
	logger.Infof("Ran %v episodes in %v.\n", episodes, time.Since(start))

	if tradesCSV != "" {
		if err := zdte.WriteTradesCSV(tradesCSV, env.TradeHistory()); err != nil {
			return err
		}
	}
	if resultsCSV != "" {
		if err := zdte.WriteResultsCSV(resultsCSV, results); err != nil {
			return err
		}
	}
	if config.InfluxURL != "" {
		if err := zdte.PushEpisodeResults(config.InfluxURL, runName, results); err != nil {
			logger.Errorf("Error pushing telemetry: %v\n", err)
		}
	}
	return nil
}

// syntheticDates builds weekday dates starting 2024-01-02.
func syntheticDates(count int) []time.Time {
	dates := make([]time.Time, 0, count)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for len(dates) < count {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates
}
