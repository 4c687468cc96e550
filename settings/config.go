package settings

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the engine constants. The defaults reproduce the original
// SPY behavior; the normalization constants are exposed here rather than
// hardcoded so other underlyings can be simulated.
type Config struct {
	Symbol              string  `yaml:"symbol"`
	InitialCapital      float64 `yaml:"initial_capital"`
	Commission          float64 `yaml:"commission"`
	MaxContractsPerSide int     `yaml:"max_contracts_per_side"`
	MaxSellDelta        float64 `yaml:"max_sell_delta"`
	MinVolume           int     `yaml:"min_volume"`
	IlliquidityMarkup   float64 `yaml:"illiquidity_markup"`
	StepMinutes         int     `yaml:"step_minutes"`
	SessionMinutes      int     `yaml:"session_minutes"`
	PriceScale          float64 `yaml:"price_scale"`
	PnlScale            float64 `yaml:"pnl_scale"`
	LedgerDSN           string  `yaml:"ledger_dsn"`
	InfluxURL           string  `yaml:"influx_url"`
	LogLevel            string  `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		Symbol:              "SPY",
		InitialCapital:      100000,
		Commission:          0.65,
		MaxContractsPerSide: 30,
		MaxSellDelta:        0.20,
		MinVolume:           10,
		IlliquidityMarkup:   1.1,
		StepMinutes:         5,
		SessionMinutes:      390,
		PriceScale:          500,
		PnlScale:            1000,
		LogLevel:            "info",
	}
}

// LoadConfig reads a yaml config file on top of the defaults, then applies
// environment overrides (ZDTE_LEDGER_DSN, ZDTE_INFLUX_URL, ZDTE_LOG_LEVEL,
// ZDTE_INITIAL_CAPITAL). A .env file is honored when present.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("reading config %v: %v", path, err)
		}
		if err = yaml.Unmarshal(raw, &config); err != nil {
			return config, fmt.Errorf("parsing config %v: %v", path, err)
		}
	}
	godotenv.Load()
	if dsn := os.Getenv("ZDTE_LEDGER_DSN"); dsn != "" {
		config.LedgerDSN = dsn
	}
	if url := os.Getenv("ZDTE_INFLUX_URL"); url != "" {
		config.InfluxURL = url
	}
	if lvl := os.Getenv("ZDTE_LOG_LEVEL"); lvl != "" {
		config.LogLevel = lvl
	}
	if capital := os.Getenv("ZDTE_INITIAL_CAPITAL"); capital != "" {
		parsed, err := strconv.ParseFloat(capital, 64)
		if err != nil {
			return config, fmt.Errorf("parsing ZDTE_INITIAL_CAPITAL: %v", err)
		}
		config.InitialCapital = parsed
	}
	return config, nil
}
