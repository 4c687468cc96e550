package zdte

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zdte_trades_total",
			Help: "Executed sells and closes by side and kind",
		},
		[]string{"side", "kind"}, // kind: sell|close|stop|expiry
	)

	mtxRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zdte_rejections_total",
			Help: "Rejected or coerced actions by reason",
		},
		[]string{"reason"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zdte_equity_usd",
			Help: "Current simulated equity",
		},
	)

	mtxEpisodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zdte_episodes_total",
			Help: "Episodes completed",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxTrades, mtxRejections, mtxEquity, mtxEpisodes)
}
