package models

// Risk levels returned by the classifier.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// RiskParameters is the per-episode bundle from the risk classifier.
// Computed once at reset and immutable for the rest of the episode.
type RiskParameters struct {
	RiskLevel    string
	WaitMinutes  int
	StopMultiple float64
}
