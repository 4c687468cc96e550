package zdte

import (
	"math"

	"github.com/tantralabs/zdte/models"
)

// SelectByDelta picks the contract of the given right whose delta is
// closest to the target. Pure function: no filtering beyond right, no
// state. The caller applies the max-delta cap so a too-aggressive best
// match is reported as a delta rejection rather than a missing contract.
func SelectByDelta(chain []models.OptionContract, targetDelta float64, right string) (models.OptionContract, bool) {
	var best models.OptionContract
	bestDistance := math.MaxFloat64
	found := false
	for i := range chain {
		if chain[i].Right != right {
			continue
		}
		distance := math.Abs(chain[i].Delta - targetDelta)
		if distance < bestDistance {
			bestDistance = distance
			best = chain[i]
			found = true
		}
	}
	return best, found
}

func findContract(chain []models.OptionContract, contractID string) (models.OptionContract, bool) {
	for i := range chain {
		if chain[i].ID == contractID {
			return chain[i], true
		}
	}
	return models.OptionContract{}, false
}
