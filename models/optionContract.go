package models

// Right of an option contract.
const (
	Call = "C"
	Put  = "P"
)

// OptionContract is a read-only snapshot of one quote from the chain
// provider at a single timestamp. Deltas are signed: calls positive,
// puts negative.
type OptionContract struct {
	ID        string  `csv:"contract_id"`
	Symbol    string  `csv:"symbol"`
	Strike    float64 `csv:"strike"`
	Right     string  `csv:"right"`
	Bid       float64 `csv:"bid"`
	Ask       float64 `csv:"ask"`
	Delta     float64 `csv:"delta"`
	Volume    int     `csv:"volume"`
	IV        float64 `csv:"iv"`
	LastClose float64 `csv:"last_close"`
}
