package event

import "math"

// VaultLiquidated is the outbound record of a seized vault. Removal is the
// entire effect; the amounts are carried for observers, nothing is booked.
type VaultLiquidated struct {
	VaultID    string  `json:"vault_id"`
	Owner      string  `json:"owner"`
	Collateral float64 `json:"collateral"`
	Liability  float64 `json:"liability"`
	Health     float64 `json:"health"`
	Price      float64 `json:"price"`
}

// SnapshotRecorded mirrors a recorded system snapshot on the wire.
// AggregateRatio is nil when total liability is zero: the ratio is infinite
// and JSON has no Inf.
type SnapshotRecorded struct {
	TotalCollateral float64  `json:"total_collateral"`
	TotalLiability  float64  `json:"total_liability"`
	Price           float64  `json:"price"`
	AggregateRatio  *float64 `json:"aggregate_ratio"`
	SequenceIndex   int64    `json:"sequence_index"`
}

// NewSnapshotRecorded converts aggregate totals into the wire form,
// translating the infinite ratio sentinel into a null field.
func NewSnapshotRecorded(totalCollateral, totalLiability, price, ratio float64, seq int64) SnapshotRecorded {
	s := SnapshotRecorded{
		TotalCollateral: totalCollateral,
		TotalLiability:  totalLiability,
		Price:           price,
		SequenceIndex:   seq,
	}
	if !math.IsInf(ratio, 1) {
		r := ratio
		s.AggregateRatio = &r
	}
	return s
}
