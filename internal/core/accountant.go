package core

import (
	"math"

	"VaultUSD/internal/state"
)

// SystemSnapshot is an immutable point-in-time summary of all open vaults
// under a given collateral price. AggregateRatio is +Inf when TotalLiability
// is zero.
type SystemSnapshot struct {
	TotalCollateral float64
	TotalLiability  float64
	Price           float64
	AggregateRatio  float64
	SequenceIndex   int64
}

// Accountant derives aggregate snapshots from the registry and keeps the
// append-only history. Sequence indexes are supplied by the caller, never
// auto-incremented, so recording may happen at irregular intervals.
type Accountant struct {
	registry *state.Registry
	history  []SystemSnapshot
}

func NewAccountant(reg *state.Registry) *Accountant {
	return &Accountant{registry: reg}
}

// Snapshot sums the open vaults at the given price. Read-only with respect to
// the registry.
func (a *Accountant) Snapshot(price float64, seq int64) SystemSnapshot {
	var totalCollateral, totalLiability float64
	for _, v := range a.registry.All() {
		totalCollateral += v.Collateral
		totalLiability += v.Liability
	}

	ratio := math.Inf(1)
	if totalLiability > 0 {
		ratio = totalCollateral * price / totalLiability
	}

	return SystemSnapshot{
		TotalCollateral: totalCollateral,
		TotalLiability:  totalLiability,
		Price:           price,
		AggregateRatio:  ratio,
		SequenceIndex:   seq,
	}
}

// Record computes the current snapshot and appends it to the history.
func (a *Accountant) Record(price float64, seq int64) SystemSnapshot {
	snap := a.Snapshot(price, seq)
	a.history = append(a.history, snap)
	return snap
}

// History returns the recorded snapshots in record order.
func (a *Accountant) History() []SystemSnapshot {
	out := make([]SystemSnapshot, len(a.history))
	copy(out, a.history)
	return out
}
