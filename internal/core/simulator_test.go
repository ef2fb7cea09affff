package core_test

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"VaultUSD/internal/core"
	"VaultUSD/internal/state"
)

func newTestSimulator(t *testing.T, initialPrice float64) *core.Simulator {
	t.Helper()
	sim, err := core.NewSimulator(initialPrice, state.DefaultRiskParams(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return sim
}

// ============================================================================
// Test: construction
// ============================================================================

func TestNewSimulator_InvalidPrice(t *testing.T) {
	for _, price := range []float64{0, -1, -2000} {
		_, err := core.NewSimulator(price, state.DefaultRiskParams(), zerolog.Nop())
		if !errors.Is(err, state.ErrInvalidPrice) {
			t.Errorf("price %v: got %v, want ErrInvalidPrice", price, err)
		}
	}
}

func TestNewSimulator_InvalidParams(t *testing.T) {
	bad := state.RiskParams{MinCollateralRatio: 1.0, LiquidationThreshold: 1.1}
	if _, err := core.NewSimulator(2000, bad, zerolog.Nop()); err == nil {
		t.Error("inverted thresholds should be rejected")
	}
}

// ============================================================================
// Test: OpenVault
// ============================================================================

func TestOpenVault_InvalidAmount(t *testing.T) {
	sim := newTestSimulator(t, 2000)

	if _, err := sim.OpenVault("alice", -1, 100); !errors.Is(err, state.ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
	if sim.OpenVaultCount() != 0 {
		t.Error("failed open must not add a vault")
	}
}

// ============================================================================
// Test: UpdatePrice sweep
// ============================================================================

func TestUpdatePrice_InvalidPrice(t *testing.T) {
	sim := newTestSimulator(t, 2000)

	for _, price := range []float64{0, -800} {
		if _, err := sim.UpdatePrice(price); !errors.Is(err, state.ErrInvalidPrice) {
			t.Errorf("price %v: got %v, want ErrInvalidPrice", price, err)
		}
	}
	if sim.Price() != 2000 {
		t.Errorf("rejected update must not change the price, got %v", sim.Price())
	}
}

func TestUpdatePrice_NoLiquidatableSurvivor(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.OpenVault("safe", 10, 10000)   // health 2.0 at 2000
	sim.OpenVault("tight", 6, 10000)   // health 1.2 at 2000
	sim.OpenVault("debtfree", 1, 0)    // never liquidatable
	sim.OpenVault("doomed", 5, 10000)  // health 1.0 at 2000

	liqs, err := sim.UpdatePrice(2000)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if len(liqs) != 1 || liqs[0].Owner != "doomed" {
		t.Fatalf("liquidations: got %+v, want only doomed", liqs)
	}

	params := sim.Params()
	for _, v := range sim.Vaults() {
		if params.IsLiquidatable(&v, sim.Price()) {
			t.Errorf("vault %s survived while liquidatable", v.Owner)
		}
	}
	if sim.OpenVaultCount() != 3 {
		t.Errorf("open vaults: got %d, want 3", sim.OpenVaultCount())
	}
}

func TestUpdatePrice_Idempotent(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.OpenVault("u1", 10, 10000)
	sim.OpenVault("u2", 5, 5000)

	first, err := sim.UpdatePrice(1000)
	if err != nil {
		t.Fatalf("first UpdatePrice: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first sweep: got %d liquidations, want 2", len(first))
	}

	second, err := sim.UpdatePrice(1000)
	if err != nil {
		t.Fatalf("second UpdatePrice: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("repeat sweep at the same price removed %d vaults, want 0", len(second))
	}
}

func TestUpdatePrice_ZeroLiabilityUntouched(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	id, _ := sim.OpenVault("debtfree", 0.001, 0)

	for _, price := range []float64{2000, 1, 0.0001} {
		if _, err := sim.UpdatePrice(price); err != nil {
			t.Fatalf("UpdatePrice(%v): %v", price, err)
		}
		if h, err := sim.HealthOf(id); err != nil || !math.IsInf(h, 1) {
			t.Fatalf("debt-free vault at price %v: health=%v err=%v", price, h, err)
		}
	}
}

// ============================================================================
// Test: Liquidate
// ============================================================================

func TestLiquidate_SpeculativeProbe(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	id, _ := sim.OpenVault("alice", 10, 10000) // health 2.0

	seized, err := sim.Liquidate(id)
	if err != nil {
		t.Fatalf("probe should not error: %v", err)
	}
	if seized {
		t.Error("healthy vault must not be seized")
	}
	if sim.OpenVaultCount() != 1 {
		t.Error("probe must not mutate the registry")
	}
}

func TestLiquidate_StaleHandle(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	id, _ := sim.OpenVault("alice", 5, 10000) // health 1.0, liquidatable

	seized, err := sim.Liquidate(id)
	if err != nil || !seized {
		t.Fatalf("liquidate: seized=%v err=%v", seized, err)
	}

	// Terminal: the same handle can never be liquidated again.
	if _, err := sim.Liquidate(id); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := sim.HealthOf(id); !errors.Is(err, state.ErrNotFound) {
		t.Errorf("HealthOf stale handle: got %v, want ErrNotFound", err)
	}
}

// ============================================================================
// Test: accounting
// ============================================================================

func TestRecord_AggregateRatio(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.OpenVault("u1", 10, 10000)
	sim.OpenVault("u2", 5, 5000)
	sim.OpenVault("u3", 3, 3000)

	snap := sim.Record(0)
	if snap.TotalCollateral != 18 {
		t.Errorf("total collateral: got %v, want 18", snap.TotalCollateral)
	}
	if snap.TotalLiability != 18000 {
		t.Errorf("total liability: got %v, want 18000", snap.TotalLiability)
	}
	if snap.AggregateRatio != 18*2000/18000.0 {
		t.Errorf("aggregate ratio: got %v, want %v", snap.AggregateRatio, 18*2000/18000.0)
	}
	if snap.SequenceIndex != 0 {
		t.Errorf("sequence index: got %d, want 0", snap.SequenceIndex)
	}
}

func TestRecord_InfiniteSentinel(t *testing.T) {
	sim := newTestSimulator(t, 2000)

	snap := sim.Record(7)
	if !math.IsInf(snap.AggregateRatio, 1) {
		t.Errorf("empty system ratio should be +Inf, got %v", snap.AggregateRatio)
	}

	// Zero total liability with collateral locked is also the sentinel case.
	sim.OpenVault("debtfree", 3, 0)
	snap = sim.Record(8)
	if !math.IsInf(snap.AggregateRatio, 1) {
		t.Errorf("zero-liability ratio should be +Inf, got %v", snap.AggregateRatio)
	}
	if snap.TotalCollateral != 3 {
		t.Errorf("total collateral: got %v, want 3", snap.TotalCollateral)
	}
}

func TestSnapshot_DoesNotRecord(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.OpenVault("u1", 10, 10000)

	sim.Snapshot(1)
	sim.Snapshot(2)
	if got := len(sim.History()); got != 0 {
		t.Errorf("Snapshot must not append to history, got %d entries", got)
	}

	sim.Record(3)
	if got := len(sim.History()); got != 1 {
		t.Errorf("history: got %d entries, want 1", got)
	}
}

func TestHistory_CopyIsolated(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.Record(0)

	h := sim.History()
	h[0].SequenceIndex = 99

	if sim.History()[0].SequenceIndex != 0 {
		t.Error("mutating the returned history must not affect the accountant")
	}
}

// ============================================================================
// Test: end-to-end price shock
// ============================================================================

func TestPriceShock_EndToEnd(t *testing.T) {
	sim := newTestSimulator(t, 2000)
	sim.OpenVault("user1", 10, 10000)
	sim.OpenVault("user2", 5, 5000)
	sim.OpenVault("user3", 3, 3000)
	sim.Record(0)

	prices := []float64{2000, 1800, 1600, 1400, 1200, 1000, 800}
	wantOpen := []int{3, 3, 3, 3, 3, 0, 0} // all three share health = price/1000

	var liquidated int
	for i, price := range prices {
		liqs, err := sim.UpdatePrice(price)
		if err != nil {
			t.Fatalf("UpdatePrice(%v): %v", price, err)
		}
		liquidated += len(liqs)
		sim.Record(int64(i + 1))

		if sim.OpenVaultCount() != wantOpen[i] {
			t.Errorf("after price %v: %d open vaults, want %d", price, sim.OpenVaultCount(), wantOpen[i])
		}
	}

	if liquidated != 3 {
		t.Errorf("total liquidations: got %d, want 3", liquidated)
	}

	history := sim.History()
	if len(history) != len(prices)+1 {
		t.Fatalf("history: got %d entries, want %d", len(history), len(prices)+1)
	}

	final := history[len(history)-1]
	if final.TotalCollateral != 0 || final.TotalLiability != 0 {
		t.Errorf("final totals: collateral=%v liability=%v, want 0/0", final.TotalCollateral, final.TotalLiability)
	}
	if !math.IsInf(final.AggregateRatio, 1) {
		t.Errorf("final ratio should be the +Inf sentinel, got %v", final.AggregateRatio)
	}
	if final.SequenceIndex != int64(len(prices)) {
		t.Errorf("final sequence index: got %d, want %d", final.SequenceIndex, len(prices))
	}
}
