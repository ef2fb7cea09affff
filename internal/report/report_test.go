package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"VaultUSD/internal/report"
	"VaultUSD/internal/scenario"
	"VaultUSD/internal/testutil"
)

// ============================================================================
// Test: price-shock report rendering
// ============================================================================

func TestWrite_PriceShockGolden(t *testing.T) {
	runner := scenario.NewRunner(scenario.PriceShock(), zerolog.Nop())
	sim, liquidations, err := runner.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, sim, liquidations); err != nil {
		t.Fatalf("Write: %v", err)
	}

	testutil.AssertGolden(t, "price_shock_report.golden", buf.Bytes())
}

func TestWrite_NoLiquidations(t *testing.T) {
	cfg := &scenario.Config{
		Name:         "calm",
		InitialPrice: 2000,
		Vaults:       []scenario.VaultSpec{{Owner: "alice", Collateral: 10, Liability: 10000}},
		Prices:       []float64{1900, 1800},
	}
	sim, liquidations, err := scenario.NewRunner(cfg, zerolog.Nop()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, sim, liquidations); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "  (none)") {
		t.Error("report should mark an empty liquidation list")
	}
}

func TestWrite_EmptyHistory(t *testing.T) {
	sim, err := scenario.Build(scenario.PriceShock(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, sim, nil); err == nil {
		t.Error("a run with no recorded snapshots should be an error")
	}
}
