// Package report renders a finished run as text. It is an external consumer
// of the core: everything it prints comes from the read accessors.
package report

import (
	"fmt"
	"io"
	"math"

	"VaultUSD/internal/core"
)

// Write renders the report for a completed run.
func Write(w io.Writer, sim *core.Simulator, liquidations []core.Liquidation) error {
	history := sim.History()
	if len(history) == 0 {
		return fmt.Errorf("report: no snapshots recorded")
	}
	initial := history[0]
	final := history[len(history)-1]

	fmt.Fprintln(w, "VaultUSD Peg Stability Report")
	fmt.Fprintln(w, "=============================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Initial state:")
	writeState(w, initial)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Final state:")
	writeState(w, final)
	fmt.Fprintf(w, "  open vaults:      %d\n", sim.OpenVaultCount())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Liquidations:")
	if len(liquidations) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, l := range liquidations {
		fmt.Fprintf(w, "  %s: collateral=%.2f liability=%.2f health=%s price=%.2f\n",
			l.Owner, l.Collateral, l.Liability, formatRatio(l.Health), l.Price)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "History:")
	fmt.Fprintf(w, "  %3s  %8s  %10s  %10s  %8s\n", "seq", "price", "collateral", "liability", "ratio")
	for _, snap := range history {
		fmt.Fprintf(w, "  %3d  %8.2f  %10.2f  %10.2f  %8s\n",
			snap.SequenceIndex, snap.Price, snap.TotalCollateral, snap.TotalLiability,
			formatRatio(snap.AggregateRatio))
	}
	return nil
}

func writeState(w io.Writer, snap core.SystemSnapshot) {
	fmt.Fprintf(w, "  price:            %.2f\n", snap.Price)
	fmt.Fprintf(w, "  total collateral: %.2f\n", snap.TotalCollateral)
	fmt.Fprintf(w, "  total liability:  %.2f\n", snap.TotalLiability)
	fmt.Fprintf(w, "  aggregate ratio:  %s\n", formatRatio(snap.AggregateRatio))
}

func formatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f%%", r*100)
}
