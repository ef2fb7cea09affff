package scenario

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"VaultUSD/internal/core"
	"VaultUSD/internal/event"
	"VaultUSD/internal/observability"
	"VaultUSD/internal/state"
)

// StepResult is what one applied price step produced: the recorded snapshot,
// the vaults seized on the way there, and a copy of the surviving vaults.
type StepResult struct {
	Snapshot     core.SystemSnapshot
	Liquidations []core.Liquidation
	Vaults       []state.Vault
}

// Sink observes applied steps. Implementations receive immutable copies and
// must not call back into the simulator.
type Sink interface {
	OnStep(StepResult)
}

// Runner drives the simulator through a scenario, strictly sequentially.
type Runner struct {
	cfg     *Config
	logger  zerolog.Logger
	sinks   []Sink
	metrics *observability.Metrics
}

func NewRunner(cfg *Config, logger zerolog.Logger, sinks ...Sink) *Runner {
	return &Runner{cfg: cfg, logger: logger, sinks: sinks}
}

// SetMetrics attaches a metrics set to the simulator the runner builds.
func (r *Runner) SetMetrics(m *observability.Metrics) {
	r.metrics = m
}

// Run builds a simulator, opens the scenario vaults, records the initial
// snapshot at sequence 0, then applies each price in order and records a
// snapshot after every sweep. Returns the simulator for report consumers plus
// every liquidation in occurrence order.
func (r *Runner) Run() (*core.Simulator, []core.Liquidation, error) {
	sim, err := Build(r.cfg, r.logger)
	if err != nil {
		return nil, nil, err
	}
	if r.metrics != nil {
		sim.SetMetrics(r.metrics)
	}

	r.emit(StepResult{Snapshot: sim.Record(0), Vaults: sim.Vaults()})

	var all []core.Liquidation
	for i, price := range r.cfg.Prices {
		liqs, err := sim.UpdatePrice(price)
		if err != nil {
			return nil, all, fmt.Errorf("step %d: %w", i, err)
		}
		all = append(all, liqs...)

		r.emit(StepResult{
			Snapshot:     sim.Record(int64(i + 1)),
			Liquidations: liqs,
			Vaults:       sim.Vaults(),
		})
	}
	return sim, all, nil
}

func (r *Runner) emit(step StepResult) {
	for _, s := range r.sinks {
		s.OnStep(step)
	}
}

// Build constructs a simulator with the scenario's initial price, thresholds
// and vault set, without applying any price steps.
func Build(cfg *Config, logger zerolog.Logger) (*core.Simulator, error) {
	sim, err := core.NewSimulator(cfg.InitialPrice, cfg.RiskParams(), logger)
	if err != nil {
		return nil, err
	}
	for i, vs := range cfg.Vaults {
		if _, err := sim.OpenVault(vs.Owner, vs.Collateral, vs.Liability); err != nil {
			return nil, fmt.Errorf("vaults[%d]: %w", i, err)
		}
	}
	return sim, nil
}

// RunLive applies ticks from a live feed until the context is cancelled or
// the channel closes. The tick sequence doubles as the snapshot sequence
// index, so history labeling follows the upstream feed. Rejected prices are
// skipped, not fatal: the feed already filtered staleness, and the core never
// coerces an invalid value.
func RunLive(ctx context.Context, sim *core.Simulator, ticks <-chan event.PriceTick, logger zerolog.Logger, sinks ...Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick, ok := <-ticks:
			if !ok {
				return nil
			}

			liqs, err := sim.UpdatePrice(tick.Price)
			if err != nil {
				logger.Warn().Err(err).
					Float64("price", tick.Price).
					Int64("sequence", tick.Sequence).
					Msg("skipping tick")
				continue
			}

			step := StepResult{
				Snapshot:     sim.Record(tick.Sequence),
				Liquidations: liqs,
				Vaults:       sim.Vaults(),
			}
			for _, s := range sinks {
				s.OnStep(step)
			}
		}
	}
}
