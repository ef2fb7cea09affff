package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"VaultUSD/internal/observability"
	"VaultUSD/internal/state"
)

// Liquidation records a vault seized during a price sweep. Seizure is
// terminal removal: no proceeds, penalty, or write-off is booked.
type Liquidation struct {
	VaultID    state.VaultID
	Owner      string
	Collateral float64
	Liability  float64
	Health     float64
	Price      float64
}

// Simulator is the single-threaded deterministic core: the vault registry,
// the shared collateral price and the snapshot history behind one set of
// methods. Callers are expected to be strictly sequential; a price update is
// one logical step (set price, sweep, remove) and never interleaves with
// reads. If concurrent drivers are ever added, UpdatePrice must become a
// single critical section to keep the no-liquidatable-survivor guarantee.
type Simulator struct {
	params     state.RiskParams
	registry   *state.Registry
	accountant *Accountant
	price      float64
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

func NewSimulator(initialPrice float64, params state.RiskParams, logger zerolog.Logger) (*Simulator, error) {
	if initialPrice <= 0 {
		return nil, fmt.Errorf("%w: initial price %v", state.ErrInvalidPrice, initialPrice)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("risk params: %w", err)
	}

	reg := state.NewRegistry()
	return &Simulator{
		params:     params,
		registry:   reg,
		accountant: NewAccountant(reg),
		price:      initialPrice,
		logger:     logger,
	}, nil
}

// SetMetrics attaches a metrics set. Optional; nil disables instrumentation.
func (s *Simulator) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// OpenVault adds a vault to the registry and returns its handle.
func (s *Simulator) OpenVault(owner string, collateral, liability float64) (state.VaultID, error) {
	id, err := s.registry.Open(owner, collateral, liability)
	if err != nil {
		return id, err
	}

	v, _ := s.registry.Get(id)
	s.logger.Info().
		Str("vault_id", id.String()).
		Str("owner", owner).
		Float64("collateral", collateral).
		Float64("liability", liability).
		Float64("health", state.Health(v, s.price)).
		Msg("vault opened")

	if s.metrics != nil {
		s.metrics.VaultsOpened.Inc()
		s.metrics.OpenVaults.Set(float64(s.registry.Len()))
	}
	return id, nil
}

// UpdatePrice sets the shared price and enforces that no liquidatable vault
// survives the update. The sweep is two-phase: every liquidatable vault is
// collected against the new price and a stable registry view first, then each
// is removed, so one removal never influences another vault's decision.
// Returns the liquidation records in registry order for downstream consumers.
func (s *Simulator) UpdatePrice(newPrice float64) ([]Liquidation, error) {
	if newPrice <= 0 {
		return nil, fmt.Errorf("%w: %v", state.ErrInvalidPrice, newPrice)
	}

	start := time.Now()
	s.price = newPrice

	var unsafe []state.VaultID
	for _, v := range s.registry.All() {
		if s.params.IsLiquidatable(v, newPrice) {
			unsafe = append(unsafe, v.ID)
		}
	}

	liquidations := make([]Liquidation, 0, len(unsafe))
	for _, id := range unsafe {
		v, ok := s.registry.Get(id)
		if !ok {
			// Unreachable while calls are sequential: nothing removes vaults
			// between the scan and the act phase.
			return liquidations, fmt.Errorf("sweep: %w: %s", state.ErrNotFound, id)
		}

		rec := Liquidation{
			VaultID:    id,
			Owner:      v.Owner,
			Collateral: v.Collateral,
			Liability:  v.Liability,
			Health:     state.Health(v, newPrice),
			Price:      newPrice,
		}

		seized, err := s.Liquidate(id)
		if err != nil {
			return liquidations, err
		}
		if !seized {
			return liquidations, fmt.Errorf("sweep: vault %s escaped liquidation at price %v", id, newPrice)
		}
		liquidations = append(liquidations, rec)
	}

	s.logger.Info().
		Float64("price", newPrice).
		Int("liquidated", len(liquidations)).
		Int("open_vaults", s.registry.Len()).
		Msg("price updated")

	if s.metrics != nil {
		s.metrics.PriceUpdates.Inc()
		s.metrics.LiquidationsTotal.Add(float64(len(liquidations)))
		s.metrics.OpenVaults.Set(float64(s.registry.Len()))
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
	return liquidations, nil
}

// Liquidate removes the vault if it is liquidatable at the current price.
// Returns false without mutating when it is not; callers may probe
// speculatively. A stale handle is an error.
func (s *Simulator) Liquidate(id state.VaultID) (bool, error) {
	v, ok := s.registry.Get(id)
	if !ok {
		return false, fmt.Errorf("liquidate: %w: %s", state.ErrNotFound, id)
	}
	if !s.params.IsLiquidatable(v, s.price) {
		return false, nil
	}
	if err := s.registry.Remove(id); err != nil {
		return false, err
	}

	s.logger.Warn().
		Str("vault_id", id.String()).
		Str("owner", v.Owner).
		Float64("collateral", v.Collateral).
		Float64("liability", v.Liability).
		Float64("health", state.Health(v, s.price)).
		Float64("price", s.price).
		Msg("vault liquidated")
	return true, nil
}

// Record appends the current aggregate snapshot to the history. The sequence
// index is caller-supplied.
func (s *Simulator) Record(seq int64) SystemSnapshot {
	snap := s.accountant.Record(s.price, seq)

	if s.metrics != nil {
		s.metrics.SnapshotsRecorded.Inc()
		s.metrics.AggregateRatio.Set(snap.AggregateRatio)
		s.metrics.TotalCollateral.Set(snap.TotalCollateral)
		s.metrics.TotalLiability.Set(snap.TotalLiability)
	}
	return snap
}

// Snapshot computes the current aggregate without recording it.
func (s *Simulator) Snapshot(seq int64) SystemSnapshot {
	return s.accountant.Snapshot(s.price, seq)
}

// History returns the recorded snapshots in record order.
func (s *Simulator) History() []SystemSnapshot {
	return s.accountant.History()
}

// OpenVaultCount returns the number of open vaults.
func (s *Simulator) OpenVaultCount() int {
	return s.registry.Len()
}

// Price returns the current collateral price.
func (s *Simulator) Price() float64 {
	return s.price
}

// Params returns the active risk parameters.
func (s *Simulator) Params() state.RiskParams {
	return s.params
}

// HealthOf returns the health ratio of an open vault at the current price.
func (s *Simulator) HealthOf(id state.VaultID) (float64, error) {
	v, ok := s.registry.Get(id)
	if !ok {
		return 0, fmt.Errorf("health: %w: %s", state.ErrNotFound, id)
	}
	return state.Health(v, s.price), nil
}

// Vaults returns value copies of the open vaults, in insertion order, for
// read-only consumers.
func (s *Simulator) Vaults() []state.Vault {
	live := s.registry.All()
	out := make([]state.Vault, 0, len(live))
	for _, v := range live {
		out = append(out, *v)
	}
	return out
}
