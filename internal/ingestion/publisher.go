package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"VaultUSD/internal/event"
	"VaultUSD/internal/observability"
	"VaultUSD/internal/scenario"
)

// Outbound subjects for downstream consumers.
const (
	LiquidationSubject = "vaultusd.events.liquidation"
	SnapshotSubject    = "vaultusd.events.snapshot"
)

// Publisher emits liquidations and snapshots for downstream consumers.
// Publish failures are logged, never fatal: the outbound feed is telemetry,
// not a system of record.
type Publisher struct {
	nc      *nats.Conn
	seq     int64
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewPublisher(nc *nats.Conn, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{nc: nc, logger: logger, metrics: metrics}
}

// OnStep publishes every liquidation of the step, then the recorded snapshot.
func (p *Publisher) OnStep(step scenario.StepResult) {
	for _, l := range step.Liquidations {
		p.publish(LiquidationSubject, event.EventTypeVaultLiquidated, event.VaultLiquidated{
			VaultID:    l.VaultID.String(),
			Owner:      l.Owner,
			Collateral: l.Collateral,
			Liability:  l.Liability,
			Health:     l.Health,
			Price:      l.Price,
		})
	}

	snap := step.Snapshot
	p.publish(SnapshotSubject, event.EventTypeSnapshotRecorded, event.NewSnapshotRecorded(
		snap.TotalCollateral, snap.TotalLiability, snap.Price, snap.AggregateRatio, snap.SequenceIndex,
	))
}

func (p *Publisher) publish(subject string, typ event.EventType, payload interface{}) {
	if err := p.tryPublish(subject, typ, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("outbound publish failed")
		if p.metrics != nil {
			p.metrics.PublishFailures.Inc()
		}
	}
}

func (p *Publisher) tryPublish(subject string, typ event.EventType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := event.Envelope{
		Sequence:    p.seq,
		EventType:   typ.String(),
		TimestampUs: time.Now().UnixMicro(),
		Payload:     data,
	}
	p.seq++

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.nc.Publish(subject, raw)
}
