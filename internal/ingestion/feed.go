package ingestion

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"VaultUSD/internal/event"
	"VaultUSD/internal/observability"
)

// PriceSubject is the subject live collateral prices arrive on.
const PriceSubject = "vaultusd.prices"

// PriceFeed subscribes to the price subject and delivers ticks, in arrival
// order, to the single-threaded driver loop. Stale and duplicate sequences
// are dropped here, so the core only ever sees forward price progress.
type PriceFeed struct {
	nc      *nats.Conn
	out     chan event.PriceTick
	sub     *nats.Subscription
	lastSeq int64
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewPriceFeed(nc *nats.Conn, buffer int, logger zerolog.Logger, metrics *observability.Metrics) *PriceFeed {
	return &PriceFeed{
		nc:      nc,
		out:     make(chan event.PriceTick, buffer),
		lastSeq: -1,
		logger:  logger,
		metrics: metrics,
	}
}

// Ticks returns the channel valid ticks are delivered on.
func (f *PriceFeed) Ticks() <-chan event.PriceTick {
	return f.out
}

// Subscribe starts consuming the price subject.
func (f *PriceFeed) Subscribe() error {
	sub, err := f.nc.Subscribe(PriceSubject, f.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", PriceSubject, err)
	}
	f.sub = sub
	f.logger.Info().Str("subject", PriceSubject).Msg("price feed subscribed")
	return nil
}

// handle runs on the subscription's delivery goroutine; NATS serializes
// deliveries per subscription, so lastSeq needs no lock.
func (f *PriceFeed) handle(msg *nats.Msg) {
	tick, err := ParsePriceTick(msg.Data)
	if err != nil {
		f.logger.Warn().Err(err).Msg("dropping malformed price tick")
		f.count("invalid")
		return
	}

	if tick.Sequence <= f.lastSeq {
		// Stale or duplicate delivery; ignore like a repeated mark price.
		f.count("stale")
		return
	}
	f.lastSeq = tick.Sequence

	select {
	case f.out <- tick:
		f.count("applied")
	default:
		f.logger.Warn().
			Int64("sequence", tick.Sequence).
			Msg("tick channel full, dropping")
		f.count("dropped")
	}
}

func (f *PriceFeed) count(result string) {
	if f.metrics != nil {
		f.metrics.FeedTicks.WithLabelValues(result).Inc()
	}
}

// Stop unsubscribes and closes the tick channel.
func (f *PriceFeed) Stop() {
	if f.sub != nil {
		f.sub.Unsubscribe()
	}
	close(f.out)
}

// Connect establishes a NATS connection with unbounded reconnects.
func Connect(url string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
