package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"VaultUSD/internal/ingestion"
	"VaultUSD/internal/observability"
	"VaultUSD/internal/report"
	"VaultUSD/internal/scenario"
	"VaultUSD/internal/server"
)

// Config holds all application configuration, loaded from environment
// variables and overridable by flags.
type Config struct {
	ScenarioPath string
	NATSURL      string
	ListenAddr   string
	FeedBuffer   int
}

func DefaultConfig() Config {
	return Config{
		ScenarioPath: envOrDefault("VAULT_SCENARIO", ""),
		NATSURL:      envOrDefault("VAULT_NATS_URL", ""),
		ListenAddr:   envOrDefault("VAULT_LISTEN_ADDR", ""),
		FeedBuffer:   envIntOrDefault("VAULT_FEED_BUFFER", 256),
	}
}

func main() {
	cfg := DefaultConfig()
	flag.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "scenario yaml file (empty: built-in price shock)")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS URL for the live price feed (empty: scripted mode)")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "read-only HTTP API address (empty: disabled)")
	flag.Parse()

	logger := observability.NewLogger("vaultusd")
	metrics := observability.NewMetrics()

	sc := scenario.PriceShock()
	if cfg.ScenarioPath != "" {
		loaded, err := scenario.Load(cfg.ScenarioPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ScenarioPath).Msg("load scenario")
		}
		sc = loaded
	}
	logger.Info().Str("scenario", sc.Name).Msg("VaultUSD starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := observability.NewHealthChecker()

	var sinks []scenario.Sink
	if cfg.ListenAddr != "" {
		srv := server.New(health, logger, metrics)
		sinks = append(sinks, srv)
		go func() {
			logger.Info().Str("addr", cfg.ListenAddr).Msg("read-only API listening")
			if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	if cfg.NATSURL != "" {
		nc, err := ingestion.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("connect NATS")
		}
		defer nc.Close()
		sinks = append(sinks, ingestion.NewPublisher(nc, logger, metrics))

		runLive(ctx, cfg, sc, nc, logger, metrics, health, sinks)
		return
	}

	runScripted(ctx, cfg, sc, logger, metrics, health, sinks)
}

// runScripted replays the scenario's price path and prints the report.
func runScripted(
	ctx context.Context,
	cfg Config,
	sc *scenario.Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	health *observability.HealthChecker,
	sinks []scenario.Sink,
) {
	runner := scenario.NewRunner(sc, logger, sinks...)
	runner.SetMetrics(metrics)

	sim, liquidations, err := runner.Run()
	if err != nil {
		logger.Fatal().Err(err).Msg("scenario run failed")
	}
	health.SetReady(true)

	if err := report.Write(os.Stdout, sim, liquidations); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}

	if cfg.ListenAddr != "" {
		logger.Info().Msg("run complete; serving API until interrupted")
		<-ctx.Done()
	}
}

// runLive drives the simulator from the NATS price feed until interrupted.
func runLive(
	ctx context.Context,
	cfg Config,
	sc *scenario.Config,
	nc *nats.Conn,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	health *observability.HealthChecker,
	sinks []scenario.Sink,
) {
	sim, err := scenario.Build(sc, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build simulator")
	}
	sim.SetMetrics(metrics)

	feed := ingestion.NewPriceFeed(nc, cfg.FeedBuffer, logger, metrics)
	if err := feed.Subscribe(); err != nil {
		logger.Fatal().Err(err).Msg("subscribe price feed")
	}
	defer feed.Stop()

	// Initial snapshot before the first tick.
	initial := scenario.StepResult{Snapshot: sim.Record(0), Vaults: sim.Vaults()}
	for _, s := range sinks {
		s.OnStep(initial)
	}

	health.SetReady(true)
	logger.Info().Msg("live mode: driving from price feed")

	if err := scenario.RunLive(ctx, sim, feed.Ticks(), logger, sinks...); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("live loop stopped")
	}
	logger.Info().Int("open_vaults", sim.OpenVaultCount()).Msg("shutting down")
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
