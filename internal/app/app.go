// Package app is the fx composition root: it wires the logger, clock,
// output sink, engine, connection server and metrics server together and
// starts/stops them through fx.Lifecycle hooks, generalizing an
// fx.Options(fx.Provide(...)) + lifecycle.Append(fx.Hook{OnStart, OnStop})
// module pattern from wiring a single service to wiring the whole
// engine's process.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kestrel-trading/matchengine/internal/clock"
	"github.com/kestrel-trading/matchengine/internal/config"
	"github.com/kestrel-trading/matchengine/internal/engine"
	"github.com/kestrel-trading/matchengine/internal/metrics"
	"github.com/kestrel-trading/matchengine/internal/sink"
	"github.com/kestrel-trading/matchengine/internal/transport"
)

// Module is the fx option set a binary assembles into an fx.App.
var Module = fx.Options(
	fx.Provide(
		NewLogger,
		clock.New,
		NewSink,
		metrics.NewCollector,
		NewMetricsSink,
		engine.New,
		NewServer,
		NewMetricsServer,
	),
	fx.Invoke(Run),
)

// NewLogger builds the operational logger from cfg's log level.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

// NewSink builds the production event-log writer from cfg's destination.
// Its return type is the concrete *sink.Writer rather than the sink.Sink
// interface, so fx has exactly one provider of sink.Sink itself:
// NewMetricsSink below, which wraps this writer.
func NewSink(cfg *config.Config) (*sink.Writer, error) {
	if cfg.Sink.Destination == "stdout" || cfg.Sink.Destination == "" {
		return sink.NewWriter(os.Stdout), nil
	}
	f, err := os.OpenFile(cfg.Sink.Destination, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink destination: %w", err)
	}
	return sink.NewWriter(f), nil
}

// NewMetricsSink wraps the production writer so every event also updates
// the Prometheus collector. This is the engine's one sink.Sink provider.
func NewMetricsSink(next *sink.Writer, collector *metrics.Collector) sink.Sink {
	return metrics.NewSink(next, collector)
}

// NewServer opens the command/event TCP listener.
func NewServer(cfg *config.Config, eng *engine.Engine, logger *zap.Logger) (*transport.Server, error) {
	return transport.Listen(cfg.Server.Address, eng, logger)
}

// NewMetricsServer builds the /metrics and /healthz HTTP surface, or nil if
// disabled via an empty MetricsAddress.
func NewMetricsServer(cfg *config.Config, collector *metrics.Collector, eng *engine.Engine) *metrics.Server {
	if cfg.Server.MetricsAddress == "" {
		return nil
	}
	return metrics.NewServer(cfg.Server.MetricsAddress, collector, eng)
}

// Run registers the lifecycle hooks that start and stop the connection
// server and metrics server alongside the fx.App itself.
func Run(lifecycle fx.Lifecycle, srv *transport.Server, metricsSrv *metrics.Server, logger *zap.Logger) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting matching engine", zap.String("addr", srv.Addr().String()))
			go func() {
				if err := srv.Serve(); err != nil {
					logger.Error("connection server stopped", zap.Error(err))
				}
			}()

			if metricsSrv != nil {
				go func() {
					if err := <-metricsSrv.Start(); err != nil {
						logger.Error("metrics server stopped", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping matching engine")
			if metricsSrv != nil {
				if err := metricsSrv.Stop(ctx); err != nil {
					logger.Warn("metrics server shutdown error", zap.Error(err))
				}
			}
			return srv.Close()
		},
	})
}
