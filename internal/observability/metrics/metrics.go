// Package metrics exposes the engine's OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	runsTotal        metric.Int64Counter
	strategyFailures metric.Int64Counter
	strategySeconds  metric.Float64Histogram
	ticketsProcessed metric.Int64Counter
}

// NewProvider configures and registers the meter provider. Disabled
// metrics fall back to the noop provider so instruments stay callable.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "strategia"
	}
	meter := provider.Meter(name)

	runsTotal, err := meter.Int64Counter("strategia_runs_total")
	if err != nil {
		return nil, err
	}
	strategyFailures, err := meter.Int64Counter("strategia_strategy_failures_total")
	if err != nil {
		return nil, err
	}
	strategySeconds, err := meter.Float64Histogram("strategia_strategy_duration_seconds")
	if err != nil {
		return nil, err
	}
	ticketsProcessed, err := meter.Int64Counter("strategia_tickets_processed_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		runsTotal:        runsTotal,
		strategyFailures: strategyFailures,
		strategySeconds:  strategySeconds,
		ticketsProcessed: ticketsProcessed,
	}, nil
}

// RecordRun counts one full-engine invocation over the given ticket volume.
func (m *Metrics) RecordRun(ctx context.Context, tickets int) {
	if m == nil {
		return
	}
	m.runsTotal.Add(ctx, 1)
	m.ticketsProcessed.Add(ctx, int64(tickets))
}

// RecordStrategy observes one simulator invocation.
func (m *Metrics) RecordStrategy(ctx context.Context, strategy string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("strategy", strings.TrimSpace(strategy)))
	m.strategySeconds.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.strategyFailures.Add(ctx, 1, attrs)
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
