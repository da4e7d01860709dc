// Package otel exports zap log entries to an OpenTelemetry collector.
package otel

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bravo68web/testuser/internal/config"
)

const (
	defaultEndpoint    = "localhost:4317"
	defaultServiceName = "create-test-user"
	shutdownTimeout    = 5 * time.Second
)

// Provider owns the log pipeline for one process run
type Provider struct {
	serviceName string
	version     string
	logProvider *sdklog.LoggerProvider
	logger      log.Logger
	conn        *grpc.ClientConn
}

// Option customises NewProvider
type Option func(*options)

type options struct {
	exporter     sdklog.Exporter
	batchTimeout time.Duration
	version      string
}

// WithExporter replaces the OTLP exporter, e.g. with an in-memory one
func WithExporter(exp sdklog.Exporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithVersion sets service.version on the resource
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// NewProvider builds a log provider from the telemetry settings. Exporter
// construction does not dial; the first export does.
func NewProvider(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (*Provider, error) {
	o := &options{batchTimeout: shutdownTimeout, version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(o.version),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter := o.exporter
	var conn *grpc.ClientConn
	if exporter == nil {
		exporter, conn, err = newExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportTimeout(o.batchTimeout))),
	)

	return &Provider{
		serviceName: cfg.ServiceName,
		version:     o.version,
		logProvider: lp,
		logger:      lp.Logger(cfg.ServiceName),
		conn:        conn,
	}, nil
}

// newExporter returns the gRPC connection it dialled, if any, so the
// provider can close it; the exporter does not own a conn passed to it.
func newExporter(ctx context.Context, cfg config.TelemetryConfig) (sdklog.Exporter, *grpc.ClientConn, error) {
	if cfg.UseHTTP {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(cfg.Headers))
		}
		exp, err := otlploghttp.New(ctx, opts...)
		return exp, nil, err
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}
	if !cfg.Insecure {
		exp, err := otlploggrpc.New(ctx, opts...)
		return exp, nil, err
	}

	conn, err := grpc.NewClient(cfg.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	exp, err := otlploggrpc.New(ctx, append(opts, otlploggrpc.WithGRPCConn(conn))...)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return exp, conn, nil
}

// Logger returns the OTEL logger entries are emitted through
func (p *Provider) Logger() log.Logger {
	return p.logger
}

// ServiceName returns the service.name the provider reports
func (p *Provider) ServiceName() string {
	return p.serviceName
}

// ServiceVersion returns the service.version the provider reports
func (p *Provider) ServiceVersion() string {
	return p.version
}

// ForceFlush exports everything buffered so far
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.logProvider.ForceFlush(ctx)
}

// Close flushes and shuts the pipeline down, then releases the gRPC
// connection the provider dialled
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := p.logProvider.Shutdown(ctx)
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ io.Closer = (*Provider)(nil)
