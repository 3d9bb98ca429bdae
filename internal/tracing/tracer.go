// Package tracing wires OpenTelemetry for the layout engine. Every dispatch
// cycle runs inside a span; the provider decides whether those spans go
// nowhere, to a JSONL cycle log, to stdout or to an OTLP collector.
package tracing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/relayout/internal/log"
)

const (
	defaultServiceName  = "relayout"
	defaultOTLPEndpoint = "localhost:4317"
)

// Config is the tracing section of the config file.
type Config struct {
	// Enabled false yields a no-op tracer and ignores the other fields.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of none, file, stdout or otlp.
	Exporter string `mapstructure:"exporter"`

	// FilePath is where the file exporter appends cycle records.
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of dispatch cycles recorded. Zero means all.
	SampleRate float64 `mapstructure:"sample_rate"`

	ServiceName string `mapstructure:"service_name"`
}

// DefaultConfig has tracing off with the file exporter preselected.
func DefaultConfig() Config {
	return Config{
		Exporter:     "file",
		OTLPEndpoint: defaultOTLPEndpoint,
		SampleRate:   1.0,
		ServiceName:  defaultServiceName,
	}
}

type exporterFactory func(Config) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"none": func(Config) (sdktrace.SpanExporter, error) { return nil, nil },
	"file": func(c Config) (sdktrace.SpanExporter, error) {
		if c.FilePath == "" {
			return nil, fmt.Errorf("tracing.file_path is required for the file exporter")
		}
		return OpenCycleFile(c.FilePath)
	},
	"stdout": func(Config) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	},
	"otlp": func(c Config) (sdktrace.SpanExporter, error) {
		endpoint := c.OTLPEndpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure())
	},
}

func exporterName(c Config) string {
	if c.Exporter == "" {
		return "none"
	}
	return strings.ToLower(c.Exporter)
}

// Validate checks the settings without opening anything.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	name := exporterName(c)
	if _, ok := exporters[name]; !ok {
		return fmt.Errorf("tracing.exporter must be one of %s (got %q)",
			strings.Join(slices.Sorted(maps.Keys(exporters)), ", "), c.Exporter)
	}
	if name == "file" && c.FilePath == "" {
		return fmt.Errorf("tracing.file_path is required for the file exporter")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got %v)", c.SampleRate)
	}
	return nil
}

// Provider owns the SDK tracer provider, if any.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider builds a provider for cfg. A disabled config yields Noop.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := exporterName(cfg)
	exp, err := exporters[name](cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", name, err)
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = 1
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	sdk := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(sdk)

	log.Info(log.CatTrace, "tracing enabled", "exporter", name, "sample_rate", rate)
	return &Provider{sdk: sdk, tracer: sdk.Tracer(service)}, nil
}

// Noop returns a provider whose tracer records nothing.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(defaultServiceName)}
}

// Tracer is never nil.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool { return p.sdk != nil }

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
