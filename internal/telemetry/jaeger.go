package telemetry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const ServiceName = "event-booking-system"

type Options struct {
	ServiceName string
	Endpoint    string
	Version     string
	// SampleRatio is the fraction of root traces kept; >= 1 keeps all
	SampleRatio float64
}

// Sampler follows the parent's decision and samples new roots at ratio.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// InitJaeger installs a global tracer provider exporting to the Jaeger
// collector and returns its flush function. An empty endpoint leaves the
// global no-op provider in place.
func InitJaeger(opts Options, log *logrus.Entry) (func(context.Context) error, error) {
	if opts.Endpoint == "" {
		log.Info("Tracing disabled, no Jaeger endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.Endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(opts.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	log.WithFields(logrus.Fields{
		"endpoint":     opts.Endpoint,
		"sample_ratio": opts.SampleRatio,
	}).Info("Jaeger tracing initialized")
	return tp.Shutdown, nil
}
