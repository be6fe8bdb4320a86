// Package observability holds the tracing bootstrap and the domain metrics of
// the hold subsystem.
//
// Tracing: SetupOTel installs an OTLP/gRPC exporter when enabled; Tracer and
// ClaimAttributes give every service span the same naming and the same
// claim attributes, so a hold can be followed from check to complete.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-stay-holds/internal/config"
)

// instrumentationPrefix scopes tracer names to this module.
const instrumentationPrefix = "github.com/tbourn/go-stay-holds/"

// serviceNamespace groups this service with the rest of the booking stack.
const serviceNamespace = "reservations"

// ---- TEST SEAMS (signatures exactly match what tests will assign) ----
var (
	newOTLPClient = otlptracegrpc.NewClient

	// No exporter options exposed here -> stable for tests.
	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				attribute.String("service.namespace", serviceNamespace),
			),
		)
	}
)

// ---------------------------------------------------------------------

// Tracer returns the tracer for a component, e.g. "services/HoldService".
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

// ClaimAttributes are the span attributes shared by hold and waitlist spans.
// Empty values are omitted.
func ClaimAttributes(tenantID, resourceID, holderID, rangeStart, rangeEnd string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	for _, kv := range []struct{ k, v string }{
		{"hold.tenant_id", tenantID},
		{"hold.resource_id", resourceID},
		{"hold.holder_id", holderID},
	} {
		if kv.v != "" {
			attrs = append(attrs, attribute.String(kv.k, kv.v))
		}
	}
	if rangeStart != "" || rangeEnd != "" {
		attrs = append(attrs, attribute.String("hold.range", rangeStart+"/"+rangeEnd))
	}
	return attrs
}

// clampRatio keeps a sampling ratio within [0, 1].
func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// Disabled config yields a no-op shutdown and leaves the globals untouched.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	// Build OTLP gRPC client options
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		creds := credentials.NewClientTLSFromCert(nil, "")
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}

	// Exporter via seam
	client := newOTLPClient(opts...)
	exp, err := newOTLPExporterFn(ctx, client)
	if err != nil {
		return nil, err
	}

	// Resource via seam
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	// Tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)

	// Globals
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	// Shutdown
	return tp.Shutdown, nil
}
