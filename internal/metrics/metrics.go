package metrics

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// AppMetrics holds the instruments recorded by the HTTP layer and services.
// A nil *AppMetrics is valid and records nothing.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	OrdersCreated    metric.Int64Counter
	OrdersCancelled  metric.Int64Counter
	RevenueTotal     metric.Float64Counter
	InventoryLevel   metric.Int64Gauge
	BookingsCreated  metric.Int64Counter
	BookingConflicts metric.Int64Counter

	serviceName string
}

// InitMetrics wires the global meter provider. Without an OTLP endpoint the
// provider has no reader and instruments are effectively no-ops.
func InitMetrics(ctx context.Context, cfg *config.Config) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.AppEnv),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}
	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("merge resources: %w", err)
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if endpoint := strings.TrimSpace(cfg.OTELExporterOTLPEndpoint); endpoint != "" {
		exporterOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithURLPath("/v1/metrics"),
		}
		if headers := parseHeaders(cfg.OTELExporterOTLPHeaders); len(headers) > 0 {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(headers))
		}
		if cfg.OTELExporterOTLPInsecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}

		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second)),
		))
		log.Printf("Exporting metrics to %s/v1/metrics", endpoint)
	}

	meterProvider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(meterProvider)

	appMetrics, err := NewAppMetrics(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

func NewAppMetrics(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create http requests counter: %w", err)
	}
	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create http errors counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("create http duration histogram: %w", err)
	}
	if m.OrdersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create orders counter: %w", err)
	}
	if m.OrdersCancelled, err = meter.Int64Counter(
		"orders_cancelled_total",
		metric.WithDescription("Total number of orders cancelled with stock restored"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create cancelled orders counter: %w", err)
	}
	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total revenue of placed orders"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("create revenue counter: %w", err)
	}
	if m.InventoryLevel, err = meter.Int64Gauge(
		"inventory_level",
		metric.WithDescription("Current stock level per product"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create inventory gauge: %w", err)
	}
	if m.BookingsCreated, err = meter.Int64Counter(
		"bookings_created_total",
		metric.WithDescription("Total number of coaching sessions booked"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create bookings counter: %w", err)
	}
	if m.BookingConflicts, err = meter.Int64Counter(
		"booking_conflicts_total",
		metric.WithDescription("Booking attempts rejected because the slot was taken"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create booking conflicts counter: %w", err)
	}

	return m, nil
}

// WithServiceName adds service.name to attributes.
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

func (m *AppMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	})...)

	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	if status >= 400 {
		m.HTTPRequestsErrors.Add(ctx, 1, attrs)
	}
	m.HTTPRequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *AppMetrics) RecordOrderPlaced(ctx context.Context, total float64, lines int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.Int("order.lines", lines),
	})...)
	m.OrdersCreated.Add(ctx, 1, attrs)
	m.RevenueTotal.Add(ctx, total, attrs)
}

func (m *AppMetrics) RecordOrderCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.OrdersCancelled.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(nil)...))
}

func (m *AppMetrics) RecordInventoryLevel(ctx context.Context, productID int64, stock int) {
	if m == nil {
		return
	}
	m.InventoryLevel.Record(ctx, int64(stock), metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.Int64("product.id", productID),
	})...))
}

func (m *AppMetrics) RecordBooking(ctx context.Context, sessionType string) {
	if m == nil {
		return
	}
	m.BookingsCreated.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("session.type", sessionType),
	})...))
}

func (m *AppMetrics) RecordBookingConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.BookingConflicts.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(nil)...))
}

// parseHeaders parses "key1=value1,key2=value2".
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	for _, pair := range strings.Split(headerStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
