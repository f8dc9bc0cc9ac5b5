package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricsRecordsQueueCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.TicketAssigned(ctx, "urgent", "category")
	m.TicketAssigned(ctx, "low", "general")
	m.TicketPending(ctx)
	m.RecordRequest("/api/tickets", "POST", 201, 15*time.Millisecond)

	depth := 3
	require.NoError(t, m.RegisterQueueDepth(func() int { return depth }))

	got := collect(t, reader)

	assigned, ok := got["feathersup.queue.assigned"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range assigned.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	pending, ok := got["feathersup.queue.pending"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, pending.DataPoints, 1)
	assert.Equal(t, int64(1), pending.DataPoints[0].Value)

	gauge, ok := got["feathersup.queue.depth"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)

	_, ok = got["feathersup.http.request.duration"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TicketAssigned(context.Background(), "high", "category")
		m.TicketPending(context.Background())
		m.TicketDequeued(context.Background(), "high")
		m.RecordError("/", "GET", "INTERNAL")
		_ = m.RegisterQueueDepth(func() int { return 0 })
	})
}

func TestNewTelemetryDisabledIsNoop(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.AppConfig{Name: "svc"}, config.TelemetryConfig{})
	require.NoError(t, err)
	m, err := NewMetrics(tel.Meter)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewTelemetryWithDiscardExporter(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.AppConfig{Name: "svc", Version: "test"}, config.TelemetryConfig{
		Enabled:  true,
		Exporter: "none",
	})
	require.NoError(t, err)
	_, span := StartSpan(context.Background(), tel.Tracer, "unit")
	span.End()
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewTelemetryUnknownExporter(t *testing.T) {
	_, err := NewTelemetry(context.Background(), config.AppConfig{Name: "svc"}, config.TelemetryConfig{
		Enabled:  true,
		Exporter: "zipkin",
	})
	assert.Error(t, err)
}
