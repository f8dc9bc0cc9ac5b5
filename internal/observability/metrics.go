package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueueDepthFunc reports the current number of queued entries across all agents.
type QueueDepthFunc func() int

// Metrics holds the service's instruments. A nil *Metrics records nothing.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	ticketsAssigned metric.Int64Counter
	ticketsPending  metric.Int64Counter
	ticketsDequeued metric.Int64Counter
	meter           metric.Meter
}

// NewMetrics creates every instrument from meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}
	var err error

	m.requestDuration, err = meter.Float64Histogram("feathersup.http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter("feathersup.http.request.errors",
		metric.WithDescription("HTTP requests that ended in an error response"),
	)
	if err != nil {
		return nil, err
	}

	m.ticketsAssigned, err = meter.Int64Counter("feathersup.queue.assigned",
		metric.WithDescription("Tickets assigned to an agent queue"),
	)
	if err != nil {
		return nil, err
	}

	m.ticketsPending, err = meter.Int64Counter("feathersup.queue.pending",
		metric.WithDescription("Tickets left pending because no agent was available"),
	)
	if err != nil {
		return nil, err
	}

	m.ticketsDequeued, err = meter.Int64Counter("feathersup.queue.dequeued",
		metric.WithDescription("Tickets popped from an agent queue"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RegisterQueueDepth exposes depth as an observable gauge.
func (m *Metrics) RegisterQueueDepth(depth QueueDepthFunc) error {
	if m == nil || depth == nil {
		return nil
	}
	_, err := m.meter.Int64ObservableGauge("feathersup.queue.depth",
		metric.WithDescription("Entries currently held in agent queues"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(depth()))
			return nil
		}),
	)
	return err
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(
		attribute.String("http.route", path),
		attribute.String("http.method", method),
		attribute.String("http.status_code", strconv.Itoa(status)),
	))
}

// RecordError counts a failed request by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.requestErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("http.route", path),
		attribute.String("http.method", method),
		attribute.String("error.code", code),
	))
}

// TicketAssigned counts an assignment; routing is "category" or "general".
func (m *Metrics) TicketAssigned(ctx context.Context, priority, routing string) {
	if m == nil {
		return
	}
	m.ticketsAssigned.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ticket.priority", priority),
		attribute.String("queue.routing", routing),
	))
}

// TicketPending counts a ticket left without an agent.
func (m *Metrics) TicketPending(ctx context.Context) {
	if m == nil {
		return
	}
	m.ticketsPending.Add(ctx, 1)
}

// TicketDequeued counts a pop from an agent queue.
func (m *Metrics) TicketDequeued(ctx context.Context, priority string) {
	if m == nil {
		return
	}
	m.ticketsDequeued.Add(ctx, 1, metric.WithAttributes(attribute.String("ticket.priority", priority)))
}
