// Package metrics exposes Prometheus instrumentation for the ledger, the
// RPC layer and the real-time channel.
package metrics

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/racha/internal/notify"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	mutations     *prometheus.CounterVec
	rpcRequests   *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	droppedEvents *prometheus.CounterVec
	wsClients     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "racha",
			Name:      "ledger_mutations_total",
			Help:      "Ledger operations by operation and result.",
		}, []string{"operation", "result"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "racha",
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and Connect code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "racha",
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "racha",
			Name:      "notify_dropped_events_total",
			Help:      "Table events dropped because a subscriber was too slow.",
		}, []string{"type"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "racha",
			Name:      "websocket_clients",
			Help:      "Open WebSocket connections.",
		}),
	}
	reg.MustRegister(m.mutations, m.rpcRequests, m.rpcDuration, m.droppedEvents, m.wsClients)
	return m
}

// ObserveMutation counts a ledger operation. result is "ok" or the error kind.
func (m *Metrics) ObserveMutation(operation, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, result).Inc()
}

// DroppedEvent counts a dropped event by its type.
func (m *Metrics) DroppedEvent(eventType notify.EventType) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(string(eventType)).Inc()
}

// ClientConnected adjusts the WebSocket gauge; pass -1 on disconnect.
func (m *Metrics) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.wsClients.Add(float64(delta))
}

// Interceptor returns a Connect interceptor that counts and times unary calls.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if m == nil {
				return next(ctx, req)
			}
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				code = connectErr.Code().String()
			} else if err != nil {
				code = connect.CodeUnknown.String()
			}
			m.rpcRequests.WithLabelValues(procedure, code).Inc()
			m.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
