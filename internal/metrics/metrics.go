// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the storefront client core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No user ids, request ids or paths with ids in labels.

var (
	// GatewayRequestsTotal counts outbound requests by method and outcome.
	// outcome is a status class ("2xx", "4xx", ...) or "no_response" / "local_error".
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_gateway_requests_total",
		Help: "Total number of outbound API requests, by method and outcome.",
	}, []string{"method", "outcome"})

	// GatewayRequestDuration observes round-trip latency of requests that reached the server.
	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_gateway_request_duration_seconds",
		Help:    "Latency of outbound API requests that received a response.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// DispatchTotal counts dispatcher outcomes by domain and operation.
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_dispatch_total",
		Help: "Total number of dispatched operations, by domain, operation and outcome.",
	}, []string{"domain", "operation", "outcome"})

	// DispatchInFlight tracks operations between started and their outcome.
	DispatchInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storefront_dispatch_in_flight",
		Help: "Number of dispatched operations awaiting an outcome, by domain.",
	}, []string{"domain"})

	// StateTransitionsTotal counts applied lifecycle events by domain and kind.
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_state_transitions_total",
		Help: "Total number of lifecycle events applied, by domain and event kind.",
	}, []string{"domain", "kind"})

	// BusDroppedTotal counts state-change notifications dropped by topic and reason.
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_bus_dropped_total",
		Help: "Total number of bus messages dropped, by topic and reason.",
	}, []string{"topic", "reason"})
)

// ObserveGatewayRequest records one outbound request. A zero duration skips the histogram.
func ObserveGatewayRequest(method, outcome string, d time.Duration) {
	GatewayRequestsTotal.WithLabelValues(method, outcome).Inc()
	if d > 0 {
		GatewayRequestDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}

// IncDispatch records a dispatcher outcome ("succeeded" or "failed").
func IncDispatch(domain, operation, outcome string) {
	DispatchTotal.WithLabelValues(domain, operation, outcome).Inc()
}

// IncStateTransition records an applied lifecycle event.
func IncStateTransition(domain, kind string) {
	StateTransitionsTotal.WithLabelValues(domain, kind).Inc()
}

// IncBusDropReason records a dropped bus message.
func IncBusDropReason(topic, reason string) {
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}

// StatusClass maps an HTTP status code to its "Nxx" label.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
