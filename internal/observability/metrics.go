package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vhack_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ChatMessagesPublished counts chat messages published per hackathon room.
	ChatMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vhack_chat_messages_published_total",
		Help: "Total chat messages published to hackathon rooms",
	}, []string{"room_id"})

	// AnalysisRequests counts repository analysis calls by outcome.
	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vhack_analysis_requests_total",
		Help: "Total repository analysis requests by outcome",
	}, []string{"outcome"})

	// ExternalCallRetries counts retries against external collaborators.
	ExternalCallRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vhack_external_call_retries_total",
		Help: "Total retry attempts against external services",
	}, []string{"service"})

	// CircuitBreakerState gauges breaker state per external service (0 closed, 1 open, 2 half-open).
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vhack_circuit_breaker_state",
		Help: "Circuit breaker state per external service",
	}, []string{"service"})
)
