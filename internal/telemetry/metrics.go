// Package telemetry holds the Prometheus collectors of the controller and the
// handler that exposes them.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "irrigation"

//nolint:gochecknoglobals // Collectors are registered once per process.
var (
	// TicksTotal counts control loop iterations, including no-op ticks in manual mode.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Control loop ticks processed.",
	})

	// TickDuration observes how long a tick takes.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Time spent evaluating all device schedules in one tick.",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	// ValveTransitionsTotal counts output edges by device, new state and source.
	ValveTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "valve_transitions_total",
		Help:      "Valve state changes.",
	}, []string{"device", "state", "source"})

	// ValveOpen reports 1 while a valve output is driven high.
	ValveOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "valve_open",
		Help:      "Current valve output state (1 = open).",
	}, []string{"device"})

	// ManualMode reports 1 while schedule evaluation is suspended.
	ManualMode = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "manual_mode",
		Help:      "Controller manual mode flag (1 = manual).",
	})

	// HardwareWriteFailuresTotal counts failed output line writes.
	HardwareWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hardware_write_failures_total",
		Help:      "Output line writes that returned an error.",
	}, []string{"device"})

	// PersistenceWriteFailuresTotal counts settings that could not be stored.
	PersistenceWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_write_failures_total",
		Help:      "Settings writes that returned an error.",
	}, []string{"key"})

	// ClockOffsetSeconds reports the applied clock correction.
	ClockOffsetSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "clock_offset_seconds",
		Help:      "Correction added to the system clock.",
	})

	// HTTPRequestsTotal counts command surface requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "route", "code"})

	// GRPCRequestsTotal counts gRPC calls by method and status code.
	GRPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grpc_requests_total",
		Help:      "gRPC calls served.",
	}, []string{"method", "code"})

	// EventsDroppedTotal counts events a full subscriber buffer could not take.
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events dropped because a subscriber was too slow.",
	})

	// EventsForwardedTotal counts events handed to external sinks by sink and result.
	EventsForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_forwarded_total",
		Help:      "Events forwarded to external brokers.",
	}, []string{"sink", "result"})
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// BoolGauge converts a flag into a gauge value.
func BoolGauge(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
