package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal counts simulation steps across all sessions
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forcegraph_ticks_total",
		Help: "Total simulation ticks across sessions",
	})

	// tickDuration tracks the time spent in one simulation step
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forcegraph_tick_duration_seconds",
		Help:    "Simulation tick duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forcegraph_sessions_active",
		Help: "Open websocket sessions",
	})

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forcegraph_sessions_total",
		Help: "Websocket sessions by result",
	}, []string{"result"})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forcegraph_frames_sent_total",
		Help: "Frames written to websocket clients",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forcegraph_events_total",
		Help: "Client events applied, by type",
	}, []string{"type"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forcegraph_events_dropped_total",
		Help: "Client events dropped, by reason",
	}, []string{"reason"})

	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forcegraph_reloads_total",
		Help: "Payload reloads by result",
	}, []string{"result"})
)
