// Package telemetry provides the Prometheus metrics of the playlist bot.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// EventsHandled counts inbound chat events by kind and result
	EventsHandled *prometheus.CounterVec
	// StateTransitions counts committed state changes
	StateTransitions *prometheus.CounterVec
	// MusicAPICalls counts music API calls by operation and result
	MusicAPICalls *prometheus.CounterVec
	// MusicAPIDuration observes music API latency in seconds
	MusicAPIDuration *prometheus.HistogramVec
	// AuthorizationsCompleted counts OAuth callbacks by result
	AuthorizationsCompleted *prometheus.CounterVec
	// WebhookDuplicates counts redelivered LINE events that were skipped
	WebhookDuplicates prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playlist_bot_events_total",
			Help: "Number of chat events handled",
		}, []string{"kind", "result"})
		StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playlist_bot_state_transitions_total",
			Help: "Number of committed conversation state transitions",
		}, []string{"from", "to"})
		MusicAPICalls = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playlist_bot_music_api_calls_total",
			Help: "Number of music API calls",
		}, []string{"operation", "result"})
		MusicAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playlist_bot_music_api_duration_seconds",
			Help:    "Music API call duration seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"})
		AuthorizationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playlist_bot_authorizations_total",
			Help: "Number of OAuth authorization callbacks",
		}, []string{"result"})
		WebhookDuplicates = promauto.NewCounter(prometheus.CounterOpts{
			Name: "playlist_bot_webhook_duplicates_total",
			Help: "Number of redelivered webhook events skipped",
		})
	})
}

// ObserveEvent records one handled chat event
func ObserveEvent(kind, result string) {
	if EventsHandled != nil {
		EventsHandled.WithLabelValues(kind, result).Inc()
	}
}

// ObserveTransition records a committed state change
func ObserveTransition(from, to string) {
	if StateTransitions != nil {
		StateTransitions.WithLabelValues(from, to).Inc()
	}
}

// ObserveMusicCall records the result and latency of one music API call
func ObserveMusicCall(operation string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if MusicAPICalls != nil {
		MusicAPICalls.WithLabelValues(operation, result).Inc()
	}
	if MusicAPIDuration != nil {
		MusicAPIDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}
}

// ObserveAuthorization records an OAuth callback outcome
func ObserveAuthorization(result string) {
	if AuthorizationsCompleted != nil {
		AuthorizationsCompleted.WithLabelValues(result).Inc()
	}
}

// ObserveDuplicate records a skipped webhook redelivery
func ObserveDuplicate() {
	if WebhookDuplicates != nil {
		WebhookDuplicates.Inc()
	}
}
