package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilecrm_voice_commands_total",
		Help: "Voice commands processed, by flow, classified action and outcome",
	}, []string{"flow", "action", "status"})

	VoiceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smilecrm_voice_latency_seconds",
		Help:    "End-to-end voice pipeline latency",
		Buckets: prometheus.DefBuckets,
	})

	VoiceStageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smilecrm_voice_stage_latency_seconds",
		Help:    "Latency of a single pipeline stage",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage"})

	VoiceConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smilecrm_voice_confidence",
		Help:    "Heuristic confidence of normalized intents",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	VoiceWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smilecrm_voice_warnings_total",
		Help: "Warnings attached to voice drafts",
	})

	TranscriptCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilecrm_voice_transcript_cache_total",
		Help: "Transcript cache lookups",
	}, []string{"result"})

	// Infrastructure metrics
	ProviderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilecrm_provider_failures_total",
		Help: "Failed calls to speech and language model providers",
	}, []string{"provider", "reason"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smilecrm_database_latency_seconds",
		Help:    "Latency of clinic store queries",
		Buckets: prometheus.DefBuckets,
	})

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smilecrm_http_requests_total",
		Help: "HTTP requests, by route and status code",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smilecrm_http_request_duration_seconds",
		Help:    "HTTP request latency, by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
