package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the Resolve HTTP handler
	ResolveLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_resolve_latency_seconds",
		Help:    "Latency of the recommendation resolve handler",
		Buckets: prometheus.DefBuckets,
	})

	// Recommendation requests served, labeled by the tier that answered
	ResolveRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_resolve_requests_total",
		Help: "Total number of recommendation requests by serving tier",
	}, []string{"tier"})

	// Duration of batch rebuild jobs (popularity, cooccurrence, profile)
	RebuildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reco_rebuild_duration_seconds",
		Help:    "Duration of derived-state rebuild jobs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"job"})

	// Events accepted by the ingestion endpoint
	EventsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_events_ingested_total",
		Help: "Total number of ingested behavioral events by kind",
	}, []string{"kind"})
)

func Init() {
	prometheus.MustRegister(
		ResolveLatency,
		ResolveRequests,
		RebuildDuration,
		EventsIngested,
	)
}
