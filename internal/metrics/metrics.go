package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "updates_total",
		Help:      "Total chat updates handled by kind and outcome.",
	}, []string{"kind", "outcome"})

	UpdateDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kinobot",
		Name:      "update_duration_seconds",
		Help:      "Update handling duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})

	KinopoiskRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "kinopoisk_requests_total",
		Help:      "Total requests sent to the metadata API.",
	})

	KinopoiskErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "kinopoisk_errors_total",
		Help:      "Total failed metadata API requests.",
	})

	KeyRotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "kinopoisk_key_rotations_total",
		Help:      "Total API key rotations caused by quota responses.",
	})

	JacredRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "jacred_requests_total",
		Help:      "Total requests sent to the torrent index.",
	})

	JacredErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "jacred_errors_total",
		Help:      "Total failed torrent index requests.",
	})

	StoreHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "store_hits_total",
		Help:      "Total state store reads that found a live entry.",
	})

	StoreMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "store_misses_total",
		Help:      "Total state store reads that found nothing or an expired entry.",
	})

	StoreErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "store_errors_total",
		Help:      "Total state store backend failures.",
	})

	ConversionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "magnet_conversions_total",
		Help:      "Total successful magnet to .torrent conversions.",
	})

	ConversionsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "magnet_conversions_failed_total",
		Help:      "Total failed magnet to .torrent conversions.",
	})

	SpamBlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinobot",
		Name:      "spam_blocks_total",
		Help:      "Total updates dropped by the anti-spam limiter.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		UpdatesTotal,
		UpdateDuration,
		KinopoiskRequestsTotal,
		KinopoiskErrorsTotal,
		KeyRotationsTotal,
		JacredRequestsTotal,
		JacredErrorsTotal,
		StoreHitsTotal,
		StoreMissesTotal,
		StoreErrorsTotal,
		ConversionsTotal,
		ConversionsFailedTotal,
		SpamBlocksTotal,
	)
}
