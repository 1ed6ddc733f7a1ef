package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceFetchTotal counts dynamic price fetch outcomes against the
	// pricing authority.
	PriceFetchTotal *prometheus.CounterVec
	// PriceFetchLatency records price fetch latency in milliseconds.
	PriceFetchLatency *prometheus.HistogramVec
	// PriceStaleDroppedTotal counts authority responses discarded because
	// the selection input changed while the request was in flight.
	PriceStaleDroppedTotal prometheus.Counter
	// BundlePriceTotal counts bundle price aggregation outcomes.
	BundlePriceTotal *prometheus.CounterVec
	// UploadForwardTotal counts artwork forwarding outcomes.
	UploadForwardTotal *prometheus.CounterVec
	// SelectionSessionsActive tracks the number of live selection sessions.
	SelectionSessionsActive prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific
// Prometheus collectors. Safe to call more than once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetch_total",
			Help:      "Count of dynamic price fetch outcomes.",
		}, []string{"result"})
		PriceFetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "price_fetch_duration_ms",
			Help:      "Latency of pricing authority calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		PriceStaleDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_stale_dropped_total",
			Help:      "Count of stale pricing responses discarded instead of applied.",
		})
		BundlePriceTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_price_total",
			Help:      "Count of bundle cheapest-price computations by outcome.",
		}, []string{"result"})
		UploadForwardTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_forward_total",
			Help:      "Count of artwork forward attempts by outcome.",
		}, []string{"result"})
		SelectionSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selection_sessions_active",
			Help:      "Number of live buyer selection sessions.",
		})

		reg.MustRegister(
			PriceFetchTotal,
			PriceFetchLatency,
			PriceStaleDroppedTotal,
			BundlePriceTotal,
			UploadForwardTotal,
			SelectionSessionsActive,
		)
	})
}
