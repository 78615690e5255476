package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the item module.
type Metrics struct {
	// Registrations accepted, including re-registrations
	ItemsRegistered prometheus.Counter

	// Lookup results: "found", "not_found"
	LookupOutcome *prometheus.CounterVec

	// Notification results: "sent", "not_found", "misconfigured", "delivery_failed"
	NotifyOutcome *prometheus.CounterVec

	// Round trip to the messaging gateway
	GatewayLatency prometheus.Histogram

	// Registry cache results: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all item module metrics registered.
func New() *Metrics {
	return &Metrics{
		ItemsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_items_registered_total",
			Help: "Total number of item registrations, including overwrites",
		}),

		LookupOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_item_lookups_total",
			Help: "Total item lookups by result",
		}, []string{"result"}),

		NotifyOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_notifications_total",
			Help: "Total owner notifications by outcome",
		}, []string{"outcome"}),

		GatewayLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lostfound_gateway_send_duration_seconds",
			Help:    "Duration of messaging gateway send calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_item_cache_lookups_total",
			Help: "Item cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.ItemsRegistered.Inc()
	}
}

func (m *Metrics) IncrementLookup(result string) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncrementNotify(outcome string) {
	if m != nil {
		m.NotifyOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveGatewayLatency records how long a gateway send took, successful or not.
func (m *Metrics) ObserveGatewayLatency(d time.Duration) {
	if m != nil {
		m.GatewayLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
