package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics covers the order and inventory engine. A nil *POSMetrics is a
// valid no-op recorder.
type POSMetrics struct {
	txDuration   *prometheus.HistogramVec
	txAttempts   *prometheus.HistogramVec
	ordersOpened prometheus.Counter
	itemsChanged *prometheus.CounterVec
	insufficient prometheus.Counter
	restocks     prometheus.Counter
}

// NewPOSMetrics registers the engine metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	m := &POSMetrics{
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_transaction_duration_seconds",
			Help:    "Wall time of service transactions including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		txAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_transaction_attempts",
			Help:    "Attempts needed per service transaction.",
			Buckets: []float64{1, 2, 3, 4, 6},
		}, []string{"outcome"}),
		ordersOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created.",
		}),
		itemsChanged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_item_transitions_total",
			Help: "Order item status changes by target status.",
		}, []string{"status"}),
		insufficient: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_insufficient_total",
			Help: "Serve attempts rejected for lack of stock.",
		}),
		restocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_restocks_total",
			Help: "Manual restocks applied.",
		}),
	}
	reg.MustRegister(m.txDuration, m.txAttempts, m.ordersOpened, m.itemsChanged, m.insufficient, m.restocks)
	return m
}

// ObserveTransaction satisfies db.TxObserver.
func (m *POSMetrics) ObserveTransaction(outcome string, attempts int, elapsed time.Duration) {
	if m == nil || m.txDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.txDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	m.txAttempts.WithLabelValues(label).Observe(float64(attempts))
}

func (m *POSMetrics) IncOrderCreated() {
	if m == nil || m.ordersOpened == nil {
		return
	}
	m.ordersOpened.Inc()
}

func (m *POSMetrics) IncItemTransition(status string) {
	if m == nil || m.itemsChanged == nil {
		return
	}
	m.itemsChanged.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *POSMetrics) IncInsufficientStock() {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.Inc()
}

func (m *POSMetrics) IncRestock() {
	if m == nil || m.restocks == nil {
		return
	}
	m.restocks.Inc()
}
