package notify

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts store activity. A nil *Metrics records nothing.
type Metrics struct {
	fetches        prometheus.Counter
	staleDiscarded prometheus.Counter
	mutations      *prometheus.CounterVec
	rollbacks      *prometheus.CounterVec
}

// NewMetrics creates the store counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "fetches_total",
			Help:      "List fetches issued against the backend.",
		}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "stale_responses_discarded_total",
			Help:      "Fetch responses dropped because a newer fetch was issued.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "mutations_total",
			Help:      "Confirmed cache mutations by operation.",
		}, []string{"op"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "rollbacks_total",
			Help:      "Optimistic mutations compensated after a failed server call.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.staleDiscarded, m.mutations, m.rollbacks)
	}
	return m
}

func (m *Metrics) fetched() {
	if m != nil {
		m.fetches.Inc()
	}
}

func (m *Metrics) discarded() {
	if m != nil {
		m.staleDiscarded.Inc()
	}
}

func (m *Metrics) mutated(op string) {
	if m != nil {
		m.mutations.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) rolledBack(op string) {
	if m != nil {
		m.rollbacks.WithLabelValues(op).Inc()
	}
}
