package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the transaction manager collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	begins     *prometheus.CounterVec
	commits    *prometheus.CounterVec
	aborts     *prometheus.CounterVec
	conflicts  prometheus.Counter
	violations prometheus.Counter
	committed  prometheus.Gauge
}

// NewMetrics creates the collectors under namespace and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		begins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "begin_total",
				Help:      "Counter of started transactions.",
			}, []string{"mode"}),
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "commit_total",
				Help:      "Counter of committed transactions.",
			}, []string{"mode"}),
		aborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "abort_total",
				Help:      "Counter of aborted transactions.",
			}, []string{"mode"}),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "conflict_total",
				Help:      "Counter of commits rejected by conflict verification.",
			}),
		violations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "invariant_violation_total",
				Help:      "Counter of detected invariant violations.",
			}),
		committed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "txn",
				Name:      "committed_sequence_length",
				Help:      "Number of committed write transactions not yet reclaimed.",
			}),
	}

	for _, c := range []prometheus.Collector{m.begins, m.commits, m.aborts, m.conflicts, m.violations, m.committed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func modeLabel(readOnly bool) string {
	if readOnly {
		return "ro"
	}
	return "rw"
}

func (m *Metrics) begin(readOnly bool) {
	if m != nil {
		m.begins.WithLabelValues(modeLabel(readOnly)).Inc()
	}
}

func (m *Metrics) commit(readOnly bool) {
	if m != nil {
		m.commits.WithLabelValues(modeLabel(readOnly)).Inc()
	}
}

func (m *Metrics) abort(readOnly bool) {
	if m != nil {
		m.aborts.WithLabelValues(modeLabel(readOnly)).Inc()
	}
}

func (m *Metrics) conflict() {
	if m != nil {
		m.conflicts.Inc()
	}
}

func (m *Metrics) violation() {
	if m != nil {
		m.violations.Inc()
	}
}

func (m *Metrics) committedLen(n int) {
	if m != nil {
		m.committed.Set(float64(n))
	}
}
