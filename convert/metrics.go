package convert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasjlepore/fitconvert/diag"
)

// Metrics counts conversions. A nil *Metrics records nothing.
type Metrics struct {
	conversions *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the conversion collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitconvert",
			Name:      "conversions_total",
			Help:      "Number of conversions by source format, destination format and outcome.",
		}, []string{"from", "to", "outcome"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitconvert",
			Name:      "warnings_total",
			Help:      "Number of conversion warnings by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fitconvert",
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of one conversion call.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.conversions, m.warnings, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(from, to Format, outcome string, ws []diag.Warning, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(string(from), string(to), outcome).Inc()
	for _, w := range ws {
		m.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}
