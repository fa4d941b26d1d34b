package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"onboarding-retention/pkg/models"
)

// Collector regroupe les métriques Prometheus d'une exécution du pipeline.
type Collector struct {
	RecordsRead     prometheus.Counter
	RecordsKept     prometheus.Counter
	RecordsDropped  *prometheus.CounterVec
	CohortCustomers prometheus.Gauge
	LatencyEntries  *prometheus.GaugeVec
	RunDuration     prometheus.Histogram
	RunsTotal       prometheus.Counter
}

// New crée les métriques sans les enregistrer.
func New() *Collector {
	return &Collector{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_records_read_total",
			Help: "Total number of order records read from the source",
		}),
		RecordsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_records_kept_total",
			Help: "Total number of order records kept after cleaning",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retention_records_dropped_total",
			Help: "Total number of order records dropped during cleaning",
		}, []string{"reason"}),
		CohortCustomers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retention_cohort_customers",
			Help: "Number of customers in the cohort of the last run",
		}),
		LatencyEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "retention_latency_entries",
			Help: "Number of multi-order customers per survival series in the last run",
		}, []string{"series"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "retention_run_duration_seconds",
			Help:    "Duration of a pipeline run, load included",
			Buckets: prometheus.DefBuckets,
		}),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_runs_total",
			Help: "Total number of completed pipeline runs",
		}),
	}
}

// Register enregistre toutes les métriques auprès de reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{
		c.RecordsRead, c.RecordsKept, c.RecordsDropped,
		c.CohortCustomers, c.LatencyEntries, c.RunDuration, c.RunsTotal,
	} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun implémente calculator.Recorder.
func (c *Collector) ObserveRun(r *models.Report, d time.Duration) {
	c.RunsTotal.Inc()
	c.RunDuration.Observe(d.Seconds())
	c.RecordsRead.Add(float64(r.RecordsRead))
	c.RecordsKept.Add(float64(r.RecordsKept))
	for reason, n := range r.Dropped {
		c.RecordsDropped.WithLabelValues(string(reason)).Add(float64(n))
	}
	c.CohortCustomers.Set(float64(r.CohortSize))
	for _, s := range r.Survival {
		c.LatencyEntries.WithLabelValues(s.Label).Set(float64(s.Total))
	}
}
