package core

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal      *prometheus.CounterVec
	issuesTotal    *prometheus.CounterVec
	fatalTotal     *prometheus.CounterVec
	commitTotal    *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glee_import",
			Name:      "rows_total",
			Help:      "Total number of data rows seen by validation.",
		}, []string{"kind", "outcome"}),
		issuesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glee_import",
			Name:      "issues_total",
			Help:      "Total number of validation issues by level.",
		}, []string{"kind", "level"}),
		fatalTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glee_import",
			Name:      "fatal_total",
			Help:      "Total number of files rejected before row processing.",
		}, []string{"kind"}),
		commitTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glee_import",
			Name:      "commit_records_total",
			Help:      "Total number of records processed by the commit executor.",
		}, []string{"kind", "result"}),
		commitDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glee_import",
			Name:      "commit_duration_seconds",
			Help:      "Duration of a whole commit batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind"}),
	}
})

func recordValidation(kind string, v Validation) {
	m := metricsSingleton()
	m.rowsTotal.WithLabelValues(kind, "malformed").Add(float64(v.Malformed))

	for _, rec := range v.Records {
		outcome := "valid"
		if rec.HasErrors() {
			outcome = "invalid"
		}
		m.rowsTotal.WithLabelValues(kind, outcome).Inc()
		for _, is := range rec.Issues {
			m.issuesTotal.WithLabelValues(kind, string(is.Level)).Inc()
		}
	}
}

func recordFatal(kind string) {
	metricsSingleton().fatalTotal.WithLabelValues(kind).Inc()
}

func recordCommit(kind string, res CommitResult, elapsed time.Duration) {
	m := metricsSingleton()
	m.commitTotal.WithLabelValues(kind, "successful").Add(float64(res.Successful))
	m.commitTotal.WithLabelValues(kind, "skipped").Add(float64(res.Skipped))
	m.commitTotal.WithLabelValues(kind, "failed").Add(float64(res.Failed))
	m.commitDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
