// Package metrics counts attendance activity for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/rollcall/core/attendance"
)

type Recorder struct {
	registry      *prometheus.Registry
	marks         *prometheus.CounterVec
	reports       *prometheus.CounterVec
	persistErrors prometheus.Counter
}

var _ attendance.Observer = (*Recorder)(nil)

func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_marks_total",
			Help:      "Attendance statuses recorded, by status.",
		}, []string{"status"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monthly_reports_total",
			Help:      "Monthly reports served, by outcome (data or empty).",
		}, []string{"outcome"}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Attendance writes that could not be persisted.",
		}),
	}
	r.registry.MustRegister(r.marks, r.reports, r.persistErrors)
	return r
}

func (r *Recorder) MarkRecorded(status attendance.Status) {
	r.marks.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) ReportServed(empty bool) {
	outcome := "data"
	if empty {
		outcome = "empty"
	}
	r.reports.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PersistFailed() {
	r.persistErrors.Inc()
}

// Handler serves the recorded metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
