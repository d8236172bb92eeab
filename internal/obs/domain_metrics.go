package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// InvoiceSavedTotal counts invoice save outcomes by kind (created vs replaced).
	InvoiceSavedTotal *prometheus.CounterVec
	// InvoiceDeletedTotal counts invoice deletions.
	InvoiceDeletedTotal prometheus.Counter
	// ExportTotal counts export job outcomes.
	ExportTotal *prometheus.CounterVec
	// RenderDuration records document render latency in milliseconds.
	RenderDuration prometheus.Histogram
	// StoreMirrorFailures counts failed mirror writes to the durable store.
	StoreMirrorFailures prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		InvoiceSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_saved_total",
			Help:      "Count of invoice save operations by outcome kind.",
		}, []string{"kind"})
		InvoiceDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_deleted_total",
			Help:      "Count of invoice deletions.",
		})
		ExportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_total",
			Help:      "Count of export job outcomes.",
		}, []string{"result"})
		RenderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_ms",
			Help:      "Latency of invoice document rendering in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		})
		StoreMirrorFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mirror_failures_total",
			Help:      "Count of failed mirror writes to the durable document store.",
		})
		reg.MustRegister(InvoiceSavedTotal, InvoiceDeletedTotal, ExportTotal, RenderDuration, StoreMirrorFailures)
	})
}
