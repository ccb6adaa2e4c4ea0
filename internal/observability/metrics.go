package observability

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	ActiveSessions prometheus.Gauge
	Uploads        *prometheus.CounterVec
	ChatReplies    *prometheus.CounterVec
	DrugLookups    *prometheus.CounterVec
	BatchJobs      *prometheus.CounterVec
	AnalyzeLatency prometheus.Histogram
	LookupLatency  prometheus.Histogram
}

// NewMetrics registers every instrument on a private registry so several
// instances can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry:  reg,
		namespace: namespace,
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live chat sessions.",
		}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded documents by outcome and record source.",
		}, []string{"outcome", "source"}),
		ChatReplies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by outcome.",
		}, []string{"outcome"}),
		DrugLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drug_lookups_total",
			Help:      "Drug label lookups by outcome.",
		}, []string{"outcome"}),
		BatchJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_jobs_total",
			Help:      "Batch analysis jobs by final status.",
		}, []string{"status"}),
		AnalyzeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_latency_ms",
			Help:      "Document analysis latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		LookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drug_lookup_latency_ms",
			Help:      "Drug label lookup latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

func (m *Metrics) ObserveAnalyze(d time.Duration) {
	m.AnalyzeLatency.Observe(float64(d.Milliseconds()))
}

// ObserveLookup matches the druginfo.Client observe hook.
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	m.DrugLookups.WithLabelValues(outcome).Inc()
	m.LookupLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CounterTotals snapshots every non-zero counter in this namespace, keyed as
// name{label="value",...}. Commands without a /metrics endpoint log it.
func (m *Metrics) CounterTotals() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	out := map[string]float64{}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), m.namespace+"_") {
			continue
		}
		for _, metric := range mf.GetMetric() {
			c := metric.GetCounter()
			if c == nil || c.GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = c.GetValue()
		}
	}
	return out, nil
}
