package metrics

import (
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Collector exports a Registry as a Prometheus collector. Metric names are
// prefixed with the namespace; dots and dashes become underscores. Counters
// and gauges map directly, histograms keep their buckets.
//
// Metrics are created lazily, so the collector is unchecked: Describe
// sends nothing.
type Collector struct {
	reg       *Registry
	namespace string
}

// NewCollector returns a collector for reg.
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{reg: reg, namespace: namespace}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.each(
		func(m *Counter) {
			desc := prometheus.NewDesc(c.promName(m.name), m.name, nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Value()))
		},
		func(m *Gauge) {
			desc := prometheus.NewDesc(c.promName(m.name), m.name, nil, nil)
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Value()))
		},
		func(m *Histogram) {
			desc := prometheus.NewDesc(c.promName(m.name), m.name, nil, nil)
			ch <- prometheus.MustNewConstHistogram(desc, m.Count(), m.Sum(), m.Buckets())
		},
	)
}

func (c *Collector) promName(name string) string {
	name = strings.NewReplacer(".", "_", "-", "_").Replace(name)
	if c.namespace == "" {
		return name
	}
	return c.namespace + "_" + name
}

// Handler serves reg in the Prometheus exposition format, together with
// the Go runtime and process collectors.
func Handler(reg *Registry, namespace string) http.Handler {
	pr := prometheus.NewRegistry()
	pr.MustRegister(
		NewCollector(reg, namespace),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(pr, promhttp.HandlerOpts{})
}

// WriteText writes reg once in the Prometheus text format. One-shot tools
// use it instead of serving Handler.
func WriteText(w io.Writer, reg *Registry, namespace string) error {
	pr := prometheus.NewRegistry()
	if err := pr.Register(NewCollector(reg, namespace)); err != nil {
		return err
	}
	families, err := pr.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
