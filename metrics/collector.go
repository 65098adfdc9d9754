// Package metrics exposes running Endpoint counters as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/nlconn/nlconn"
)

type info struct {
	description *prometheus.Desc
	supplier    func(s nlconn.Stats, labelValues []string) prometheus.Metric
}

type endpointEntry struct {
	ep     *nlconn.Endpoint
	labels []string
}

// Collector is a prometheus.Collector over a set of live Endpoints,
// reporting their Stats counters on every scrape.
type Collector struct {
	mu        sync.Mutex
	endpoints map[string]endpointEntry
	logger    func(error)
	infos     []info
}

// NewCollector builds a Collector. connectionLabels names the label keys
// supplied per-endpoint via Add; constLabels are fixed process-wide label
// values.
func NewCollector(
	prefix string,
	connectionLabels []string,
	constLabels prometheus.Labels,
	errorLoggingCallback func(error),
) *Collector {
	c := &Collector{
		endpoints: make(map[string]endpointEntry),
		logger:    errorLoggingCallback,
	}
	c.addMetrics(prefix, connectionLabels, constLabels)
	return c
}

// Add registers ep with the collector under labelValues, matching the
// order of connectionLabels passed to NewCollector.
func (c *Collector) Add(ep *nlconn.Endpoint, labelValues []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints[ep.ID()] = endpointEntry{ep: ep, labels: labelValues}
}

// Remove stops reporting metrics for ep.
func (c *Collector) Remove(ep *nlconn.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.endpoints, ep.ID())
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, inf := range c.infos {
		descs <- inf.description
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, entry := range c.endpoints {
		if _, err := entry.ep.Fd(); err != nil {
			if c.logger != nil {
				c.logger(err)
			}
			delete(c.endpoints, id)
			continue
		}

		snap := entry.ep.Stats()
		for _, inf := range c.infos {
			ch <- inf.supplier(snap, entry.labels)
		}
	}
}
