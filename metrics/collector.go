// Package metrics adapts the teacher's ProposerMetrics (proposermanager.go's
// Gauge/Lifespan pair, wired in through SetMetrics) to this module's
// domain: network traffic and node liveness instead of transaction
// counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector is the simulator's set of Prometheus instruments.
type Collector struct {
	InFlight       prometheus.Gauge
	LiveNodes      prometheus.Gauge
	FailedNodes    prometheus.Gauge
	ConsensusTotal prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paxossim",
			Name:      "messages_in_flight",
			Help:      "Messages currently queued in the network queue.",
		}),
		LiveNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paxossim",
			Name:      "live_nodes",
			Help:      "Nodes currently marked live.",
		}),
		FailedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paxossim",
			Name:      "failed_nodes",
			Help:      "Nodes currently marked failed.",
		}),
		ConsensusTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paxossim",
			Name:      "consensus_total",
			Help:      "Number of proposers observed reaching consensus.",
		}),
	}
	reg.MustRegister(c.InFlight, c.LiveNodes, c.FailedNodes, c.ConsensusTotal)
	return c
}

// Observe records the per-tick gauges.
func (c *Collector) Observe(inFlight, live, failed int) {
	c.InFlight.Set(float64(inFlight))
	c.LiveNodes.Set(float64(live))
	c.FailedNodes.Set(float64(failed))
}

func (c *Collector) RecordConsensus() {
	c.ConsensusTotal.Inc()
}
