// Package stats tracks the four per-node counters spec.md's
// TRAFFIC_SUMMARY reports — generated, pushed, pulled, completed — with
// atomic counters for the hot path and a Prometheus mirror so a running
// node can be scraped mid-round.
//
// Grounded on the teacher's internal/metrics.Collector: one
// prometheus.Counter per tracked event, registered once at
// construction, exposed over promhttp.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds one atomic counter per tracked event, each mirrored
// into a Prometheus counter labeled by this node's address.
type Collector struct {
	generated atomic.Int64
	pushed    atomic.Int64
	pulled    atomic.Int64
	completed atomic.Int64

	promGenerated prometheus.Counter
	promPushed    prometheus.Counter
	promPulled    prometheus.Counter
	promCompleted prometheus.Counter
}

// Snapshot is the immutable set of counter values reported in a
// TRAFFIC_SUMMARY.
type Snapshot struct {
	Generated int64
	Pushed    int64
	Pulled    int64
	Completed int64
}

// New creates a Collector and registers its Prometheus counters against
// reg, labeled by the owning node's address.
func New(reg prometheus.Registerer, nodeAddr string) *Collector {
	c := &Collector{
		promGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringmesh_tasks_generated_total",
			Help:        "Total number of tasks generated by this node.",
			ConstLabels: prometheus.Labels{"node": nodeAddr},
		}),
		promPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringmesh_tasks_pushed_total",
			Help:        "Total number of tasks pushed to another node during balancing.",
			ConstLabels: prometheus.Labels{"node": nodeAddr},
		}),
		promPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringmesh_tasks_pulled_total",
			Help:        "Total number of tasks pulled from another node during balancing.",
			ConstLabels: prometheus.Labels{"node": nodeAddr},
		}),
		promCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringmesh_tasks_completed_total",
			Help:        "Total number of tasks executed to completion by the worker pool.",
			ConstLabels: prometheus.Labels{"node": nodeAddr},
		}),
	}
	reg.MustRegister(c.promGenerated, c.promPushed, c.promPulled, c.promCompleted)
	return c
}

// AddGenerated records n newly generated tasks.
func (c *Collector) AddGenerated(n int64) {
	c.generated.Add(n)
	c.promGenerated.Add(float64(n))
}

// AddPushed records n tasks pushed out to a peer.
func (c *Collector) AddPushed(n int64) {
	c.pushed.Add(n)
	c.promPushed.Add(float64(n))
}

// AddPulled records n tasks pulled in from a peer.
func (c *Collector) AddPulled(n int64) {
	c.pulled.Add(n)
	c.promPulled.Add(float64(n))
}

// AddCompleted records n tasks executed to completion.
func (c *Collector) AddCompleted(n int64) {
	c.completed.Add(n)
	c.promCompleted.Add(float64(n))
}

// Snapshot returns the current counter values for a TRAFFIC_SUMMARY.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Generated: c.generated.Load(),
		Pushed:    c.pushed.Load(),
		Pulled:    c.pulled.Load(),
		Completed: c.completed.Load(),
	}
}

// Reset zeroes the atomic counters after a TRAFFIC_SUMMARY has been
// sent, per spec.md §4.3.6. The Prometheus counters are left
// monotonically increasing, since Prometheus counters must never
// decrease.
func (c *Collector) Reset() {
	c.generated.Store(0)
	c.pushed.Store(0)
	c.pulled.Store(0)
	c.completed.Store(0)
}
