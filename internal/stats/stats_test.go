package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestCollectorAccumulatesAndSnapshots(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "node-a:9001")

	c.AddGenerated(10)
	c.AddPushed(3)
	c.AddPulled(2)
	c.AddCompleted(9)

	snap := c.Snapshot()
	assert.Equal(t, Snapshot{Generated: 10, Pushed: 3, Pulled: 2, Completed: 9}, snap)
}

func TestCollectorResetZeroesAtomicCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "node-a:9001")

	c.AddGenerated(5)
	c.Reset()

	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestTwoCollectorsOnSeparateRegistriesDoNotCollide(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := New(reg1, "node-a:9001")
	c2 := New(reg2, "node-b:9002")

	c1.AddGenerated(1)
	c2.AddGenerated(2)

	assert.Equal(t, int64(1), c1.Snapshot().Generated)
	assert.Equal(t, int64(2), c2.Snapshot().Generated)
}
