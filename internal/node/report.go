package node

import "github.com/ChuLiYu/ringmesh/internal/wire"

// report implements spec.md §4.3.6's first half: clear overlayTasksCount
// now that the round is over. TaskComplete is sent by Run's loop, since
// it also owns the registry connection's send path.
func (n *Node) report() {
	n.mu.Lock()
	n.overlayCounts = make(map[string]int32)
	n.mu.Unlock()
}

// reportTrafficSummary implements spec.md §4.3.6's second half: on a
// PullTrafficSummary from the registry, reply with the four counters
// and reset them.
func (n *Node) reportTrafficSummary() {
	snap := n.stats.Snapshot()
	n.stats.Reset()

	msg := &wire.TrafficSummary{
		Host:      n.self.Host,
		Port:      n.self.Port,
		Generated: snap.Generated,
		Pushed:    snap.Pushed,
		Pulled:    snap.Pulled,
		Completed: snap.Completed,
	}
	if err := n.registryConn.Send(msg); err != nil {
		log.Error("node: failed to send traffic summary", "error", err)
	}
}
