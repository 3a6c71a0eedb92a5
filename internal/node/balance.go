package node

import (
	"time"

	"github.com/ChuLiYu/ringmesh/internal/transport"
	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

// balanceTickInterval is the fixed sleep between re-evaluations of the
// balancing loop (spec.md §4.3.4: "≈10 ms").
const balanceTickInterval = 10 * time.Millisecond

// globalBalanceRatio is the fraction of known peers that must report a
// count within tolerance for a node to consider itself globally
// balanced.
const globalBalanceRatio = 0.7

type neighbor struct {
	addr task.Address
	conn *transport.Connection
}

// runBalancing implements spec.md §4.3.4's loop: while not globally
// balanced, send a PushRequest to each neighbor whose count is at or
// below balancedCount if this node is overloaded, or a CheckStatus to
// each neighbor whose count is at or above it otherwise; sleep and
// re-evaluate.
func (n *Node) runBalancing() {
	for {
		n.mu.Lock()
		total := int32(len(n.generated) + len(n.migrated))
		balanced := n.balancedCount
		tolerance := balanceTolerance(balanced)
		counts := make(map[string]int32, len(n.overlayCounts))
		for k, v := range n.overlayCounts {
			counts[k] = v
		}
		n.mu.Unlock()

		if isGloballyBalanced(counts, balanced, tolerance) {
			return
		}

		if total > balanced {
			for _, nb := range n.neighbors() {
				if c, ok := counts[nb.addr.String()]; ok && c <= balanced {
					if err := nb.conn.Send(&wire.PushRequest{Total: total}); err != nil {
						log.Error("node: push request failed", "peer", nb.addr.String(), "error", err)
					}
				}
			}
		} else {
			deficit := absInt32(int32(len(n.generated)) - balanced)
			for _, nb := range n.neighbors() {
				if c, ok := counts[nb.addr.String()]; ok && c >= balanced {
					if err := nb.conn.Send(&wire.CheckStatus{Deficit: deficit}); err != nil {
						log.Error("node: check status failed", "peer", nb.addr.String(), "error", err)
					}
				}
			}
		}

		time.Sleep(balanceTickInterval)
	}
}

// handleCheckStatus implements the B side of spec.md §4.3.4's migration
// micro-protocol: offer a batch unless already migrating, or unless this
// node has already entered execute() for the round (spec.md §3's
// monotonic-progress invariant: once executing starts for round r, no
// further migrations are accepted for r) — both cases decline exactly
// alike, since the sender's connection must not be left expecting a
// MigrateTasks that will never arrive.
func (n *Node) handleCheckStatus(peer task.Address, _ *wire.CheckStatus) {
	n.mu.Lock()
	if n.isMigrating || n.readyToExecute {
		n.mu.Unlock()
		if conn := n.connFor(peer); conn != nil {
			if err := conn.Send(&wire.StatusResponse{}); err != nil {
				log.Error("node: status response failed", "peer", peer.String(), "error", err)
			}
		}
		return
	}
	n.isMigrating = true

	take := batchSize
	if len(n.generated) < take {
		take = len(n.generated)
	}
	batch := append([]task.Task(nil), n.generated[:take]...)
	n.generated = n.generated[take:]
	n.mu.Unlock()

	n.stats.AddPushed(int64(len(batch)))

	conn := n.connFor(peer)
	if conn == nil {
		log.Error("node: check status from unknown peer", "peer", peer.String())
		return
	}
	if err := conn.Send(&wire.MigrateTasks{Batch: batch}); err != nil {
		log.Error("node: migrate tasks failed", "peer", peer.String(), "error", err)
	}
	n.announce()
}

// handlePushRequest implements the B side of a PushRequest: reply with a
// CheckStatus carrying this node's own deficit, which the sender's
// handleCheckStatus answers by offering a batch. Once this node has entered execute() for the round, it
// no longer participates in balancing at all (spec.md §3's
// monotonic-progress invariant), so the request is silently dropped
// rather than answered.
func (n *Node) handlePushRequest(peer task.Address, _ *wire.PushRequest) {
	n.mu.Lock()
	if n.readyToExecute {
		n.mu.Unlock()
		return
	}
	deficit := absInt32(int32(len(n.generated)) - n.balancedCount)
	n.mu.Unlock()

	conn := n.connFor(peer)
	if conn == nil {
		log.Error("node: push request from unknown peer", "peer", peer.String())
		return
	}
	if err := conn.Send(&wire.CheckStatus{Deficit: deficit}); err != nil {
		log.Error("node: check status reply failed", "peer", peer.String(), "error", err)
	}
}

// handleMigrateTasks implements the A side: accept the batch into
// migrated (Open Question #1: migrated tasks are not re-eligible, so
// incoming tasks join migrated, not generated, and handleCheckStatus
// never slices its outgoing batch from migrated), ack, and disseminate
// the new count. If this node has already entered execute() for the
// current round, the batch is still queued into migrated for the next
// round's execute rather than discarded — it just skips this round's
// re-announce, since balancing for this round is over.
func (n *Node) handleMigrateTasks(peer task.Address, msg *wire.MigrateTasks) {
	n.mu.Lock()
	n.migrated = append(n.migrated, msg.Batch...)
	executing := n.readyToExecute
	n.mu.Unlock()

	n.stats.AddPulled(int64(len(msg.Batch)))

	if conn := n.connFor(peer); conn != nil {
		if err := conn.Send(&wire.MigrateResponse{}); err != nil {
			log.Error("node: migrate response failed", "peer", peer.String(), "error", err)
		}
	}
	if !executing {
		n.announce()
	}
}

// handleMigrateResponse clears isMigrating. Idempotent: a duplicate
// response can only transition true to false, never corrupt the flag
// (spec.md §8 invariant 5).
func (n *Node) handleMigrateResponse() {
	n.mu.Lock()
	n.isMigrating = false
	n.mu.Unlock()
}

func (n *Node) neighbors() []neighbor {
	return []neighbor{
		{addr: n.next, conn: n.nextConn},
		{addr: n.prev, conn: n.prevConn},
	}
}

// balanceTolerance computes T = max(1, ceil(0.1 * balancedCount)).
func balanceTolerance(balancedCount int32) int32 {
	t := ceilDiv(balancedCount, 10)
	if t < 1 {
		return 1
	}
	return t
}

// isGloballyBalanced implements spec.md §4.3.4's stop condition: at
// least 70% of known peer counts lie within tolerance of balancedCount.
// A node with no known peers (overlaySize 1) is trivially balanced.
func isGloballyBalanced(counts map[string]int32, balancedCount, tolerance int32) bool {
	if len(counts) == 0 {
		return true
	}
	within := 0
	for _, c := range counts {
		if absInt32(c-balancedCount) <= tolerance {
			within++
		}
	}
	return float64(within)/float64(len(counts)) >= globalBalanceRatio
}
