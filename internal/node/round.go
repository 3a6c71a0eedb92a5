package node

import (
	"math/rand"

	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

// runRound drives one full round: Generating, Announcing, Estimating,
// Balancing, Executing, Reporting (spec.md §4.3). It runs synchronously
// on Node.Run's goroutine — the "controller thread" of spec.md §5.
func (n *Node) runRound(round int32) error {
	n.generate(round)
	n.announce()
	n.estimate()
	n.runBalancing()
	n.execute()
	n.report()
	return nil
}

// generate implements spec.md §4.3.1: draw n in [1, 1000], create n
// tasks carrying this round number, append to generated.
func (n *Node) generate(round int32) {
	count := rand.Intn(1000) + 1

	tasks := make([]task.Task, count)
	for i := 0; i < count; i++ {
		tasks[i] = task.Task{
			OriginHost: n.self.Host,
			OriginPort: n.self.Port,
			Round:      round,
			Payload:    rand.Int31(),
		}
	}

	n.mu.Lock()
	n.generated = append(n.generated, tasks...)
	n.readyToExecute = false
	n.mu.Unlock()

	n.stats.AddGenerated(int64(count))
}

// announce implements spec.md §4.3.2: send this node's own count onto
// the outgoing ring edge.
func (n *Node) announce() {
	if err := n.nextConn.Send(&wire.TasksCount{Origin: n.self.String(), Count: n.localCount()}); err != nil {
		log.Error("node: failed to announce count", "error", err)
	}
}

// handleTasksCount implements the receive side of spec.md §4.3.2:
// drop a count that has circled back to its origin, otherwise record
// it and forward it onward.
func (n *Node) handleTasksCount(msg *wire.TasksCount) {
	if msg.Origin == n.self.String() {
		return
	}

	n.mu.Lock()
	n.overlayCounts[msg.Origin] = msg.Count
	n.mu.Unlock()
	n.countCond.Broadcast()

	if err := n.nextConn.Send(msg); err != nil {
		log.Error("node: failed to forward count", "origin", msg.Origin, "error", err)
	}
}

// estimate implements spec.md §4.3.3: block until every other node's
// count has been heard at least once this round, then derive the fair
// share. Grounded on the teacher's pattern of condition-variable waits
// guarding shared controller state, used here in place of the busy-wait
// spec.md's design notes call out as a known source-level wart.
func (n *Node) estimate() {
	n.mu.Lock()
	for int32(len(n.overlayCounts)) < n.overlaySize-1 {
		n.countCond.Wait()
	}
	total := len(n.generated)
	for _, c := range n.overlayCounts {
		total += int(c)
	}
	n.balancedCount = ceilDiv(int32(total), n.overlaySize)
	n.mu.Unlock()
}

// localCount returns this node's current workload count: generated plus
// migrated-in tasks, the figure disseminated via TasksCount both at
// Announcing and after every migration.
func (n *Node) localCount() int32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return int32(len(n.generated) + len(n.migrated))
}

func ceilDiv(a, b int32) int32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
