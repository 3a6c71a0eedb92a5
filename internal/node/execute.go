package node

import "github.com/ChuLiYu/ringmesh/pkg/task"

// execute implements spec.md §4.3.5: hand generated and migrated tasks
// to the worker pool and wait for the round to drain. Setting
// readyToExecute here, before generated/migrated are drained, latches
// spec.md §3's monotonic-progress invariant: any CheckStatus or
// PushRequest arriving after this point is declined or dropped by
// balance.go's handlers, and any late MigrateTasks batch is queued into
// migrated for next round instead of being folded into this round's
// snapshot.
func (n *Node) execute() {
	n.mu.Lock()
	n.readyToExecute = true
	tasks := make([]task.Task, 0, len(n.generated)+len(n.migrated))
	tasks = append(tasks, n.generated...)
	tasks = append(tasks, n.migrated...)
	n.generated = nil
	n.migrated = nil
	n.mu.Unlock()

	// The pool's latch only closes after a task executes, so a node left
	// with no tasks has nothing to wait for.
	if len(tasks) == 0 {
		return
	}
	n.pool.BeginRound()
	if err := n.pool.AddTasks(tasks); err != nil {
		log.Error("node: failed to enqueue tasks", "error", err)
	}
	n.pool.AwaitRoundComplete()
}
