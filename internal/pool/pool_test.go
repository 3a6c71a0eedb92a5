package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ChuLiYu/ringmesh/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitOrTimeout(t *testing.T, p *Pool) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.AwaitRoundComplete()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for round completion")
	}
}

func TestPoolExecutesAllTasksAndSignalsCompletion(t *testing.T) {
	var executed int32
	var completed []task.Task
	var mu sync.Mutex

	p := New(4, func(tk task.Task) error {
		atomic.AddInt32(&executed, 1)
		return nil
	}, func(tk task.Task) {
		mu.Lock()
		completed = append(completed, tk)
		mu.Unlock()
	})
	p.Start()
	defer p.Close()

	p.BeginRound()
	tasks := make([]task.Task, 0, 50)
	for i := 0; i < 50; i++ {
		tasks = append(tasks, task.Task{OriginHost: "n", OriginPort: 1, Round: 1, Payload: int32(i)})
	}
	require.NoError(t, p.AddTasks(tasks))

	awaitOrTimeout(t, p)

	assert.Equal(t, int32(50), atomic.LoadInt32(&executed))
	mu.Lock()
	assert.Len(t, completed, 50)
	mu.Unlock()
}

func TestPoolCanRunMultipleRounds(t *testing.T) {
	p := New(2, func(task.Task) error { return nil }, nil)
	p.Start()
	defer p.Close()

	for round := 0; round < 3; round++ {
		p.BeginRound()
		require.NoError(t, p.AddTasks([]task.Task{
			{OriginHost: "n", OriginPort: 1, Round: int32(round), Payload: 1},
			{OriginHost: "n", OriginPort: 1, Round: int32(round), Payload: 2},
		}))
		awaitOrTimeout(t, p)
	}
}

func TestPoolLatchFiresAtMostOncePerRound(t *testing.T) {
	var signals int32
	p := New(2, func(task.Task) error { return nil }, nil)
	p.Start()
	defer p.Close()

	p.BeginRound()
	require.NoError(t, p.AddTasks([]task.Task{{Payload: 1}, {Payload: 2}, {Payload: 3}}))
	awaitOrTimeout(t, p)

	// A second AwaitRoundComplete on the same round returns immediately
	// without a new signal being required.
	done := make(chan struct{})
	go func() {
		p.AwaitRoundComplete()
		atomic.AddInt32(&signals, 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second await should not block")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&signals))
}

func TestAddTasksAfterCloseReturnsError(t *testing.T) {
	p := New(2, func(task.Task) error { return nil }, nil)
	p.Start()
	p.Close()

	err := p.AddTasks([]task.Task{{Payload: 1}})
	assert.ErrorIs(t, err, ErrClosed)
}
