package pow

import (
	"testing"

	"github.com/ChuLiYu/ringmesh/pkg/task"
	"github.com/stretchr/testify/assert"
)

func TestComputeNeverFails(t *testing.T) {
	cases := []task.Task{
		{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 0},
		{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: -500},
		{OriginHost: "node-b", OriginPort: 9002, Round: 7, Payload: 2147483647},
	}
	for _, tc := range cases {
		assert.NoError(t, Compute(tc))
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	tk := task.Task{OriginHost: "node-a", OriginPort: 9001, Round: 3, Payload: 42}
	assert.NoError(t, Compute(tk))
	assert.NoError(t, Compute(tk))
}
