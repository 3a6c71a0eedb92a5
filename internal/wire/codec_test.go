package wire

import (
	"bytes"
	"testing"

	"github.com/ChuLiYu/ringmesh/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg))
	got, err := ReadMessage(&buf)
	require.NoError(t, err)
	return got
}

func TestCodecRoundTripsEveryKind(t *testing.T) {
	cases := []Message{
		&RegisterRequest{Host: "node-a", Port: 9001},
		&RegisterResponse{Status: "ok", Info: "welcome"},
		&MessagingNodesList{Peers: []string{"a:1", "b:2", "c:3"}, PoolSize: 4, OverlaySize: 3},
		&TaskInitiate{Round: 7},
		&TasksCount{Origin: "node-a:9001", Count: 42},
		&CheckStatus{Deficit: 13},
		&PushRequest{Total: 500},
		&MigrateTasks{Batch: []task.Task{
			{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 111},
			{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 222},
		}},
		&MigrateResponse{},
		&StatusResponse{},
		&TaskComplete{Host: "node-a", Port: 9001},
		&PullTrafficSummary{},
		&TrafficSummary{Host: "node-a", Port: 9001, Generated: 100, Pushed: 10, Pulled: 5, Completed: 95},
	}

	for _, want := range cases {
		t.Run(want.Kind().String(), func(t *testing.T) {
			got := roundTrip(t, want)
			assert.Equal(t, want.Kind(), got.Kind())
			assert.Equal(t, want, got)
		})
	}
}

func TestReadMessageRejectsZeroLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})
	_, err := ReadMessage(buf)
	assert.Error(t, err)
}

func TestReadMessageRejectsOversizeLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	_, err := ReadMessage(buf)
	assert.Error(t, err)
}

func TestReadMessageRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1})
	buf.WriteByte(0xFE)
	_, err := ReadMessage(&buf)
	assert.Error(t, err)
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &TaskInitiate{Round: 1}))
	require.NoError(t, WriteMessage(&buf, &TaskInitiate{Round: 2}))

	first, err := ReadMessage(&buf)
	require.NoError(t, err)
	second, err := ReadMessage(&buf)
	require.NoError(t, err)

	assert.Equal(t, &TaskInitiate{Round: 1}, first)
	assert.Equal(t, &TaskInitiate{Round: 2}, second)
}
