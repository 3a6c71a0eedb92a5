package transport

import (
	"net"
	"testing"
	"time"

	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSendReceiveRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	received := make(chan wire.Message, 1)
	server := New(serverConn, task.Address{Host: "client", Port: 1}, func(_ task.Address, msg wire.Message) {
		received <- msg
	})
	defer server.Close()

	client := New(clientConn, task.Address{Host: "server", Port: 2}, func(task.Address, wire.Message) {})
	defer client.Close()

	require.NoError(t, client.Send(&wire.TaskInitiate{Round: 5}))

	select {
	case msg := <-received:
		assert.Equal(t, &wire.TaskInitiate{Round: 5}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestConnectionSendAfterCloseReturnsErrClosed(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	serverConn.Close()

	c := New(clientConn, task.Address{Host: "peer", Port: 1}, func(task.Address, wire.Message) {})
	c.Wait()

	err := c.Send(&wire.TaskInitiate{Round: 1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestListenerAcceptsAndHandshakes(t *testing.T) {
	identified := make(chan task.Address, 1)

	ln, err := Listen("127.0.0.1", 0, func(conn net.Conn) {
		peer, err := ReadHandshake(conn)
		require.NoError(t, err)
		identified <- peer
	})
	require.NoError(t, err)
	defer ln.Close()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, wire.WriteMessage(conn, &wire.RegisterRequest{Host: "node-a", Port: 9001}))

	select {
	case peer := <-identified:
		assert.Equal(t, task.Address{Host: "node-a", Port: 9001}, peer)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handshake")
	}
}
