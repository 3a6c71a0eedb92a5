package transport

import (
	"fmt"
	"net"

	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

// Dial opens a TCP connection to addr and wraps it as a Connection to
// that peer. The caller is responsible for sending any handshake message
// the peer expects (e.g. a RegisterRequest identifying the dialing
// node), since the handshake shape is protocol-specific, not
// transport-level.
func Dial(addr task.Address, handler Handler) (*Connection, error) {
	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return New(conn, addr, handler), nil
}

// ReadHandshake synchronously reads exactly one frame off a freshly
// accepted net.Conn, before any Connection goroutines exist to race with
// it. It's used on the accept side of a ring edge to learn which peer
// just dialed in, by reading the RegisterRequest handshake a dialing
// node sends first identifying itself.
func ReadHandshake(conn net.Conn) (task.Address, error) {
	msg, err := wire.ReadMessage(conn)
	if err != nil {
		return task.Address{}, fmt.Errorf("transport: read handshake: %w", err)
	}
	req, ok := msg.(*wire.RegisterRequest)
	if !ok {
		return task.Address{}, fmt.Errorf("transport: expected RegisterRequest handshake, got %s", msg.Kind())
	}
	return task.Address{Host: req.Host, Port: req.Port}, nil
}
