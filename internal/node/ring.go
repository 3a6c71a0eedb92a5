package node

import (
	"fmt"
	"net"

	"github.com/ChuLiYu/ringmesh/internal/pool"
	"github.com/ChuLiYu/ringmesh/internal/pow"
	"github.com/ChuLiYu/ringmesh/internal/transport"
	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

// setupRing turns a MessagingNodesList into this node's next/prev
// neighbor addresses and Connections, and starts its worker pool.
// Per spec.md §6, REGISTER_REQUEST doubles as the ring-edge handshake:
// the dialing node sends one first so the dialed node can identify it.
func (n *Node) setupRing(list *wire.MessagingNodesList) error {
	peers := make([]task.Address, len(list.Peers))
	selfIdx := -1
	for i, s := range list.Peers {
		addr, err := task.ParseAddress(s)
		if err != nil {
			return fmt.Errorf("node: parsing peer %q: %w", s, err)
		}
		peers[i] = addr
		if addr == n.self {
			selfIdx = i
		}
	}
	if selfIdx == -1 {
		return fmt.Errorf("node: self address %s not present in peer list", n.self)
	}

	count := len(peers)
	n.next = peers[(selfIdx+1)%count]
	n.prev = peers[(selfIdx-1+count)%count]
	n.overlaySize = list.OverlaySize

	nextConn, err := transport.Dial(n.next, n.handleRingMessage)
	if err != nil {
		return fmt.Errorf("node: dialing next %s: %w", n.next, err)
	}
	if err := nextConn.Send(&wire.RegisterRequest{Host: n.self.Host, Port: n.self.Port}); err != nil {
		return fmt.Errorf("node: handshaking with next %s: %w", n.next, err)
	}
	n.nextConn = nextConn

	prevConn, err := n.awaitPrevConnection()
	if err != nil {
		return fmt.Errorf("node: waiting for prev %s: %w", n.prev, err)
	}
	n.prevConn = prevConn

	n.pool = pool.New(int(list.PoolSize), func(t task.Task) error {
		return pow.Compute(t)
	}, func(task.Task) {
		n.stats.AddCompleted(1)
	})
	n.pool.Start()

	return nil
}

func (n *Node) awaitPrevConnection() (*transport.Connection, error) {
	result := <-n.ringAcceptResult
	if result.err != nil {
		return nil, result.err
	}
	return result.conn, nil
}

type ringAcceptResult struct {
	conn *transport.Connection
	err  error
}

// acceptRingConn is the Listener's onAccept callback: it reads the
// handshake off a freshly accepted connection, wraps it as a
// Connection, and hands it to the waiting ring-setup goroutine.
func (n *Node) acceptRingConn(conn net.Conn) {
	peer, err := transport.ReadHandshake(conn)
	if err != nil {
		n.ringAcceptResult <- ringAcceptResult{err: fmt.Errorf("node: ring handshake: %w", err)}
		return
	}
	c := transport.New(conn, peer, n.handleRingMessage)
	n.ringAcceptResult <- ringAcceptResult{conn: c}
}
