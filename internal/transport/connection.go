// Package transport implements one duplex byte-stream connection per
// peer: a dedicated sender goroutine draining an internally serialized
// send queue (enforcing per-connection FIFO ordering) and a dedicated
// receiver goroutine decoding one length-prefixed frame at a time and
// dispatching it synchronously to a handler.
//
// Grounded on the teacher's internal/raft.Transport (a per-peer
// connection abstraction) generalized from a cached gRPC client
// connection to a raw net.Conn with the sender/receiver split spec's
// wire layer calls for, and on the teacher's worker-pool pattern of a
// single goroutine draining a channel to serialize writes.
package transport

import (
	"log/slog"
	"net"
	"sync"

	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

var log = slog.Default()

// Handler receives every message decoded off a Connection, synchronously,
// in receive order. It must not block for long, since it runs on the
// connection's receiver goroutine.
type Handler func(peer task.Address, msg wire.Message)

// sendQueueSize bounds the per-connection outgoing queue. A connection
// whose peer stops reading eventually blocks senders, which is the
// correct backpressure behavior for this protocol's small, bursty
// message volume.
const sendQueueSize = 64

// Connection is one duplex byte-stream to a single peer.
type Connection struct {
	conn net.Conn
	peer task.Address

	sendCh  chan wire.Message
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	handler Handler
}

// New wraps an established net.Conn as a Connection to peer, starting
// its sender and receiver goroutines immediately. handler is invoked for
// every decoded frame until the connection closes.
func New(conn net.Conn, peer task.Address, handler Handler) *Connection {
	c := &Connection{
		conn:    conn,
		peer:    peer,
		sendCh:  make(chan wire.Message, sendQueueSize),
		closeCh: make(chan struct{}),
		handler: handler,
	}
	c.wg.Add(2)
	go c.senderLoop()
	go c.receiverLoop()
	return c
}

// Peer returns the address this connection is bound to.
func (c *Connection) Peer() task.Address { return c.peer }

// Send enqueues msg for delivery. It returns ErrClosed if the connection
// has already been closed; otherwise it does not block on network I/O —
// only on the internal queue filling up, which is the spec's intended
// backpressure.
func (c *Connection) Send(msg wire.Message) error {
	select {
	case <-c.closeCh:
		return ErrClosed
	default:
	}
	select {
	case c.sendCh <- msg:
		return nil
	case <-c.closeCh:
		return ErrClosed
	}
}

func (c *Connection) senderLoop() {
	defer c.wg.Done()
	for {
		select {
		case msg := <-c.sendCh:
			if err := wire.WriteMessage(c.conn, msg); err != nil {
				log.Error("transport: write failed, closing connection", "peer", c.peer, "error", err)
				c.Close()
				return
			}
		case <-c.closeCh:
			return
		}
	}
}

func (c *Connection) receiverLoop() {
	defer c.wg.Done()
	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			select {
			case <-c.closeCh:
				// Expected: Close() tore down the socket underneath us.
			default:
				log.Error("transport: read failed, closing connection", "peer", c.peer, "error", err)
			}
			c.Close()
			return
		}
		c.handler(c.peer, msg)
	}
}

// Close tears down the connection. Safe to call multiple times and
// concurrently with Send.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// Wait blocks until both the sender and receiver goroutines have exited.
func (c *Connection) Wait() {
	c.wg.Wait()
}
