// Package registry implements the minimal ring registry spec.md treats
// as an external collaborator: it admits nodes, hands each one its ring
// neighbors, and drives rounds by sending TASK_INITIATE and collecting
// TASK_COMPLETE / TRAFFIC_SUMMARY. It is explicitly outside the
// 1,400-line core budget — a small demo harness, not a production
// scheduler, in the spirit of the teacher's cmd/demo and cmd/queue
// pair of small standalone entry points.
package registry

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/ChuLiYu/ringmesh/internal/transport"
	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

var log = slog.Default()

// Registry admits exactly Expected nodes, then supports repeated
// setup-overlay / start cycles against that fixed node set.
type Registry struct {
	expected int
	listener *transport.Listener

	mu       sync.Mutex
	peers    []task.Address
	conns    map[string]*transport.Connection
	allIn    chan struct{}
	allInSet bool

	completeCh chan task.Address
	summaryCh  chan *wire.TrafficSummary
}

// New starts the registry listening on host:port, accepting connections
// until expected nodes have registered.
func New(host string, port, expected int) (*Registry, error) {
	r := &Registry{
		expected:   expected,
		conns:      make(map[string]*transport.Connection),
		allIn:      make(chan struct{}),
		completeCh: make(chan task.Address, expected),
		summaryCh:  make(chan *wire.TrafficSummary, expected),
	}

	listener, err := transport.Listen(host, port, r.acceptConn)
	if err != nil {
		return nil, fmt.Errorf("registry: listen: %w", err)
	}
	r.listener = listener
	return r, nil
}

// Addr returns the registry's bound address, for nodes to dial.
func (r *Registry) Addr() net.Addr { return r.listener.Addr() }

// AwaitAllRegistered blocks until Expected nodes have registered.
func (r *Registry) AwaitAllRegistered() {
	<-r.allIn
}

func (r *Registry) acceptConn(conn net.Conn) {
	peer, err := transport.ReadHandshake(conn)
	if err != nil {
		log.Error("registry: handshake failed", "error", err)
		conn.Close()
		return
	}

	c := transport.New(conn, peer, r.handleMessage)

	r.mu.Lock()
	if len(r.peers) >= r.expected {
		r.mu.Unlock()
		log.Warn("registry: rejecting registration beyond expected node count", "peer", peer.String())
		c.Close()
		return
	}
	r.peers = append(r.peers, peer)
	r.conns[peer.String()] = c
	full := len(r.peers) == r.expected && !r.allInSet
	if full {
		r.allInSet = true
	}
	r.mu.Unlock()

	if err := c.Send(&wire.RegisterResponse{Status: "ok", Info: "registered"}); err != nil {
		log.Error("registry: failed to ack registration", "peer", peer.String(), "error", err)
	}

	log.Info("registry: node registered", "peer", peer.String())

	if full {
		close(r.allIn)
	}
}

func (r *Registry) handleMessage(peer task.Address, msg wire.Message) {
	switch m := msg.(type) {
	case *wire.TaskComplete:
		r.completeCh <- task.Address{Host: m.Host, Port: m.Port}
	case *wire.TrafficSummary:
		r.summaryCh <- m
	default:
		log.Warn("registry: unexpected message", "peer", peer.String(), "kind", msg.Kind())
	}
}

// SetupOverlay sends every registered node the ring-ordered peer list,
// pool size, and overlay size, per the operator's setup-overlay
// command.
func (r *Registry) SetupOverlay(poolSize int32) error {
	if poolSize < 2 || poolSize > 16 {
		return fmt.Errorf("registry: poolSize %d outside [2, 16]", poolSize)
	}
	r.mu.Lock()
	peerStrings := make([]string, len(r.peers))
	for i, p := range r.peers {
		peerStrings[i] = p.String()
	}
	conns := make([]*transport.Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	overlaySize := int32(len(r.peers))
	r.mu.Unlock()

	list := &wire.MessagingNodesList{
		Peers:       peerStrings,
		PoolSize:    poolSize,
		OverlaySize: overlaySize,
	}
	for _, c := range conns {
		if err := c.Send(list); err != nil {
			log.Error("registry: failed to send messaging nodes list", "peer", c.Peer().String(), "error", err)
		}
	}
	return nil
}

// RunRounds drives n rounds, waiting for every node's TaskComplete
// between each, per the operator's start command.
func (r *Registry) RunRounds(n int) error {
	r.mu.Lock()
	conns := append([]*transport.Connection(nil), connsOf(r.conns)...)
	expected := len(r.peers)
	r.mu.Unlock()

	for round := int32(1); round <= int32(n); round++ {
		for _, c := range conns {
			if err := c.Send(&wire.TaskInitiate{Round: round}); err != nil {
				log.Error("registry: failed to send task initiate", "peer", c.Peer().String(), "error", err)
			}
		}

		for i := 0; i < expected; i++ {
			done := <-r.completeCh
			log.Info("registry: node completed round", "round", round, "node", done.String())
		}
	}
	return nil
}

// CollectSummaries asks every node for its traffic summary, logs each as
// it arrives, and returns the full set so a caller can check spec.md
// §8's conservation invariant (sum(generated) == sum(completed)) and the
// other end-to-end properties the per-node counters alone can't show.
func (r *Registry) CollectSummaries() ([]wire.TrafficSummary, error) {
	r.mu.Lock()
	conns := append([]*transport.Connection(nil), connsOf(r.conns)...)
	expected := len(r.peers)
	r.mu.Unlock()

	for _, c := range conns {
		if err := c.Send(&wire.PullTrafficSummary{}); err != nil {
			log.Error("registry: failed to request traffic summary", "peer", c.Peer().String(), "error", err)
		}
	}

	summaries := make([]wire.TrafficSummary, 0, expected)
	for i := 0; i < expected; i++ {
		summary := <-r.summaryCh
		log.Info("registry: traffic summary",
			"host", summary.Host, "port", summary.Port,
			"generated", summary.Generated, "pushed", summary.Pushed,
			"pulled", summary.Pulled, "completed", summary.Completed,
		)
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

func connsOf(m map[string]*transport.Connection) []*transport.Connection {
	out := make([]*transport.Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
