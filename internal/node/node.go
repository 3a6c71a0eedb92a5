// Package node implements the per-node round controller: the state
// machine that drives one node through Generating, Announcing,
// Estimating, Balancing, Executing, and Reporting for each round the
// registry initiates.
//
// Grounded on the teacher's internal/controller.Controller: a single
// mutex-guarded struct owning all round state, a small set of
// goroutines (here, one per Connection plus the round-driving loop
// started from Run) coordinated through channels and a condition
// variable rather than the teacher's four dispatch/result/timeout/
// snapshot loops, since this protocol has no crash-recovery concerns to
// replay on startup.
package node

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/ringmesh/internal/pool"
	"github.com/ChuLiYu/ringmesh/internal/stats"
	"github.com/ChuLiYu/ringmesh/internal/transport"
	"github.com/ChuLiYu/ringmesh/internal/wire"
	"github.com/ChuLiYu/ringmesh/pkg/task"
)

var log = slog.Default()

// batchSize is the per-migration task cap (spec.md §4.3.4).
const batchSize = 10

// Config supplies everything a Node needs to join an overlay and run
// rounds. PoolSize and OverlaySize arrive from the registry's
// MessagingNodesList and are not part of Config; Config only covers
// what the node itself must know before it registers.
type Config struct {
	SelfHost     string
	RegistryAddr task.Address
	// Registry is where this node's Prometheus stats counters are
	// registered. Defaults to prometheus.DefaultRegisterer if nil.
	Registry prometheus.Registerer
}

// Node is the per-process, per-overlay controller. Exactly one Node
// runs per node process; its lifecycle is init on startup, run rounds
// until killed, per spec.md §9.
type Node struct {
	cfg  Config
	self task.Address

	registryConn *transport.Connection
	listener     *transport.Listener

	mu             sync.Mutex
	generated      []task.Task
	migrated       []task.Task
	overlayCounts  map[string]int32
	overlaySize    int32
	balancedCount  int32
	isMigrating    bool
	readyToExecute bool
	countCond      *sync.Cond

	next     task.Address
	prev     task.Address
	nextConn *transport.Connection
	prevConn *transport.Connection

	pool  *pool.Pool
	stats *stats.Collector

	ringReadyCh      chan *wire.MessagingNodesList
	taskInitiateCh   chan int32
	pullSummaryCh    chan struct{}
	ringAcceptResult chan ringAcceptResult
}

// New constructs a Node. Registration and ring setup happen in Run.
func New(cfg Config) *Node {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}
	n := &Node{
		cfg:              cfg,
		overlayCounts:    make(map[string]int32),
		ringReadyCh:      make(chan *wire.MessagingNodesList, 1),
		taskInitiateCh:   make(chan int32, 1),
		pullSummaryCh:    make(chan struct{}, 1),
		ringAcceptResult: make(chan ringAcceptResult, 1),
	}
	n.countCond = sync.NewCond(&n.mu)
	return n
}

// Run registers with the registry, waits for the ring to be set up, and
// then drives rounds forever (until the process is killed — there is no
// graceful shutdown across rounds, per spec.md §5).
func (n *Node) Run() error {
	listener, err := transport.Listen(n.cfg.SelfHost, 0, n.acceptRingConn)
	if err != nil {
		return fmt.Errorf("node: listen: %w", err)
	}
	n.listener = listener

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return fmt.Errorf("node: unexpected listener address type %T", listener.Addr())
	}
	n.self = task.Address{Host: n.cfg.SelfHost, Port: int32(tcpAddr.Port)}

	n.stats = stats.New(n.cfg.Registry, n.self.String())

	conn, err := transport.Dial(n.cfg.RegistryAddr, n.handleRegistryMessage)
	if err != nil {
		return fmt.Errorf("node: dial registry: %w", err)
	}
	n.registryConn = conn

	if err := n.registryConn.Send(&wire.RegisterRequest{Host: n.self.Host, Port: n.self.Port}); err != nil {
		return fmt.Errorf("node: register: %w", err)
	}

	list := <-n.ringReadyCh
	if err := n.setupRing(list); err != nil {
		return fmt.Errorf("node: ring setup: %w", err)
	}

	log.Info("node ready", "self", n.self.String(), "next", n.next.String(), "prev", n.prev.String())

	for {
		select {
		case round := <-n.taskInitiateCh:
			if err := n.runRound(round); err != nil {
				log.Error("node: round failed", "round", round, "error", err)
				continue
			}
			if err := n.registryConn.Send(&wire.TaskComplete{Host: n.self.Host, Port: n.self.Port}); err != nil {
				log.Error("node: failed to report task complete", "error", err)
			}
		case <-n.pullSummaryCh:
			n.reportTrafficSummary()
		}
	}
}

// Stats returns a snapshot of this node's current traffic counters,
// without resetting them. Exposed for tests and operational tooling
// outside the registry's PullTrafficSummary protocol.
func (n *Node) Stats() stats.Snapshot {
	return n.stats.Snapshot()
}

// Self returns this node's registered address. Only valid after Run has
// completed its listen step.
func (n *Node) Self() task.Address {
	return n.self
}

// connFor returns the Connection bound to peer, or nil if peer is
// neither ring neighbor.
func (n *Node) connFor(peer task.Address) *transport.Connection {
	if peer == n.next {
		return n.nextConn
	}
	if peer == n.prev {
		return n.prevConn
	}
	return nil
}

// handleRegistryMessage dispatches messages arriving on the registry
// connection. It runs on that Connection's receiver goroutine.
func (n *Node) handleRegistryMessage(_ task.Address, msg wire.Message) {
	switch m := msg.(type) {
	case *wire.RegisterResponse:
		log.Info("registered", "status", m.Status, "info", m.Info)
	case *wire.MessagingNodesList:
		n.ringReadyCh <- m
	case *wire.TaskInitiate:
		n.taskInitiateCh <- m.Round
	case *wire.PullTrafficSummary:
		n.pullSummaryCh <- struct{}{}
	default:
		log.Warn("node: unexpected message on registry connection", "kind", msg.Kind())
	}
}

// handleRingMessage dispatches messages arriving on a ring neighbor
// connection (either nextConn or prevConn). It runs on that Connection's
// receiver goroutine, so handlers that mutate node state must take mu.
func (n *Node) handleRingMessage(peer task.Address, msg wire.Message) {
	switch m := msg.(type) {
	case *wire.TasksCount:
		n.handleTasksCount(m)
	case *wire.CheckStatus:
		n.handleCheckStatus(peer, m)
	case *wire.PushRequest:
		n.handlePushRequest(peer, m)
	case *wire.MigrateTasks:
		n.handleMigrateTasks(peer, m)
	case *wire.MigrateResponse:
		n.handleMigrateResponse()
	case *wire.StatusResponse:
		// No data, no action: the CheckStatus sender simply stops
		// expecting MigrateTasks from this neighbor this cycle.
	default:
		log.Warn("node: unexpected message on ring connection", "peer", peer.String(), "kind", msg.Kind())
	}
}

func absInt32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
