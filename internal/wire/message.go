// Package wire implements the ring overlay's wire protocol: a fixed set
// of message kinds (see spec §6) framed as a 4-byte big-endian length
// prefix followed by a 1-byte type tag and a JSON payload.
//
// Framing is grounded on the same shape used by libp2p compute-protocol
// streams in the retrieval pack (1-byte tag, big-endian length, JSON
// body) — this wire layer just moves it from a libp2p stream onto a
// plain net.Conn, per spec's explicit length-prefixed framing
// requirement.
package wire

import "github.com/ChuLiYu/ringmesh/pkg/task"

// Kind identifies a message's wire type with a single byte tag.
type Kind byte

const (
	KindRegisterRequest    Kind = 1
	KindRegisterResponse   Kind = 2
	KindMessagingNodesList Kind = 3
	KindTaskInitiate       Kind = 4
	KindTasksCount         Kind = 5
	KindCheckStatus        Kind = 6
	KindPushRequest        Kind = 7
	KindMigrateTasks       Kind = 8
	KindMigrateResponse    Kind = 9
	KindStatusResponse     Kind = 10
	KindTaskComplete       Kind = 11
	KindPullTrafficSummary Kind = 12
	KindTrafficSummary     Kind = 13
)

func (k Kind) String() string {
	switch k {
	case KindRegisterRequest:
		return "REGISTER_REQUEST"
	case KindRegisterResponse:
		return "REGISTER_RESPONSE"
	case KindMessagingNodesList:
		return "MESSAGING_NODES_LIST"
	case KindTaskInitiate:
		return "TASK_INITIATE"
	case KindTasksCount:
		return "TASKS_COUNT"
	case KindCheckStatus:
		return "CHECK_STATUS"
	case KindPushRequest:
		return "PUSH_REQUEST"
	case KindMigrateTasks:
		return "MIGRATE_TASKS"
	case KindMigrateResponse:
		return "MIGRATE_RESPONSE"
	case KindStatusResponse:
		return "STATUS_RESPONSE"
	case KindTaskComplete:
		return "TASK_COMPLETE"
	case KindPullTrafficSummary:
		return "PULL_TRAFFIC_SUMMARY"
	case KindTrafficSummary:
		return "TRAFFIC_SUMMARY"
	default:
		return "UNKNOWN"
	}
}

// Message is implemented by every concrete wire payload.
type Message interface {
	Kind() Kind
}

// RegisterRequest is sent node->registry to join the overlay, and
// node->peer as the ring-edge handshake that tells the dialed peer which
// address is calling (spec §6 lists both directions for this kind).
type RegisterRequest struct {
	Host string `json:"host"`
	Port int32  `json:"port"`
}

func (RegisterRequest) Kind() Kind { return KindRegisterRequest }

// RegisterResponse is the registry's reply to RegisterRequest.
type RegisterResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
}

func (RegisterResponse) Kind() Kind { return KindRegisterResponse }

// MessagingNodesList hands a freshly-registered node its ring-ordered
// peer list and the overlay-wide constants it needs for the rest of the
// protocol.
type MessagingNodesList struct {
	Peers       []string `json:"peers"` // ring order, "host:port" each
	PoolSize    int32    `json:"pool_size"`
	OverlaySize int32    `json:"overlay_size"`
}

func (MessagingNodesList) Kind() Kind { return KindMessagingNodesList }

// TaskInitiate starts one round on the receiving node.
type TaskInitiate struct {
	Round int32 `json:"round"`
}

func (TaskInitiate) Kind() Kind { return KindTaskInitiate }

// TasksCount disseminates a node's current local task count around the
// ring. Origin is used both to detect a full loop (drop on return to
// sender) and as the overlayTasksCount map key.
type TasksCount struct {
	Origin string `json:"origin"`
	Count  int32  `json:"count"`
}

func (TasksCount) Kind() Kind { return KindTasksCount }

// CheckStatus is sent to a neighbor believed to hold surplus tasks,
// requesting a migration batch. Deficit is informational context for the
// receiver, not a constraint on the batch it may offer.
type CheckStatus struct {
	Deficit int32 `json:"deficit"`
}

func (CheckStatus) Kind() Kind { return KindCheckStatus }

// PushRequest is sent by an overloaded node to a neighbor to solicit that
// neighbor's current deficit.
type PushRequest struct {
	Total int32 `json:"total"`
}

func (PushRequest) Kind() Kind { return KindPushRequest }

// MigrateTasks carries a migration batch of at most 10 tasks (the
// sending node's batchSize).
type MigrateTasks struct {
	Batch []task.Task `json:"batch"`
}

func (MigrateTasks) Kind() Kind { return KindMigrateTasks }

// MigrateResponse acknowledges a MigrateTasks delivery, clearing the
// sender's isMigrating guard.
type MigrateResponse struct{}

func (MigrateResponse) Kind() Kind { return KindMigrateResponse }

// StatusResponse is sent in reply to a CheckStatus the receiver declined
// to act on (already mid-migration, or already executing its round), so
// the sender's connection is never
// left expecting a reply that will never arrive.
type StatusResponse struct{}

func (StatusResponse) Kind() Kind { return KindStatusResponse }

// TaskComplete reports round completion to the registry.
type TaskComplete struct {
	Host string `json:"host"`
	Port int32  `json:"port"`
}

func (TaskComplete) Kind() Kind { return KindTaskComplete }

// PullTrafficSummary asks a node to report and reset its counters.
type PullTrafficSummary struct{}

func (PullTrafficSummary) Kind() Kind { return KindPullTrafficSummary }

// TrafficSummary is the node's reply to PullTrafficSummary.
type TrafficSummary struct {
	Host      string `json:"host"`
	Port      int32  `json:"port"`
	Generated int64  `json:"generated"`
	Pushed    int64  `json:"pushed"`
	Pulled    int64  `json:"pulled"`
	Completed int64  `json:"completed"`
}

func (TrafficSummary) Kind() Kind { return KindTrafficSummary }
