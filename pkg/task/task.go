// Package task defines the core domain value types shared by every layer
// of the ring overlay: the unit of work (Task) and the stable identifier
// for a ring peer (Address).
package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Task is an immutable unit of work. Identity is the 4-tuple of all
// fields: two tasks are equal only if every field matches. A Task is
// created once by its origin node and never mutated; it may be migrated
// between nodes but is never duplicated.
type Task struct {
	OriginHost string `json:"origin_host"`
	OriginPort int32  `json:"origin_port"`
	Round      int32  `json:"round"`
	Payload    int32  `json:"payload"`
}

// Equal reports whether two tasks share the same identity.
func (t Task) Equal(o Task) bool {
	return t.OriginHost == o.OriginHost &&
		t.OriginPort == o.OriginPort &&
		t.Round == o.Round &&
		t.Payload == o.Payload
}

// Address is a stable "host:port" identifier for a ring peer, used both
// as a map key for overlay bookkeeping and as the origin marker carried
// on TasksCount messages.
type Address struct {
	Host string
	Port int32
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// IsZero reports whether a has never been set.
func (a Address) IsZero() bool {
	return a.Host == "" && a.Port == 0
}

// ParseAddress parses a "host:port" string back into an Address. Ports
// are OS-assigned and ephemeral, so the string form is the only stable
// representation that travels on the wire.
func ParseAddress(s string) (Address, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return Address{}, fmt.Errorf("task: invalid address %q: missing port", s)
	}
	host, portStr := s[:idx], s[idx+1:]
	port, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("task: invalid address %q: %w", s, err)
	}
	return Address{Host: host, Port: int32(port)}, nil
}
