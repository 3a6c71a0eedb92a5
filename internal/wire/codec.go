package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single decoded frame to guard against a
// corrupted or malicious length prefix forcing an unbounded allocation.
const maxFrameSize = 16 << 20 // 16 MiB

// newEmpty returns a zero-value pointer for the given kind, ready for
// json.Unmarshal.
func newEmpty(k Kind) (Message, error) {
	switch k {
	case KindRegisterRequest:
		return &RegisterRequest{}, nil
	case KindRegisterResponse:
		return &RegisterResponse{}, nil
	case KindMessagingNodesList:
		return &MessagingNodesList{}, nil
	case KindTaskInitiate:
		return &TaskInitiate{}, nil
	case KindTasksCount:
		return &TasksCount{}, nil
	case KindCheckStatus:
		return &CheckStatus{}, nil
	case KindPushRequest:
		return &PushRequest{}, nil
	case KindMigrateTasks:
		return &MigrateTasks{}, nil
	case KindMigrateResponse:
		return &MigrateResponse{}, nil
	case KindStatusResponse:
		return &StatusResponse{}, nil
	case KindTaskComplete:
		return &TaskComplete{}, nil
	case KindPullTrafficSummary:
		return &PullTrafficSummary{}, nil
	case KindTrafficSummary:
		return &TrafficSummary{}, nil
	default:
		return nil, fmt.Errorf("wire: unknown message kind %d", k)
	}
}

// Encode serializes msg as [4-byte big-endian length][1-byte kind][JSON
// payload], where length covers the kind byte and the payload.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s: %w", msg.Kind(), err)
	}

	frame := make([]byte, 4+1+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(1+len(body)))
	frame[4] = byte(msg.Kind())
	copy(frame[5:], body)
	return frame, nil
}

// WriteMessage encodes msg and writes it to w in a single Write call.
func WriteMessage(w io.Writer, msg Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// ReadMessage reads one length-prefixed frame from r and decodes it into
// a concrete Message (returned as a pointer to the kind's struct).
func ReadMessage(r io.Reader) (Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 || length > maxFrameSize {
		return nil, fmt.Errorf("wire: invalid frame length %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame body: %w", err)
	}

	kind := Kind(payload[0])
	msg, err := newEmpty(kind)
	if err != nil {
		return nil, err
	}
	if len(payload) > 1 {
		if err := json.Unmarshal(payload[1:], msg); err != nil {
			return nil, fmt.Errorf("wire: unmarshal %s: %w", kind, err)
		}
	}
	return msg, nil
}
