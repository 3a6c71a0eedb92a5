// Package pow stands in for the proof-of-work computation spec treats
// as an opaque, deterministic, non-failing function of a task's fields.
// It performs real CPU-bound work — grinding SHA-256 until a
// target-prefix digest is found — so the worker pool's concurrency is
// actually exercised, while always returning nil, exactly as the
// protocol assumes.
package pow

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ChuLiYu/ringmesh/pkg/task"
)

// targetZeroBits bounds how many leading zero bits of the digest must
// be zero before the grind stops. Kept small: a task takes about
// 2^12 = 4096 attempts on average, on the order of a millisecond.
const targetZeroBits = 12

// Compute grinds SHA-256(task fields || nonce) until the digest's
// leading targetZeroBits bits are all zero, or a deterministic maximum
// number of attempts is reached. It never returns a non-nil error: the
// proof-of-work is assumed deterministic and non-failing per spec.
func Compute(t task.Task) error {
	base := taskBytes(t)
	var nonceBuf [4]byte

	for nonce := uint32(0); nonce < maxAttempts(t); nonce++ {
		binary.BigEndian.PutUint32(nonceBuf[:], nonce)
		h := sha256.New()
		h.Write(base)
		h.Write(nonceBuf[:])
		digest := h.Sum(nil)
		if leadingZeroBits(digest) >= targetZeroBits {
			return nil
		}
	}
	return nil
}

func taskBytes(t task.Task) []byte {
	buf := make([]byte, 0, len(t.OriginHost)+12)
	buf = append(buf, t.OriginHost...)
	var rest [12]byte
	binary.BigEndian.PutUint32(rest[0:4], uint32(t.OriginPort))
	binary.BigEndian.PutUint32(rest[4:8], uint32(t.Round))
	binary.BigEndian.PutUint32(rest[8:12], uint32(t.Payload))
	return append(buf, rest[:]...)
}

// maxAttempts derives a bounded, deterministic attempt ceiling from the
// task's payload so Compute always terminates without relying on
// finding a qualifying digest.
func maxAttempts(t task.Task) uint32 {
	return 1<<16 + uint32(t.Payload)&1023
}

func leadingZeroBits(digest []byte) int {
	count := 0
	for _, b := range digest {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}
