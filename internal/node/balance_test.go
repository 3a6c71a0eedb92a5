package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalanceTolerance(t *testing.T) {
	assert.Equal(t, int32(1), balanceTolerance(0))
	assert.Equal(t, int32(1), balanceTolerance(5))
	assert.Equal(t, int32(1), balanceTolerance(10))
	assert.Equal(t, int32(2), balanceTolerance(11))
	assert.Equal(t, int32(26), balanceTolerance(258))
}

func TestIsGloballyBalancedNoPeers(t *testing.T) {
	assert.True(t, isGloballyBalanced(map[string]int32{}, 100, 10))
}

func TestIsGloballyBalancedThresholds(t *testing.T) {
	counts := map[string]int32{
		"a": 100, // within
		"b": 105, // within
		"c": 95,  // within
		"d": 500, // outside
	}
	// 3/4 = 75% >= 70%: balanced
	assert.True(t, isGloballyBalanced(counts, 100, 10))

	counts["b"] = 500
	counts["c"] = 500
	// 1/4 = 25% < 70%: not balanced
	assert.False(t, isGloballyBalanced(counts, 100, 10))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, int32(4), ceilDiv(10, 3))
	assert.Equal(t, int32(0), ceilDiv(0, 3))
	assert.Equal(t, int32(0), ceilDiv(5, 0))
	assert.Equal(t, int32(1), ceilDiv(1, 1))
}

func TestAbsInt32(t *testing.T) {
	assert.Equal(t, int32(5), absInt32(5))
	assert.Equal(t, int32(5), absInt32(-5))
	assert.Equal(t, int32(0), absInt32(0))
}
