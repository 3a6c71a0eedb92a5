package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskEqual(t *testing.T) {
	a := Task{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 42}
	b := Task{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 42}
	c := Task{OriginHost: "node-a", OriginPort: 9001, Round: 1, Payload: 43}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestAddressStringRoundTrip(t *testing.T) {
	addr := Address{Host: "node-a", Port: 50123}
	assert.Equal(t, "node-a:50123", addr.String())

	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)
}

func TestParseAddressRejectsMissingPort(t *testing.T) {
	_, err := ParseAddress("node-a")
	assert.Error(t, err)
}

func TestAddressIsZero(t *testing.T) {
	var a Address
	assert.True(t, a.IsZero())
	assert.False(t, (Address{Host: "x"}).IsZero())
}
