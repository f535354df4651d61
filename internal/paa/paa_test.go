package paa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/epc-sgw/internal/messages"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	pool, err := NewIPv4Pool("192.0.2.0/29")
	require.NoError(t, err)
	return New(pool, zap.NewNop())
}

func TestCoordinator_IPv4AllocatesOnlyWithNASSignalling(t *testing.T) {
	c := newTestCoordinator(t)

	result, err := c.Allocate(messages.PDNTypeIPv4, false)
	require.NoError(t, err)
	assert.True(t, result.IsZero())

	result, err = c.Allocate(messages.PDNTypeIPv4, true)
	require.NoError(t, err)
	assert.False(t, result.IsZero())
	assert.NotNil(t, result.IPv4)
}

func TestCoordinator_IPv6IsStubbed(t *testing.T) {
	c := newTestCoordinator(t)
	result, err := c.Allocate(messages.PDNTypeIPv6, true)
	require.NoError(t, err)
	assert.True(t, result.IsZero())

	_, err = c.AllocV6()
	assert.ErrorIs(t, err, ErrUnsupportedAddressFamily)
}

func TestCoordinator_IPv4OrV6FallsBackToV6OnExhaustion(t *testing.T) {
	pool, err := NewIPv4Pool("192.0.2.0/30") // only 2 usable addresses
	require.NoError(t, err)
	c := New(pool, zap.NewNop())

	_, err = c.Allocate(messages.PDNTypeIPv4OrV6, true)
	require.NoError(t, err)
	_, err = c.Allocate(messages.PDNTypeIPv4OrV6, true)
	require.NoError(t, err)

	// pool exhausted; IPv6 fallback is also unsupported, so the combined
	// policy reports failure.
	_, err = c.Allocate(messages.PDNTypeIPv4OrV6, true)
	assert.Error(t, err)
}

func TestCoordinator_IPv4AndV6LogsButContinuesOnPartialFailure(t *testing.T) {
	c := newTestCoordinator(t)
	result, err := c.Allocate(messages.PDNTypeIPv4AndV6, true)
	require.NoError(t, err)
	assert.NotNil(t, result.IPv4)
	assert.Nil(t, result.IPv6)
}

func TestCoordinator_UnknownPDNTypePanics(t *testing.T) {
	c := newTestCoordinator(t)
	assert.Panics(t, func() {
		c.Allocate(messages.PDNTypeUnknown, true)
	})
}

func TestCoordinator_FreeReturnsAddressToPool(t *testing.T) {
	c := newTestCoordinator(t)
	result, err := c.Allocate(messages.PDNTypeIPv4, true)
	require.NoError(t, err)

	c.Free(result)
	pool := c.pool.(*IPv4Pool)
	assert.Equal(t, 0, pool.AllocatedCount())
}
