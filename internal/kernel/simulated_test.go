package kernel

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimulated_AddThenRemove(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	ctx := context.Background()

	err := s.Add(ctx, 1, 0xE1, net.ParseIP("10.45.0.2"), net.ParseIP("10.0.0.2"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count())

	err = s.Remove(ctx, 1, 0xE1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestSimulated_AddOverwritesSameLocalTEID(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, 1, 0xE1, net.ParseIP("10.45.0.2"), net.ParseIP("10.0.0.2")))
	require.NoError(t, s.Add(ctx, 1, 0xE2, net.ParseIP("10.45.0.2"), net.ParseIP("10.0.0.3")))
	assert.Equal(t, 1, s.Count())
}

func TestSimulated_RemoveUnknownIsNoError(t *testing.T) {
	s := NewSimulated(zap.NewNop())
	assert.NoError(t, s.Remove(context.Background(), 404, 0))
}
