package kernel

import (
	"context"
	"net"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var simTracer = otel.Tracer("internal/kernel")

type tunnelEntry struct {
	remoteTEID uint32
	ueAddr     net.IP
	enbAddr    net.IP
}

// SimulatedTunnelProgrammer is an in-memory TunnelProgrammer, used in tests
// and on hosts with no pinned eBPF map loaded.
type SimulatedTunnelProgrammer struct {
	mu      sync.Mutex
	entries map[uint32]tunnelEntry
	logger  *zap.Logger
}

// NewSimulated builds an empty simulated tunnel table.
func NewSimulated(logger *zap.Logger) *SimulatedTunnelProgrammer {
	return &SimulatedTunnelProgrammer{
		entries: make(map[uint32]tunnelEntry),
		logger:  logger,
	}
}

func (s *SimulatedTunnelProgrammer) Add(ctx context.Context, localTEID, remoteTEID uint32, ueAddr, enbAddr net.IP) error {
	_, span := simTracer.Start(ctx, "SimulatedTunnelProgrammer.Add")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[localTEID] = tunnelEntry{remoteTEID: remoteTEID, ueAddr: ueAddr, enbAddr: enbAddr}
	s.logger.Debug("kernel tunnel installed",
		zap.Uint32("local_teid", localTEID),
		zap.Uint32("remote_teid", remoteTEID),
		zap.Stringer("ue_addr", addrStringer{ueAddr}),
		zap.Stringer("enb_addr", addrStringer{enbAddr}))
	return nil
}

func (s *SimulatedTunnelProgrammer) Remove(ctx context.Context, localTEID, remoteTEID uint32) error {
	_, span := simTracer.Start(ctx, "SimulatedTunnelProgrammer.Remove")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, localTEID)
	s.logger.Debug("kernel tunnel removed",
		zap.Uint32("local_teid", localTEID),
		zap.Uint32("remote_teid", remoteTEID))
	return nil
}

// Count returns the number of installed entries, for tests.
func (s *SimulatedTunnelProgrammer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type addrStringer struct{ ip net.IP }

func (a addrStringer) String() string {
	if a.ip == nil {
		return "<nil>"
	}
	return a.ip.String()
}
