package kernel

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/cilium/ebpf"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var ebpfTracer = otel.Tracer("internal/kernel")

// forwardingEntry is the fixed-size value stored in the pinned BPF map,
// keyed by the local S1-U TEID.
type forwardingEntry struct {
	RemoteTEID uint32
	UEAddr     uint32
	ENBAddr    uint32
}

// EBPFTunnelProgrammer programs a pinned eBPF hash map that a companion
// XDP/TC program consults to forward GTP-U packets.
type EBPFTunnelProgrammer struct {
	m      *ebpf.Map
	logger *zap.Logger
}

// LoadPinned opens the forwarding map pinned at path (conventionally under
// /sys/fs/bpf/) by a separately loaded BPF program.
func LoadPinned(path string, logger *zap.Logger) (*EBPFTunnelProgrammer, error) {
	m, err := ebpf.LoadPinnedMap(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kernel: load pinned map %q: %w", path, err)
	}
	return &EBPFTunnelProgrammer{m: m, logger: logger}, nil
}

func (e *EBPFTunnelProgrammer) Add(ctx context.Context, localTEID, remoteTEID uint32, ueAddr, enbAddr net.IP) error {
	_, span := ebpfTracer.Start(ctx, "EBPFTunnelProgrammer.Add")
	defer span.End()

	entry := forwardingEntry{
		RemoteTEID: remoteTEID,
		UEAddr:     ipToUint32(ueAddr),
		ENBAddr:    ipToUint32(enbAddr),
	}
	if err := e.m.Put(localTEID, entry); err != nil {
		e.logger.Error("kernel: BPF map put failed", zap.Uint32("local_teid", localTEID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrKernelProgrammingFailure, err)
	}
	return nil
}

func (e *EBPFTunnelProgrammer) Remove(ctx context.Context, localTEID, remoteTEID uint32) error {
	_, span := ebpfTracer.Start(ctx, "EBPFTunnelProgrammer.Remove")
	defer span.End()

	if err := e.m.Delete(localTEID); err != nil {
		e.logger.Error("kernel: BPF map delete failed", zap.Uint32("local_teid", localTEID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrKernelProgrammingFailure, err)
	}
	return nil
}

// Close releases the underlying map handle.
func (e *EBPFTunnelProgrammer) Close() error {
	return e.m.Close()
}

func ipToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(v4)
}
