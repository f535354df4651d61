// Package kernel is the kernel-tunnel mediator: it installs and removes
// GTP-U forwarding entries for active bearers. Two backends satisfy the
// same interface, a pinned eBPF map for production and an in-memory table
// for tests and hosts without a loaded BPF program.
package kernel

import (
	"context"
	"errors"
	"net"
)

// ErrKernelProgrammingFailure wraps any backend failure. The engine logs
// this and does not change the S11 cause it returns.
var ErrKernelProgrammingFailure = errors.New("kernel: tunnel programming failed")

// TunnelProgrammer installs and removes GTP-U forwarding entries keyed by
// the local (S-GW-side) TEID.
type TunnelProgrammer interface {
	Add(ctx context.Context, localTEID, remoteTEID uint32, ueAddr, enbAddr net.IP) error
	Remove(ctx context.Context, localTEID, remoteTEID uint32) error
}
