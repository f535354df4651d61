package engine

import "errors"

// Sentinel error kinds, checked with errors.Is. ContextNotFound,
// InvalidPeer, ResourceExhausted and KernelProgramming never propagate out
// of a Handle* call: they are folded into the S11 cause code or logged.
// ErrMalformedRequest is the one kind returned directly, with no response
// synthesized; the S11 peer task logs it.
var (
	ErrContextNotFound   = errors.New("engine: context not found")
	ErrInvalidPeer       = errors.New("engine: invalid peer")
	ErrMalformedRequest  = errors.New("engine: malformed request")
	ErrResourceExhausted = errors.New("engine: resource exhausted")
	ErrKernelProgramming = errors.New("engine: kernel programming failed")
)
