// Package pco is the Protocol Configuration Options collaborator contract.
// Parsing PCO containers is not the engine's concern; this package only
// defines the boundary the engine calls through, plus a passthrough default
// for tests and hosts that have no real PCO negotiation configured.
package pco

import "github.com/your-org/epc-sgw/internal/messages"

// Processor negotiates Protocol Configuration Options for a PDN session.
// addressAllocViaNAS reports whether the UE signalled IPv4 address
// allocation via NAS rather than external DHCP, which gates whether the
// PAA coordinator assigns an IPv4 address at all.
type Processor interface {
	Process(req *messages.PCO) (resp *messages.PCO, addressAllocViaNAS bool, err error)
}

// Passthrough echoes the request PCO back unchanged and always reports
// NAS-signalled address allocation. It stands in for a real PCO negotiator
// in tests and in deployments that haven't wired one in yet.
type Passthrough struct{}

// NewPassthrough builds the default PCO processor.
func NewPassthrough() Passthrough {
	return Passthrough{}
}

func (Passthrough) Process(req *messages.PCO) (*messages.PCO, bool, error) {
	if req == nil {
		return nil, true, nil
	}
	out := *req
	return &out, true, nil
}
