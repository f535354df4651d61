// Package paa is the PDN address allocation coordinator: it dispatches
// alloc/free calls to an address-pool collaborator according to the PDN
// type requested at session setup.
package paa

import (
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/your-org/epc-sgw/internal/messages"
)

// ErrPoolExhausted is returned by a Pool implementation when it has no more
// addresses of the requested family.
var ErrPoolExhausted = errors.New("paa: address pool exhausted")

// ErrUnsupportedAddressFamily is returned for IPv6 allocation, which this
// engine does not back with a pool yet. The API is kept so a pool can be
// dropped in without touching callers.
var ErrUnsupportedAddressFamily = errors.New("paa: IPv6 address pool not available")

// Pool is the address-pool collaborator contract.
type Pool interface {
	AllocV4() (net.IP, error)
	FreeV4(net.IP)
	AllocV6() (net.IP, error)
	FreeV6(net.IP)
}

// Coordinator decides *whether* to call the pool, based on PDN type and
// the NAS-signalling flag, and folds per-family failures into the per-type
// policy.
type Coordinator struct {
	pool   Pool
	logger *zap.Logger
}

// New builds a PAA coordinator over pool.
func New(pool Pool, logger *zap.Logger) *Coordinator {
	return &Coordinator{pool: pool, logger: logger}
}

// Allocate requests an address (or pair) for pdnType, honoring
// addressAllocViaNAS for the IPv4-only policy. It returns a non-nil error
// only when the policy requires one; IPv4_AND_v6 logs and continues on a
// partial failure.
func (c *Coordinator) Allocate(pdnType messages.PDNType, addressAllocViaNAS bool) (messages.PAA, error) {
	switch pdnType {
	case messages.PDNTypeIPv4:
		if !addressAllocViaNAS {
			return messages.PAA{}, nil
		}
		v4, err := c.AllocV4()
		if err != nil {
			return messages.PAA{}, fmt.Errorf("paa: allocate IPv4: %w", err)
		}
		return messages.PAA{IPv4: v4}, nil

	case messages.PDNTypeIPv6:
		// no IPv6 pool yet: leave unassigned.
		return messages.PAA{}, nil

	case messages.PDNTypeIPv4OrV6:
		if v4, err := c.AllocV4(); err == nil {
			return messages.PAA{IPv4: v4}, nil
		}
		if v6, err := c.AllocV6(); err == nil {
			return messages.PAA{IPv6: v6}, nil
		}
		return messages.PAA{}, fmt.Errorf("paa: neither IPv4 nor IPv6 available: %w", ErrPoolExhausted)

	case messages.PDNTypeIPv4AndV6:
		var paa messages.PAA
		v4, err := c.AllocV4()
		if err != nil {
			c.logger.Error("paa: IPv4 side of dual-stack allocation failed", zap.Error(err))
		} else {
			paa.IPv4 = v4
		}
		v6, err := c.AllocV6()
		if err != nil {
			c.logger.Error("paa: IPv6 side of dual-stack allocation failed", zap.Error(err))
		} else {
			paa.IPv6 = v6
		}
		return paa, nil

	default:
		// An unknown pdn_type is a programmer error, not a peer error.
		panic(fmt.Sprintf("paa: unknown pdn_type %v", pdnType))
	}
}

// Free releases whichever address families are set in paa.
func (c *Coordinator) Free(paa messages.PAA) {
	if paa.IPv4 != nil {
		c.FreeV4(paa.IPv4)
	}
	if paa.IPv6 != nil {
		c.FreeV6(paa.IPv6)
	}
}

func (c *Coordinator) AllocV4() (net.IP, error) { return c.pool.AllocV4() }
func (c *Coordinator) FreeV4(ip net.IP)         { c.pool.FreeV4(ip) }

func (c *Coordinator) AllocV6() (net.IP, error) { return c.pool.AllocV6() }
func (c *Coordinator) FreeV6(ip net.IP)         { c.pool.FreeV6(ip) }
