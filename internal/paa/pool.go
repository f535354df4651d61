package paa

import (
	"encoding/binary"
	"net"
	"sync"
)

// IPv4Pool hands out addresses from a CIDR block. The Coordinator sees it
// only through the Pool interface; AllocatedCount is read on the concrete
// type.
type IPv4Pool struct {
	mu        sync.Mutex
	subnet    *net.IPNet
	allocated map[string]bool
	next      uint32
	base      uint32
	size      uint32
}

// NewIPv4Pool builds a pool over cidr (e.g. "10.45.0.0/16"). The network and
// broadcast addresses are reserved.
func NewIPv4Pool(cidr string) (*IPv4Pool, error) {
	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	ones, bits := subnet.Mask.Size()
	size := uint32(1) << uint(bits-ones)
	base := binary.BigEndian.Uint32(subnet.IP.To4())
	return &IPv4Pool{
		subnet:    subnet,
		allocated: make(map[string]bool),
		next:      1,
		base:      base,
		size:      size,
	}, nil
}

// AllocV4 returns the next unused address in the pool.
func (p *IPv4Pool) AllocV4() (net.IP, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := uint32(0); i < p.size-2; i++ {
		candidate := p.next
		p.next++
		if p.next >= p.size-1 {
			p.next = 1
		}
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, p.base+candidate)
		key := ip.String()
		if !p.allocated[key] {
			p.allocated[key] = true
			return ip, nil
		}
	}
	return nil, ErrPoolExhausted
}

// FreeV4 returns ip to the pool.
func (p *IPv4Pool) FreeV4(ip net.IP) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.allocated, ip.String())
}

// AllocatedCount reports how many addresses are currently leased.
func (p *IPv4Pool) AllocatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allocated)
}

// AllocV6 and FreeV6 satisfy the Pool interface but are not backed by a
// real pool.
func (p *IPv4Pool) AllocV6() (net.IP, error) { return nil, ErrUnsupportedAddressFamily }
func (p *IPv4Pool) FreeV6(net.IP)            {}
