// Package gwcontext is the S-GW context store and bearer/PDN data model:
// subscriber contexts keyed by locally allocated S11 tunnel identifiers,
// and the bearers nested within them.
package gwcontext

import (
	"net"
	"sync"

	"github.com/your-org/epc-sgw/internal/messages"
)

// NoAPN is the sentinel APN value used when a Create Session Request
// carries no Access Point Name IE.
const NoAPN = "NO APN"

// BearerState is a read-only projection over a BearerEntry's eNB TEID,
// never a second source of truth: a bearer is ACTIVE exactly when the eNB
// side is populated.
type BearerState uint8

const (
	BearerIdle BearerState = iota
	BearerActive
)

func (s BearerState) String() string {
	if s == BearerActive {
		return "ACTIVE"
	}
	return "IDLE"
}

// BearerEntry is one EPS bearer.
type BearerEntry struct {
	EBI              uint8
	QoS              messages.QoS
	PAA              messages.PAA
	SGWS1uTEID       uint32
	ENodeBS1uTEID    uint32
	ENodeBS1uAddress net.IP
}

// State derives IDLE/ACTIVE from the eNB TEID.
func (b BearerEntry) State() BearerState {
	if b.ENodeBS1uTEID == 0 {
		return BearerIdle
	}
	return BearerActive
}

// PdnConn is the PDN connection embedded exclusively within a SubscriberCtx.
// Initialized empty and populated field-by-field by the procedure handlers
// in internal/engine.
type PdnConn struct {
	APNInUse        string
	DefaultBearerID uint8
	bearers         map[uint8]*BearerEntry // EBI -> bearer
}

func newPdnConn() PdnConn {
	return PdnConn{
		APNInUse: NoAPN,
		bearers:  make(map[uint8]*BearerEntry, 12),
	}
}

// SubscriberCtx is one active PDN session. The embedded mutex guards the
// PdnConn and its bearer map; SavedCreateRequest is set exactly once and
// never mutated afterward, so it needs no lock to read.
type SubscriberCtx struct {
	IMSI              string
	IMSIAuthenticated bool
	S11MMETEID        uint32
	S11LocalTEID      uint32
	MMES11Address     net.IP
	Trxn              uint32

	// SavedCreateRequest is an immutable snapshot of the originating Create
	// Session Request, captured once at session-open and read by reference
	// by late-arriving callbacks that need the pdn_type and PCO. Never
	// written again after NewSubscriberCtx.
	SavedCreateRequest *messages.CreateSessionRequest

	mu            sync.RWMutex
	pdn           PdnConn
	negotiatedPCO *messages.PCO
}

// NewSubscriberCtx builds a context for a Create Session Request with its
// default bearer installed. req is captured as the immutable saved request;
// the caller must not mutate it afterward.
func NewSubscriberCtx(localTEID uint32, req *messages.CreateSessionRequest) *SubscriberCtx {
	apn := req.APN
	if apn == "" {
		apn = NoAPN
	}

	c := &SubscriberCtx{
		IMSI:               req.IMSI,
		IMSIAuthenticated:  true,
		S11MMETEID:         req.SenderFTEIDC.TEID,
		S11LocalTEID:       localTEID,
		MMES11Address:      req.MMEAddr,
		Trxn:               req.Trxn,
		SavedCreateRequest: req,
		pdn:                newPdnConn(),
	}
	c.pdn.APNInUse = apn
	c.pdn.DefaultBearerID = req.DefaultBearer.EBI
	c.pdn.bearers[req.DefaultBearer.EBI] = &BearerEntry{
		EBI: req.DefaultBearer.EBI,
		QoS: req.DefaultBearer.QoS,
	}
	return c
}

// Bearer returns a copy of the bearer for ebi.
func (c *SubscriberCtx) Bearer(ebi uint8) (BearerEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.pdn.bearers[ebi]
	if !ok {
		return BearerEntry{}, false
	}
	return *b, true
}

// UpdateBearer runs fn against the live bearer entry for ebi under the
// context lock. Returns false if ebi has no bearer.
func (c *SubscriberCtx) UpdateBearer(ebi uint8, fn func(*BearerEntry)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.pdn.bearers[ebi]
	if !ok {
		return false
	}
	fn(b)
	return true
}

// AllBearers returns a snapshot copy of every bearer in the PDN connection.
func (c *SubscriberCtx) AllBearers() []BearerEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BearerEntry, 0, len(c.pdn.bearers))
	for _, b := range c.pdn.bearers {
		out = append(out, *b)
	}
	return out
}

// SetDefaultBearerAndTrxn updates the default bearer id and echoed
// transaction token from a Modify Bearer Request.
func (c *SubscriberCtx) SetDefaultBearerAndTrxn(ebi uint8, trxn uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pdn.DefaultBearerID = ebi
	c.Trxn = trxn
}

// APN returns the in-use APN (or NoAPN).
func (c *SubscriberCtx) APN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pdn.APNInUse
}

// DefaultBearerID returns the PDN connection's current default bearer EBI.
func (c *SubscriberCtx) DefaultBearerID() uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pdn.DefaultBearerID
}

// ResetReleasedBearers zeroes the eNB-side fields of every bearer, keeping
// the S-GW side intact (TS 23.401 §5.3.5, S1 release).
func (c *SubscriberCtx) ResetReleasedBearers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.pdn.bearers {
		b.ENodeBS1uAddress = nil
		b.ENodeBS1uTEID = 0
	}
}

// SetNegotiatedPCO stashes the PCO the PCO processor returned during
// session setup, so the Create-Session-Response can carry it without
// touching the immutable SavedCreateRequest.
func (c *SubscriberCtx) SetNegotiatedPCO(p *messages.PCO) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negotiatedPCO = p
}

// TakeNegotiatedPCO returns the stashed PCO and clears it, so a PCO is
// handed out on exactly one response.
func (c *SubscriberCtx) TakeNegotiatedPCO() *messages.PCO {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.negotiatedPCO
	c.negotiatedPCO = nil
	return p
}

// TunnelPair is the reverse-lookup entry for an S11 session.
type TunnelPair struct {
	LocalTEID  uint32
	RemoteTEID uint32
}
