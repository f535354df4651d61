// Package messages holds the decoded S11/GTP-U/SGi message structures the
// engine consumes and emits. Encoding, framing and IE-level parsing belong to
// the S11 peer task; this package only carries the fields the state machine
// in internal/engine actually touches.
package messages

import "net"

// InterfaceType identifies the GTP interface an FTEID belongs to, per
// 3GPP TS 29.274 Table 8.22-1 (trimmed to the values this engine emits).
type InterfaceType uint8

const (
	InterfaceUnknown InterfaceType = iota
	S1USGWGTPU
	S1UENodeBGTPU
	S11MMEGTPC
	S11S4SGWGTPC
)

// RATType mirrors the subset of 3GPP TS 29.274 §8.17 this engine inspects.
type RATType uint8

const (
	RATUnknown RATType = iota
	RATEUTRAN
	RATOther
)

// PDNType selects the PAA allocation policy. It is not the
// bare 3GPP PDNType IE (IPv4/IPv6/IPv4v6) but the engine's own policy axis,
// which additionally distinguishes "try either" from "require both".
type PDNType uint8

const (
	PDNTypeUnknown PDNType = iota
	PDNTypeIPv4
	PDNTypeIPv6
	PDNTypeIPv4OrV6
	PDNTypeIPv4AndV6
)

func (t PDNType) String() string {
	switch t {
	case PDNTypeIPv4:
		return "IPv4"
	case PDNTypeIPv6:
		return "IPv6"
	case PDNTypeIPv4OrV6:
		return "IPv4_OR_v6"
	case PDNTypeIPv4AndV6:
		return "IPv4_AND_v6"
	default:
		return "unknown"
	}
}

// Cause codes used by this engine. Values follow 3GPP TS 29.274
// Table 8.4-1; M_PDN_APN_NOT_ALLOWED uses the mobility-management cause for
// "APN access denied" since this engine never distinguishes the finer SGSN
// vs MME context that the full cause table reserves separate values for.
type Cause uint8

const (
	CauseRequestAccepted       Cause = 16
	CauseContextNotFound       Cause = 64
	CauseInvalidPeer           Cause = 109
	CauseMobilityAPNNotAllowed Cause = 78
	CauseNoResourcesAvailable  Cause = 73
)

// FTEID is a Fully Qualified Tunnel Endpoint Identifier IE.
//
// IPv4Present/IPv6Present mirror the V4/V6 flag octet of the wire IE. The
// delete-session peer check treats "both flags set" as its proxy for "the
// F-TEID IE was present at all".
type FTEID struct {
	InterfaceType InterfaceType
	TEID          uint32
	IPv4          net.IP
	IPv6          net.IP
	IPv4Present   bool
	IPv6Present   bool
}

// QoS is the bearer-level QoS profile (3GPP TS 29.274 §8.15).
type QoS struct {
	QCI           uint8
	PCI           bool
	PriorityLevel uint8
	PVI           bool
	GBRUplink     uint64
	GBRDownlink   uint64
	MBRUplink     uint64
	MBRDownlink   uint64
}

// AMBR is the Aggregate Maximum Bit Rate (session-level).
type AMBR struct {
	UplinkBps   uint64
	DownlinkBps uint64
}

// PAA is a PDN Address Allocation result.
type PAA struct {
	IPv4 net.IP
	IPv6 net.IP
}

func (p PAA) IsZero() bool {
	return p.IPv4 == nil && p.IPv6 == nil
}

// PCO is an opaque Protocol Configuration Options container. Parsing its
// contents is the PCO processor's concern; the engine only
// asks whether NAS-signalled address allocation was requested.
type PCO struct {
	Raw []byte
}

// TFT is a Traffic Flow Template. This engine only ever emits the single
// fixed uplink filter configured for dedicated-bearer creation.
type TFT struct {
	Direction string // "uplink_only"
	Filters   []TFTFilter
}

// TFTFilter is one packet filter within a TFT.
type TFTFilter struct {
	Protocol   uint8 // IP protocol number, e.g. 17 (UDP)
	RemotePort uint16
}

// BearerContextToBeCreated is the subset of a Create Session Request's
// bearer context this engine reads.
type BearerContextToBeCreated struct {
	EBI uint8
	QoS QoS
}

// BearerToBeModified carries the eNB-side F-TEID for one bearer in a
// Modify Bearer Request.
type BearerToBeModified struct {
	EBI           uint8
	S1ENodeBFTEID FTEID
}

// CreateSessionRequest is the decoded S11 Create Session Request.
type CreateSessionRequest struct {
	IMSI          string
	RATType       RATType
	APN           string // empty means absent
	PDNType       PDNType
	PCO           *PCO
	SenderFTEIDC  FTEID // sender_fteid_cp
	Trxn          uint32
	DefaultBearer BearerContextToBeCreated
	MMEAddr       net.IP
}

// BearerContextCreated is one entry of a Create Session Response's
// bearer-contexts-created grouped IE.
type BearerContextCreated struct {
	EBI         uint8
	Cause       Cause
	S1uSGWFTEID FTEID
	PAA         PAA
}

// ResponseHeader carries the fields common to every S11 response this
// engine emits: the cause, the GTP-C header TEID, the echoed transaction
// token, and the MME peer address.
type ResponseHeader struct {
	Cause      Cause
	HeaderTEID uint32 // GTP-C header TEID used to route the message to the MME
	Trxn       uint32
	MMEAddr    net.IP
}

// CreateSessionResponse is the decoded S11 Create Session Response.
type CreateSessionResponse struct {
	ResponseHeader
	S11SGWTEID FTEID
	PAA        PAA
	PCO        *PCO
	AMBR       AMBR
	Bearers    []BearerContextCreated
}

// ModifyBearerRequest is the decoded S11 Modify Bearer Request.
type ModifyBearerRequest struct {
	TEID   uint32 // local S11 TEID
	Bearer BearerToBeModified
	Trxn   uint32
}

// ModifyBearerResponse is the decoded S11 Modify Bearer Response.
type ModifyBearerResponse struct {
	ResponseHeader
	BearersMarkedForRemoval []uint8
}

// DeleteSessionRequest is the decoded S11 Delete Session Request.
type DeleteSessionRequest struct {
	TEID            uint32
	SenderFTEIDCP   *FTEID // nil if absent
	LBI             uint8
	Trxn            uint32
	PeerAddr        net.IP
	IndicationFlags uint32
}

// DeleteSessionResponse is the decoded S11 Delete Session Response.
type DeleteSessionResponse struct {
	ResponseHeader
}

// ReleaseAccessBearersRequest is the decoded S11 Release Access Bearers Request.
type ReleaseAccessBearersRequest struct {
	TEID uint32
}

// ReleaseAccessBearersResponse is the decoded S11 Release Access Bearers Response.
type ReleaseAccessBearersResponse struct {
	ResponseHeader
}

// CreateBearerRequest is the decoded S11 Create Bearer Request emitted for
// dedicated-bearer creation (TS 23.401 §5.4.1). It carries no response in this
// engine's scope; the follow-up Modify Bearer Request completes the
// dedicated bearer.
type CreateBearerRequest struct {
	HeaderTEID     uint32
	LinkedBearerID uint8
	TFT            TFT
	QoS            QoS
	S1uSGWFTEID    FTEID
	MMEAddr        net.IP
}

// Status is a simple OK/failure result carried on collaborator callbacks.
type Status uint8

const (
	StatusOK Status = iota
	StatusFailed
)

// GTPUCreateTunnelResponse is the callback from the GTP-U task after a new
// S1-U endpoint has been created.
type GTPUCreateTunnelResponse struct {
	LocalTEID     uint32 // keys the subscriber context
	Status        Status
	NewS1uSGWTEID uint32
}

// GTPUUpdateTunnelResponse is the callback from the GTP-U task after an
// existing S1-U endpoint has been updated.
type GTPUUpdateTunnelResponse struct {
	LocalTEID uint32
	Status    Status
}

// SGiCreateEndPointResponse is the callback from the IP-forwarding task
// after an SGi endpoint has been created.
type SGiCreateEndPointResponse struct {
	LocalTEID uint32
	Status    Status
}

// SGiUpdateEndPointResponse is the callback from the IP-forwarding task
// after an SGi endpoint has been updated.
type SGiUpdateEndPointResponse struct {
	LocalTEID uint32
	Status    Status
}

// SGiUpdateEndPointRequest is emitted to the IP-forwarding task.
type SGiUpdateEndPointRequest struct {
	LocalTEID uint32
	EBI       uint8
}

// SGiDeleteEndPointRequest is emitted to the IP-forwarding task on session
// teardown.
type SGiDeleteEndPointRequest struct {
	LocalTEID     uint32
	SGWS1uTEID    uint32
	ENodeBS1uTEID uint32
	PDNType       PDNType
	PAA           PAA
}
