package engine

import (
	"net"

	"github.com/your-org/epc-sgw/internal/messages"
)

// Config carries the local endpoint addresses and the fixed AMBR/QoS/TFT
// values, behind a configuration surface so tests can lock current behavior
// and production deployments can override it.
type Config struct {
	S11Address net.IP
	S1UAddress net.IP

	// DefaultAMBR is the session AMBR stamped on every Create Session
	// Response (100 Mbps down, 40 Mbps up).
	DefaultAMBR messages.AMBR

	// DedicatedBearerQoS and DedicatedBearerTFT are the fixed values
	// assigned to every dedicated bearer this engine creates.
	DedicatedBearerQoS messages.QoS
	DedicatedBearerTFT messages.TFT
}

// DefaultConfig returns the stock AMBR and dedicated-bearer values.
func DefaultConfig(s11Addr, s1uAddr net.IP) Config {
	return Config{
		S11Address: s11Addr,
		S1UAddress: s1uAddr,
		DefaultAMBR: messages.AMBR{
			DownlinkBps: 100_000_000,
			UplinkBps:   40_000_000,
		},
		DedicatedBearerQoS: messages.QoS{
			QCI:           5,
			PCI:           true,
			PriorityLevel: 7,
			PVI:           true,
			GBRUplink:     32_000,
			GBRDownlink:   32_000,
			MBRUplink:     48_000,
			MBRDownlink:   48_000,
		},
		DedicatedBearerTFT: messages.TFT{
			Direction: "uplink_only",
			Filters: []messages.TFTFilter{
				{Protocol: 17, RemotePort: 55555},
			},
		},
	}
}
