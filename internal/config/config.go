// Package config loads the engine's YAML configuration.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	SGW             SGWConfig             `yaml:"sgw"`
	PAA             PAAConfig             `yaml:"paa"`
	DedicatedBearer DedicatedBearerConfig `yaml:"dedicated_bearer"`
	Kernel          KernelConfig          `yaml:"kernel"`
	Admin           AdminConfig           `yaml:"admin"`
	Metrics         MetricsConfig         `yaml:"metrics"`
	Audit           AuditConfig           `yaml:"audit"`
	Observability   ObservabilityConfig   `yaml:"observability"`
}

// SGWConfig holds the S11 and S1-U local addresses.
type SGWConfig struct {
	S11IPv4 string `yaml:"s11_ipv4"`
	S1UIPv4 string `yaml:"s1u_ipv4"`
}

// S11Address parses SGW.S11IPv4.
func (c SGWConfig) S11Address() (net.IP, error) { return parseIPv4(c.S11IPv4) }

// S1UAddress parses SGW.S1UIPv4.
func (c SGWConfig) S1UAddress() (net.IP, error) { return parseIPv4(c.S1UIPv4) }

func parseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("config: invalid IPv4 address %q", s)
	}
	return ip, nil
}

// PAAConfig configures the IPv4 address pool the PAA coordinator draws from.
type PAAConfig struct {
	IPv4PoolCIDR string `yaml:"ipv4_pool_cidr"`
}

// DedicatedBearerConfig overrides the fixed QoS/TFT values applied to
// dedicated bearers.
type DedicatedBearerConfig struct {
	QCI             uint8  `yaml:"qci"`
	PriorityLevel   uint8  `yaml:"priority_level"`
	GBRUplinkKbps   uint64 `yaml:"gbr_uplink_kbps"`
	GBRDownlinkKbps uint64 `yaml:"gbr_downlink_kbps"`
	MBRUplinkKbps   uint64 `yaml:"mbr_uplink_kbps"`
	MBRDownlinkKbps uint64 `yaml:"mbr_downlink_kbps"`
	TFTRemotePort   uint16 `yaml:"tft_remote_port"`
	TFTProtocol     uint8  `yaml:"tft_protocol"`
}

// KernelConfig selects the tunnel-programmer backend.
type KernelConfig struct {
	Backend    string `yaml:"backend"` // "simulated" or "ebpf"
	PinnedPath string `yaml:"pinned_path"`
}

// AdminConfig configures the introspection HTTP surface.
type AdminConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// MetricsConfig configures the C11 Prometheus exporter.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// AuditConfig configures the ClickHouse CDR sink.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DSN        string `yaml:"dsn"`
	BufferSize int    `yaml:"buffer_size"`
}

// ObservabilityConfig holds the log level setting. It is parsed and
// defaulted here; cmd/sgw builds its logger before loading the configuration
// and does not apply LogLevel.
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`
}

// Load reads and parses the YAML configuration document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PAA.IPv4PoolCIDR == "" {
		c.PAA.IPv4PoolCIDR = "10.45.0.0/16"
	}
	if c.Kernel.Backend == "" {
		c.Kernel.Backend = "simulated"
	}
	if c.Admin.ListenAddr == "" {
		c.Admin.ListenAddr = ":8080"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = 256
	}
	if c.DedicatedBearer.QCI == 0 {
		c.DedicatedBearer.QCI = 5
		c.DedicatedBearer.PriorityLevel = 7
		c.DedicatedBearer.GBRUplinkKbps = 32
		c.DedicatedBearer.GBRDownlinkKbps = 32
		c.DedicatedBearer.MBRUplinkKbps = 48
		c.DedicatedBearer.MBRDownlinkKbps = 48
		c.DedicatedBearer.TFTRemotePort = 55555
		c.DedicatedBearer.TFTProtocol = 17
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}
