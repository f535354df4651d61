package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FullDocument(t *testing.T) {
	path := writeConfig(t, `
sgw:
  s11_ipv4: 192.0.2.1
  s1u_ipv4: 192.0.2.2
paa:
  ipv4_pool_cidr: 10.50.0.0/16
kernel:
  backend: ebpf
  pinned_path: /sys/fs/bpf/sgw_tunnels
admin:
  listen_addr: ":8181"
audit:
  enabled: true
  dsn: clickhouse://localhost:9000/sgw
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s11, err := cfg.SGW.S11Address()
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", s11.String())

	assert.Equal(t, "10.50.0.0/16", cfg.PAA.IPv4PoolCIDR)
	assert.Equal(t, "ebpf", cfg.Kernel.Backend)
	assert.Equal(t, ":8181", cfg.Admin.ListenAddr)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sgw:
  s11_ipv4: 192.0.2.1
  s1u_ipv4: 192.0.2.2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.45.0.0/16", cfg.PAA.IPv4PoolCIDR)
	assert.Equal(t, "simulated", cfg.Kernel.Backend)
	assert.Equal(t, ":8080", cfg.Admin.ListenAddr)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.EqualValues(t, 5, cfg.DedicatedBearer.QCI)
	assert.EqualValues(t, 55555, cfg.DedicatedBearer.TFTRemotePort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "sgw: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSGWConfig_RejectsInvalidAddress(t *testing.T) {
	c := SGWConfig{S11IPv4: "not-an-ip"}
	_, err := c.S11Address()
	assert.Error(t, err)
}
