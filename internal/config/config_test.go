package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/provider"
)

const validYAML = `
relay:
  name: range-a
  analyzer: census
logging:
  level: debug
sites:
  - name: east
    provider: " Network.UDP "
    network:
      listen_ip: 127.0.0.1
      port: 3000
      destinations: ["127.0.0.1:3001"]
    filter:
      allow_types: [entity-state, Fire, "3"]
      exercises: [1, 2]
    retry:
      attempts: 5
      initial_delay_ms: 10
  - name: west
    provider: network.udp
    family: objmodel
    network:
      port: 3100
      destinations: ["127.0.0.1:3101"]
`

const validTOML = `
[relay]
name = "range-t"

[[sites]]
name = "east"
provider = "network.udp"
[sites.network]
port = 3000
destinations = ["127.0.0.1:3001"]

[[sites]]
name = "west"
provider = "network.multicast"
family = "objmodel"
[sites.network]
port = 3100
multicast_group = "239.1.2.3"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRelayConfigYAML(t *testing.T) {
	cfg, err := LoadRelayConfig(writeFile(t, "relay.yaml", validYAML))
	if err != nil {
		t.Fatalf("LoadRelayConfig: %v", err)
	}
	if cfg.Relay.Name != "range-a" || cfg.Relay.Analyzer != "census" {
		t.Fatalf("relay = %+v", cfg.Relay)
	}
	if cfg.Relay.MaxPDUBytes != pdu.DefaultMaxSize || cfg.Relay.QueueDepth != 256 || cfg.Relay.ReceiveTimeoutMs != 500 {
		t.Fatalf("defaults not applied: %+v", cfg.Relay)
	}
	if cfg.Logging.Format != "text" || cfg.Logging.LogEveryN != 1 {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Sites[0].Family != "dis" || cfg.Sites[1].Network.ListenIP != "0.0.0.0" {
		t.Fatalf("site defaults not applied: %+v", cfg.Sites)
	}
}

func TestLoadRelayConfigTOML(t *testing.T) {
	cfg, err := LoadRelayConfig(writeFile(t, "relay.toml", validTOML))
	if err != nil {
		t.Fatalf("LoadRelayConfig: %v", err)
	}
	if cfg.Relay.Name != "range-t" || len(cfg.Sites) != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Sites[1].Network.MulticastGroup != "239.1.2.3" || cfg.Sites[1].Family != "objmodel" {
		t.Fatalf("west = %+v", cfg.Sites[1])
	}
}

func TestLoadRelayConfigMissingFile(t *testing.T) {
	_, err := LoadRelayConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	var ufe relayerr.UserFriendlyError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %T %v, want UserFriendlyError", err, err)
	}
	if !strings.Contains(err.Error(), "absent.yaml") {
		t.Fatalf("error should name the file: %v", err)
	}
}

func TestParseRelayConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		want    string
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(s string) string { return strings.Replace(s, "provider: network.udp", "provider: carrier-pigeon", 1) },
			want:    "carrier-pigeon",
			wantErr: provider.ErrUnsupportedProvider,
		},
		{
			name:    "recognized but unimplemented provider",
			mutate:  func(s string) string { return strings.Replace(s, "provider: network.udp", "provider: network.tcp", 1) },
			want:    "network.tcp",
			wantErr: provider.ErrUnsupportedProvider,
		},
		{
			name:    "unknown family",
			mutate:  func(s string) string { return strings.Replace(s, "family: objmodel", "family: hla13", 1) },
			want:    "hla13",
			wantErr: relayerr.ErrConfiguration,
		},
		{
			name:    "duplicate site",
			mutate:  func(s string) string { return strings.Replace(s, "name: west", "name: EAST", 1) },
			want:    "sites[1].name",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown filter type",
			mutate:  func(s string) string { return strings.Replace(s, "entity-state", "teleport", 1) },
			want:    "teleport",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad analyzer",
			mutate:  func(s string) string { return strings.Replace(s, "analyzer: census", "analyzer: oracle", 1) },
			want:    "oracle",
			wantErr: relayerr.ErrConfiguration,
		},
		{
			name:    "bad log level",
			mutate:  func(s string) string { return strings.Replace(s, "level: debug", "level: loud", 1) },
			want:    "loud",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown key",
			mutate:  func(s string) string { return strings.Replace(s, "name: range-a", "name: range-a\n  colour: red", 1) },
			want:    "colour",
			wantErr: relayerr.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRelayConfig([]byte(tt.mutate(validYAML)), ".yaml")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to name %q", err, tt.want)
			}
		})
	}
}

func TestValidateRelayConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RelayConfig)
		want   string
	}{
		{"single site", func(c *RelayConfig) { c.Sites = c.Sites[:1] }, "at least two"},
		{"empty name", func(c *RelayConfig) { c.Sites[0].Name = " " }, "sites[0].name"},
		{"port range", func(c *RelayConfig) { c.Sites[1].Network.Port = 70000 }, "sites[1].network.port"},
		{"udp without destinations", func(c *RelayConfig) { c.Sites[0].Network.Destinations = nil }, "destinations"},
		{"multicast without group", func(c *RelayConfig) { c.Sites[0].Provider = "network.multicast" }, "multicast_group"},
		{"pdu size", func(c *RelayConfig) { c.Relay.MaxPDUBytes = 4 }, "max_pdu_bytes"},
		{"exercise range", func(c *RelayConfig) { c.Sites[0].Filter.Exercises = []int{300} }, "exercise 300"},
		{"negative retry", func(c *RelayConfig) { c.Sites[0].Retry.Attempts = -1 }, "sites[0].retry"},
		{"bad format", func(c *RelayConfig) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CreateDefaultRelayConfig()
			tt.mutate(cfg)
			err := ValidateRelayConfig(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
			if relayerr.Category(err) != "configuration" {
				t.Fatalf("category = %q", relayerr.Category(err))
			}
		})
	}
}

func TestDefaultConfigRoundTrip(t *testing.T) {
	data, err := MarshalDefault()
	if err != nil {
		t.Fatalf("MarshalDefault: %v", err)
	}
	cfg, err := ParseRelayConfig(data, ".yaml")
	if err != nil {
		t.Fatalf("default config does not validate: %v\n%s", err, data)
	}
	if len(cfg.Sites) != 2 || cfg.Sites[1].Family != "objmodel" {
		t.Fatalf("sites = %+v", cfg.Sites)
	}

	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := WriteDefaultRelayConfig(path); err != nil {
		t.Fatalf("WriteDefaultRelayConfig: %v", err)
	}
	if _, err := LoadRelayConfig(path); err != nil {
		t.Fatalf("LoadRelayConfig(default): %v", err)
	}
}

func TestParsePDUType(t *testing.T) {
	tests := []struct {
		in   string
		want pdu.Type
	}{
		{"EntityState", pdu.TypeEntityState},
		{"entity-state", pdu.TypeEntityState},
		{"environmental_process", pdu.TypeEnvironmentalProcess},
		{"2", pdu.TypeFire},
		{"0x1a", pdu.TypeSignal},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePDUType(tt.in)
			if err != nil || got != tt.want {
				t.Fatalf("ParsePDUType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
	if _, err := ParsePDUType("warp"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestSiteSettings(t *testing.T) {
	cfg, err := ParseRelayConfig([]byte(validYAML), ".yaml")
	if err != nil {
		t.Fatalf("ParseRelayConfig: %v", err)
	}
	sc, err := SiteSettings(cfg.Sites[0])
	if err != nil {
		t.Fatalf("SiteSettings: %v", err)
	}
	if len(sc.Filter.AllowTypes) != 3 || sc.Filter.AllowTypes[2] != pdu.TypeDetonation {
		t.Fatalf("allow types = %v", sc.Filter.AllowTypes)
	}
	if sc.Retry.Attempts != 5 || sc.Retry.InitialDelay != 10*time.Millisecond {
		t.Fatalf("retry = %+v", sc.Retry)
	}
	if sc.Retry.MaxDelay <= 0 || sc.Retry.Multiplier <= 0 {
		t.Fatalf("retry defaults missing: %+v", sc.Retry)
	}

	opts := cfg.ProviderOptions(cfg.Sites[0])
	if opts.Port != 3000 || opts.ReceiveTimeout != 500*time.Millisecond || opts.ListenIP != "127.0.0.1" {
		t.Fatalf("provider options = %+v", opts)
	}
}

func TestBuildSites(t *testing.T) {
	cfg, err := ParseRelayConfig([]byte(validYAML), ".yaml")
	if err != nil {
		t.Fatalf("ParseRelayConfig: %v", err)
	}
	sites, err := cfg.BuildSites(nil)
	if err != nil {
		t.Fatalf("BuildSites: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("got %d sites", len(sites))
	}
	for _, s := range sites {
		if s.IsUp() {
			t.Fatalf("site %s should start down", s.Name())
		}
	}
	if sites[1].Family().Name != "objmodel" || sites[0].Provider().Kind() != provider.KindUDP {
		t.Fatalf("unexpected bindings")
	}
	if got := strings.Join(cfg.SiteNames(), ","); got != "east,west" {
		t.Fatalf("SiteNames = %s", got)
	}

	cfg.Sites[0].Network.Destinations = []string{"not-an-address"}
	if _, err := cfg.BuildSites(nil); !errors.Is(err, provider.ErrInvalidOptions) {
		t.Fatalf("err = %v, want invalid options", err)
	}
}
