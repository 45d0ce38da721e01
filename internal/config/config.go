package config

// Configuration loading and validation for simbridge relays

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tturner/simbridge/internal/analyzer"
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/provider"
	"github.com/tturner/simbridge/internal/site"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = fmt.Errorf("%w: invalid relay config", relayerr.ErrConfiguration)

// RelaySection holds relay-wide settings.
type RelaySection struct {
	Name             string `yaml:"name" toml:"name"`
	MaxPDUBytes      int    `yaml:"max_pdu_bytes" toml:"max_pdu_bytes"`
	QueueDepth       int    `yaml:"queue_depth" toml:"queue_depth"`
	ReceiveTimeoutMs int    `yaml:"receive_timeout_ms" toml:"receive_timeout_ms"`
	Analyzer         string `yaml:"analyzer" toml:"analyzer"` // "none" or "census"
}

// LoggingConfig controls the relay logger.
type LoggingConfig struct {
	Level     string `yaml:"level" toml:"level"`
	Format    string `yaml:"format" toml:"format"` // "text" or "json"
	LogEveryN int    `yaml:"log_every_n" toml:"log_every_n"`
	LogFile   string `yaml:"log_file,omitempty" toml:"log_file"`
}

// MetricsConfig names the files the run summary is written to.
type MetricsConfig struct {
	SummaryFile string `yaml:"summary_file,omitempty" toml:"summary_file"`
	CSVFile     string `yaml:"csv_file,omitempty" toml:"csv_file"`
}

// CaptureConfig enables the pcap recorder.
type CaptureConfig struct {
	PcapFile string `yaml:"pcap_file,omitempty" toml:"pcap_file"`
}

// NetworkConfig carries provider options for the network providers.
type NetworkConfig struct {
	ListenIP       string   `yaml:"listen_ip" toml:"listen_ip"`
	Port           int      `yaml:"port" toml:"port"`
	Destinations   []string `yaml:"destinations,omitempty" toml:"destinations"`
	Broadcast      bool     `yaml:"broadcast,omitempty" toml:"broadcast"`
	MulticastGroup string   `yaml:"multicast_group,omitempty" toml:"multicast_group"`
	Interface      string   `yaml:"interface,omitempty" toml:"interface"`
	TTL            int      `yaml:"ttl,omitempty" toml:"ttl"`
}

// FilterConfig restricts what a site accepts. Types are PDU type names
// (EntityState, entity-state) or numbers.
type FilterConfig struct {
	AllowTypes []string `yaml:"allow_types,omitempty" toml:"allow_types"`
	DenyTypes  []string `yaml:"deny_types,omitempty" toml:"deny_types"`
	Exercises  []int    `yaml:"exercises,omitempty" toml:"exercises"`
}

// RetryConfig controls send retries.
type RetryConfig struct {
	Attempts       int     `yaml:"attempts,omitempty" toml:"attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms,omitempty" toml:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms,omitempty" toml:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier,omitempty" toml:"multiplier"`
}

// SiteConfig describes one site.
type SiteConfig struct {
	Name     string        `yaml:"name" toml:"name"`
	Provider string        `yaml:"provider" toml:"provider"`
	Family   string        `yaml:"family" toml:"family"`
	Path     string        `yaml:"path,omitempty" toml:"path"`
	Network  NetworkConfig `yaml:"network" toml:"network"`
	Filter   FilterConfig  `yaml:"filter,omitempty" toml:"filter"`
	Retry    RetryConfig   `yaml:"retry,omitempty" toml:"retry"`
}

// RelayConfig is the top-level relay configuration.
type RelayConfig struct {
	Relay   RelaySection  `yaml:"relay" toml:"relay"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" toml:"metrics"`
	Capture CaptureConfig `yaml:"capture,omitempty" toml:"capture"`
	Sites   []SiteConfig  `yaml:"sites" toml:"sites"`
}

const (
	defaultMaxPDUBytes      = pdu.DefaultMaxSize
	defaultQueueDepth       = 256
	defaultReceiveTimeoutMs = 500
)

// CreateDefaultRelayConfig returns a two-site UDP relay on localhost.
func CreateDefaultRelayConfig() *RelayConfig {
	cfg := &RelayConfig{
		Relay: RelaySection{Name: "simbridge"},
		Sites: []SiteConfig{
			{
				Name:     "east",
				Provider: string(provider.KindUDP),
				Family:   family.DIS,
				Network: NetworkConfig{
					ListenIP:     "127.0.0.1",
					Port:         3000,
					Destinations: []string{"127.0.0.1:3001"},
				},
			},
			{
				Name:     "west",
				Provider: string(provider.KindUDP),
				Family:   family.ObjModel,
				Network: NetworkConfig{
					ListenIP:     "127.0.0.1",
					Port:         3100,
					Destinations: []string{"127.0.0.1:3101"},
				},
				Filter: FilterConfig{DenyTypes: []string{"EnvironmentalProcess"}},
			},
		},
	}
	applyRelayDefaults(cfg)
	return cfg
}

// MarshalDefault renders the default config as YAML.
func MarshalDefault() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(CreateDefaultRelayConfig()); err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefaultRelayConfig writes the default config to path.
func WriteDefaultRelayConfig(path string) error {
	data, err := MarshalDefault()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadRelayConfig reads, defaults and validates a relay config. Files
// ending in .toml are parsed as TOML, anything else as YAML.
func LoadRelayConfig(path string) (*RelayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, relayerr.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		}
		return nil, relayerr.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
	}

	cfg, err := ParseRelayConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, relayerr.WrapConfigError(err, path)
	}
	return cfg, nil
}

// ParseRelayConfig decodes data in the format implied by ext, applies
// defaults and validates the result.
func ParseRelayConfig(data []byte, ext string) (*RelayConfig, error) {
	var cfg RelayConfig
	if strings.EqualFold(ext, ".toml") {
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: parse TOML: %w", relayerr.ErrConfiguration, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: parse YAML: %w", relayerr.ErrConfiguration, err)
		}
	}

	applyRelayDefaults(&cfg)
	if err := ValidateRelayConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyRelayDefaults(cfg *RelayConfig) {
	if cfg.Relay.Name == "" {
		cfg.Relay.Name = "simbridge"
	}
	if cfg.Relay.MaxPDUBytes == 0 {
		cfg.Relay.MaxPDUBytes = defaultMaxPDUBytes
	}
	if cfg.Relay.QueueDepth == 0 {
		cfg.Relay.QueueDepth = defaultQueueDepth
	}
	if cfg.Relay.ReceiveTimeoutMs == 0 {
		cfg.Relay.ReceiveTimeoutMs = defaultReceiveTimeoutMs
	}
	if cfg.Relay.Analyzer == "" {
		cfg.Relay.Analyzer = string(analyzer.ModeNone)
	}
	applyLoggingDefaults(cfg)
	for i := range cfg.Sites {
		if cfg.Sites[i].Family == "" {
			cfg.Sites[i].Family = family.DIS
		}
		if cfg.Sites[i].Network.ListenIP == "" {
			cfg.Sites[i].Network.ListenIP = "0.0.0.0"
		}
	}
}

func applyLoggingDefaults(cfg *RelayConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.LogEveryN == 0 {
		cfg.Logging.LogEveryN = 1
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// ValidateRelayConfig checks cfg and names the first invalid value.
func ValidateRelayConfig(cfg *RelayConfig) error {
	if cfg.Relay.MaxPDUBytes < pdu.HeaderSize || cfg.Relay.MaxPDUBytes > 65535+pdu.HeaderSize {
		return invalid("relay.max_pdu_bytes must be between %d and %d, got %d",
			pdu.HeaderSize, 65535+pdu.HeaderSize, cfg.Relay.MaxPDUBytes)
	}
	if cfg.Relay.QueueDepth < 0 {
		return invalid("relay.queue_depth must be >= 0, got %d", cfg.Relay.QueueDepth)
	}
	if cfg.Relay.ReceiveTimeoutMs < 0 {
		return invalid("relay.receive_timeout_ms must be >= 0, got %d", cfg.Relay.ReceiveTimeoutMs)
	}
	if _, err := analyzer.ParseMode(cfg.Relay.Analyzer); err != nil {
		return fmt.Errorf("relay.analyzer: %w", err)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "silent", "error", "info", "verbose", "debug":
	default:
		return invalid("logging.level must be silent, error, info, verbose, or debug, got %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return invalid("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.LogEveryN < 0 {
		return invalid("logging.log_every_n must be >= 0, got %d", cfg.Logging.LogEveryN)
	}

	if len(cfg.Sites) < 2 {
		return invalid("sites must have at least two entries, got %d", len(cfg.Sites))
	}
	names := make(map[string]int, len(cfg.Sites))
	for i, s := range cfg.Sites {
		if err := validateSite(s, i); err != nil {
			return err
		}
		key := strings.ToLower(s.Name)
		if prev, dup := names[key]; dup {
			return invalid("sites[%d].name: %q duplicates sites[%d]", i, s.Name, prev)
		}
		names[key] = i
	}
	return nil
}

func validateSite(s SiteConfig, index int) error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("sites[%d].name is required", index)
	}
	kind, err := provider.Lookup(s.Provider)
	if err != nil {
		return fmt.Errorf("sites[%d].provider: %w", index, err)
	}
	if _, err := family.Lookup(s.Family, family.Limits{}); err != nil {
		return fmt.Errorf("sites[%d].family: %w", index, err)
	}

	n := s.Network
	if n.Port < 0 || n.Port > 65535 {
		return invalid("sites[%d].network.port must be between 0 and 65535, got %d", index, n.Port)
	}
	if n.TTL < 0 || n.TTL > 255 {
		return invalid("sites[%d].network.ttl must be between 0 and 255, got %d", index, n.TTL)
	}
	if kind == provider.KindMulticast && n.MulticastGroup == "" {
		return invalid("sites[%d].network.multicast_group is required for provider %s", index, kind)
	}
	if kind == provider.KindUDP && len(n.Destinations) == 0 && !n.Broadcast {
		return invalid("sites[%d].network.destinations must not be empty for provider %s", index, kind)
	}

	if _, err := s.Filter.build(); err != nil {
		return fmt.Errorf("sites[%d].filter: %w", index, err)
	}

	r := s.Retry
	if r.Attempts < 0 || r.InitialDelayMs < 0 || r.MaxDelayMs < 0 || r.Multiplier < 0 {
		return invalid("sites[%d].retry values must be >= 0", index)
	}
	return nil
}

// ParsePDUType accepts a PDU type name, ignoring case, dashes and
// underscores, or its number.
func ParsePDUType(s string) (pdu.Type, error) {
	if n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8); err == nil {
		return pdu.Type(n), nil
	}
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	c, ok := pdu.Types.ByName(key)
	if !ok {
		return 0, invalid("unknown PDU type %q", s)
	}
	return pdu.Type(c.Ordinal), nil
}

func parseTypes(names []string) ([]pdu.Type, error) {
	out := make([]pdu.Type, 0, len(names))
	for _, n := range names {
		t, err := ParsePDUType(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (f FilterConfig) build() (site.Filter, error) {
	var out site.Filter
	var err error
	if out.AllowTypes, err = parseTypes(f.AllowTypes); err != nil {
		return site.Filter{}, err
	}
	if out.DenyTypes, err = parseTypes(f.DenyTypes); err != nil {
		return site.Filter{}, err
	}
	for _, e := range f.Exercises {
		if e < 0 || e > 255 {
			return site.Filter{}, invalid("exercise %d out of range", e)
		}
		out.Exercises = append(out.Exercises, uint8(e))
	}
	return out, nil
}

// ProviderOptions converts a site's network section into provider options.
func (c *RelayConfig) ProviderOptions(s SiteConfig) provider.Options {
	return provider.Options{
		ListenIP:       s.Network.ListenIP,
		Port:           s.Network.Port,
		Destinations:   s.Network.Destinations,
		Broadcast:      s.Network.Broadcast,
		MulticastGroup: s.Network.MulticastGroup,
		Interface:      s.Network.Interface,
		TTL:            s.Network.TTL,
		ReceiveTimeout: time.Duration(c.Relay.ReceiveTimeoutMs) * time.Millisecond,
	}
}

// SiteSettings converts a site entry into site.Config. Unset retry fields
// take the site package defaults.
func SiteSettings(s SiteConfig) (site.Config, error) {
	filter, err := s.Filter.build()
	if err != nil {
		return site.Config{}, err
	}
	retry := site.DefaultRetry
	if s.Retry.Attempts > 0 {
		retry.Attempts = s.Retry.Attempts
	}
	if s.Retry.InitialDelayMs > 0 {
		retry.InitialDelay = time.Duration(s.Retry.InitialDelayMs) * time.Millisecond
	}
	if s.Retry.MaxDelayMs > 0 {
		retry.MaxDelay = time.Duration(s.Retry.MaxDelayMs) * time.Millisecond
	}
	if s.Retry.Multiplier > 0 {
		retry.Multiplier = s.Retry.Multiplier
	}
	return site.Config{Name: s.Name, Path: s.Path, Filter: filter, Retry: retry}, nil
}
