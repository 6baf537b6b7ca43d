// Package config loads the bridge settings from a YAML file.
package config

import (
	"io/ioutil"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rigado/bridge"
	"github.com/rigado/bridge/relay"
	"github.com/rigado/bridge/sliceops"
	"gopkg.in/yaml.v3"
)

// Config holds the bridge configuration.
type Config struct {
	TargetService      string       `yaml:"target_service"`
	Policy             PolicyConfig `yaml:"policy"`
	MinRSSI            *int8        `yaml:"min_rssi,omitempty"`
	ConnectTimeout     uint32       `yaml:"connect_timeout"`
	MTULimit           int          `yaml:"mtu_limit"`
	SensorClientConfig uint16       `yaml:"sensor_client_config"`
	StoreDir           string       `yaml:"store_dir"`
	LogLevel           string       `yaml:"log_level"`
}

// PolicyConfig mirrors bridge.Policy.
type PolicyConfig struct {
	ConnectTarget      bool `yaml:"connect_target"`
	EncryptionRequired bool `yaml:"encryption_required"`
	EraseKeys          bool `yaml:"erase_keys"`
}

// DefaultTargetService is the hello sensor service UUID.
const DefaultTargetService = "1b7e8251-2877-41c3-b46e-cf057c562023"

// StoreFilename is the record file kept in StoreDir.
const StoreFilename = "bridge.json"

func Default() *Config {
	return &Config{
		TargetService: DefaultTargetService,
		Policy: PolicyConfig{
			ConnectTarget:      bridge.DefaultPolicy.ConnectTarget,
			EncryptionRequired: bridge.DefaultPolicy.EncryptionRequired,
			EraseKeys:          bridge.DefaultPolicy.EraseKeys,
		},
		ConnectTimeout:     bridge.DefaultConnectTimeout,
		MTULimit:           bridge.DefaultMTULimit,
		SensorClientConfig: uint16(bridge.DefaultSensorClientConfig),
		LogLevel:           "info",
	}
}

// Load reads a YAML file. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

// Parse decodes YAML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.TargetUUID(); err != nil {
		return err
	}
	if c.ConnectTimeout == 0 {
		return errors.New("connect_timeout must be > 0")
	}
	if c.MTULimit < 1 || c.MTULimit > relay.MaxMTULimit {
		return errors.Errorf("mtu_limit must be between 1 and %d, got %d", relay.MaxMTULimit, c.MTULimit)
	}
	if c.SensorClientConfig == 0 {
		return errors.New("sensor_client_config must not be 0")
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log_level must be trace, debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}

// TargetUUID returns the target service in advertisement byte order.
func (c *Config) TargetUUID() ([]byte, error) {
	u, err := uuid.Parse(c.TargetService)
	if err != nil {
		return nil, errors.Wrapf(err, "target_service %q", c.TargetService)
	}
	wire := sliceops.SwapUUID(u)
	return wire[:], nil
}

// StorePath returns the record file path, or "" to keep records in memory.
func (c *Config) StorePath() string {
	if c.StoreDir == "" {
		return ""
	}
	return filepath.Join(c.StoreDir, StoreFilename)
}

// Options maps the configuration to core options.
func (c *Config) Options() ([]bridge.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	target, err := c.TargetUUID()
	if err != nil {
		return nil, err
	}

	opts := []bridge.Option{
		bridge.OptPolicy(bridge.Policy{
			ConnectTarget:      c.Policy.ConnectTarget,
			EncryptionRequired: c.Policy.EncryptionRequired,
			EraseKeys:          c.Policy.EraseKeys,
		}),
		bridge.OptTargetService(target),
		bridge.OptConnectTimeout(c.ConnectTimeout),
		bridge.OptMTULimit(c.MTULimit),
		bridge.OptSensorClientConfig(bridge.AttrID(c.SensorClientConfig)),
	}
	if c.MinRSSI != nil {
		opts = append(opts, bridge.OptMinRSSI(*c.MinRSSI))
	}
	return opts, nil
}
