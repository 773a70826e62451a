package database

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/orakit-io/orakit/internal/errs"
)

const (
	defaultPort      = 1521
	defaultDriver    = "oracle"
	defaultProtocol  = "tcp"
	defaultCharset   = "AL32UTF8"
	defaultPoolMin   = 2
	defaultPoolMax   = 10
	defaultIncrement = 1
	defaultTimeout   = 30 * time.Second
)

// Config holds all settings needed to connect to and pool the backend.
// It is populated once (directly or via LoadFile), validated, and never
// mutated afterwards, so the pool shares it without locking.
type Config struct {
	// Driver selects the registered connector implementation.
	Driver string `yaml:"driver"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Service is the backend service name. SID is the older-style
	// identifier; exactly one of the two must be set.
	Service string `yaml:"service"`
	SID     string `yaml:"sid"`

	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// DefaultSchema is used when a metadata call omits the owner.
	DefaultSchema string `yaml:"default_schema"`

	// Pool sizing
	PoolMin       int `yaml:"pool_min"`       // connections created eagerly
	PoolMax       int `yaml:"pool_max"`       // hard upper bound
	PoolIncrement int `yaml:"pool_increment"` // connections added per top-up

	// Timeout bounds connection establishment, acquire waits and the
	// drain phase of shutdown.
	Timeout time.Duration `yaml:"timeout"`

	Charset string `yaml:"charset"`

	// TLS settings, used when Protocol is "tcps".
	Protocol             string `yaml:"protocol"` // tcp or tcps
	TLSCertPath          string `yaml:"tls_cert_path"`
	TLSKeyPath           string `yaml:"tls_key_path"`
	TLSCAPath            string `yaml:"tls_ca_path"`
	VerifyServerIdentity bool   `yaml:"verify_server_identity"`
}

// DefaultConfig returns a validated-by-construction config for the given
// endpoint with production pool defaults.
func DefaultConfig(host, service, user, password string) *Config {
	return &Config{
		Driver:        defaultDriver,
		Host:          host,
		Port:          defaultPort,
		Service:       service,
		User:          user,
		Password:      password,
		PoolMin:       defaultPoolMin,
		PoolMax:       defaultPoolMax,
		PoolIncrement: defaultIncrement,
		Timeout:       defaultTimeout,
		Charset:       defaultCharset,
		Protocol:      defaultProtocol,
	}
}

// LoadFile reads and validates a YAML config file.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, fmt.Sprintf("read config %s", path), err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Wrap(errs.Unknown, fmt.Sprintf("parse config %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects configs the core cannot run with.
// It must be called before the config is handed to the pool.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errs.New(errs.Unknown, "config: host is required")
	}
	if c.Service == "" && c.SID == "" {
		return errs.New(errs.Unknown, "config: service name or SID is required")
	}
	if c.Service != "" && c.SID != "" {
		return errs.New(errs.Unknown, "config: service name and SID are mutually exclusive")
	}
	if c.User == "" {
		return errs.New(errs.Unknown, "config: user is required")
	}

	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return errs.New(errs.Unknown, fmt.Sprintf("config: port %d out of range", c.Port))
	}

	if c.Driver == "" {
		c.Driver = defaultDriver
	}
	if c.Protocol == "" {
		c.Protocol = defaultProtocol
	}
	if c.Protocol != "tcp" && c.Protocol != "tcps" {
		return errs.New(errs.Unknown, fmt.Sprintf("config: unsupported protocol %q", c.Protocol))
	}
	if c.Charset == "" {
		c.Charset = defaultCharset
	}

	if c.PoolMax == 0 {
		c.PoolMax = defaultPoolMax
	}
	if c.PoolMin == 0 {
		c.PoolMin = defaultPoolMin
	}
	if c.PoolMin < 0 || c.PoolMax < 1 {
		return errs.New(errs.Unknown, "config: pool sizes must be positive")
	}
	if c.PoolMin > c.PoolMax {
		return errs.New(errs.Unknown,
			fmt.Sprintf("config: pool_min %d exceeds pool_max %d", c.PoolMin, c.PoolMax))
	}
	if c.PoolIncrement < 1 {
		c.PoolIncrement = defaultIncrement
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}
