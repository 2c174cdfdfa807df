// Package config loads cache-wrapper settings from the environment and
// policy definitions from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

// ServerConfig describes the redis server and the wrapper on top of it.
type ServerConfig struct {
	Host           string        `env:"CACHE_WRAPPER_HOST"            envDefault:"localhost"`
	Port           int           `env:"CACHE_WRAPPER_PORT"            envDefault:"6379"`
	Password       string        `env:"CACHE_WRAPPER_PASSWORD"`
	DB             int           `env:"CACHE_WRAPPER_DB"              envDefault:"0"`
	Partition      string        `env:"CACHE_WRAPPER_PARTITION"       envDefault:"cacheWrapper"`
	Policies       string        `env:"CACHE_WRAPPER_POLICIES"`
	ConnectTimeout time.Duration `env:"CACHE_WRAPPER_CONNECT_TIMEOUT" envDefault:"5s"`
	ScanCount      int64         `env:"CACHE_WRAPPER_SCAN_COUNT"      envDefault:"500"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Addr is host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedisOptions builds client options. Connections are established lazily
// by the store's Connect.
func (c ServerConfig) RedisOptions() *goredis.Options {
	return &goredis.Options{
		Addr:        c.Addr(),
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: c.ConnectTimeout,
		// the wrapper owns reconnects; don't let commands spin on retries
		MaxRetries: -1,
	}
}

// Validate reports missing or out-of-range settings.
func (c ServerConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Partition == "" {
		errs = append(errs, errors.New("partition is required"))
	}
	if c.DB < 0 {
		errs = append(errs, fmt.Errorf("db %d must not be negative", c.DB))
	}
	if c.ScanCount < 0 {
		errs = append(errs, fmt.Errorf("scan count %d must not be negative", c.ScanCount))
	}
	return errors.Join(errs...)
}

// policyFile is the on-disk shape. expiresIn is milliseconds.
type policyFile struct {
	Policies []policyEntry `yaml:"policies" toml:"policies"`
}

type policyEntry struct {
	Segment   string `yaml:"segment"   toml:"segment"`
	ExpiresIn int64  `yaml:"expiresIn" toml:"expiresIn"`
}

// LoadPolicies reads policy definitions from a .yaml, .yml or .toml file.
func LoadPolicies(path string) ([]cachewrapper.PolicyDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policies: %w", err)
	}
	return ParsePolicies(filepath.Ext(path), data)
}

// ParsePolicies decodes data in the format named by ext.
func ParsePolicies(ext string, data []byte) ([]cachewrapper.PolicyDef, error) {
	var f policyFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml policies: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode toml policies: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported policy file extension %q", ext)
	}

	defs := make([]cachewrapper.PolicyDef, 0, len(f.Policies))
	for i, p := range f.Policies {
		if p.Segment == "" {
			return nil, fmt.Errorf("policies[%d]: segment is required", i)
		}
		if p.ExpiresIn <= 0 {
			return nil, fmt.Errorf("policies[%d] %q: expiresIn must be positive", i, p.Segment)
		}
		defs = append(defs, cachewrapper.PolicyDef{
			Segment:   p.Segment,
			ExpiresIn: time.Duration(p.ExpiresIn) * time.Millisecond,
		})
	}
	return defs, nil
}
