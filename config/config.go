// Package config loads simulator settings from defaults, an optional config
// file, and CACHESIM_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/replacement"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. CACHESIM_CACHE_SIZE.
const EnvPrefix = "CACHESIM"

// Oracle names accepted in Config.Oracle.
const (
	OracleFullyAssociative = "fa"
	OracleDirectory        = "directory"
)

// Config holds the settings of a simulation run.
type Config struct {
	// CacheSize in bytes. Default: 32768.
	CacheSize uint64 `mapstructure:"cache_size"`

	// BlockSize in bytes (cache line size). Default: 64.
	BlockSize uint64 `mapstructure:"block_size"`

	// Associativity is the number of ways per set. Default: 4.
	Associativity int `mapstructure:"associativity"`

	// Policy is LRU or FIFO, case-insensitive. Default: LRU.
	Policy string `mapstructure:"policy"`

	// AddressBits is the width of trace addresses. Default: 32.
	AddressBits int `mapstructure:"address_bits"`

	// Verbose enables the per-access log.
	Verbose bool `mapstructure:"verbose"`

	// Oracle selects the reference cache: "fa" or "directory".
	Oracle string `mapstructure:"oracle"`

	// OracleWays is the associativity of the directory oracle. 0 means fully
	// associative.
	OracleWays int `mapstructure:"oracle_ways"`

	// Record is the path of a SQLite database to record results in.
	Record string `mapstructure:"record"`
}

// Default returns the built-in settings.
func Default() *Config {
	p := geometry.DefaultParams()

	return &Config{
		CacheSize:     p.CacheSize,
		BlockSize:     p.BlockSize,
		Associativity: p.Associativity,
		Policy:        replacement.LRU.String(),
		AddressBits:   p.AddressBits,
		Oracle:        OracleFullyAssociative,
	}
}

// Load reads settings starting from base. Values from the file at path (if
// path is not empty) override base, and environment variables override both.
// A nil base means Default().
func Load(path string, base *Config) (*Config, error) {
	if base == nil {
		base = Default()
	}

	v := viper.New()
	setDefaults(v, base)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, geometry.NewConfigError("config", path,
				fmt.Sprintf("read config: %v", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, geometry.NewConfigError("config", path,
			fmt.Sprintf("unmarshal config: %v", err))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("cache_size", c.CacheSize)
	v.SetDefault("block_size", c.BlockSize)
	v.SetDefault("associativity", c.Associativity)
	v.SetDefault("policy", c.Policy)
	v.SetDefault("address_bits", c.AddressBits)
	v.SetDefault("verbose", c.Verbose)
	v.SetDefault("oracle", c.Oracle)
	v.SetDefault("oracle_ways", c.OracleWays)
	v.SetDefault("record", c.Record)
}

// WithPreset returns a copy of the default settings with the geometry of the
// named preset.
func WithPreset(name string) (*Config, error) {
	p, err := geometry.Preset(name)
	if err != nil {
		return nil, err
	}

	c := Default()
	c.CacheSize = p.CacheSize
	c.BlockSize = p.BlockSize
	c.Associativity = p.Associativity
	c.AddressBits = p.AddressBits

	return c, nil
}

// Params returns the geometry parameters.
func (c *Config) Params() geometry.Params {
	return geometry.Params{
		CacheSize:     c.CacheSize,
		BlockSize:     c.BlockSize,
		Associativity: c.Associativity,
		AddressBits:   c.AddressBits,
	}
}

// ReplacementPolicy parses the policy name.
func (c *Config) ReplacementPolicy() (replacement.Policy, error) {
	return replacement.ParsePolicy(c.Policy)
}

// Validate checks the settings that geometry.New does not cover.
func (c *Config) Validate() error {
	if _, err := c.ReplacementPolicy(); err != nil {
		return err
	}

	switch strings.ToLower(c.Oracle) {
	case OracleFullyAssociative, OracleDirectory:
	default:
		return geometry.NewConfigError("oracle", c.Oracle,
			"expected fa or directory")
	}

	if c.OracleWays < 0 {
		return geometry.NewConfigError("oracle_ways", c.OracleWays, "must be >= 0")
	}

	return nil
}
