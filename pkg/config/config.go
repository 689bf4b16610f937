package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeehio/aves/pkg/sample"
)

// Version is the only configuration schema this build understands.
// Older JSON-based documents are rejected outright.
const Version = 2

var ErrInvalid = errors.New("invalid configuration")

// Input describes the device side: transport parameters plus the
// ordered columns the device emits on every line.
type Input struct {
	Baudrate  int             `yaml:"baudrate"`
	Timeout   float64         `yaml:"timeout"` // seconds
	SkipFirst int             `yaml:"skip_first"`
	Columns   []sample.Column `yaml:"columns"`
}

// Postgres optionally mirrors the capture into a TimescaleDB or
// plain Postgres table alongside the text file.
type Postgres struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// Output lists the column names persisted per record, in order.
// The receipt-time column may be requested like any device column.
type Output struct {
	Columns  []string  `yaml:"columns"`
	Postgres *Postgres `yaml:"postgres"`
}

// Live configures the websocket view: publish cadence and an
// optional shared secret gating viewer connections.
type Live struct {
	RefreshMs  int    `yaml:"refresh_ms"`
	MinSamples int    `yaml:"min_samples"`
	Secret     string `yaml:"secret"`
}

type Config struct {
	Version int    `yaml:"version"`
	Input   Input  `yaml:"input"`
	Output  Output `yaml:"output"`
	Live    Live   `yaml:"live"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs before acquisition starts so that structural
// problems abort the run up front instead of mid-capture.
func (c *Config) Validate() error {
	if c.Version != Version {
		return fmt.Errorf(
			"%w: don't know how to handle config with version %d, expecting %d",
			ErrInvalid, c.Version, Version)
	}
	if c.Input.Baudrate <= 0 {
		return fmt.Errorf("%w: input baudrate must be positive", ErrInvalid)
	}
	if c.Input.Timeout <= 0 {
		return fmt.Errorf("%w: input timeout must be positive", ErrInvalid)
	}
	if c.Input.SkipFirst < 0 {
		return fmt.Errorf("%w: input skip_first cannot be negative", ErrInvalid)
	}
	if len(c.Input.Columns) == 0 {
		return fmt.Errorf("%w: input declares no columns", ErrInvalid)
	}
	seen := map[string]bool{}
	for _, column := range c.Input.Columns {
		if column.Name == "" {
			return fmt.Errorf("%w: input column without a name", ErrInvalid)
		}
		if column.Name == sample.TimeComputer {
			return fmt.Errorf(
				"%w: column name %q is reserved for the receipt stamp",
				ErrInvalid, sample.TimeComputer)
		}
		if seen[column.Name] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalid, column.Name)
		}
		if column.Factor == 0 {
			return fmt.Errorf(
				"%w: column %q has no conversion_factor", ErrInvalid, column.Name)
		}
		seen[column.Name] = true
	}
	if len(c.Output.Columns) == 0 {
		return fmt.Errorf("%w: output declares no columns", ErrInvalid)
	}
	for _, name := range c.Output.Columns {
		if name == sample.TimeComputer || seen[name] {
			continue
		}
		return fmt.Errorf("%w: output column %q is not an input column", ErrInvalid, name)
	}
	if c.Output.Postgres != nil {
		if c.Output.Postgres.DSN == "" || c.Output.Postgres.Table == "" {
			return fmt.Errorf("%w: postgres sink needs both dsn and table", ErrInvalid)
		}
	}
	if c.Live.RefreshMs < 0 || c.Live.MinSamples < 0 {
		return fmt.Errorf("%w: live cadence values cannot be negative", ErrInvalid)
	}
	return nil
}

// Timeout is the stall threshold: how long the stream may stay
// silent before the connection is presumed dropped.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Input.Timeout * float64(time.Second))
}

func (c *Config) Refresh() time.Duration {
	if c.Live.RefreshMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Live.RefreshMs) * time.Millisecond
}

// ColumnNames lists the device columns plus the receipt stamp, in
// the order a viewer should lay them out.
func (c *Config) ColumnNames() []string {
	names := make([]string, 0, len(c.Input.Columns)+1)
	for _, column := range c.Input.Columns {
		names = append(names, column.Name)
	}
	return append(names, sample.TimeComputer)
}
