package main

import (
	"fmt"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/compiler"
	"github.com/kbukum/strategykit/config"
	"github.com/kbukum/strategykit/ledger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/server"
)

const serviceName = "strategyc"

// Config is the strategyc configuration file.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Compiler      compiler.Config      `yaml:"compiler" mapstructure:"compiler"`
	Ledger        ledger.Config        `yaml:"ledger" mapstructure:"ledger"`
	Pools         ledger.PoolLayout    `yaml:"pools" mapstructure:"pools"`
	Adapters      []adapter.Config     `yaml:"adapters" mapstructure:"adapters"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Compiler.ApplyDefaults()
	c.Ledger.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Compiler.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	tags := make(map[string]bool, len(c.Adapters))
	for _, a := range c.Adapters {
		if tags[a.Tag] {
			return fmt.Errorf("adapters: tag %q is declared more than once", a.Tag)
		}
		tags[a.Tag] = true
	}
	return nil
}

// loadConfig reads path, or the standard locations when path is empty.
func loadConfig(path string) (*Config, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
