package compiler

import (
	"time"

	"github.com/kbukum/strategykit/dag"
	"github.com/kbukum/strategykit/validation"
)

// Config holds the compiler settings.
type Config struct {
	// Graph holds the budget limits of the graph validator.
	Graph dag.Config `yaml:",inline" mapstructure:",squash"`

	// EstimateTimeout bounds each adapter estimate.
	EstimateTimeout time.Duration `yaml:"estimate_timeout" mapstructure:"estimate_timeout"`
	// EstimateParallelism limits concurrent estimates per dependency level.
	EstimateParallelism int `yaml:"estimate_parallelism" mapstructure:"estimate_parallelism"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	c.Graph.ApplyDefaults()
	if c.EstimateTimeout == 0 {
		c.EstimateTimeout = 5 * time.Second
	}
	if c.EstimateParallelism == 0 {
		c.EstimateParallelism = 4
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	return validation.New().
		Positive("compiler.estimate_timeout", c.EstimateTimeout).
		Range("compiler.estimate_parallelism", c.EstimateParallelism, 1, 64).
		Validate()
}
