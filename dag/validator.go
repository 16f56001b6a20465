package dag

import (
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/validation"
)

// Default budget parameters.
const (
	DefaultCommandsPerNode   = 5
	DefaultMaxCommands       = 1024
	DefaultBudgetWarnRatio   = 0.8
	DefaultNodeWarnThreshold = 100
)

// Config holds the graph validator limits.
type Config struct {
	// CommandsPerNode is the conservative per-node command cost.
	CommandsPerNode int `yaml:"commands_per_node" mapstructure:"commands_per_node"`
	// MaxCommands is the ledger's per-transaction command ceiling.
	MaxCommands       int     `yaml:"max_commands" mapstructure:"max_commands"`
	BudgetWarnRatio   float64 `yaml:"budget_warn_ratio" mapstructure:"budget_warn_ratio"`
	NodeWarnThreshold int     `yaml:"node_warn_threshold" mapstructure:"node_warn_threshold"`
}

// DefaultConfig returns the ledger's limits.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.CommandsPerNode == 0 {
		c.CommandsPerNode = DefaultCommandsPerNode
	}
	if c.MaxCommands == 0 {
		c.MaxCommands = DefaultMaxCommands
	}
	if c.BudgetWarnRatio == 0 {
		c.BudgetWarnRatio = DefaultBudgetWarnRatio
	}
	if c.NodeWarnThreshold == 0 {
		c.NodeWarnThreshold = DefaultNodeWarnThreshold
	}
}

// Validate checks the limits.
func (c *Config) Validate() error {
	return validation.New().
		Range("compiler.commands_per_node", c.CommandsPerNode, 1, 64).
		Min("compiler.max_commands", c.MaxCommands, 1).
		RangeFloat("compiler.budget_warn_ratio", c.BudgetWarnRatio, 0, 1).
		Min("compiler.node_warn_threshold", c.NodeWarnThreshold, 1).
		Validate()
}

// GraphValidator runs the graph checks over a schema-valid strategy.
type GraphValidator struct {
	cfg Config
}

// NewGraphValidator creates a validator with cfg, defaults applied.
func NewGraphValidator(cfg Config) *GraphValidator {
	cfg.ApplyDefaults()
	return &GraphValidator{cfg: cfg}
}

// Config returns the effective limits.
func (v *GraphValidator) Config() Config { return v.cfg }

// Validate runs every check and aggregates all findings. It never stops at
// the first failure and does not modify s.
func (v *GraphValidator) Validate(s *strategy.Strategy) *validation.Result {
	r := validation.NewResult()
	g := FromStrategy(s)

	checkHotPotato(s, g, r)
	checkTypes(s, g, r)
	checkAcyclic(g, r)
	checkBudget(s, v.cfg, r)
	checkReferences(s, g, r)

	return r
}
