package ledger

import (
	"time"

	"github.com/kbukum/strategykit/resilience"
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/validation"
)

const (
	DefaultURL         = "https://fullnode.mainnet.sui.io:443"
	DefaultTimeout     = 10 * time.Second
	DefaultMinGasPrice = 1000
	DefaultGasBudget   = 50_000_000
)

// Config configures the ledger client and submitter.
type Config struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MinGasPrice is the floor applied over the reference gas price.
	MinGasPrice uint64 `yaml:"min_gas_price" mapstructure:"min_gas_price"`
	GasBudget   uint64 `yaml:"gas_budget" mapstructure:"gas_budget"`
	// Sender is the default sender for dry-runs.
	Sender  string            `yaml:"sender" mapstructure:"sender"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerFailures int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MinGasPrice == 0 {
		c.MinGasPrice = DefaultMinGasPrice
	}
	if c.GasBudget == 0 {
		c.GasBudget = DefaultGasBudget
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.RateLimit == 0 {
		c.RateLimit = 20
	}
	if c.Burst == 0 {
		c.Burst = 40
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	v := validation.New().
		URL("ledger.url", c.URL).
		Positive("ledger.timeout", c.Timeout).
		Range("ledger.max_attempts", c.MaxAttempts, 1, 10).
		Min("ledger.breaker_failures", c.BreakerFailures, 1).
		Min("ledger.burst", c.Burst, 1).
		Custom(c.RateLimit > 0, "ledger.rate_limit", "must be positive").
		Custom(c.GasBudget > 0, "ledger.gas_budget", "must be positive")
	if c.Sender != "" {
		v.Custom(strategy.IsObjectID(c.Sender), "ledger.sender", "must be a hex address")
	}
	return v.Validate()
}

// Policy returns the protection stack for RPC calls: rate limit, retry on
// retryable transport errors, circuit breaker and a per-attempt timeout.
func (c *Config) Policy(name string) *resilience.Policy {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxAttempts
	retry.RetryIf = IsRetryable
	breaker := resilience.DefaultCircuitBreakerConfig(name)
	breaker.MaxFailures = c.BreakerFailures
	limiter := resilience.DefaultRateLimiterConfig(name)
	limiter.Rate = c.RateLimit
	limiter.Burst = c.Burst
	return resilience.NewPolicy(resilience.PolicyConfig{
		Name:           name,
		Timeout:        c.Timeout,
		Retry:          &retry,
		CircuitBreaker: &breaker,
		RateLimiter:    &limiter,
	})
}
