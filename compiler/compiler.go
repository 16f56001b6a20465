package compiler

import (
	"context"
	"time"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/dag"
	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/ptb"
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/validation"
)

// Compile statuses recorded in metrics.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
	StatusFailed  = "failed"
)

// Compilation is the result of a successful compile.
type Compilation struct {
	StrategyID string `json:"strategy_id"`
	// Order is the execution order of node ids.
	Order     []string                    `json:"order"`
	Program   *ptb.Program                `json:"program"`
	Estimates map[string]adapter.Estimate `json:"estimates"`
	// Slots lists every node output bound by the program, in emission order.
	Slots     []string                    `json:"slots"`
	Warnings  []validation.Issue          `json:"warnings"`
	Duration  time.Duration               `json:"duration"`
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler's logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Compiler) { c.log = log.WithComponent("compiler") }
}

// WithMetrics records compiles, validation issues and estimates.
func WithMetrics(m *observability.CompileMetrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

// WithTaskMetrics records each pre-estimate task as an operation.
func WithTaskMetrics(m *observability.Metrics) Option {
	return func(c *Compiler) { c.taskMetrics = m }
}

// Compiler validates and compiles strategies. It holds no per-compile
// state and is safe for concurrent use.
type Compiler struct {
	cfg      Config
	schema   *validation.SchemaValidator
	graph    *dag.GraphValidator
	adapters *adapter.Registry
	log      *logger.Logger
	metrics  *observability.CompileMetrics

	taskMetrics *observability.Metrics
}

// New creates a Compiler that dispatches nodes through adapters.
func New(adapters *adapter.Registry, cfg Config, opts ...Option) *Compiler {
	cfg.ApplyDefaults()
	c := &Compiler{
		cfg:      cfg,
		schema:   validation.NewSchemaValidator(),
		graph:    dag.NewGraphValidator(cfg.Graph),
		adapters: adapters,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Adapters returns the adapter registry.
func (c *Compiler) Adapters() *adapter.Registry { return c.adapters }

// Validate runs the schema validator and, when the document is well formed,
// the graph validator. It never returns an error; every finding is in the
// result.
func (c *Compiler) Validate(ctx context.Context, s *strategy.Strategy) *validation.Result {
	ctx, span := observability.StartSpan(ctx, observability.SpanValidate)
	defer span.End()

	r := c.schema.Validate(s)
	if r.Valid {
		r.Merge(c.graph.Validate(s))
	}

	for _, is := range r.All() {
		c.metrics.RecordIssue(ctx, is.RuleID, string(is.Severity))
	}
	observability.SetSpanAttribute(ctx, "validation.errors", len(r.Errors))
	observability.SetSpanAttribute(ctx, "validation.warnings", len(r.Warnings))
	return r
}

// Compile validates s and compiles it into a program. A strategy that fails
// validation yields a VALIDATION_FAILED error carrying the full result (see
// ValidationResultOf). Emission failures abort the compile; no partial
// program is returned.
func (c *Compiler) Compile(ctx context.Context, s *strategy.Strategy) (*Compilation, error) {
	if s == nil {
		return nil, apperrors.InvalidInput("strategy", "no strategy given")
	}
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanCompile)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStrategyID, s.ID)
	observability.SetSpanAttribute(ctx, observability.AttrNodeCount, len(s.Nodes))

	log := c.log.WithStrategy(s.ID)

	result := c.Validate(ctx, s)
	if !result.Valid {
		err := apperrors.ValidationFailed(s.ID, len(result.Errors), result)
		log.Debug("strategy failed validation", logger.Fields("errors", len(result.Errors), "rules", result.RuleIDs()))
		c.metrics.RecordCompile(ctx, StatusInvalid, 0, time.Since(start))
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	sess := newSession(c, s, log)
	sess.estimate(ctx)

	_, sortSpan := observability.StartSpan(ctx, observability.SpanSort)
	order := sess.graph.Sort()
	sortSpan.End()

	program, err := sess.emit(ctx, order)
	if err != nil {
		log.Warn("compile failed", logger.ErrorFields("emit", err))
		c.metrics.RecordCompile(ctx, StatusFailed, 0, time.Since(start))
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	out := &Compilation{
		StrategyID: s.ID,
		Order:      order,
		Program:    program,
		Estimates:  sess.estimates.snapshot(),
		Slots:      sess.slots(),
		Warnings:   result.Warnings,
		Duration:   time.Since(start),
	}
	if out.Warnings == nil {
		out.Warnings = []validation.Issue{}
	}

	observability.SetSpanAttribute(ctx, observability.AttrCommandCount, len(program.Commands))
	c.metrics.RecordCompile(ctx, StatusOK, len(program.Commands), out.Duration)
	log.Info("strategy compiled", logger.Fields(
		logger.FieldCommands, len(program.Commands),
		"groups", len(program.Groups),
		logger.FieldDuration, out.Duration.Milliseconds(),
	))
	return out, nil
}

// ValidationResultOf returns the validation result attached to a
// VALIDATION_FAILED error, or nil.
func ValidationResultOf(err error) *validation.Result {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeValidationFailed {
		return nil
	}
	r, _ := appErr.Details["validation"].(*validation.Result)
	return r
}
