package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/compiler"
	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/ledger"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/provider"
	"github.com/kbukum/strategykit/server/endpoint"
	"github.com/kbukum/strategykit/server/middleware"
	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/version"
)

// API holds the services behind the routes.
type API struct {
	Service  string
	Compiler *compiler.Compiler
	// Submitter runs simulations. Without one, simulate answers 503.
	Submitter *ledger.Submitter
	// Ledger is reported on /health when set.
	Ledger observability.HealthChecker
	// Exposition serves /metrics; see endpoint.Metrics.
	Exposition http.Handler
}

// SimulationResponse is the body of a simulate call.
type SimulationResponse struct {
	Compilation *compiler.Compilation `json:"compilation"`
	Report      *ledger.Report        `json:"report"`
}

// RegisterRoutes installs the health, version and metrics endpoints and the strategy API.
func (s *Server) RegisterRoutes(api API) {
	var checkers []observability.HealthChecker
	if api.Ledger != nil {
		checkers = append(checkers, api.Ledger)
	}
	checkers = append(checkers, adapterCheckers(api.Compiler.Adapters())...)

	s.engine.GET("/health", endpoint.Health(api.Service, version.GetShortVersion(), checkers...))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/metrics", endpoint.Metrics(api.Exposition))

	h := &handlers{api: api, log: s.log}
	v1 := s.engine.Group("/api/v1")
	if limit := s.apiLimiter(); limit != nil {
		v1.Use(limit)
	}
	v1.POST("/strategies/validate", h.validate)
	v1.POST("/strategies/compile", h.compile)
	v1.POST("/strategies/simulate", h.simulate)
	v1.GET("/adapters", h.adapters)
}

func adapterCheckers(reg *adapter.Registry) []observability.HealthChecker {
	var out []observability.HealthChecker
	for _, tag := range reg.Tags() {
		if a, ok := reg.Lookup(tag); ok {
			out = append(out, provider.Checker{Provider: a})
		}
	}
	return out
}

type handlers struct {
	api API
	log *logger.Logger
}

// validate answers 200 with the validation result, valid or not.
func (h *handlers) validate(c *gin.Context) {
	s, err := readStrategy(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.api.Compiler.Validate(c.Request.Context(), s))
}

func (h *handlers) compile(c *gin.Context) {
	s, err := readStrategy(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	out, err := h.api.Compiler.Compile(c.Request.Context(), s)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, out)
}

// simulate compiles the strategy and dry-runs it as the sender query
// parameter, or the configured sender.
func (h *handlers) simulate(c *gin.Context) {
	if h.api.Submitter == nil {
		RespondWithError(c, apperrors.ServiceUnavailable("ledger"))
		return
	}
	s, err := readStrategy(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	ctx := c.Request.Context()
	out, err := h.api.Compiler.Compile(ctx, s)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	report, err := h.api.Submitter.Simulate(ctx, out.Program, c.Query("sender"))
	if err != nil {
		h.log.Warn("simulation failed", logger.Fields(
			logger.FieldStrategyID, s.ID,
			logger.FieldRequestID, middleware.GetRequestID(c),
			logger.FieldError, err.Error(),
		))
		RespondWithError(c, err)
		return
	}
	RespondOK(c, SimulationResponse{Compilation: out, Report: report})
}

func (h *handlers) adapters(c *gin.Context) {
	RespondOK(c, h.api.Compiler.Adapters().Describe(c.Request.Context()))
}

// readStrategy decodes the request body as YAML when the content type says
// so and as JSON otherwise.
func readStrategy(c *gin.Context) (*strategy.Strategy, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			appErr := apperrors.InvalidInput("body", "request body is too large")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			return nil, appErr
		}
		return nil, apperrors.InvalidInput("body", err.Error()).WithCause(err)
	}
	format := strategy.FormatJSON
	if strings.Contains(c.ContentType(), "yaml") {
		format = strategy.FormatYAML
	}
	s, err := strategy.Decode(raw, format)
	if err != nil {
		return nil, apperrors.InvalidFormat("strategy document", string(format)).WithCause(err)
	}
	return s, nil
}
