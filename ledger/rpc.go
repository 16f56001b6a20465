package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/resilience"
)

// JSONRPCVersion is the protocol version sent with every request.
const JSONRPCVersion = "2.0"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Option configures an RPC client.
type Option func(*RPC)

// WithLogger sets the client's logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *RPC) { r.log = log.WithComponent("ledger") }
}

// WithMetrics records one operation per RPC call.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *RPC) { r.metrics = m }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *RPC) { r.http = c }
}

// RPC is a JSON-RPC 2.0 client for a full node. Every call runs under the
// resilience policy built from Config. It is safe for concurrent use.
type RPC struct {
	url     string
	headers map[string]string
	http    *http.Client
	policy  *resilience.Policy
	nextID  atomic.Int64
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewRPC creates a client for cfg.URL.
func NewRPC(cfg Config, opts ...Option) (*RPC, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	r := &RPC{
		url:     cfg.URL,
		headers: cfg.Headers,
		http:    &http.Client{Transport: transport},
		policy:  cfg.Policy(service),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Call invokes method and decodes the result into out, which may be nil.
func (r *RPC) Call(ctx context.Context, method string, params []any, out any) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanLedger)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRPCMethod, method)

	start := time.Now()
	resp, err := resilience.Do(ctx, r.policy, func(ctx context.Context) (*rpcResponse, error) {
		return r.callOnce(ctx, method, params)
	})
	if err == nil && resp.Error != nil {
		err = resp.Error
	}

	status := "ok"
	if err != nil {
		status = "error"
		observability.SetSpanError(ctx, err)
		fields := logger.ErrorFields(method, err)
		fields[logger.FieldDuration] = time.Since(start).Milliseconds()
		r.log.Warn("ledger call failed", fields)
	}
	r.metrics.RecordOperation(ctx, service, method, status, time.Since(start))
	if err != nil {
		return err
	}

	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return apperrors.ExternalServiceError(service, fmt.Errorf("decode %s result: %w", method, err)).
			WithDetail("method", method)
	}
	return nil
}

// callOnce performs one HTTP round trip. A node-side error is returned in
// the response, not as an error.
func (r *RPC) callOnce(ctx context.Context, method string, params []any) (*rpcResponse, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: JSONRPCVersion,
		ID:      r.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, apperrors.InvalidInput("params", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.InvalidInput("ledger.url", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	httpResp, err := r.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	if err := classifyStatus(httpResp.StatusCode, raw); err != nil {
		return nil, err
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.ExternalServiceError(service, fmt.Errorf("decode response: %w", err))
	}
	return &resp, nil
}

// Available is false while the circuit is open.
func (r *RPC) Available() bool {
	cb := r.policy.Breaker()
	return cb == nil || cb.State() != resilience.StateOpen
}
