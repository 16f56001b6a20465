package logger

import (
	"time"
)

// Standard field keys for structured logging.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldStrategyID = "strategy_id"
	FieldNodeID     = "node_id"
	FieldNodeKind   = "node_kind"
	FieldProtocol   = "protocol"
	FieldRuleID     = "rule_id"
	FieldCommands   = "commands"
	FieldDigest     = "digest"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("compiled", logger.Fields("strategy_id", id, "commands", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// NodeFields creates fields identifying a strategy node.
func NodeFields(nodeID, kind, protocol string) map[string]interface{} {
	m := map[string]interface{}{FieldNodeID: nodeID, FieldNodeKind: kind}
	if protocol != "" {
		m[FieldProtocol] = protocol
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
