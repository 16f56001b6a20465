package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "strategyc", &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSONIncludesService(t *testing.T) {
	l, buf := jsonLogger("info")
	l.Info("hello")
	m := decodeLine(t, buf)
	if m[FieldService] != "strategyc" {
		t.Errorf("expected service 'strategyc', got %v", m[FieldService])
	}
	if m["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", m["message"])
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	l, buf := jsonLogger("warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("expected warn to be written")
	}
}

func TestNewWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := jsonLogger("nonsense")
	l.Debug("dropped")
	l.Info("kept")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("expected debug to be filtered")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("expected info to be written")
	}
}

func TestWithStrategyAndFields(t *testing.T) {
	l, buf := jsonLogger("debug")
	l.WithStrategy("s-1").WithComponent("compiler").Info("compiled", Fields(FieldCommands, 7))
	m := decodeLine(t, buf)
	if m[FieldStrategyID] != "s-1" {
		t.Errorf("expected strategy_id s-1, got %v", m[FieldStrategyID])
	}
	if m[FieldComponent] != "compiler" {
		t.Errorf("expected component compiler, got %v", m[FieldComponent])
	}
	if m[FieldCommands] != float64(7) {
		t.Errorf("expected commands 7, got %v", m[FieldCommands])
	}
}

func TestWithContext(t *testing.T) {
	l, buf := jsonLogger("info")
	ctx := ContextWithValue(context.Background(), FieldRequestID, "req-9")
	l.WithContext(ctx).Info("x")
	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-9" {
		t.Errorf("expected request_id req-9, got %v", m[FieldRequestID])
	}
}

func TestWithError(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error boom, got %v", m["error"])
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestNodeFields(t *testing.T) {
	m := NodeFields("swap1", "swap", "")
	if _, ok := m[FieldProtocol]; ok {
		t.Error("expected no protocol key when protocol is empty")
	}
	m = NodeFields("swap1", "swap", "cetus")
	if m[FieldProtocol] != "cetus" {
		t.Errorf("expected protocol cetus, got %v", m[FieldProtocol])
	}
}

func TestDurationAndErrorFields(t *testing.T) {
	d := DurationFields("estimate", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", d[FieldDuration])
	}
	e := ErrorFields("encode", errors.New("bad"))
	if e[FieldError] != "bad" {
		t.Errorf("expected error 'bad', got %v", e[FieldError])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", func() Config { c := Config{}; c.ApplyDefaults(); return c }(), false},
		{"bad level", Config{Level: "loud", Format: FormatJSON}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
