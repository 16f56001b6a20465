package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/strategykit/version"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("strategy: unsupported file extension %q", filepath.Ext(path))
	}
}

// Load reads a strategy document from a .json, .yaml or .yml file.
func Load(path string) (*Strategy, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("strategy: reading %s: %w", path, err)
	}
	s, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("strategy: parsing %s: %w", path, err)
	}
	return s, nil
}

// Decode parses raw as a strategy document. It fails only when raw is not a
// document of the expected shape at all; missing or wrong-valued fields are
// left for validation to report.
func Decode(raw []byte, format Format) (*Strategy, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var s Strategy
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &s, nil
}

// Encode renders s in the given format.
func Encode(s *Strategy, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// New returns an empty strategy with a fresh id at the current document
// version.
func New(name string) *Strategy {
	now := time.Now().UTC().Truncate(time.Second)
	return &Strategy{
		ID:      uuid.NewString(),
		Version: version.SchemaVersion,
		Metadata: Metadata{
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
