package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/strategykit/strategy"
	"github.com/kbukum/strategykit/version"
)

const testConfig = `
name: strategyc-test
environment: development
logging:
  level: error
  format: json
ledger:
  url: http://127.0.0.1:1
  timeout: 1s
  max_attempts: 1
compiler:
  estimate_timeout: 2s
adapters:
  - tag: navi
    family: flashloan
    settings:
      package: "0xabc"
      objects: ["0x10"]
      fee_bps: 9
  - tag: cetus
    family: exchange
    settings:
      package: "0xcc"
      max_attempts: 1
      timeout: 1s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// scaffold writes the template strategy and returns its path.
func scaffold(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	_, _, err := run(t, "init", "-o", path, "--pool-ab", "0xa", "--pool-ba", "0xb")
	require.NoError(t, err)
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.SchemaVersion, info.SchemaVersion)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arb.json")
	out, _, err := run(t, "init", "-o", path, "--lender", "navi", "--exchange", "cetus", "--amount", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	s, err := strategy.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Nodes, 4)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "5000", s.Nodes[0].Params["amount"])

	_, _, err = run(t, "init", "-o", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = run(t, "init", "-o", path, "--force")
	assert.NoError(t, err)

	_, _, err = run(t, "init", "-o", filepath.Join(t.TempDir(), "arb.txt"))
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := scaffold(t, "arb.yaml")

	out, _, err := run(t, "validate", "-c", cfg, path)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)
}

func TestValidateCommandInvalid(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := scaffold(t, "arb.yaml")

	s, err := strategy.Load(path)
	require.NoError(t, err)
	for i := range s.Nodes {
		if s.Nodes[i].Kind == strategy.KindRepay {
			s.Nodes[i].Params["asset"] = strategy.CoinUSDC
		}
	}
	raw, err := strategy.Encode(s, strategy.FormatYAML)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	out, _, err := run(t, "validate", "-c", cfg, path)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "ASSET_1")
}

func TestCompileCommand(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := scaffold(t, "arb.json")

	out, _, err := run(t, "compile", "-c", cfg, path)
	require.NoError(t, err)

	var compiled struct {
		Order     []string `json:"order"`
		Estimates map[string]struct {
			Source string `json:"source"`
		} `json:"estimates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))
	assert.Len(t, compiled.Order, 4)
	// the configured node is unreachable
	for id, est := range compiled.Estimates {
		assert.Equal(t, "fallback", est.Source, id)
	}
}

func TestCompileCommandToFile(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := scaffold(t, "arb.json")
	dest := filepath.Join(t.TempDir(), "out.json")

	out, _, err := run(t, "compile", "-c", cfg, "-o", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"program"`)
}

func TestCompileCommandUnknownProtocol(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := filepath.Join(t.TempDir(), "arb.yaml")
	_, _, err := run(t, "init", "-o", path, "--exchange", "turbos")
	require.NoError(t, err)

	_, _, err = run(t, "compile", "-c", cfg, path)
	assert.ErrorContains(t, err, "turbos")
}

func TestSimulateCommandNeedsSender(t *testing.T) {
	cfg := writeConfig(t, testConfig)
	path := scaffold(t, "arb.json")

	_, _, err := run(t, "simulate", "-c", cfg, path)
	assert.ErrorContains(t, err, "sender")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "strategyc-test", cfg.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Compiler.Graph.CommandsPerNode)
	assert.Equal(t, 1024, cfg.Compiler.Graph.MaxCommands)
	assert.Equal(t, 1, cfg.Ledger.MaxAttempts)
	require.Len(t, cfg.Adapters, 2)
	assert.Equal(t, "exchange", cfg.Adapters[1].Family)
}

func TestLoadConfigRejectsDuplicateTags(t *testing.T) {
	body := testConfig + `
  - tag: navi
    family: flashloan
    settings:
      package: "0xdef"
`
	_, err := loadConfig(writeConfig(t, body))
	assert.ErrorContains(t, err, "more than once")
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := loadConfig("config.yml")
	require.NoError(t, err)
	assert.Equal(t, serviceName, cfg.Name)
	assert.Len(t, cfg.Adapters, 2)
}
