package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNeC-Lab-PSU/LLMER/internal/protocol"
	"github.com/SNeC-Lab-PSU/LLMER/logging"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.Loop.TickRate)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.ConstructionWait)
	assert.Equal(t, 10, cfg.Dispatch.HistorySize)
	assert.Equal(t, "Robot", cfg.Scene.AgentName)
	assert.Equal(t, "CenterEyeAnchor", cfg.Scene.ViewpointName)
	assert.Equal(t, "PlaneHolder", cfg.Scene.PlaceholderName)
	assert.Equal(t, 5.0, cfg.Scene.Radius)
	assert.Equal(t, protocol.FramingLength, cfg.Framing())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Backend, cfg.Backend)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeFile(t, `
backend:
  address: ws://localhost:9000/agent
  framing: line
  reconnectDelay: 500ms
dispatch:
  constructionWait: 4s
scene:
  agent: Drone
  hands:
    - side: right
      root: RightHand
      joints: [Index3]
logging:
  sinks: [console, json]
  jsonPath: /tmp/llmer.jsonl
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:9000/agent", cfg.Backend.Address)
	assert.Equal(t, protocol.FramingLine, cfg.Framing())
	assert.Equal(t, 500*time.Millisecond, cfg.Backend.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.Backend.DialTimeout, "unset keys keep defaults")
	assert.Equal(t, 4*time.Second, cfg.Dispatch.ConstructionWait)
	assert.Equal(t, "Drone", cfg.Scene.AgentName)
	require.Len(t, cfg.Scene.Hands, 1)
	assert.Equal(t, []string{"Index3"}, cfg.Scene.Hands[0].Joints)
	assert.Equal(t, []string{"console", "json"}, cfg.Logging.Sinks)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "loop:\n  tickRate: 30\n")
	t.Setenv("LLMER_LOOP_TICK_RATE", "90")
	t.Setenv("LLMER_BACKEND_ADDRESS", "tcp://10.0.0.2:8000")
	t.Setenv("LLMER_DISPATCH_CONSTRUCTION_WAIT", "2s")
	t.Setenv("LLMER_OBSERVABILITY_PPROF", "true")
	t.Setenv("LLMER_LOGGING_SINKS", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Loop.TickRate)
	assert.Equal(t, "tcp://10.0.0.2:8000", cfg.Backend.Address)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.ConstructionWait)
	assert.True(t, cfg.Observability.EnablePprof)
	assert.Equal(t, []string{"json"}, cfg.Logging.Sinks)
	assert.Len(t, cfg.Scene.Hands, 2, "hands are file-only")
}

func TestLoadReportsBadInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "backend: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse")

	t.Setenv("LLMER_LOOP_TICK_RATE", "fast")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse env")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty address", func(c *Config) { c.Backend.Address = " " }, ErrInvalidBackend},
		{"unknown framing", func(c *Config) { c.Backend.Framing = "chunked" }, ErrInvalidBackend},
		{"negative delay", func(c *Config) { c.Backend.ReconnectDelay = -time.Second }, ErrInvalidBackend},
		{"zero max payload", func(c *Config) { c.Backend.MaxPayload = 0 }, ErrInvalidBackend},
		{"zero tick rate", func(c *Config) { c.Loop.TickRate = 0 }, ErrInvalidLoop},
		{"zero frame capacity", func(c *Config) { c.Loop.FrameCapacity = 0 }, ErrInvalidLoop},
		{"zero construction wait", func(c *Config) { c.Dispatch.ConstructionWait = 0 }, ErrInvalidLoop},
		{"empty agent", func(c *Config) { c.Scene.AgentName = "" }, ErrInvalidScene},
		{"zero radius", func(c *Config) { c.Scene.Radius = 0 }, ErrInvalidScene},
		{"unknown sink", func(c *Config) { c.Logging.Sinks = []string{"syslog"} }, ErrInvalidLogging},
		{"unknown severity", func(c *Config) { c.Logging.MinSeverity = "loud" }, ErrInvalidLogging},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestRouterConfig(t *testing.T) {
	cfg := Default()
	cfg.Logging.Sinks = []string{"json"}
	cfg.Logging.MinSeverity = "debug"
	cfg.Logging.JSONPath = "events.jsonl"
	cfg.Logging.BufferSize = 64

	rc := cfg.RouterConfig()
	assert.Equal(t, []string{"json"}, rc.EnabledSinks)
	assert.Equal(t, logging.SeverityDebug, rc.MinimumSeverity)
	assert.Equal(t, "events.jsonl", rc.JSON.FilePath)
	assert.Equal(t, 64, rc.BufferSize)
}

func TestYAMLRoundTrip(t *testing.T) {
	data, err := Default().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "constructionWait: 10s")

	cfg, err := Load(writeFile(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
