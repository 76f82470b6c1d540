package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/svcdoc/swagger"
)

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()

	assert.Equal(t, "127.0.0.1:8080", c.Server.Listen)
	assert.Equal(t, "/api-docs", c.Server.BasePath)
	assert.Equal(t, 256, c.Server.MaxConns)
	assert.Equal(t, "*", c.Server.CORSOrigin)
	assert.Equal(t, 5*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "svcdoc.db", c.Snapshot.DSN)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.NotNil(t, c.Settings)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "svcdoc.yaml")
		data := []byte(`tags:
  - name: internal
  - name: Widget
    visible: true
settings:
  BasePath: /v1
  InfoTitle: X
server:
  listen: ":9090"
  base_path: /docs
  shutdown_timeout: 10s
log:
  level: debug
  format: json
`)
		require.NoError(t, os.WriteFile(path, data, 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, ":9090", cfg.Server.Listen)
		assert.Equal(t, "/docs", cfg.Server.BasePath)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 256, cfg.Server.MaxConns)
		assert.Equal(t, "debug", cfg.Log.Level)

		assert.Equal(t, swagger.TagFilter{
			Hidden:  []string{"internal"},
			Visible: []string{"Widget"},
		}, cfg.Filter())
		assert.Equal(t, swagger.Settings{"BasePath": "/v1", "InfoTitle": "X"}, cfg.DocumentSettings())
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "/api-docs", cfg.Server.BasePath)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("unreadable path", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("SVCDOC_SERVER_LISTEN", ":7070")
		t.Setenv("SVCDOC_SERVER_MAX_CONNS", "12")
		t.Setenv("SVCDOC_SERVER_SHUTDOWN_TIMEOUT", "1s")
		t.Setenv("SVCDOC_LOG_LEVEL", "warn")
		t.Setenv("SVCDOC_SETTING_InfoVersion", "1.2.3")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.Server.Listen)
		assert.Equal(t, 12, cfg.Server.MaxConns)
		assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, "1.2.3", cfg.Settings["InfoVersion"])
	})

	t.Run("bad env numbers are ignored", func(t *testing.T) {
		t.Setenv("SVCDOC_SERVER_MAX_CONNS", "many")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 256, cfg.Server.MaxConns)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = " " }},
		{"relative base path", func(c *Config) { c.Server.BasePath = "docs" }},
		{"negative max conns", func(c *Config) { c.Server.MaxConns = -1 }},
		{"two static sources", func(c *Config) {
			c.Server.StaticDir = "./ui"
			c.Server.StaticArchive = "./ui.zip"
		}},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"unnamed tag", func(c *Config) { c.Tags = []TagConfig{{Visible: true}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.SetDefaults()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		c := &Config{}
		c.SetDefaults()
		c.Log.Level = "warn"

		var buf bytes.Buffer
		logger := c.NewLogger(&buf)
		logger.Info("hidden")
		logger.Warn("shown", "key", "value")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown key=value")
	})

	t.Run("json", func(t *testing.T) {
		c := &Config{}
		c.SetDefaults()
		c.Log.Format = "json"

		var buf bytes.Buffer
		c.NewLogger(&buf).Info("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("debug enabled", func(t *testing.T) {
		c := &Config{}
		c.SetDefaults()
		c.Log.Level = "debug"

		logger := c.NewLogger(&bytes.Buffer{})
		assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
	})
}
