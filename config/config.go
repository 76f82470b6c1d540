// Package config loads svcdoc settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vitalvas/svcdoc/swagger"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when Load gets an empty path.
const DefaultPath = "svcdoc.yaml"

const (
	envPrefix        = "SVCDOC_"
	envSettingPrefix = envPrefix + "SETTING_"
)

// TagConfig is one entry of the tag list. Tags are hidden unless
// Visible is set; visible tags form the definition allow-list.
type TagConfig struct {
	Name    string `yaml:"name"`
	Visible bool   `yaml:"visible"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	BasePath        string        `yaml:"base_path"`
	MaxConns        int           `yaml:"max_conns"`
	CORSOrigin      string        `yaml:"cors_origin"`
	StaticDir       string        `yaml:"static_dir"`
	StaticArchive   string        `yaml:"static_archive"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SnapshotConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Tags     []TagConfig       `yaml:"tags"`
	Settings map[string]string `yaml:"settings"`
	Server   ServerConfig      `yaml:"server"`
	Snapshot SnapshotConfig    `yaml:"snapshot"`
	Log      LogConfig         `yaml:"log"`
}

// Load reads the YAML file at path, falling back to DefaultPath, then
// applies SVCDOC_* environment overrides. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = DefaultPath
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.SetDefaults()
	applyEnvOverrides(cfg, os.Environ())
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Settings == nil {
		c.Settings = make(map[string]string)
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api-docs"
	}
	if c.Server.MaxConns == 0 {
		c.Server.MaxConns = 256
	}
	if c.Server.CORSOrigin == "" {
		c.Server.CORSOrigin = "*"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Snapshot.DSN == "" {
		c.Snapshot.DSN = "svcdoc.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("server.listen cannot be empty")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with /: %q", c.Server.BasePath)
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("server.max_conns cannot be negative: %d", c.Server.MaxConns)
	}
	if c.Server.StaticDir != "" && c.Server.StaticArchive != "" {
		return errors.New("server.static_dir and server.static_archive are exclusive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	for i, tag := range c.Tags {
		if strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("tags[%d].name cannot be empty", i)
		}
	}
	return nil
}

// Filter splits the tag list into hidden and visible sets.
func (c *Config) Filter() swagger.TagFilter {
	var f swagger.TagFilter
	for _, tag := range c.Tags {
		if tag.Visible {
			f.Visible = append(f.Visible, tag.Name)
		} else {
			f.Hidden = append(f.Hidden, tag.Name)
		}
	}
	return f
}

// DocumentSettings returns the settings table applied to documents.
func (c *Config) DocumentSettings() swagger.Settings {
	out := make(swagger.Settings, len(c.Settings))
	for k, v := range c.Settings {
		out[k] = v
	}
	return out
}

// NewLogger creates a slog logger writing to w with the configured
// level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log.level %q", s)
	}
	return level, nil
}

func applyEnvOverrides(c *Config, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value

		if name, found := strings.CutPrefix(key, envSettingPrefix); found && name != "" {
			c.Settings[name] = value
		}
	}

	setString(env, &c.Server.Listen, "SVCDOC_SERVER_LISTEN")
	setString(env, &c.Server.BasePath, "SVCDOC_SERVER_BASE_PATH")
	setInt(env, &c.Server.MaxConns, "SVCDOC_SERVER_MAX_CONNS")
	setString(env, &c.Server.CORSOrigin, "SVCDOC_SERVER_CORS_ORIGIN")
	setString(env, &c.Server.StaticDir, "SVCDOC_SERVER_STATIC_DIR")
	setString(env, &c.Server.StaticArchive, "SVCDOC_SERVER_STATIC_ARCHIVE")
	setDuration(env, &c.Server.ShutdownTimeout, "SVCDOC_SERVER_SHUTDOWN_TIMEOUT")
	setString(env, &c.Snapshot.DSN, "SVCDOC_SNAPSHOT_DSN")
	setString(env, &c.Log.Level, "SVCDOC_LOG_LEVEL")
	setString(env, &c.Log.Format, "SVCDOC_LOG_FORMAT")
}

func setString(env map[string]string, dst *string, key string) {
	if v, ok := env[key]; ok {
		*dst = v
	}
}

func setInt(env map[string]string, dst *int, key string) {
	if v, ok := env[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(env map[string]string, dst *time.Duration, key string) {
	if v, ok := env[key]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
