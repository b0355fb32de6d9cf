package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
)

// DefaultConfigFile is looked up in the working directory when no --config flag is given.
const DefaultConfigFile = "sceneitem.yml"

// Props backends
const (
	PropsBackendMemory = "memory"
	PropsBackendFile   = "file"
	PropsBackendValkey = "valkey"
)

// Config is the full widget configuration.
type Config struct {
	OBS     OBSConfig     `yaml:"obs"`
	Server  ServerConfig  `yaml:"server"`
	Props   PropsConfig   `yaml:"props"`
	Widget  WidgetConfig  `yaml:"widget"`
	Logging LoggingConfig `yaml:"logging"`
}

// OBSConfig describes the control service connection.
type OBSConfig struct {
	URL              string        `yaml:"url"`
	Password         string        `yaml:"password"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
}

// ServerConfig describes the dashboard HTTP surface.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowed_origin"`
	JWTSecret     string `yaml:"jwt_secret"`
}

// PropsConfig selects where the per-instance props are persisted.
type PropsConfig struct {
	Backend    string `yaml:"backend"`
	FilePath   string `yaml:"file_path"`
	ValkeyAddr string `yaml:"valkey_addr"`
}

// WidgetConfig identifies the widget instance.
type WidgetConfig struct {
	InstanceID string `yaml:"instance_id"`
}

// LoggingConfig controls logrus output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text|json
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		OBS: OBSConfig{
			URL:              "ws://127.0.0.1:4444",
			RequestTimeout:   5 * time.Second,
			ReconnectBackoff: 2 * time.Second,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			AllowedOrigin: "http://127.0.0.1:5173",
		},
		Props: PropsConfig{
			Backend:    PropsBackendMemory,
			FilePath:   "sceneitem-props.yml",
			ValkeyAddr: "127.0.0.1:6379",
		},
		Widget: WidgetConfig{
			InstanceID: "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment. A .env file in the working directory is loaded first when present.
// An explicitly given path must exist; the default file is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, werrors.Wrap(err, werrors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s", path)).
				WithDetail("path", path)
		}
	case explicit || !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("SCENEITEM_OBS_URL", &c.OBS.URL)
	setString("SCENEITEM_OBS_PASSWORD", &c.OBS.Password)
	setDuration("SCENEITEM_OBS_REQUEST_TIMEOUT", &c.OBS.RequestTimeout)
	setDuration("SCENEITEM_OBS_RECONNECT_BACKOFF", &c.OBS.ReconnectBackoff)
	setString("SCENEITEM_SERVER_ADDR", &c.Server.Addr)
	setString("SCENEITEM_ALLOWED_ORIGIN", &c.Server.AllowedOrigin)
	setString("SCENEITEM_JWT_SECRET", &c.Server.JWTSecret)
	setString("SCENEITEM_PROPS_BACKEND", &c.Props.Backend)
	setString("SCENEITEM_PROPS_FILE", &c.Props.FilePath)
	setString("SCENEITEM_VALKEY_ADDR", &c.Props.ValkeyAddr)
	setString("SCENEITEM_INSTANCE_ID", &c.Widget.InstanceID)
	setString("SCENEITEM_LOG_LEVEL", &c.Logging.Level)
	setString("SCENEITEM_LOG_FORMAT", &c.Logging.Format)
}

// Validate checks the configuration for values the widget cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.OBS.URL, "ws://") && !strings.HasPrefix(c.OBS.URL, "wss://") {
		return werrors.ConfigInvalid(fmt.Sprintf("obs.url must be a ws:// or wss:// URL, got %q", c.OBS.URL))
	}
	if c.OBS.RequestTimeout <= 0 {
		return werrors.ConfigInvalid("obs.request_timeout must be positive")
	}
	if c.OBS.ReconnectBackoff <= 0 {
		return werrors.ConfigInvalid("obs.reconnect_backoff must be positive")
	}
	if strings.TrimSpace(c.Widget.InstanceID) == "" {
		return werrors.ConfigInvalid("widget.instance_id cannot be empty")
	}

	switch c.Props.Backend {
	case PropsBackendMemory:
	case PropsBackendFile:
		if c.Props.FilePath == "" {
			return werrors.ConfigInvalid("props.file_path is required for the file backend")
		}
	case PropsBackendValkey:
		if c.Props.ValkeyAddr == "" {
			return werrors.ConfigInvalid("props.valkey_addr is required for the valkey backend")
		}
	default:
		return werrors.ConfigInvalid(fmt.Sprintf("unknown props.backend %q", c.Props.Backend))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return werrors.ConfigInvalid(fmt.Sprintf("unknown logging.format %q", c.Logging.Format))
	}
	return nil
}
