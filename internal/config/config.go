// Package config loads vaxcast settings from a YAML file and supplies the
// defaults. Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
)

// DefaultPath is consulted when --config is not given.
const DefaultPath = "vaxcast.yaml"

// Config is the full settings tree.
type Config struct {
	// Model is a classifier spec: "forest:<path>" or an http(s) scorer URL.
	Model     string  `yaml:"model"`
	Threshold float64 `yaml:"threshold"`
	Server    Server  `yaml:"server"`
	History   History `yaml:"history"`
	Watch     Watch   `yaml:"watch"`
	Logging   Logging `yaml:"logging"`
}

// Server configures vaxcast serve.
type Server struct {
	ListenAddr string `yaml:"listen_addr"`
	// RequestTimeout caps one whole batch call: parse, transform, predict.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// History configures the run-history store.
type History struct {
	Path string `yaml:"path"`
}

// Watch configures hot-folder mode.
type Watch struct {
	Debounce Duration `yaml:"debounce"`
	Pattern  string   `yaml:"pattern"`
}

// Logging configures the process logger.
type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Duration reads "500ms" style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard-library view of d.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when no file overrides them.
func Default() *Config {
	return &Config{
		Threshold: classifier.DefaultThreshold,
		Server: Server{
			ListenAddr:     ":8080",
			RequestTimeout: Duration(30 * time.Second),
		},
		History: History{Path: "vaxcast.db"},
		Watch: Watch{
			Debounce: Duration(500 * time.Millisecond),
			Pattern:  "*.csv",
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath, and
// then a missing file is fine; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no command could run with.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold %g outside [0,1]", c.Threshold)
	}
	if c.Server.RequestTimeout.Std() <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.Watch.Debounce.Std() <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	if c.Watch.Pattern == "" {
		return fmt.Errorf("watch.pattern must not be empty")
	}
	return nil
}
