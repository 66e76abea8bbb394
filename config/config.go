package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort = 4000
	DefaultHost = "localhost"

	defaultWSPath        = "/ws"
	defaultSendQueueSize = 64
)

// Config holds all runtime settings of the relay. Values come from an
// optional YAML file (path in RELAY_CONFIG), overridden by environment
// variables. Host is display-only for log output, not a bind address.
type Config struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	WSPath        string        `yaml:"ws_path"`
	SendQueueSize int           `yaml:"send_queue_size"`
	PingInterval  time.Duration `yaml:"ping_interval"`
	PongWait      time.Duration `yaml:"pong_wait"`
	WriteWait     time.Duration `yaml:"write_wait"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		WSPath:        defaultWSPath,
		SendQueueSize: defaultSendQueueSize,
		PingInterval:  25 * time.Second,
		PongWait:      60 * time.Second,
		WriteWait:     10 * time.Second,
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// named by RELAY_CONFIG (if any), then PORT / HOSTNAME overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return cfg, errors.Errorf("invalid PORT %q", v)
		}
		cfg.Port = p
	}
	if v := os.Getenv("HOSTNAME"); v != "" {
		cfg.Host = v
	}

	cfg.normalize()
	return cfg, nil
}

// UnmarshalYAML decodes the file form of the config, where durations
// are written as strings ("25s", "1m"). Fields absent from the file
// keep whatever value c already holds.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Host          string `yaml:"host"`
		Port          int    `yaml:"port"`
		WSPath        string `yaml:"ws_path"`
		SendQueueSize int    `yaml:"send_queue_size"`
		PingInterval  string `yaml:"ping_interval"`
		PongWait      string `yaml:"pong_wait"`
		WriteWait     string `yaml:"write_wait"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Host != "" {
		c.Host = raw.Host
	}
	if raw.Port != 0 {
		c.Port = raw.Port
	}
	if raw.WSPath != "" {
		c.WSPath = raw.WSPath
	}
	if raw.SendQueueSize != 0 {
		c.SendQueueSize = raw.SendQueueSize
	}
	for _, d := range []struct {
		in  string
		out *time.Duration
	}{
		{raw.PingInterval, &c.PingInterval},
		{raw.PongWait, &c.PongWait},
		{raw.WriteWait, &c.WriteWait},
	} {
		if d.in == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.in)
		if err != nil {
			return errors.Wrapf(err, "parse duration %q", d.in)
		}
		*d.out = parsed
	}
	return nil
}

func (c *Config) normalize() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.WSPath == "" {
		c.WSPath = defaultWSPath
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval + 35*time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
}

// Addr is the listen address passed to the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DisplayURL is the human-readable endpoint printed at startup.
func (c Config) DisplayURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
