package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration
type Config struct {
	// Server settings
	Server struct {
		Name     string `yaml:"name" toml:"name" json:"name" env:"IRCD_SERVER_NAME" validate:"required,hostname_rfc1123"`
		Network  string `yaml:"network" toml:"network" json:"network" env:"IRCD_NETWORK" validate:"required"`
		Host     string `yaml:"host" toml:"host" json:"host" env:"IRCD_HOST"`
		Port     int    `yaml:"port" toml:"port" json:"port" env:"IRCD_PORT" validate:"min=1024,max=65535"`
		Password string `yaml:"password" toml:"password" json:"password" env:"IRCD_PASSWORD" validate:"required"`
	} `yaml:"server" toml:"server" json:"server"`

	// Per-connection limits
	Limits struct {
		MaxLine      int           `yaml:"max_line" toml:"max_line" json:"max_line" env:"IRCD_MAX_LINE" validate:"min=64,max=8192"`
		SendQueue    int           `yaml:"send_queue" toml:"send_queue" json:"send_queue" env:"IRCD_SEND_QUEUE" validate:"min=1"`
		ReadBuffer   int           `yaml:"read_buffer" toml:"read_buffer" json:"read_buffer" env:"IRCD_READ_BUFFER" validate:"min=64"`
		WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout" json:"write_timeout" env:"IRCD_WRITE_TIMEOUT" validate:"gt=0"`
		FloodRate    float64       `yaml:"flood_rate" toml:"flood_rate" json:"flood_rate" env:"IRCD_FLOOD_RATE" validate:"gte=0"`
		FloodBurst   int           `yaml:"flood_burst" toml:"flood_burst" json:"flood_burst" env:"IRCD_FLOOD_BURST" validate:"gte=0"`
	} `yaml:"limits" toml:"limits" json:"limits"`

	// Admin HTTP settings
	Admin struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCD_ADMIN_ENABLED"`
		Listen  string `yaml:"listen" toml:"listen" json:"listen" env:"IRCD_ADMIN_LISTEN" validate:"required_if=Enabled true"`
	} `yaml:"admin" toml:"admin" json:"admin"`

	// WebSocket gateway settings, served on the admin listener
	WebSocket struct {
		Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCD_WEBSOCKET_ENABLED"`
	} `yaml:"websocket" toml:"websocket" json:"websocket"`

	// Configuration source for reloading
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Default returns a configuration with every field but the password set
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Name = "relayd.local"
	cfg.Server.Network = "Relay"
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 6667
	cfg.Limits.MaxLine = 512
	cfg.Limits.SendQueue = 512
	cfg.Limits.ReadBuffer = 4096
	cfg.Limits.WriteTimeout = 30 * time.Second
	cfg.Admin.Listen = "127.0.0.1:8080"
	return cfg
}

// Load loads configuration from a file or URL on top of the defaults, then
// applies IRCD_* environment overrides. An empty source skips the file.
func Load(source string) (*Config, error) {
	cfg := Default()

	if source != "" {
		if err := cfg.loadFromSource(source); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// Reload reloads the configuration from the original source or a new source
func (c *Config) Reload(newSource string) error {
	if newSource == "" {
		newSource = c.Source
	}

	newCfg, err := Load(newSource)
	if err != nil {
		return err
	}

	*c = *newCfg
	return nil
}

// loadFromSource loads configuration from a file or URL
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(source)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err != nil {
		return err
	}

	// Determine the format based on the extension
	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

func fetch(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from URL: %w", err)
	}
	return data, nil
}

var validate = validator.New()

// Validate checks the configuration and reports every failing field
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	errs := make([]error, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errs = append(errs, fmt.Errorf("%s: failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// GetListenAddress returns the formatted listen address for the server
func (c *Config) GetListenAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
