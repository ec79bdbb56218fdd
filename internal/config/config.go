// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Client ClientConfig `mapstructure:"client" yaml:"client"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ClientConfig configures the debugging-protocol client.
type ClientConfig struct {
	// Protocol selects the wire protocol: "chrome" (also Edge) or
	// "firefox".
	Protocol string `mapstructure:"protocol" yaml:"protocol"`
	// Host of the debugging endpoint. Remote-debugging servers normally
	// bind loopback only.
	Host string `mapstructure:"host" yaml:"host"`
	// Port of the debugging endpoint; 0 scans the protocol's default
	// port range.
	Port int `mapstructure:"port" yaml:"port"`
	// CommandTimeout bounds how long a single command waits for its
	// reply.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	// DiscoveryTimeout bounds each individual endpoint probe during
	// discovery.
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout" yaml:"discovery_timeout"`
}

// Validate rejects configurations the client cannot act on.
func (c ClientConfig) Validate() error {
	switch c.Protocol {
	case "chrome", "edge", "firefox":
	default:
		return fmt.Errorf("unknown client.protocol %q (want chrome, edge or firefox)", c.Protocol)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("client.port %d out of range", c.Port)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("client.command_timeout must be positive, got %s", c.CommandTimeout)
	}
	return nil
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lancet-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Client --
	v.SetDefault("client.protocol", "chrome")
	v.SetDefault("client.host", "localhost")
	v.SetDefault("client.port", 0)
	v.SetDefault("client.command_timeout", "30s")
	v.SetDefault("client.discovery_timeout", "2s")
}
