package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("server: invalid config")

const (
	DefaultAddr           = "127.0.0.1:4221"
	DefaultReadBufferSize = 4096
	DefaultLogLevel       = "info"
)

// Config holds the server settings. The zero value is not usable; start
// from DefaultConfig or LoadConfig.
type Config struct {
	// Addr is the TCP address to listen on.
	Addr string `yaml:"addr"`

	// Directory is served by the files handler. Empty disables it.
	Directory string `yaml:"directory"`

	// ReadBufferSize is the size of the single read performed on each
	// connection. Bytes beyond it are not read.
	ReadBufferSize int `yaml:"read_buffer_size"`

	// MaxConns caps the number of connections served at once. Zero means
	// unbounded.
	MaxConns int `yaml:"max_conns"`

	// RespondBadRequest writes an empty 400 Bad Request for requests that
	// cannot be decoded. When false the connection is closed without a
	// response.
	RespondBadRequest bool `yaml:"respond_bad_request"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`

	// The remaining fields enable the matching middleware in the file
	// server command.
	RequestID     bool  `yaml:"request_id"`
	Compression   bool  `yaml:"compression"`
	ContentDigest bool  `yaml:"content_digest"`
	ServerHeader  bool  `yaml:"server_header"`
	CORSMethods   bool  `yaml:"cors_methods"`
	MaxBodyBytes  int64 `yaml:"max_body_bytes"`

	// BasicAuth maps user names to passwords. When set, every route
	// requires HTTP Basic credentials.
	BasicAuth map[string]string `yaml:"basic_auth"`

	// Logger receives connection logs. Defaults to a disabled logger.
	Logger zerolog.Logger `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		ReadBufferSize: DefaultReadBufferSize,
		LogLevel:       DefaultLogLevel,
		Logger:         zerolog.Nop(),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result. Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("server: read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("%w: read_buffer_size must be greater than zero", ErrInvalidConfig)
	case c.MaxConns < 0:
		return fmt.Errorf("%w: max_conns must not be negative", ErrInvalidConfig)
	case c.MaxBodyBytes < 0:
		return fmt.Errorf("%w: max_body_bytes must not be negative", ErrInvalidConfig)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel. An empty LogLevel is the default level.
func (c Config) Level() (zerolog.Level, error) {
	name := c.LogLevel
	if name == "" {
		name = DefaultLogLevel
	}

	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}

	return lvl, nil
}
