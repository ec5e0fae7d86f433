package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/duelword/internal/session"
	"github.com/fakeyudi/duelword/internal/wordle"
)

// Config holds all configurable duelword settings.
type Config struct {
	ServerURL          string `json:"server_url" yaml:"server_url" env:"SERVER_URL"`
	Language           string `json:"language" yaml:"language" env:"LANGUAGE"` // "en" | "tr"
	Storage            string `json:"storage" yaml:"storage" env:"STORAGE"`    // "file" | "sqlite"
	LogLevel           string `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	LogFile            string `json:"log_file" yaml:"log_file" env:"LOG_FILE"`
	DefaultFormat      string `json:"default_format" yaml:"default_format" env:"DEFAULT_FORMAT"` // "markdown" | "json"
	OutputDir          string `json:"output_dir" yaml:"output_dir" env:"OUTPUT_DIR"`
	AckTimeoutSeconds  int    `json:"ack_timeout_seconds" yaml:"ack_timeout_seconds" env:"ACK_TIMEOUT_SECONDS"`
	ReconnectAttempts  int    `json:"reconnect_attempts" yaml:"reconnect_attempts" env:"RECONNECT_ATTEMPTS"`
	ReconnectInitialMS int    `json:"reconnect_initial_ms" yaml:"reconnect_initial_ms" env:"RECONNECT_INITIAL_MS"`
	ReconnectMaxMS     int    `json:"reconnect_max_ms" yaml:"reconnect_max_ms" env:"RECONNECT_MAX_MS"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DUELWORD_"

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		ServerURL:          "ws://localhost:3000/ws",
		Language:           string(wordle.DefaultLanguage),
		Storage:            session.BackendFile,
		LogLevel:           "info",
		DefaultFormat:      "markdown",
		OutputDir:          ".",
		AckTimeoutSeconds:  10,
		ReconnectAttempts:  10,
		ReconnectInitialMS: 1000,
		ReconnectMaxMS:     5000,
	}
}

// Dir returns ~/.config/duelword.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "duelword"), nil
}

// LoadGlobal reads ~/.config/duelword/config.json, falling back to
// config.yaml. Returns defaults if neither file exists.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadFile(filepath.Join(dir, "config.json"), false)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return loadFile(filepath.Join(dir, "config.yaml"), true)
}

// LoadProject reads .duelwordrc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".duelwordrc", false)
}

// LoadEnv loads .env from the working directory, if present, into the
// process environment and then reads the DUELWORD_* variables. Variables
// already set in the environment win over .env entries.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &ParseError{Path: ".env", Err: err}
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("reading %s* environment: %w", EnvPrefix, err)
	}
	return &cfg, nil
}

// loadFile reads and parses a config file at path; YAML when the extension
// says so, JSON otherwise.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge folds layers over the defaults; later layers take precedence and
// only non-empty values override.
func Merge(layers ...*Config) Config {
	result := Defaults()
	for _, l := range layers {
		if l == nil {
			continue
		}
		setString(&result.ServerURL, l.ServerURL)
		setString(&result.Language, l.Language)
		setString(&result.Storage, l.Storage)
		setString(&result.LogLevel, l.LogLevel)
		setString(&result.LogFile, l.LogFile)
		setString(&result.DefaultFormat, l.DefaultFormat)
		setString(&result.OutputDir, l.OutputDir)
		setInt(&result.AckTimeoutSeconds, l.AckTimeoutSeconds)
		setInt(&result.ReconnectAttempts, l.ReconnectAttempts)
		setInt(&result.ReconnectInitialMS, l.ReconnectInitialMS)
		setInt(&result.ReconnectMaxMS, l.ReconnectMaxMS)
	}
	return result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Load merges global file, the given extra layers, project file and
// environment, in that order, and validates the result.
func Load(extra ...*Config) (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	envCfg, err := LoadEnv()
	if err != nil {
		return Config{}, fmt.Errorf("loading environment config: %w", err)
	}

	layers := append([]*Config{global}, extra...)
	layers = append(layers, project, envCfg)
	cfg := Merge(layers...)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no component can use.
func (c Config) Validate() error {
	if _, err := wordle.ParseLanguage(c.Language); err != nil {
		return fmt.Errorf("config language: %w", err)
	}
	switch c.Storage {
	case session.BackendFile, session.BackendSQLite:
	default:
		return fmt.Errorf("config storage: unknown backend %q", c.Storage)
	}
	switch c.DefaultFormat {
	case "markdown", "json":
	default:
		return fmt.Errorf("config default_format: unknown format %q", c.DefaultFormat)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config log_level: %w", err)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("config server_url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("config server_url: scheme must be ws or wss, got %q", u.Scheme)
	}
	return nil
}

// AckTimeout is how long a request waits for its acknowledgement.
func (c Config) AckTimeout() time.Duration {
	return time.Duration(c.AckTimeoutSeconds) * time.Second
}

// ReconnectDelays returns the initial and maximum reconnect backoff.
func (c Config) ReconnectDelays() (initial, maxDelay time.Duration) {
	return time.Duration(c.ReconnectInitialMS) * time.Millisecond, time.Duration(c.ReconnectMaxMS) * time.Millisecond
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
