// Package config loads narsign settings from a YAML file and the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "NARSIGN_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config holds all settings of the signing service.
type Config struct {
	// Bind is the listen address of the HTTP server.
	Bind string `yaml:"bind"`

	// SecretKeyFiles lists the secret key files to sign with.
	SecretKeyFiles []string `yaml:"secret_key_files"`

	// ReloadKeys re-reads key files on every signing request instead of
	// holding them in memory after startup.
	ReloadKeys bool `yaml:"reload_keys"`

	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TrustRequestID reuses the X-Request-ID sent by callers instead of
	// generating a fresh one. Enable it behind a proxy that sets the header.
	TrustRequestID bool `yaml:"trust_request_id"`

	// H2C enables cleartext HTTP/2.
	H2C bool `yaml:"h2c"`

	// NixBinary is the nix executable used to query path metadata.
	NixBinary string `yaml:"nix_binary"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log Log `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Bind:            "[::]:8080",
		ReloadKeys:      true,
		MaxBodyBytes:    1 << 20,
		NixBinary:       "nix",
		ShutdownTimeout: 10 * time.Second,
		Log: Log{
			Level: "info",
		},
	}
}

// Load returns Default overlaid with the YAML file at path, if path is not
// empty, and then with the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings from environment variables looked up with
// lookup:
//
//	NARSIGN_BIND, NARSIGN_SECRET_KEY_FILES (comma separated),
//	NARSIGN_RELOAD_KEYS, NARSIGN_MAX_BODY_BYTES, NARSIGN_H2C,
//	NARSIGN_TRUST_REQUEST_ID, NARSIGN_NIX_BINARY, NARSIGN_SHUTDOWN_TIMEOUT,
//	NARSIGN_LOG_LEVEL, NARSIGN_LOG_JSON
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return "", false
		}

		return v, true
	}

	if v, ok := get("BIND"); ok {
		c.Bind = v
	}

	if v, ok := get("SECRET_KEY_FILES"); ok {
		c.SecretKeyFiles = splitList(v)
	}

	if v, ok := get("NIX_BINARY"); ok {
		c.NixBinary = v
	}

	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"RELOAD_KEYS", &c.ReloadKeys},
		{"H2C", &c.H2C},
		{"TRUST_REQUEST_ID", &c.TrustRequestID},
		{"LOG_JSON", &c.Log.JSON},
	}

	for _, b := range bools {
		v, ok := get(b.name)
		if !ok {
			continue
		}

		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s%s", EnvPrefix, b.name)
		}

		*b.dst = parsed
	}

	if v, ok := get("MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%sMAX_BODY_BYTES", EnvPrefix)
		}

		c.MaxBodyBytes = n
	}

	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%sSHUTDOWN_TIMEOUT", EnvPrefix)
		}

		c.ShutdownTimeout = d
	}

	return nil
}

// Validate checks the settings needed to serve requests.
func (c Config) Validate() error {
	if c.Bind == "" {
		return errors.Wrap(ErrInvalidConfig, "bind address is empty")
	}

	if len(c.SecretKeyFiles) == 0 {
		return errors.WithHint(
			errors.Wrap(ErrInvalidConfig, "no secret key files configured"),
			"pass --secret-key-file or set secret_key_files in the config file",
		)
	}

	for _, path := range c.SecretKeyFiles {
		if strings.TrimSpace(path) == "" {
			return errors.Wrap(ErrInvalidConfig, "empty secret key file path")
		}
	}

	if c.MaxBodyBytes <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max_body_bytes must be greater than zero")
	}

	if c.ShutdownTimeout < 0 {
		return errors.Wrap(ErrInvalidConfig, "shutdown_timeout must not be negative")
	}

	return nil
}

func splitList(s string) []string {
	var out []string

	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
