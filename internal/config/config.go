// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Conduit Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduit-dev/conduit/internal/store"
	// Registers the sqlite backend so storage validation sees it.
	_ "github.com/conduit-dev/conduit/internal/store/sqlite"
	conduiterr "github.com/conduit-dev/conduit/pkg/errors"
)

// Config is the top-level Conduit configuration.
type Config struct {
	Server  ServerConfig `mapstructure:"server"`
	Auth    AuthConfig   `mapstructure:"auth"`
	Storage store.Config `mapstructure:"storage"`
	Relay   RelayConfig  `mapstructure:"relay"`
}

// ServerConfig controls how the gateway listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AuthConfig selects how bearer tokens are resolved to users: a static
// token table from this file, or a remote userinfo endpoint.
type AuthConfig struct {
	Mode        string       `mapstructure:"mode"`
	UserinfoURL string       `mapstructure:"userinfo_url"`
	Tokens      []TokenEntry `mapstructure:"tokens"`
}

// TokenEntry is one static session token. Token values may use the
// keyring://<entry> form to be resolved from the OS keyring at startup.
type TokenEntry struct {
	Token  string `mapstructure:"token"`
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
}

// RelayConfig tunes outbound provider calls.
type RelayConfig struct {
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CONDUIT_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("auth.mode", "static")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("relay.upstream_timeout", "60s")

	// Environment
	v.SetEnvPrefix("CONDUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, conduiterr.Errorf(conduiterr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateAuth()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateRelay()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 0 || port > 65535 {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 0 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateAuth() []error {
	var errs []error

	switch c.Auth.Mode {
	case "static":
		// An empty token table is allowed; the gateway starts but rejects
		// every caller until tokens are configured.
		for i, tok := range c.Auth.Tokens {
			if tok.Token == "" || tok.UserID == "" {
				errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
					"config: auth.tokens[%d] must set both token and user_id", i))
			}
		}
	case "remote":
		if c.Auth.UserinfoURL == "" {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: auth.mode \"remote\" requires auth.userinfo_url"))
		} else if !strings.HasPrefix(c.Auth.UserinfoURL, "http://") && !strings.HasPrefix(c.Auth.UserinfoURL, "https://") {
			errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
				"config: auth.userinfo_url must be an http(s) URL, got %q", c.Auth.UserinfoURL))
		}
	default:
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: auth.mode must be one of [static, remote], got %q", c.Auth.Mode))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	backends := store.Backends()
	valid := false
	for _, b := range backends {
		if c.Storage.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of %v, got %q", backends, c.Storage.Backend))
	}

	return errs
}

func (c *Config) validateRelay() []error {
	var errs []error

	if c.Relay.UpstreamTimeout <= 0 {
		errs = append(errs, conduiterr.Errorf(conduiterr.CodeConfigValidateInvalidValue,
			"config: relay.upstream_timeout must be greater than 0, got %s", c.Relay.UpstreamTimeout))
	}

	return errs
}
