// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config holds the service configuration: where to listen, where the SPA
lives, its entry document and route depth, timeouts and logging.

Configuration is layered, with later layers overriding earlier ones: built-in
defaults, an optional YAML file, environment variables (optionally loaded from
a .env file) and finally command line flags, which are applied by the caller.
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thediveo/sparouter"
)

// EnvPrefix is the prefix of all environment variables configuring the
// service.
const EnvPrefix = "SPAROUTER_"

// Config is the complete service configuration.
type Config struct {
	// Listen is the host:port address to listen on; port 0 picks a free port.
	Listen string `yaml:"listen"`
	// Root is the directory of the SPA bundle; empty serves the built-in demo
	// bundle.
	Root string `yaml:"root"`
	// Entry is the entry document, relative to Root.
	Entry string `yaml:"entry"`
	// MaxDepth is the maximum number of path segments of client routes; zero
	// or less is unlimited.
	MaxDepth int `yaml:"max_depth"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log Logging `yaml:"log"`

	// Open launches the default browser at the service's URL once listening.
	Open bool `yaml:"open"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Defaults returns the built-in default configuration.
func Defaults() Config {
	return Config{
		Listen:          "127.0.0.1:8080",
		Entry:           "index.html",
		MaxDepth:        sparouter.DefaultMaxDepth,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Log: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overridden by the YAML file at path, if path isn't
// empty, and then by the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads the specified .env files into the process environment,
// never overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("cannot load %s: %w", file, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read configuration: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves everything as it was.
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("cannot parse configuration %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides configuration fields from SPAROUTER_* environment
// variables, as returned by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LISTEN":     &c.Listen,
		"ROOT":       &c.Root,
		"ENTRY":      &c.Entry,
		"LOG_LEVEL":  &c.Log.Level,
		"LOG_FORMAT": &c.Log.Format,
	}
	for name, field := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*field = v
		}
	}
	if v, ok := lookup(EnvPrefix + "MAX_DEPTH"); ok {
		depth, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_DEPTH %q: %w", EnvPrefix, v, err)
		}
		c.MaxDepth = depth
	}
	durations := map[string]*time.Duration{
		"READ_TIMEOUT":     &c.ReadTimeout,
		"WRITE_TIMEOUT":    &c.WriteTimeout,
		"IDLE_TIMEOUT":     &c.IdleTimeout,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	}
	for name, field := range durations {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
			}
			*field = d
		}
	}
	if v, ok := lookup(EnvPrefix + "OPEN"); ok {
		open, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sOPEN %q: %w", EnvPrefix, v, err)
		}
		c.Open = open
	}
	return nil
}

// Validate checks the configuration for obvious misconfigurations.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if strings.Trim(c.Entry, "/") == "" {
		errs = append(errs, errors.New("entry document must not be empty"))
	}
	for name, d := range map[string]time.Duration{
		"read timeout":     c.ReadTimeout,
		"write timeout":    c.WriteTimeout,
		"idle timeout":     c.IdleTimeout,
		"shutdown timeout": c.ShutdownTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
