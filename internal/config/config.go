/*
Package config loads server and CLI configuration.

PRECEDENCE (lowest to highest):
  1. Default()
  2. YAML file passed to Load (missing file = defaults)
  3. PAYG_* environment variables, optionally from a .env file
  4. Command-line flags, applied by the caller

ENVIRONMENT:
  PAYG_PORT           server port
  PAYG_DB_PATH        sqlite path (":memory:" for a throwaway journal)
  PAYG_LOG_LEVEL      debug | info | warn | error
  PAYG_LOG_FORMAT     console | json
  PAYG_BATCH_WORKERS  worker pool size for batch calculations
  PAYG_CORS_ORIGINS   comma separated allowed origins
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

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/manageitwa/payg-tax/internal/logging"
)

// Config is the main application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logging.Config `yaml:"logging"`
	Batch    BatchConfig    `yaml:"batch"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	// Path is the sqlite file. Created on first use.
	Path string `yaml:"path"`
}

type BatchConfig struct {
	// Workers bounds concurrent calculations in one batch.
	Workers int `yaml:"workers"`
	// MaxItems rejects batches larger than this.
	MaxItems int `yaml:"max_items"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "./payg.db"},
		Logging:  logging.DefaultConfig(),
		Batch:    BatchConfig{Workers: 8, MaxItems: 5000},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads .env files into the process environment. Variables
// already set are not overridden. Missing files are ignored; a file that
// exists but does not parse is an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays PAYG_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PAYG_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAYG_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PAYG_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PAYG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PAYG_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PAYG_BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAYG_BATCH_WORKERS: %w", err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv("PAYG_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return c.Validate()
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch workers must be positive, got %d", c.Batch.Workers)
	}
	if c.Batch.MaxItems <= 0 {
		return fmt.Errorf("batch max_items must be positive, got %d", c.Batch.MaxItems)
	}
	return c.Logging.Validate()
}
