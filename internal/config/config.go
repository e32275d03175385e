package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr       string        `yaml:"httpAddr"`
	UploadFile     string        `yaml:"uploadFile"`
	FilenameSeed   int64         `yaml:"filenameSeed"`
	HTTPTimeout    time.Duration `yaml:"httpTimeout"`    // 0 leaves outbound calls unbounded
	ClusterTimeout time.Duration `yaml:"clusterTimeout"` // caps the cluster session
	ShutdownGrace  time.Duration `yaml:"shutdownGrace"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:       ":8080",
		UploadFile:     "example.pdf",
		FilenameSeed:   1,
		ClusterTimeout: 5 * time.Minute,
		ShutdownGrace:  10 * time.Second,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Parse builds the configuration from defaults, then the optional YAML file
// named by TESTER_CONFIG, then TESTER_* environment variables.
func Parse() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("TESTER_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.HTTPAddr = getenv("TESTER_HTTP_ADDR", cfg.HTTPAddr)
	cfg.UploadFile = getenv("TESTER_UPLOAD_FILE", cfg.UploadFile)
	if v := os.Getenv("TESTER_FILENAME_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TESTER_FILENAME_SEED: %w", err)
		}
		cfg.FilenameSeed = n
	}
	for key, dst := range map[string]*time.Duration{
		"TESTER_HTTP_TIMEOUT":    &cfg.HTTPTimeout,
		"TESTER_CLUSTER_TIMEOUT": &cfg.ClusterTimeout,
		"TESTER_SHUTDOWN_GRACE":  &cfg.ShutdownGrace,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("TESTER_HTTP_ADDR is required")
	}
	if c.UploadFile == "" {
		return errors.New("TESTER_UPLOAD_FILE is required")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("TESTER_HTTP_TIMEOUT must not be negative")
	}
	if c.ClusterTimeout <= 0 {
		return errors.New("TESTER_CLUSTER_TIMEOUT must be positive")
	}
	return nil
}
