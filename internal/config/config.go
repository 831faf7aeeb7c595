// Package config loads escluster settings from defaults, the environment and
// an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ganxiyun/es-testcluster/internal/testcluster"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = "escluster.yaml"

type ClusterConfig struct {
	Nodes              int  `yaml:"nodes"`
	Partitioned        bool `yaml:"partitioned"`
	HostPublishAddress bool `yaml:"host_publish_address"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is "stderr", "stdout", "discard" or a file path.
	Output string `yaml:"output"`
}

type ConsoleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Config is the full escluster configuration.
type Config struct {
	Cluster ClusterConfig `yaml:"cluster"`
	Log     LogConfig     `yaml:"log"`
	Console ConsoleConfig `yaml:"console"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Cluster: ClusterConfig{Nodes: testcluster.DefaultNumberOfNodes},
		Log:     LogConfig{Level: "info", Format: "text", Output: "stderr"},
		Console: ConsoleConfig{Interval: 2 * time.Second},
	}
}

// Load builds the configuration: defaults, overridden by ESCLUSTER_*
// environment variables, overridden by the YAML file at path. An empty path
// falls back to $ESCLUSTER_CONFIG and then to DefaultConfigFile if present.
func Load(path string) (*Config, error) {
	def := Default()
	cfg := &Config{
		Cluster: ClusterConfig{
			Nodes:              getEnvOrDefaultInt("ESCLUSTER_NODES", def.Cluster.Nodes),
			Partitioned:        getEnvOrDefaultBool("ESCLUSTER_PARTITIONED", def.Cluster.Partitioned),
			HostPublishAddress: getEnvOrDefaultBool("ESCLUSTER_HOST_PUBLISH_ADDRESS", def.Cluster.HostPublishAddress),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("ESCLUSTER_LOG_LEVEL", def.Log.Level),
			Format: getEnvOrDefault("ESCLUSTER_LOG_FORMAT", def.Log.Format),
			Output: getEnvOrDefault("ESCLUSTER_LOG_OUTPUT", def.Log.Output),
		},
		Console: ConsoleConfig{
			Interval: getEnvOrDefaultDuration("ESCLUSTER_INTERVAL", def.Console.Interval),
		},
	}

	if path == "" {
		path = configPath()
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Cluster.Nodes < 0 {
		return fmt.Errorf("cluster.nodes must not be negative, got %d", c.Cluster.Nodes)
	}
	if c.Console.Interval <= 0 {
		return fmt.Errorf("console.interval must be positive, got %s", c.Console.Interval)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ClusterOptions converts the cluster section into testcluster options.
func (c *Config) ClusterOptions() testcluster.Options {
	return testcluster.Options{
		NumberOfNodes:             c.Cluster.Nodes,
		ClusterPartiallySeparated: c.Cluster.Partitioned,
		HostPublishAddress:        c.Cluster.HostPublishAddress,
	}
}

func configPath() string {
	if path := os.Getenv("ESCLUSTER_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
