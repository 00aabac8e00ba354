package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	VectorDB    VectorDBConfig    `yaml:"vector_db"`
	Database    DatabaseConfig    `yaml:"database"`
	Sources     SourcesConfig     `yaml:"sources"`
	Correlation CorrelationConfig `yaml:"correlation"`
}

type VectorDBConfig struct {
	Path        string   `yaml:"path"`
	Collections []string `yaml:"collections"`
	InMemory    bool     `yaml:"in_memory"`
}

type DatabaseConfig struct {
	DSN           string `yaml:"dsn"`
	Debug         bool   `yaml:"debug"`
	WithSummaries bool   `yaml:"with_summaries"`
}

type SourcesConfig struct {
	PropertyFiles     []string `yaml:"property_files"`
	NeighborhoodFiles []string `yaml:"neighborhood_files"`
	RootDirs          []string `yaml:"root_dirs"`
}

type CorrelationConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Correlation.BatchSize == 0 {
		c.Correlation.BatchSize = 100
	}
	if c.Correlation.Workers == 0 {
		c.Correlation.Workers = 4
	}
}
