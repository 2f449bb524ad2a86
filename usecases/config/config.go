//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

// Package config holds the user facing settings of the graph storage. They
// are read from a yaml file and can be overridden through the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/weaviate/graphstore/adapters/repos/graph/builder"
	"github.com/weaviate/graphstore/adapters/repos/graph/idmap"
	"github.com/weaviate/graphstore/entities/errorcompounder"
	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/entities/resourcelimits"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

// DefaultConfigFile is used when no config file is given.
const DefaultConfigFile = "./graphstore.yaml"

const DefaultMonitoringPort = 2112

type Config struct {
	// Concurrency of building relationships, 0 uses GOMAXPROCS.
	Concurrency           int                      `yaml:"concurrency"`
	Orientation           graph.Orientation        `yaml:"orientation"`
	Aggregation           graph.Aggregation        `yaml:"aggregation"`
	ValidateRelationships bool                     `yaml:"validateRelationships"`
	Properties            []builder.PropertyConfig `yaml:"properties"`

	// MemoryLimit caps the estimated size of adjacency lists, e.g. "8GiB".
	// Empty means the physical memory of the machine.
	MemoryLimit string `yaml:"memoryLimit"`

	LogLevel   string     `yaml:"logLevel"`
	LogFormat  string     `yaml:"logFormat"`
	Monitoring Monitoring `yaml:"monitoring"`
}

type Monitoring struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

func Defaults() Config {
	return Config{
		Orientation: graph.Natural,
		Aggregation: graph.Default,
		LogLevel:    "info",
		LogFormat:   "text",
		Monitoring: Monitoring{
			Port: DefaultMonitoringPort,
		},
	}
}

// Load reads the config file, if present, applies the environment and
// validates the result. Settings are applied in this order:
// 1. Config file
// 2. Environment variables
func Load(fileName string, logger logrus.FieldLogger) (Config, error) {
	if fileName == "" {
		fileName = DefaultConfigFile
	}

	config := Defaults()
	if _, err := os.Stat(fileName); err == nil {
		logger.WithField("action", "config_load").WithField("config_file_path", fileName).
			Info("loading config file")
		config, err = FromFile(fileName)
		if err != nil {
			return config, configErr(err)
		}
	}

	if err := FromEnv(&config); err != nil {
		return config, configErr(err)
	}

	if err := config.Validate(); err != nil {
		return config, configErr(err)
	}
	return config, nil
}

// FromFile parses a yaml config file on top of the defaults.
func FromFile(fileName string) (Config, error) {
	config := Defaults()

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".yaml", ".yml":
	default:
		return config, errors.Errorf("unsupported config file extension '%s', use .yaml", ext)
	}

	file, err := os.ReadFile(fileName)
	if err != nil {
		return config, errors.Wrap(err, "read config file")
	}

	if err := yaml.Unmarshal(file, &config); err != nil {
		return config, errors.Wrap(err, "unmarshal yaml config file")
	}
	return config, nil
}

func (c Config) Validate() error {
	ec := errorcompounder.New()

	if c.Concurrency < 0 {
		ec.Addf("concurrency must not be negative, got %d", c.Concurrency)
	}

	if c.MemoryLimit != "" {
		if _, err := resourcelimits.ParseMemLimit(c.MemoryLimit); err != nil {
			ec.AddWrapf(err, "memoryLimit")
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		ec.AddWrapf(err, "logLevel")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		ec.Addf("logFormat must be one of text, json, got %q", c.LogFormat)
	}

	if c.Monitoring.Enabled && (c.Monitoring.Port <= 0 || c.Monitoring.Port > 65535) {
		ec.Addf("monitoring port %d is out of range", c.Monitoring.Port)
	}

	return ec.ToError()
}

// MemoryLimitBytes is the parsed MemoryLimit, 0 if none is set.
func (c Config) MemoryLimitBytes() int64 {
	if c.MemoryLimit == "" {
		return 0
	}
	limit, err := resourcelimits.ParseMemLimit(c.MemoryLimit)
	if err != nil {
		return 0
	}
	return limit
}

// NewLogger creates a logger with the configured level and format.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// BuilderConfig derives the settings of one relationships build.
func (c Config) BuilderConfig(nodeCount uint64, ids idmap.IDMap, logger logrus.FieldLogger,
	metrics *monitoring.PrometheusMetrics,
) builder.Config {
	return builder.Config{
		NodeCount:             nodeCount,
		IDMap:                 ids,
		Orientation:           c.Orientation,
		Concurrency:           c.Concurrency,
		Aggregation:           c.Aggregation,
		Properties:            c.Properties,
		ValidateRelationships: c.ValidateRelationships,
		Logger:                logger,
		PrometheusMetrics:     metrics,
	}
}

func configErr(err error) error {
	return errors.Wrap(err, "invalid config")
}
