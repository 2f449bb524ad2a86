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

package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/weaviate/graphstore/entities/graph"
)

// FromEnv takes a *Config as it will respect initial config that has been
// provided by other means (e.g. a config file) and will only extend those
// that are set
func FromEnv(config *Config) error {
	if v := os.Getenv("GRAPH_CONCURRENCY"); v != "" {
		asInt, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parse GRAPH_CONCURRENCY as int")
		}
		if asInt < 0 {
			return errors.Errorf("GRAPH_CONCURRENCY must not be negative, got %d", asInt)
		}
		config.Concurrency = asInt
	}

	if v := os.Getenv("GRAPH_ORIENTATION"); v != "" {
		orientation, err := graph.ParseOrientation(v)
		if err != nil {
			return errors.Wrap(err, "parse GRAPH_ORIENTATION")
		}
		config.Orientation = orientation
	}

	if v := os.Getenv("GRAPH_AGGREGATION"); v != "" {
		aggregation, err := graph.ParseAggregation(v)
		if err != nil {
			return errors.Wrap(err, "parse GRAPH_AGGREGATION")
		}
		config.Aggregation = aggregation
	}

	if v := os.Getenv("GRAPH_VALIDATE_RELATIONSHIPS"); v != "" {
		config.ValidateRelationships = enabled(v)
	}

	if v := os.Getenv("GRAPH_MEMORY_LIMIT"); v != "" {
		config.MemoryLimit = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.LogFormat = v
	}

	if enabled(os.Getenv("PROMETHEUS_MONITORING_ENABLED")) {
		config.Monitoring.Enabled = true

		if v := os.Getenv("PROMETHEUS_MONITORING_PORT"); v != "" {
			asInt, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "parse PROMETHEUS_MONITORING_PORT as int")
			}
			config.Monitoring.Port = asInt
		}
	}

	return nil
}

func enabled(value string) bool {
	switch value {
	case "on", "enabled", "1", "true":
		return true
	default:
		return false
	}
}
