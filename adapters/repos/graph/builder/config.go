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

package builder

import (
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/idmap"
	"github.com/weaviate/graphstore/entities/errorcompounder"
	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

// PropertyConfig describes one property column stored next to the topology.
type PropertyConfig struct {
	Key          string            `yaml:"key"`
	Aggregation  graph.Aggregation `yaml:"aggregation"`
	DefaultValue float64           `yaml:"defaultValue"`
}

type Config struct {
	NodeCount uint64
	// IDMap translates the ids passed to Add. It is not needed when only
	// AddFromInternal is used.
	IDMap       idmap.IDMap
	Orientation graph.Orientation
	Concurrency int
	// Aggregation applies to the topology and to every property whose own
	// aggregation is Default.
	Aggregation graph.Aggregation
	Properties  []PropertyConfig
	// ValidateRelationships rejects parallel relationships if they are not
	// aggregated.
	ValidateRelationships bool

	Logger            logrus.FieldLogger
	PrometheusMetrics *monitoring.PrometheusMetrics
}

func (c Config) Validate() error {
	ec := errorcompounder.New()

	if c.Logger == nil {
		ec.Addf("logger cannot be nil")
	}

	if c.Concurrency < 0 {
		ec.Addf("concurrency must not be negative, got %d", c.Concurrency)
	}

	switch c.Orientation {
	case graph.Natural, graph.Reverse, graph.Undirected:
	default:
		ec.Addf("unknown orientation %s", c.Orientation)
	}

	if c.IDMap != nil && c.IDMap.NodeCount() != c.NodeCount {
		ec.Addf("id map holds %d nodes, but node count is %d",
			c.IDMap.NodeCount(), c.NodeCount)
	}

	if !knownAggregation(c.Aggregation) {
		ec.Addf("unknown aggregation %s", c.Aggregation)
	}

	keys := map[string]struct{}{}
	collapsing := 0
	for i, prop := range c.Properties {
		group := prop.Key
		if prop.Key == "" {
			group = strconv.Itoa(i)
			ec.AddGroups(errors.New("key cannot be empty"), "properties", group)
		} else if _, ok := keys[prop.Key]; ok {
			ec.AddGroups(errors.New("key is configured more than once"), "properties", group)
		}
		keys[prop.Key] = struct{}{}

		if !knownAggregation(prop.Aggregation) {
			ec.AddGroups(errors.Errorf("unknown aggregation %s", prop.Aggregation),
				"properties", group)
		}
		if c.propertyAggregation(i).Collapses() {
			collapsing++
		}
	}
	if collapsing > 0 && collapsing < len(c.Properties) {
		ec.Addf("either all or none of the property aggregations must be none")
	}

	return ec.ToError()
}

func (c Config) concurrency() int {
	if c.Concurrency == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Concurrency
}

// propertyAggregation resolves the aggregation of the i-th property.
func (c Config) propertyAggregation(i int) graph.Aggregation {
	if agg := c.Properties[i].Aggregation; agg != graph.Default {
		return agg.Resolve()
	}
	return c.Aggregation.Resolve()
}

// collapses reports whether parallel relationships are merged into one.
func (c Config) collapses() bool {
	if len(c.Properties) == 0 {
		return c.Aggregation.Collapses()
	}
	return c.propertyAggregation(0).Collapses()
}

func knownAggregation(a graph.Aggregation) bool {
	return a >= graph.Default && a <= graph.Count
}
