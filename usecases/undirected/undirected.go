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

// Package undirected turns directed relationships into undirected ones.
package undirected

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/adjacency"
	"github.com/weaviate/graphstore/adapters/repos/graph/builder"
	"github.com/weaviate/graphstore/adapters/repos/graph/hugegraph"
	"github.com/weaviate/graphstore/adapters/repos/graph/partition"
	enterrors "github.com/weaviate/graphstore/entities/errors"
	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

type Config struct {
	Concurrency int
	// Aggregation merges a relationship with its inverse if both exist.
	Aggregation graph.Aggregation
	// Properties to carry over, referenced by key. Empty carries over every
	// property of the graph with Aggregation.
	Properties []builder.PropertyConfig

	Logger            logrus.FieldLogger
	PrometheusMetrics *monitoring.PrometheusMetrics
}

// ToUndirected imports every relationship of g into an undirected builder
// and returns the new relationships, one entry per carried over property.
func ToUndirected(ctx context.Context, g *hugegraph.Graph, cfg Config) ([]adjacency.Relationships, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if g.Orientation() == graph.Undirected {
		return nil, errors.New("relationships are already undirected")
	}

	properties, columns, err := resolveProperties(g, cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	b, err := builder.New(builder.Config{
		NodeCount:         g.NodeCount(),
		Orientation:       graph.Undirected,
		Concurrency:       concurrency,
		Aggregation:       cfg.Aggregation,
		Properties:        properties,
		Logger:            cfg.Logger,
		PrometheusMetrics: cfg.PrometheusMetrics,
	})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.WithField("action", "to_undirected")
	partitions := partition.DegreePartitions(g.NodeCount(), concurrency, g.Degree)
	logger.WithField("partitions", len(partitions)).Debug("importing relationships")

	eg, egCtx := enterrors.NewErrorGroupWithContextWrapper(ctx, logger)
	eg.SetLimit(concurrency)
	for _, p := range partitions {
		local := g.ConcurrentCopy()
		eg.Go(func() error {
			return importPartition(egCtx, b, local, p, columns)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return b.BuildAll(ctx)
}

func importPartition(ctx context.Context, b *builder.Builder, g *hugegraph.Graph,
	p partition.DegreePartition, columns []int,
) error {
	values := make([]float64, len(columns))
	var addErr error

	for node := p.StartNode; node < p.EndNode(); node++ {
		if err := ctx.Err(); err != nil {
			return graph.NewComputationAborted(err)
		}

		g.ForEachRelationships(node, func(source, target uint64, all []float64) graph.Decision {
			for i, column := range columns {
				values[i] = all[column]
			}
			if addErr = b.AddFromInternal(target, source, values...); addErr != nil {
				return graph.Stop
			}
			return graph.Continue
		})
		if addErr != nil {
			return addErr
		}
	}
	return nil
}

// resolveProperties returns the property configs of the undirected builder
// and for each of them the column of g it is read from.
func resolveProperties(g *hugegraph.Graph, cfg Config) ([]builder.PropertyConfig, []int, error) {
	existing := g.Properties()

	if len(cfg.Properties) == 0 {
		properties := make([]builder.PropertyConfig, len(existing))
		columns := make([]int, len(existing))
		for i, p := range existing {
			properties[i] = builder.PropertyConfig{
				Key:          p.Key,
				Aggregation:  cfg.Aggregation,
				DefaultValue: p.DefaultValue,
			}
			columns[i] = i
		}
		return properties, columns, nil
	}

	byKey := make(map[string]int, len(existing))
	for i, p := range existing {
		byKey[p.Key] = i
	}

	columns := make([]int, len(cfg.Properties))
	for i, p := range cfg.Properties {
		column, ok := byKey[p.Key]
		if !ok {
			return nil, nil, errors.Errorf("graph has no relationship property %q", p.Key)
		}
		columns[i] = column
	}
	return cfg.Properties, columns, nil
}
