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

package main

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/builder"
	"github.com/weaviate/graphstore/adapters/repos/graph/idmap"
	"github.com/weaviate/graphstore/adapters/repos/graph/partition"
	enterrors "github.com/weaviate/graphstore/entities/errors"
	"github.com/weaviate/graphstore/usecases/config"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

// originalStride spreads the generated original ids so the id map has
// actual work to do.
const originalStride = 3

// generator produces a reproducible stream of random relationships whose
// targets are skewed towards low node ids.
type generator struct {
	nodes      uint64
	avgDegree  uint64
	skew       float64
	seed       int64
	properties int
}

// idMap registers the original id of every node. Dense ids are assigned in
// ascending original id order, so the result does not depend on concurrency.
func (g generator) idMap(logger logrus.FieldLogger, concurrency int,
	metrics *monitoring.PrometheusMetrics,
) (*idmap.SparseIDMap, error) {
	concurrency = workers(concurrency)
	ids := idmap.NewBuilder(g.nodes*originalStride, metrics.TrackSparseAllocation)

	eg := enterrors.NewErrorGroupWrapper(logger)
	eg.SetLimit(concurrency)
	for _, r := range partition.RangePartitions(g.nodes, concurrency) {
		eg.Go(func() error {
			for node := r.StartNode; node < r.EndNode(); node++ {
				ids.AddNode(node * originalStride)
			}
			return nil
		}, r.String())
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return ids.Build(), nil
}

func workers(concurrency int) int {
	if concurrency <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return concurrency
}

func newBuilder(cfg config.Config, ids idmap.IDMap, logger logrus.FieldLogger,
	metrics *monitoring.PrometheusMetrics,
) (*builder.Builder, error) {
	return builder.New(cfg.BuilderConfig(ids.NodeCount(), ids, logger, metrics))
}

// relationships adds avgDegree relationships per source node. Every worker
// draws from its own seeded source, so a run is reproducible for a given
// concurrency.
func (g generator) relationships(ctx context.Context, logger logrus.FieldLogger,
	concurrency int, b *builder.Builder,
) error {
	concurrency = workers(concurrency)

	eg, egCtx := enterrors.NewErrorGroupWithContextWrapper(ctx, logger)
	eg.SetLimit(concurrency)

	split := (g.nodes + uint64(concurrency) - 1) / uint64(concurrency)
	for worker := 0; worker < concurrency; worker++ {
		start := uint64(worker) * split
		if start >= g.nodes {
			break
		}
		end := min(start+split, g.nodes)

		eg.Go(func() error {
			r := rand.New(rand.NewSource(g.seed + int64(worker)))
			props := make([]float64, g.properties)

			for source := start; source < end; source++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				for i := uint64(0); i < g.avgDegree; i++ {
					for p := range props {
						props[p] = math.Round(r.Float64()*1000) / 100
					}
					target := g.target(r)
					if err := b.Add(source*originalStride, target*originalStride, props...); err != nil {
						return err
					}
				}
			}
			return nil
		}, worker)
	}
	return eg.Wait()
}

func (g generator) target(r *rand.Rand) uint64 {
	target := uint64(math.Pow(r.Float64(), g.skew) * float64(g.nodes))
	if target >= g.nodes {
		target = g.nodes - 1
	}
	return target
}
