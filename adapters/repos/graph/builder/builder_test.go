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
	"context"
	"io"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/graphstore/adapters/repos/graph/adjacency"
	"github.com/weaviate/graphstore/adapters/repos/graph/idmap"
	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

type edge struct {
	source, target uint64
	weight         float64
}

func testConfig(nodeCount uint64) Config {
	logger, _ := test.NewNullLogger()
	return Config{
		NodeCount:   nodeCount,
		Concurrency: 4,
		Logger:      logger,
	}
}

func mustBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	b, err := New(cfg)
	require.NoError(t, err)
	return b
}

func targetsOf(list *adjacency.CompressedList, node uint64) []uint64 {
	c := list.Cursor(node)
	targets := make([]uint64, 0, c.Size())
	for c.HasNextVLong() {
		targets = append(targets, c.NextVLong())
	}
	return targets
}

func propertiesOf(props *adjacency.Properties, node uint64) []float64 {
	c := props.List.Cursor(node)
	values := make([]float64, 0, c.Remaining())
	for c.HasNext() {
		values = append(values, c.Next())
	}
	return values
}

func randomEdges(r *rand.Rand, nodeCount uint64, count int) []edge {
	edges := make([]edge, count)
	for i := range edges {
		edges[i] = edge{
			source: uint64(r.Int63n(int64(nodeCount))),
			target: uint64(r.Int63n(int64(nodeCount))),
			weight: float64(r.Intn(100)),
		}
	}
	return edges
}

func TestBuilderNaturalOrientation(t *testing.T) {
	b := mustBuilder(t, testConfig(5))

	for _, e := range [][2]uint64{{0, 3}, {0, 1}, {0, 4}, {2, 0}, {4, 4}} {
		require.NoError(t, b.AddFromInternal(e[0], e[1]))
	}
	assert.Equal(t, uint64(5), b.RelationshipCount())

	rels, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Nil(t, rels.Properties)
	assert.False(t, rels.HasProperties())

	list := rels.Topology.AdjacencyList
	assert.Equal(t, uint64(5), rels.Topology.ElementCount)
	assert.True(t, rels.Topology.IsMultiGraph)
	assert.Equal(t, graph.Natural, rels.Topology.Orientation)
	assert.Equal(t, uint64(5), list.NodeCount())

	assert.Equal(t, []uint64{1, 3, 4}, targetsOf(list, 0))
	assert.Empty(t, targetsOf(list, 1))
	assert.Equal(t, []uint64{0}, targetsOf(list, 2))
	assert.Empty(t, targetsOf(list, 3))
	assert.Equal(t, []uint64{4}, targetsOf(list, 4))
	assert.Equal(t, uint64(3), list.Degree(0))
}

func TestBuilderReverseOrientation(t *testing.T) {
	cfg := testConfig(4)
	cfg.Orientation = graph.Reverse
	b := mustBuilder(t, cfg)

	require.NoError(t, b.AddFromInternal(0, 1))
	require.NoError(t, b.AddFromInternal(2, 1))
	require.NoError(t, b.AddFromInternal(3, 0))

	rels, err := b.Build(context.Background())
	require.NoError(t, err)

	list := rels.Topology.AdjacencyList
	assert.Equal(t, []uint64{3}, targetsOf(list, 0))
	assert.Equal(t, []uint64{0, 2}, targetsOf(list, 1))
	assert.Empty(t, targetsOf(list, 2))
	assert.Empty(t, targetsOf(list, 3))
}

func TestBuilderUndirectedOrientation(t *testing.T) {
	t.Run("every relationship counts for both ends and self-loops twice", func(t *testing.T) {
		cfg := testConfig(3)
		cfg.Orientation = graph.Undirected
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(0, 1))
		require.NoError(t, b.AddFromInternal(2, 2))

		rels, err := b.Build(context.Background())
		require.NoError(t, err)

		list := rels.Topology.AdjacencyList
		assert.Equal(t, uint64(1), list.Degree(0))
		assert.Equal(t, uint64(1), list.Degree(1))
		assert.Equal(t, uint64(2), list.Degree(2))
		assert.Equal(t, []uint64{2, 2}, targetsOf(list, 2))
		assert.Equal(t, uint64(4), rels.Topology.ElementCount)
	})

	t.Run("a validated self-loop is not a duplicate of its mirror", func(t *testing.T) {
		cfg := testConfig(3)
		cfg.Orientation = graph.Undirected
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(1, 1))
		require.NoError(t, b.AddFromInternal(0, 2))

		rels, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(2), rels.Topology.AdjacencyList.Degree(1))
	})

	t.Run("a repeated self-loop is a duplicate", func(t *testing.T) {
		cfg := testConfig(3)
		cfg.Orientation = graph.Undirected
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(1, 1))
		require.NoError(t, b.AddFromInternal(1, 1))

		_, err := b.Build(context.Background())
		assert.ErrorIs(t, err, graph.ErrDuplicateRelationship)
	})

	t.Run("a relationship and its inverse are duplicates", func(t *testing.T) {
		cfg := testConfig(3)
		cfg.Orientation = graph.Undirected
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(0, 1))
		require.NoError(t, b.AddFromInternal(1, 0))

		_, err := b.Build(context.Background())
		assert.ErrorIs(t, err, graph.ErrDuplicateRelationship)
	})
}

func TestBuilderDegreeEqualsDistinctNeighbours(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	const nodeCount = 2000
	edges := randomEdges(r, nodeCount, 30_000)

	expected := make([]map[uint64]struct{}, nodeCount)
	for i := range expected {
		expected[i] = map[uint64]struct{}{}
	}
	for _, e := range edges {
		expected[e.source][e.target] = struct{}{}
	}

	cfg := testConfig(nodeCount)
	cfg.Aggregation = graph.Single
	b := mustBuilder(t, cfg)
	for _, e := range edges {
		require.NoError(t, b.AddFromInternal(e.source, e.target))
	}

	rels, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, rels.Topology.IsMultiGraph)

	list := rels.Topology.AdjacencyList
	total := uint64(0)
	for node := uint64(0); node < nodeCount; node++ {
		want := make([]uint64, 0, len(expected[node]))
		for target := range expected[node] {
			want = append(want, target)
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		require.Equal(t, uint64(len(want)), list.Degree(node), "node %d", node)
		if len(want) > 0 {
			require.Equal(t, want, targetsOf(list, node), "node %d", node)
		}
		total += uint64(len(want))
	}
	assert.Equal(t, total, rels.Topology.ElementCount)
}

func TestBuilderIsDeterministicAcrossConcurrency(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	const nodeCount = 3000
	edges := randomEdges(r, nodeCount, 40_000)
	// a hub forces uneven partitions
	for i := 0; i < 5000; i++ {
		edges = append(edges, edge{source: 17, target: uint64(r.Int63n(nodeCount)), weight: float64(i % 7)})
	}

	for _, agg := range []graph.Aggregation{graph.None, graph.Sum} {
		t.Run(agg.String(), func(t *testing.T) {
			build := func(concurrency int) []adjacency.Relationships {
				cfg := testConfig(nodeCount)
				cfg.Concurrency = concurrency
				cfg.Orientation = graph.Undirected
				cfg.Properties = []PropertyConfig{{Key: "weight", Aggregation: agg}}
				b := mustBuilder(t, cfg)

				// concurrent ingestion shuffles the raw insertion order
				var wg sync.WaitGroup
				for w := 0; w < 4; w++ {
					wg.Add(1)
					go func(w int) {
						defer wg.Done()
						for i := w; i < len(edges); i += 4 {
							if err := b.AddFromInternal(edges[i].source, edges[i].target, edges[i].weight); err != nil {
								t.Error(err)
								return
							}
						}
					}(w)
				}
				wg.Wait()

				rels, err := b.BuildAll(context.Background())
				require.NoError(t, err)
				return rels
			}

			single := build(1)[0]
			parallel := build(8)[0]

			assert.Equal(t, single.Topology.ElementCount, parallel.Topology.ElementCount)
			for node := uint64(0); node < nodeCount; node++ {
				require.Equal(t, single.Topology.AdjacencyList.Degree(node),
					parallel.Topology.AdjacencyList.Degree(node), "node %d", node)
				require.Equal(t, targetsOf(single.Topology.AdjacencyList, node),
					targetsOf(parallel.Topology.AdjacencyList, node), "node %d", node)
				require.Equal(t, propertiesOf(single.Properties, node),
					propertiesOf(parallel.Properties, node), "node %d", node)
			}
		})
	}
}

func TestBuilderAggregations(t *testing.T) {
	values := []float64{4, 1, 7}

	for _, tc := range []struct {
		aggregation graph.Aggregation
		expected    float64
	}{
		{graph.Single, 1},
		{graph.Sum, 12},
		{graph.Min, 1},
		{graph.Max, 7},
		{graph.Count, 3},
	} {
		t.Run(tc.aggregation.String(), func(t *testing.T) {
			cfg := testConfig(3)
			cfg.Properties = []PropertyConfig{{Key: "w", Aggregation: tc.aggregation}}
			b := mustBuilder(t, cfg)

			for _, v := range values {
				require.NoError(t, b.AddFromInternal(0, 2, v))
			}
			require.NoError(t, b.AddFromInternal(0, 1, 9))

			rels, err := b.Build(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []uint64{1, 2}, targetsOf(rels.Topology.AdjacencyList, 0))
			assert.Equal(t, []float64{tc.aggregation.Initial(9), tc.expected},
				propertiesOf(rels.Properties, 0))
			assert.Equal(t, tc.aggregation, rels.Properties.Aggregation)
			assert.Equal(t, uint64(2), rels.Properties.ElementCount)
		})
	}

	t.Run("properties without their own aggregation inherit the global one", func(t *testing.T) {
		cfg := testConfig(2)
		cfg.Aggregation = graph.Max
		cfg.Properties = []PropertyConfig{{Key: "w"}}
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(0, 1, 3))
		require.NoError(t, b.AddFromInternal(0, 1, 5))

		rels, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []float64{5}, propertiesOf(rels.Properties, 0))
	})

	t.Run("single keeps the smallest value like min", func(t *testing.T) {
		for _, order := range [][]float64{{4, 1, 7}, {7, 4, 1}, {1, 7, 4}} {
			kept := make(map[graph.Aggregation][]float64)
			for _, aggregation := range []graph.Aggregation{graph.Single, graph.Min} {
				cfg := testConfig(2)
				cfg.Properties = []PropertyConfig{{Key: "w", Aggregation: aggregation}}
				b := mustBuilder(t, cfg)
				for _, v := range order {
					require.NoError(t, b.AddFromInternal(0, 1, v))
				}

				rels, err := b.Build(context.Background())
				require.NoError(t, err)
				kept[aggregation] = propertiesOf(rels.Properties, 0)
			}
			assert.Equal(t, []float64{1}, kept[graph.Single], "insertion order %v", order)
			assert.Equal(t, kept[graph.Min], kept[graph.Single])
		}
	})

	t.Run("parallel relationships keep their values sorted", func(t *testing.T) {
		cfg := testConfig(2)
		cfg.Properties = []PropertyConfig{{Key: "w", Aggregation: graph.None}}
		b := mustBuilder(t, cfg)

		for _, v := range values {
			require.NoError(t, b.AddFromInternal(0, 1, v))
		}

		rels, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 1, 1}, targetsOf(rels.Topology.AdjacencyList, 0))
		assert.Equal(t, []float64{1, 4, 7}, propertiesOf(rels.Properties, 0))
	})
}

func TestBuilderBuildAll(t *testing.T) {
	cfg := testConfig(4)
	cfg.Aggregation = graph.Sum
	cfg.Properties = []PropertyConfig{
		{Key: "cost", DefaultValue: 1},
		{Key: "weight", DefaultValue: 0.5, Aggregation: graph.Max},
	}
	b := mustBuilder(t, cfg)

	require.NoError(t, b.AddFromInternal(0, 1, 2, 3))
	require.NoError(t, b.AddFromInternal(0, 1, 4))
	require.NoError(t, b.AddFromInternal(0, 3))
	require.NoError(t, b.AddFromInternal(2, 3, 1, 0.25))

	all, err := b.BuildAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Same(t, all[0].Topology, all[1].Topology)
	assert.Equal(t, "cost", all[0].Properties.Key)
	assert.Equal(t, "weight", all[1].Properties.Key)
	assert.Equal(t, 1.0, all[0].Properties.DefaultValue)

	assert.Equal(t, []uint64{1, 3}, targetsOf(all[0].Topology.AdjacencyList, 0))
	assert.Equal(t, []float64{6, 1}, propertiesOf(all[0].Properties, 0))
	assert.Equal(t, []float64{3, 0.5}, propertiesOf(all[1].Properties, 0))
	assert.Equal(t, []float64{1}, propertiesOf(all[0].Properties, 2))
	assert.Equal(t, []float64{0.25}, propertiesOf(all[1].Properties, 2))

	t.Run("too many property values are rejected", func(t *testing.T) {
		b := mustBuilder(t, cfg)
		assert.Error(t, b.AddFromInternal(0, 1, 1, 2, 3))
	})
}

func TestBuilderErrors(t *testing.T) {
	t.Run("ids outside of the node space", func(t *testing.T) {
		b := mustBuilder(t, testConfig(3))

		err := b.AddFromInternal(0, 3)
		assert.ErrorIs(t, err, graph.ErrInvalidNodeReference)
		assert.ErrorIs(t, b.AddFromInternal(7, 0), graph.ErrInvalidNodeReference)

		_, err = b.Build(context.Background())
		assert.ErrorIs(t, err, graph.ErrInvalidNodeReference)
	})

	t.Run("original ids unknown to the id map", func(t *testing.T) {
		ids := idmap.NewBuilder(100, nil)
		ids.AddNode(10)
		ids.AddNode(20)
		m := ids.Build()

		cfg := testConfig(m.NodeCount())
		cfg.IDMap = m
		b := mustBuilder(t, cfg)

		require.NoError(t, b.Add(20, 10))
		assert.ErrorIs(t, b.Add(10, 30), graph.ErrInvalidNodeReference)
	})

	t.Run("original ids without an id map", func(t *testing.T) {
		b := mustBuilder(t, testConfig(3))
		assert.Error(t, b.Add(0, 1))
	})

	t.Run("duplicates under validation", func(t *testing.T) {
		cfg := testConfig(10)
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)

		require.NoError(t, b.AddFromInternal(0, 1))
		require.NoError(t, b.AddFromInternal(5, 6))
		require.NoError(t, b.AddFromInternal(5, 6))

		_, err := b.Build(context.Background())
		assert.ErrorIs(t, err, graph.ErrDuplicateRelationship)
	})

	t.Run("duplicates without validation are kept", func(t *testing.T) {
		b := mustBuilder(t, testConfig(10))
		require.NoError(t, b.AddFromInternal(5, 6))
		require.NoError(t, b.AddFromInternal(5, 6))

		rels, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(2), rels.Topology.AdjacencyList.Degree(5))
	})

	t.Run("a cancelled context aborts the build", func(t *testing.T) {
		b := mustBuilder(t, testConfig(10))
		require.NoError(t, b.AddFromInternal(1, 2))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := b.Build(ctx)
		assert.ErrorIs(t, err, graph.ErrComputationAborted)
	})

	t.Run("a builder is built only once", func(t *testing.T) {
		b := mustBuilder(t, testConfig(3))
		require.NoError(t, b.AddFromInternal(1, 2))

		_, err := b.Build(context.Background())
		require.NoError(t, err)

		_, err = b.Build(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyBuilt)
		assert.ErrorIs(t, b.AddFromInternal(1, 2), ErrAlreadyBuilt)
	})
}

func TestBuilderEmptyGraph(t *testing.T) {
	b := mustBuilder(t, testConfig(0))

	rels, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rels.Topology.ElementCount)
	assert.Equal(t, 0, rels.Topology.AdjacencyList.PageCount())
}

func TestBuilderBlocksLargerThanAPage(t *testing.T) {
	// parallel relationships encode as one byte deltas, 300k of them do not
	// fit into a single page
	const (
		targets = 1000
		repeats = 300
	)

	b := mustBuilder(t, testConfig(targets))
	for r := 0; r < repeats; r++ {
		for i := uint64(0); i < targets; i++ {
			require.NoError(t, b.AddFromInternal(0, i))
		}
	}
	require.NoError(t, b.AddFromInternal(1, 0))

	rels, err := b.Build(context.Background())
	require.NoError(t, err)

	list := rels.Topology.AdjacencyList
	assert.GreaterOrEqual(t, list.PageCount(), 2)
	assert.Equal(t, uint64(targets*repeats), list.Degree(0))

	c := list.Cursor(0)
	for i := uint64(0); i < targets*repeats; i++ {
		require.Equal(t, i/repeats, c.NextVLong())
	}
	assert.False(t, c.HasNextVLong())
	assert.Equal(t, []uint64{0}, targetsOf(list, 1))
}

func TestBuilderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := testConfig(3)
	cfg.PrometheusMetrics = monitoring.NewPrometheusMetrics(reg)
	b := mustBuilder(t, cfg)

	require.NoError(t, b.AddFromInternal(0, 1))
	require.NoError(t, b.AddFromInternal(1, 2))

	_, err := b.Build(context.Background())
	require.NoError(t, err)

	prom := cfg.PrometheusMetrics
	assert.Equal(t, float64(1), testutil.ToFloat64(
		prom.RelationshipBuilds.WithLabelValues("natural", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(
		prom.Relationships.WithLabelValues("natural")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		prom.AdjacencyPages.WithLabelValues("natural")))
	assert.Greater(t, testutil.ToFloat64(prom.SparseAllocatedBytes), float64(0))
}

// cancelOnPartition cancels a build as soon as the first worker announces
// its partition, so every worker starts with a cancelled context.
type cancelOnPartition struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (h *cancelOnPartition) Levels() []logrus.Level {
	return []logrus.Level{logrus.DebugLevel}
}

func (h *cancelOnPartition) Fire(entry *logrus.Entry) error {
	if entry.Message == "compressing partition" {
		h.once.Do(h.cancel)
	}
	return nil
}

func chainEdges(t *testing.T, b *Builder, nodeCount uint64) {
	t.Helper()
	for node := uint64(0); node < nodeCount; node++ {
		require.NoError(t, b.AddFromInternal(node, (node+1)%nodeCount))
	}
}

func TestBuilderAbortsRunningPartitions(t *testing.T) {
	const nodeCount = 4000

	t.Run("cancelling while workers run aborts every partition", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		logger := logrus.New()
		logger.SetOutput(io.Discard)
		logger.SetLevel(logrus.DebugLevel)
		logger.AddHook(&cancelOnPartition{cancel: cancel})

		cfg := testConfig(nodeCount)
		cfg.Logger = logger
		b := mustBuilder(t, cfg)
		chainEdges(t, b, nodeCount)

		require.NoError(t, ctx.Err())
		rels, err := b.BuildAll(ctx)
		assert.ErrorIs(t, err, graph.ErrComputationAborted)
		assert.Nil(t, rels)
	})

	t.Run("the first worker error is returned and nothing is published", func(t *testing.T) {
		cfg := testConfig(nodeCount)
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)
		chainEdges(t, b, nodeCount)
		require.NoError(t, b.AddFromInternal(0, 1))

		rels, err := b.BuildAll(context.Background())
		assert.ErrorIs(t, err, graph.ErrDuplicateRelationship)
		assert.NotErrorIs(t, err, graph.ErrComputationAborted)
		assert.Nil(t, rels)
	})

	t.Run("a failed build cannot be retried", func(t *testing.T) {
		cfg := testConfig(nodeCount)
		cfg.ValidateRelationships = true
		b := mustBuilder(t, cfg)
		require.NoError(t, b.AddFromInternal(3, 4))
		require.NoError(t, b.AddFromInternal(3, 4))

		_, err := b.BuildAll(context.Background())
		require.ErrorIs(t, err, graph.ErrDuplicateRelationship)
		_, err = b.BuildAll(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyBuilt)
	})
}

func TestBuilderCapacityOverflow(t *testing.T) {
	t.Run("node counts beyond the addressable range are rejected", func(t *testing.T) {
		_, err := New(testConfig(paged.MaxSize + 1))
		assert.ErrorIs(t, err, graph.ErrCapacityOverflow)
	})

	t.Run("relationship counts beyond the addressable range fail the build", func(t *testing.T) {
		cfg := testConfig(4)
		cfg.Properties = []PropertyConfig{{Key: "weight"}}
		b := mustBuilder(t, cfg)
		require.NoError(t, b.AddFromInternal(0, 1, 2))
		b.relationships.Store(paged.MaxSize + 1)

		rels, err := b.BuildAll(context.Background())
		assert.ErrorIs(t, err, graph.ErrCapacityOverflow)
		assert.Nil(t, rels)
	})
}
