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
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/adjacency"
	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
	"github.com/weaviate/graphstore/adapters/repos/graph/partition"
	"github.com/weaviate/graphstore/adapters/repos/graph/sparse"
	enterrors "github.com/weaviate/graphstore/entities/errors"
	"github.com/weaviate/graphstore/entities/graph"
)

// output holds the shared structures all workers write into.
type output struct {
	allocator *adjacency.PageAllocator
	degrees   *paged.Array[uint64]
	offsets   *paged.Array[uint64]

	// one column per property, addressed through propertyOffsets
	propertyValues  []*paged.Array[float64]
	propertyOffsets *paged.Array[uint64]
	propertyTop     atomic.Uint64

	relationships atomic.Uint64
}

// Build compresses the staged relationships and returns them with the
// first configured property, if any.
func (b *Builder) Build(ctx context.Context) (adjacency.Relationships, error) {
	all, err := b.BuildAll(ctx)
	if err != nil {
		return adjacency.Relationships{}, err
	}
	return all[0], nil
}

// BuildAll compresses the staged relationships and returns one
// Relationships per configured property, all sharing one topology. Without
// properties the result holds a single topology-only entry. Either the
// whole structure is returned or an error, never a partial result.
func (b *Builder) BuildAll(ctx context.Context) ([]adjacency.Relationships, error) {
	if !b.sealed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyBuilt
	}
	// staging buffers are scratch state
	defer func() { b.buckets = nil }()

	if err := b.firstAddError(); err != nil {
		return nil, err
	}

	started := time.Now()
	out, err := b.build(ctx)
	took := time.Since(started)
	if err != nil {
		b.metrics.BuildFailed(took)
		b.logger.WithError(err).WithField("took", took).Warn("building relationships failed")
		return nil, err
	}

	result := b.publish(out)
	topology := result[0].Topology
	size := topology.AdjacencyList.SizeInBytes()
	b.metrics.BuildSucceeded(took, topology.ElementCount, size)
	b.logger.WithFields(logrus.Fields{
		"nodes":             b.config.NodeCount,
		"relationships":     topology.ElementCount,
		"raw_relationships": b.RelationshipCount(),
		"pages":             topology.AdjacencyList.PageCount(),
		"bytes":             size,
		"took":              took,
	}).Info("built relationships")

	return result, nil
}

func (b *Builder) build(ctx context.Context) (*output, error) {
	if err := ctx.Err(); err != nil {
		return nil, graph.NewComputationAborted(err)
	}

	if err := paged.CheckSize(b.RelationshipCount()); err != nil {
		return nil, err
	}

	nodeCount := b.config.NodeCount
	rawDegrees := b.degrees.Build()

	out := &output{
		allocator: adjacency.NewPageAllocator(b.metrics.AddPage),
		degrees:   paged.New[uint64](nodeCount),
		offsets:   paged.New[uint64](nodeCount),
	}
	if b.propertyCount > 0 {
		out.propertyOffsets = paged.New[uint64](nodeCount)
		out.propertyValues = make([]*paged.Array[float64], b.propertyCount)
		for i := range out.propertyValues {
			out.propertyValues[i] = paged.New[float64](b.RelationshipCount())
		}
	}

	partitions := partition.DegreePartitions(nodeCount, b.config.concurrency(),
		func(node uint64) uint64 { return uint64(rawDegrees.Get(node)) })

	eg, egCtx := enterrors.NewErrorGroupWithContextWrapper(ctx, b.logger)
	eg.SetLimit(b.config.concurrency())
	for i, p := range partitions {
		eg.Go(func() error {
			b.logger.WithFields(logrus.Fields{
				"partition":     i,
				"start_node":    p.StartNode,
				"nodes":         p.NodeCount,
				"relationships": p.RelationshipCount,
			}).Debug("compressing partition")

			w := newWorker(b, out, rawDegrees, p)
			return w.run(egCtx)
		}, i)
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) publish(out *output) []adjacency.Relationships {
	nodeCount := b.config.NodeCount
	list := adjacency.NewCompressedList(out.allocator.Pages(), out.degrees, out.offsets,
		nodeCount)

	topology := &adjacency.Topology{
		AdjacencyList: list,
		ElementCount:  out.relationships.Load(),
		IsMultiGraph:  !b.config.collapses(),
		Orientation:   b.config.Orientation,
	}

	if b.propertyCount == 0 {
		return []adjacency.Relationships{{Topology: topology}}
	}

	result := make([]adjacency.Relationships, b.propertyCount)
	for i, prop := range b.config.Properties {
		result[i] = adjacency.Relationships{
			Topology: topology,
			Properties: &adjacency.Properties{
				Key: prop.Key,
				List: adjacency.NewPropertyList(out.propertyValues[i], out.propertyOffsets,
					out.degrees, nodeCount),
				ElementCount: topology.ElementCount,
				DefaultValue: prop.DefaultValue,
				Aggregation:  b.config.propertyAggregation(i),
			},
		}
	}
	return result
}

// worker compresses the nodes of one partition. Everything but out is
// private to the worker.
type worker struct {
	b          *Builder
	out        *output
	partition  partition.DegreePartition
	rawDegrees *sparse.LongMap

	width        int
	aggregations []graph.Aggregation
	collapses    bool

	// staged relationships of the partition grouped by node
	starts     []uint64
	targets    []uint64
	properties []float64

	// aggregated relationships of the current node
	nodeTargets    []uint64
	nodeProperties [][]float64
	encoded        []byte
}

func newWorker(b *Builder, out *output, rawDegrees *sparse.LongMap,
	p partition.DegreePartition,
) *worker {
	aggregations := make([]graph.Aggregation, b.propertyCount)
	for i := range aggregations {
		aggregations[i] = b.config.propertyAggregation(i)
	}

	return &worker{
		b:              b,
		out:            out,
		partition:      p,
		rawDegrees:     rawDegrees,
		width:          b.propertyCount,
		aggregations:   aggregations,
		collapses:      b.config.collapses(),
		nodeProperties: make([][]float64, b.propertyCount),
	}
}

func (w *worker) run(ctx context.Context) error {
	w.gather()

	done := ctx.Done()
	for i := uint64(0); i < w.partition.NodeCount; i++ {
		select {
		case <-done:
			return graph.NewComputationAborted(ctx.Err())
		default:
		}

		if err := w.compress(w.partition.StartNode+i, i); err != nil {
			return err
		}
	}
	return nil
}

// gather copies the staged relationships of the partition into private
// buffers, grouped by node with a counting sort over the raw degrees.
func (w *worker) gather() {
	p := w.partition

	w.starts = make([]uint64, p.NodeCount+1)
	total := uint64(0)
	for i := uint64(0); i < p.NodeCount; i++ {
		w.starts[i] = total
		total += uint64(w.rawDegrees.Get(p.StartNode + i))
	}
	w.starts[p.NodeCount] = total

	w.targets = make([]uint64, total)
	w.properties = make([]float64, total*uint64(w.width))
	if total == 0 {
		return
	}

	next := make([]uint64, p.NodeCount)
	copy(next, w.starts)

	shift := w.b.bucketShift
	first := p.StartNode >> shift
	last := (p.EndNode() - 1) >> shift
	for bi := first; bi <= last; bi++ {
		bucket := &w.b.buckets[bi]
		for j, owner := range bucket.owners {
			if owner < p.StartNode || owner >= p.EndNode() {
				continue
			}
			pos := next[owner-p.StartNode]
			next[owner-p.StartNode]++

			w.targets[pos] = bucket.targets[j]
			if w.width > 0 {
				copy(w.properties[pos*uint64(w.width):(pos+1)*uint64(w.width)],
					bucket.properties[j*w.width:(j+1)*w.width])
			}
		}
	}
}

// compress sorts, aggregates and encodes the relationships of node, the
// local-th node of the partition.
func (w *worker) compress(node, local uint64) error {
	start, end := w.starts[local], w.starts[local+1]
	if start == end {
		return nil
	}

	targets := w.targets[start:end]
	var properties []float64
	if w.width > 0 {
		properties = w.properties[start*uint64(w.width) : end*uint64(w.width)]
	}
	sort.Sort(&relationshipSorter{targets: targets, properties: properties, width: w.width})

	if err := w.aggregate(node, targets, properties); err != nil {
		return err
	}

	degree := uint64(len(w.nodeTargets))
	w.encoded = adjacency.AppendCompressed(w.encoded[:0], w.nodeTargets)
	offset, err := w.out.allocator.Insert(w.encoded)
	if err != nil {
		return err
	}

	w.out.degrees.Set(node, degree)
	w.out.offsets.Set(node, offset)
	w.out.relationships.Add(degree)

	if w.width > 0 {
		w.writeProperties(node, degree)
	}
	return nil
}

// aggregate fills nodeTargets and nodeProperties from the sorted
// relationships of node.
func (w *worker) aggregate(node uint64, targets []uint64, properties []float64) error {
	w.nodeTargets = w.nodeTargets[:0]
	for i := range w.nodeProperties {
		w.nodeProperties[i] = w.nodeProperties[i][:0]
	}

	for runStart := 0; runStart < len(targets); {
		target := targets[runStart]
		runEnd := runStart + 1
		for runEnd < len(targets) && targets[runEnd] == target {
			runEnd++
		}

		if w.collapses {
			w.nodeTargets = append(w.nodeTargets, target)
			for p, agg := range w.aggregations {
				value := agg.Initial(properties[runStart*w.width+p])
				for r := runStart + 1; r < runEnd; r++ {
					value = agg.Merge(value, properties[r*w.width+p])
				}
				w.nodeProperties[p] = append(w.nodeProperties[p], value)
			}
		} else {
			if w.b.config.ValidateRelationships && w.isDuplicate(node, target, runEnd-runStart) {
				return graph.NewDuplicateRelationship(node, target)
			}
			for r := runStart; r < runEnd; r++ {
				w.nodeTargets = append(w.nodeTargets, target)
				for p := range w.nodeProperties {
					w.nodeProperties[p] = append(w.nodeProperties[p], properties[r*w.width+p])
				}
			}
		}

		runStart = runEnd
	}
	return nil
}

// isDuplicate decides whether a run of equal targets contains parallel
// relationships. An undirected self-loop is stored twice by design of the
// orientation and is not a duplicate on its own.
func (w *worker) isDuplicate(node, target uint64, run int) bool {
	if node == target && w.b.config.Orientation == graph.Undirected {
		return run > 2
	}
	return run > 1
}

func (w *worker) writeProperties(node, degree uint64) {
	start := w.out.propertyTop.Add(degree) - degree
	w.out.propertyOffsets.Set(node, start)

	for p, values := range w.out.propertyValues {
		source := w.nodeProperties[p]
		for index := start; len(source) > 0; {
			run := values.Slice(index, uint64(len(source)))
			n := copy(run, source)
			source = source[n:]
			index += uint64(n)
		}
	}
}

// relationshipSorter orders relationships by target and then by their
// property values, which makes aggregation independent of insertion order.
type relationshipSorter struct {
	targets    []uint64
	properties []float64
	width      int
}

func (s *relationshipSorter) Len() int {
	return len(s.targets)
}

func (s *relationshipSorter) Less(i, j int) bool {
	if s.targets[i] != s.targets[j] {
		return s.targets[i] < s.targets[j]
	}
	for p := 0; p < s.width; p++ {
		a, b := s.properties[i*s.width+p], s.properties[j*s.width+p]
		if a != b {
			return a < b
		}
	}
	return false
}

func (s *relationshipSorter) Swap(i, j int) {
	s.targets[i], s.targets[j] = s.targets[j], s.targets[i]
	for p := 0; p < s.width; p++ {
		a, b := i*s.width+p, j*s.width+p
		s.properties[a], s.properties[b] = s.properties[b], s.properties[a]
	}
}
