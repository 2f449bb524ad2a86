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

// Package hugegraph exposes built relationships to graph algorithms.
package hugegraph

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/weaviate/graphstore/adapters/repos/graph/adjacency"
	"github.com/weaviate/graphstore/entities/graph"
)

// Graph is a read view over one topology and its property columns. It
// reuses cursors between calls and must not be used from more than one
// goroutine; every further goroutine works on its own ConcurrentCopy.
type Graph struct {
	nodeCount  uint64
	topology   *adjacency.Topology
	properties []*adjacency.Properties

	// reusable cursors, busy while a traversal runs
	cursor          *adjacency.Cursor
	propertyCursors []*adjacency.PropertyCursor
	busy            bool
	values          []float64
}

// New creates a graph from the result of a relationships build. All entries
// must share one topology.
func New(nodeCount uint64, relationships []adjacency.Relationships) (*Graph, error) {
	if len(relationships) == 0 {
		return nil, errors.New("at least one relationships entry is required")
	}

	topology := relationships[0].Topology
	if topology == nil {
		return nil, errors.New("relationships without topology")
	}
	if topology.AdjacencyList.NodeCount() != nodeCount {
		return nil, errors.Errorf("topology holds %d nodes, expected %d",
			topology.AdjacencyList.NodeCount(), nodeCount)
	}

	var properties []*adjacency.Properties
	for i, rels := range relationships {
		if rels.Topology != topology {
			return nil, errors.Errorf("relationships entry %d does not share the topology", i)
		}
		if rels.Properties != nil {
			properties = append(properties, rels.Properties)
		}
	}

	return newGraph(nodeCount, topology, properties), nil
}

func newGraph(nodeCount uint64, topology *adjacency.Topology,
	properties []*adjacency.Properties,
) *Graph {
	propertyCursors := make([]*adjacency.PropertyCursor, len(properties))
	for i, p := range properties {
		propertyCursors[i] = p.List.RawCursor()
	}

	return &Graph{
		nodeCount:       nodeCount,
		topology:        topology,
		properties:      properties,
		cursor:          topology.AdjacencyList.RawCursor(),
		propertyCursors: propertyCursors,
		values:          make([]float64, len(properties)),
	}
}

// ConcurrentCopy shares the immutable data but not the cursors.
func (g *Graph) ConcurrentCopy() *Graph {
	return newGraph(g.nodeCount, g.topology, g.properties)
}

func (g *Graph) NodeCount() uint64 {
	return g.nodeCount
}

func (g *Graph) RelationshipCount() uint64 {
	return g.topology.ElementCount
}

func (g *Graph) IsMultiGraph() bool {
	return g.topology.IsMultiGraph
}

func (g *Graph) Orientation() graph.Orientation {
	return g.topology.Orientation
}

func (g *Graph) Topology() *adjacency.Topology {
	return g.topology
}

func (g *Graph) HasRelationshipProperty() bool {
	return len(g.properties) > 0
}

// Properties are the property columns in the order ForEachRelationships
// reports values.
func (g *Graph) Properties() []*adjacency.Properties {
	return g.properties
}

// PropertyKeys in the order ForEachRelationships reports values.
func (g *Graph) PropertyKeys() []string {
	keys := make([]string, len(g.properties))
	for i, p := range g.properties {
		keys[i] = p.Key
	}
	return keys
}

func (g *Graph) Degree(node uint64) uint64 {
	return g.topology.AdjacencyList.Degree(node)
}

// AdjacencyCursor returns a fresh cursor over the targets of node.
func (g *Graph) AdjacencyCursor(node uint64) *adjacency.Cursor {
	return g.topology.AdjacencyList.Cursor(node)
}

// ForEachRelationship calls fn for every relationship of node in ascending
// target order. The value is the one of the first property, or fallback if
// the graph has no properties.
func (g *Graph) ForEachRelationship(node uint64, fallback float64,
	fn func(source, target uint64, property float64) graph.Decision,
) {
	cursors, release := g.acquire()
	defer release()

	targets := g.topology.AdjacencyList.CursorInto(cursors.targets, node)
	if len(g.properties) == 0 {
		for targets.HasNextVLong() {
			if fn(node, targets.NextVLong(), fallback) == graph.Stop {
				return
			}
		}
		return
	}

	values := g.properties[0].List.CursorInto(cursors.properties[0], node)
	for targets.HasNextVLong() {
		if fn(node, targets.NextVLong(), values.Next()) == graph.Stop {
			return
		}
	}
}

// ForEachRelationships is ForEachRelationship for all properties at once.
// The properties slice is reused between calls of fn.
func (g *Graph) ForEachRelationships(node uint64,
	fn func(source, target uint64, properties []float64) graph.Decision,
) {
	cursors, release := g.acquire()
	defer release()

	targets := g.topology.AdjacencyList.CursorInto(cursors.targets, node)
	for i, p := range g.properties {
		p.List.CursorInto(cursors.properties[i], node)
	}

	for targets.HasNextVLong() {
		target := targets.NextVLong()
		for i, c := range cursors.properties {
			cursors.values[i] = c.Next()
		}
		if fn(node, target, cursors.values) == graph.Stop {
			return
		}
	}
}

// Relationships yields target and property value pairs like
// ForEachRelationship.
func (g *Graph) Relationships(node uint64, fallback float64) iter.Seq2[uint64, float64] {
	return func(yield func(uint64, float64) bool) {
		g.ForEachRelationship(node, fallback, func(_, target uint64, property float64) graph.Decision {
			return graph.Decision(yield(target, property))
		})
	}
}

// Targets yields the targets of node in ascending order.
func (g *Graph) Targets(node uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		g.ForEachRelationship(node, 0, func(_, target uint64, _ float64) graph.Decision {
			return graph.Decision(yield(target))
		})
	}
}

// IntersectionCount is the number of targets a and b have in common.
// Parallel relationships match as often as both nodes hold them.
func (g *Graph) IntersectionCount(a, b uint64) uint64 {
	list := g.topology.AdjacencyList
	ca, cb := list.Cursor(a), list.Cursor(b)
	if !ca.HasNextVLong() || !cb.HasNextVLong() {
		return 0
	}

	count := uint64(0)
	x, y := ca.NextVLong(), cb.NextVLong()
	ok := true
	for ok {
		switch {
		case x == y:
			count++
			if !ca.HasNextVLong() || !cb.HasNextVLong() {
				return count
			}
			x, y = ca.NextVLong(), cb.NextVLong()
		case x < y:
			x, ok = ca.Advance(y)
		default:
			y, ok = cb.Advance(x)
		}
	}
	return count
}

type cursorSet struct {
	targets    *adjacency.Cursor
	properties []*adjacency.PropertyCursor
	values     []float64
}

// acquire hands out the reusable cursors, or fresh ones if a traversal of
// this graph is already running, e.g. from within a callback.
func (g *Graph) acquire() (cursorSet, func()) {
	if g.busy {
		set := cursorSet{
			targets:    g.topology.AdjacencyList.RawCursor(),
			properties: make([]*adjacency.PropertyCursor, len(g.properties)),
			values:     make([]float64, len(g.properties)),
		}
		for i, p := range g.properties {
			set.properties[i] = p.List.RawCursor()
		}
		return set, func() {}
	}

	g.busy = true
	return cursorSet{
		targets:    g.cursor,
		properties: g.propertyCursors,
		values:     g.values,
	}, func() { g.busy = false }
}
