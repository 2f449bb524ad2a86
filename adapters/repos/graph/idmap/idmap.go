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

// Package idmap translates arbitrary original node ids into the dense
// [0, nodeCount) id space the graph storage works with.
package idmap

import (
	"sync/atomic"

	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
	"github.com/weaviate/graphstore/adapters/repos/graph/sparse"
)

type IDMap interface {
	// ToMappedNodeID returns false for ids that were never added.
	ToMappedNodeID(original uint64) (uint64, bool)
	ToOriginalNodeID(mapped uint64) uint64
	NodeCount() uint64
	MaxOriginalID() uint64
}

const absent = -1

// Builder collects original ids from any number of goroutines. Adding an id
// twice is harmless.
type Builder struct {
	seen  *sparse.GrowingBuilder
	count atomic.Uint64
	max   atomic.Uint64
}

// NewBuilder sizes the builder for original ids up to expectedMaxID. Larger
// ids are accepted, the underlying table grows on demand.
func NewBuilder(expectedMaxID uint64, trackAllocation func(bytes int64)) *Builder {
	return &Builder{
		seen: sparse.NewGrowingBuilder(absent, expectedMaxID+1, trackAllocation),
	}
}

// AddNode registers original and reports whether it was not known before.
func (b *Builder) AddNode(original uint64) bool {
	if !b.seen.SetIfAbsent(original, 0) {
		return false
	}
	b.count.Add(1)
	for {
		current := b.max.Load()
		if original <= current || b.max.CompareAndSwap(current, original) {
			break
		}
	}
	return true
}

func (b *Builder) NodeCount() uint64 {
	return b.count.Load()
}

// Build assigns dense ids in ascending order of the original ids. The
// builder must not be used afterwards.
func (b *Builder) Build() *SparseIDMap {
	seen := b.seen.Build()
	nodeCount := b.count.Load()

	forward := sparse.NewGrowingBuilder(absent, seen.Capacity(), nil)
	reverse := paged.New[uint64](nodeCount)

	next := uint64(0)
	seen.ForEach(func(original uint64, _ int64) bool {
		forward.Set(original, int64(next))
		reverse.Set(next, original)
		next++
		return true
	})

	return &SparseIDMap{
		forward:   forward.Build(),
		reverse:   reverse,
		nodeCount: nodeCount,
		maxID:     b.max.Load(),
	}
}

// SparseIDMap is the IDMap produced by Builder.
type SparseIDMap struct {
	forward   *sparse.LongMap
	reverse   *paged.Array[uint64]
	nodeCount uint64
	maxID     uint64
}

func (m *SparseIDMap) ToMappedNodeID(original uint64) (uint64, bool) {
	mapped := m.forward.Get(original)
	if mapped == absent {
		return 0, false
	}
	return uint64(mapped), true
}

func (m *SparseIDMap) ToOriginalNodeID(mapped uint64) uint64 {
	return m.reverse.Get(mapped)
}

func (m *SparseIDMap) NodeCount() uint64 {
	return m.nodeCount
}

func (m *SparseIDMap) MaxOriginalID() uint64 {
	return m.maxID
}

// Identity maps every id in [0, nodeCount) onto itself.
type Identity uint64

func (i Identity) ToMappedNodeID(original uint64) (uint64, bool) {
	return original, original < uint64(i)
}

func (i Identity) ToOriginalNodeID(mapped uint64) uint64 {
	return mapped
}

func (i Identity) NodeCount() uint64 {
	return uint64(i)
}

func (i Identity) MaxOriginalID() uint64 {
	if i == 0 {
		return 0
	}
	return uint64(i) - 1
}
