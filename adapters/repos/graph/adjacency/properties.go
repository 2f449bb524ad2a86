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

package adjacency

import (
	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
)

// PropertyList holds one float64 per relationship, aligned with the order in
// which a Cursor decodes the targets of the same node. Degrees are shared
// with the topology the list belongs to.
type PropertyList struct {
	values    *paged.Array[float64]
	offsets   *paged.Array[uint64]
	degrees   *paged.Array[uint64]
	nodeCount uint64
}

func NewPropertyList(values *paged.Array[float64], offsets, degrees *paged.Array[uint64],
	nodeCount uint64,
) *PropertyList {
	return &PropertyList{
		values:    values,
		offsets:   offsets,
		degrees:   degrees,
		nodeCount: nodeCount,
	}
}

func (l *PropertyList) NodeCount() uint64 {
	return l.nodeCount
}

func (l *PropertyList) Cursor(node uint64) *PropertyCursor {
	return l.CursorInto(nil, node)
}

func (l *PropertyList) CursorInto(reuse *PropertyCursor, node uint64) *PropertyCursor {
	if reuse == nil {
		reuse = l.RawCursor()
	}
	reuse.Init(l.offsets.Get(node), l.degrees.Get(node))
	return reuse
}

func (l *PropertyList) RawCursor() *PropertyCursor {
	return &PropertyCursor{values: l.values}
}

// SizeInBytes of the values and the offset array. Degrees are accounted for
// by the topology.
func (l *PropertyList) SizeInBytes() uint64 {
	return l.values.SizeInBytes() + l.offsets.SizeInBytes()
}

// PropertyCursor reads the property values of one node. Like Cursor it
// belongs to a single goroutine.
type PropertyCursor struct {
	values    *paged.Array[float64]
	next      uint64
	remaining uint64
	run       []float64
}

func (c *PropertyCursor) Init(offset, degree uint64) {
	c.next = offset
	c.remaining = degree
	c.run = nil
}

func (c *PropertyCursor) HasNext() bool {
	return c.remaining > 0
}

func (c *PropertyCursor) Remaining() uint64 {
	return c.remaining
}

// Next returns the next value. It must only be called while HasNext is true.
func (c *PropertyCursor) Next() float64 {
	if len(c.run) == 0 {
		c.run = c.values.Slice(c.next, c.remaining)
		c.next += uint64(len(c.run))
	}
	value := c.run[0]
	c.run = c.run[1:]
	c.remaining--
	return value
}
