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

// CompressedList is the immutable adjacency list of a graph. For every node
// it keeps the number of targets and the offset of the node's compressed
// block within the shared byte pages.
type CompressedList struct {
	pages     [][]byte
	degrees   *paged.Array[uint64]
	offsets   *paged.Array[uint64]
	nodeCount uint64
}

func NewCompressedList(pages [][]byte, degrees, offsets *paged.Array[uint64],
	nodeCount uint64,
) *CompressedList {
	return &CompressedList{
		pages:     pages,
		degrees:   degrees,
		offsets:   offsets,
		nodeCount: nodeCount,
	}
}

func (l *CompressedList) NodeCount() uint64 {
	return l.nodeCount
}

func (l *CompressedList) PageCount() int {
	return len(l.pages)
}

func (l *CompressedList) Degree(node uint64) uint64 {
	return l.degrees.Get(node)
}

// Offset of the node's block, page<<PageShift | inPage.
func (l *CompressedList) Offset(node uint64) uint64 {
	return l.offsets.Get(node)
}

// Cursor returns a fresh cursor over the targets of node.
func (l *CompressedList) Cursor(node uint64) *Cursor {
	return l.CursorInto(nil, node)
}

// CursorInto re-initializes reuse for node. A new cursor is created if reuse
// is nil.
func (l *CompressedList) CursorInto(reuse *Cursor, node uint64) *Cursor {
	if reuse == nil {
		reuse = newCursor(l.pages)
	}
	reuse.Init(l.offsets.Get(node), l.degrees.Get(node))
	return reuse
}

// RawCursor returns an empty cursor bound to this list, to be positioned
// with CursorInto or Init.
func (l *CompressedList) RawCursor() *Cursor {
	return newCursor(l.pages)
}

// SizeInBytes of the pages plus the degree and offset arrays.
func (l *CompressedList) SizeInBytes() uint64 {
	size := l.degrees.SizeInBytes() + l.offsets.SizeInBytes()
	for _, page := range l.pages {
		size += uint64(cap(page))
	}
	return size
}
