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
	"math/bits"

	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
)

// MemoryRange is an estimated lower and upper bound in bytes.
type MemoryRange struct {
	Min uint64
	Max uint64
}

func (r MemoryRange) Add(other MemoryRange) MemoryRange {
	return MemoryRange{Min: r.Min + other.Min, Max: r.Max + other.Max}
}

// AdjacencyByteSize approximates the compressed size of nodeCount blocks of
// avgDegree targets each, whose consecutive targets are delta apart on
// average. The first target of every block is assumed to need the width of
// the largest node id.
func AdjacencyByteSize(avgDegree, nodeCount, delta uint64) uint64 {
	if avgDegree == 0 || nodeCount == 0 {
		return 0
	}

	firstIDBytes := encodedBytes(nodeCount - 1)
	deltaBytes := uint64(0)
	if delta > 0 {
		deltaBytes = encodedBytes(delta - 1)
	}
	return nodeCount * (firstIDBytes + (avgDegree-1)*deltaBytes)
}

// MemoryEstimation estimates the memory of an adjacency list holding
// relCount relationships over nodeCount nodes. The lower bound assumes
// neighbours two ids apart, the upper bound assumes neighbours spread evenly
// over the whole id space.
func MemoryEstimation(nodeCount, relCount uint64) MemoryRange {
	arrays := 2 * paged.MemoryEstimation[uint64](nodeCount)
	if nodeCount == 0 {
		return MemoryRange{Min: arrays, Max: arrays}
	}

	avgDegree := ceilDiv(relCount, nodeCount)

	worstDelta := uint64(2)
	if avgDegree > 0 {
		if d := ceilDiv(nodeCount, avgDegree); d > worstDelta {
			worstDelta = d
		}
	}

	best := PagesFor(AdjacencyByteSize(avgDegree, nodeCount, 2)) * PageSize
	worst := PagesFor(AdjacencyByteSize(avgDegree, nodeCount, worstDelta)) * PageSize

	return MemoryRange{Min: best + arrays, Max: worst + arrays}
}

// PagesFor is the number of pages needed to hold bytes.
func PagesFor(bytes uint64) uint64 {
	return ceilDiv(bytes, PageSize)
}

func encodedBytes(value uint64) uint64 {
	return ceilDiv(uint64(bits.Len64(value)), 7)
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
