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

// Package partition splits a dense node id space into contiguous ranges
// that are processed by one worker each.
package partition

import (
	"fmt"
)

// DegreePartition is the node range [StartNode, StartNode+NodeCount) and the
// number of relationships its nodes own.
type DegreePartition struct {
	StartNode         uint64
	NodeCount         uint64
	RelationshipCount uint64
}

func (p DegreePartition) EndNode() uint64 {
	return p.StartNode + p.NodeCount
}

func (p DegreePartition) String() string {
	return fmt.Sprintf("[%d, %d) with %d relationships", p.StartNode, p.EndNode(),
		p.RelationshipCount)
}

// DegreePartitions splits [0, nodeCount) into at most concurrency non-empty
// ranges that own roughly the same number of relationships. A node is never
// split, so a single node with a huge degree ends up in a range of its own.
func DegreePartitions(nodeCount uint64, concurrency int,
	degree func(node uint64) uint64,
) []DegreePartition {
	if nodeCount == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	total := uint64(0)
	for node := uint64(0); node < nodeCount; node++ {
		total += degree(node)
	}
	if total == 0 {
		return RangePartitions(nodeCount, concurrency)
	}

	target := (total + uint64(concurrency) - 1) / uint64(concurrency)
	partitions := make([]DegreePartition, 0, concurrency)

	start, volume := uint64(0), uint64(0)
	for node := uint64(0); node < nodeCount; node++ {
		volume += degree(node)
		last := len(partitions) == concurrency-1
		if volume >= target && !last && node+1 < nodeCount {
			partitions = append(partitions, DegreePartition{
				StartNode:         start,
				NodeCount:         node + 1 - start,
				RelationshipCount: volume,
			})
			start, volume = node+1, 0
		}
	}

	return append(partitions, DegreePartition{
		StartNode:         start,
		NodeCount:         nodeCount - start,
		RelationshipCount: volume,
	})
}

// RangePartitions splits [0, nodeCount) into at most concurrency ranges of
// equal node count. Relationship counts are left at zero.
func RangePartitions(nodeCount uint64, concurrency int) []DegreePartition {
	if nodeCount == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	split := (nodeCount + uint64(concurrency) - 1) / uint64(concurrency)
	partitions := make([]DegreePartition, 0, concurrency)
	for start := uint64(0); start < nodeCount; start += split {
		count := split
		if start+count > nodeCount {
			count = nodeCount - start
		}
		partitions = append(partitions, DegreePartition{StartNode: start, NodeCount: count})
	}
	return partitions
}
