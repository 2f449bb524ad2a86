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

// Package resources checks whether a graph is expected to fit into memory
// before it is built.
package resources

import (
	"github.com/pbnjay/memory"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/adjacency"
	enterrors "github.com/weaviate/graphstore/entities/errors"
)

// TotalMemory is the physical memory of the machine in bytes. It is a
// variable to be replaced in tests.
var TotalMemory = memory.TotalMemory

// Budget is limit if it is positive, the physical memory otherwise.
func Budget(limit int64) uint64 {
	if limit > 0 {
		return uint64(limit)
	}
	return TotalMemory()
}

// CheckAdjacencyMemory estimates the adjacency list of relCount
// relationships over nodeCount nodes and compares it with the budget. Even
// the best case exceeding the budget is an out of memory error, only the
// worst case exceeding it is logged as a warning.
func CheckAdjacencyMemory(logger logrus.FieldLogger, nodeCount, relCount uint64,
	limit int64,
) (adjacency.MemoryRange, error) {
	estimate := adjacency.MemoryEstimation(nodeCount, relCount)
	budget := Budget(limit)

	log := logger.WithFields(logrus.Fields{
		"action":        "check_adjacency_memory",
		"nodes":         nodeCount,
		"relationships": relCount,
		"estimate_min":  estimate.Min,
		"estimate_max":  estimate.Max,
		"budget":        budget,
	})

	if budget == 0 {
		log.Warn("memory budget unknown, skipping check")
		return estimate, nil
	}

	if estimate.Min > budget {
		return estimate, enterrors.NewOutOfMemoryf(
			"adjacency list needs at least %d bytes, but only %d are available",
			estimate.Min, budget)
	}

	if estimate.Max > budget {
		log.Warn("adjacency list may exceed the memory budget")
		return estimate, nil
	}

	log.Debug("adjacency list fits into the memory budget")
	return estimate, nil
}
