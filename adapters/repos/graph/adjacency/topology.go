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
	"github.com/weaviate/graphstore/entities/graph"
)

// Topology is the finalized structure of one relationship type. It is never
// mutated after construction and can be shared by any number of readers.
type Topology struct {
	AdjacencyList *CompressedList
	ElementCount  uint64
	IsMultiGraph  bool
	Orientation   graph.Orientation
}

// Properties is one property column of a relationship type.
type Properties struct {
	Key          string
	List         *PropertyList
	ElementCount uint64
	DefaultValue float64
	Aggregation  graph.Aggregation
}

// Relationships pairs a topology with at most one property column. Several
// Relationships returned from the same build share their Topology.
type Relationships struct {
	Topology   *Topology
	Properties *Properties
}

func (r Relationships) HasProperties() bool {
	return r.Properties != nil
}
