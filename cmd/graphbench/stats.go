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

package main

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/weaviate/graphstore/adapters/repos/graph/hugegraph"
)

type degreeStats struct {
	Mean   float64
	StdDev float64
	Median float64
	P99    float64
	Max    float64
}

func computeDegreeStats(g *hugegraph.Graph) degreeStats {
	if g.NodeCount() == 0 {
		return degreeStats{}
	}

	degrees := make([]float64, g.NodeCount())
	for node := range degrees {
		degrees[node] = float64(g.Degree(uint64(node)))
	}
	sort.Float64s(degrees)

	mean, stdDev := stat.MeanStdDev(degrees, nil)
	return degreeStats{
		Mean:   mean,
		StdDev: stdDev,
		Median: stat.Quantile(0.5, stat.Empirical, degrees, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, degrees, nil),
		Max:    degrees[len(degrees)-1],
	}
}
