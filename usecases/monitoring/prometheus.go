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

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	Registerer prometheus.Registerer

	RelationshipBuilds         *prometheus.CounterVec
	RelationshipBuildDurations *prometheus.HistogramVec
	Relationships              *prometheus.GaugeVec
	AdjacencyBytes             *prometheus.GaugeVec
	AdjacencyPages             *prometheus.CounterVec
	SparseAllocatedBytes       prometheus.Counter
	MetricsEndpointConnections prometheus.Gauge
}

// NewPrometheusMetrics registers all collectors with reg. Pass a
// NoopPrometheusRegistery to create working but unexported metrics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		Registerer: reg,

		RelationshipBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_relationship_builds_total",
			Help: "Number of relationship builds by orientation and outcome",
		}, []string{"orientation", "outcome"}),
		RelationshipBuildDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graph_relationship_build_duration_seconds",
			Help:    "Duration of building compressed adjacency lists",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"orientation"}),
		Relationships: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graph_relationships",
			Help: "Number of relationships in the most recently built topology",
		}, []string{"orientation"}),
		AdjacencyBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graph_adjacency_bytes",
			Help: "Size of the most recently built adjacency list in bytes",
		}, []string{"orientation"}),
		AdjacencyPages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_adjacency_pages_total",
			Help: "Number of adjacency pages allocated",
		}, []string{"orientation"}),
		SparseAllocatedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "graph_sparse_allocated_bytes_total",
			Help: "Bytes allocated for sparse map pages",
		}),
		MetricsEndpointConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "graph_metrics_endpoint_connections",
			Help: "Open connections to the metrics endpoint",
		}),
	}
}

// TrackSparseAllocation matches the allocation callback of the sparse
// builders.
func (pm *PrometheusMetrics) TrackSparseAllocation(bytes int64) {
	if pm == nil {
		return
	}

	pm.SparseAllocatedBytes.Add(float64(bytes))
}
