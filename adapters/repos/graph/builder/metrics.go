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

package builder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weaviate/graphstore/entities/graph"
	"github.com/weaviate/graphstore/usecases/monitoring"
)

type Metrics struct {
	enabled        bool
	prom           *monitoring.PrometheusMetrics
	succeeded      prometheus.Counter
	failed         prometheus.Counter
	duration       prometheus.Observer
	relationships  prometheus.Gauge
	adjacencyBytes prometheus.Gauge
	pages          prometheus.Counter
}

func NewMetrics(prom *monitoring.PrometheusMetrics, orientation graph.Orientation) *Metrics {
	if prom == nil {
		return &Metrics{enabled: false}
	}

	labels := prometheus.Labels{"orientation": orientation.String()}

	succeeded := prom.RelationshipBuilds.With(prometheus.Labels{
		"orientation": orientation.String(),
		"outcome":     "success",
	})

	failed := prom.RelationshipBuilds.With(prometheus.Labels{
		"orientation": orientation.String(),
		"outcome":     "failure",
	})

	return &Metrics{
		enabled:        true,
		prom:           prom,
		succeeded:      succeeded,
		failed:         failed,
		duration:       prom.RelationshipBuildDurations.With(labels),
		relationships:  prom.Relationships.With(labels),
		adjacencyBytes: prom.AdjacencyBytes.With(labels),
		pages:          prom.AdjacencyPages.With(labels),
	}
}

func (m *Metrics) BuildSucceeded(took time.Duration, relationships, bytes uint64) {
	if !m.enabled {
		return
	}

	m.succeeded.Inc()
	m.duration.Observe(took.Seconds())
	m.relationships.Set(float64(relationships))
	m.adjacencyBytes.Set(float64(bytes))
}

func (m *Metrics) BuildFailed(took time.Duration) {
	if !m.enabled {
		return
	}

	m.failed.Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) AddPage(int) {
	if !m.enabled {
		return
	}

	m.pages.Inc()
}

func (m *Metrics) TrackSparseAllocation(bytes int64) {
	if !m.enabled {
		return
	}

	m.prom.TrackSparseAllocation(bytes)
}
