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

// Package builder turns an unordered stream of relationships into the
// compressed, immutable adjacency lists of package adjacency.
//
// Relationships are staged while they are added and only sorted, aggregated
// and compressed in Build. Build splits the node id space into ranges of
// roughly equal relationship volume and processes every range on its own
// worker. A worker is the only writer of the degree and offset slots of its
// nodes; compressed bytes of all workers go into shared pages through an
// atomic reservation.
package builder

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphstore/adapters/repos/graph/paged"
	"github.com/weaviate/graphstore/adapters/repos/graph/sparse"
	"github.com/weaviate/graphstore/entities/graph"
)

var ErrAlreadyBuilt = errors.New("relationships builder was already built")

// maxBucketBits caps the number of staging buckets at 2^maxBucketBits.
const maxBucketBits = 12

// bucket stages the relationships of a contiguous range of nodes. The
// owner is the node a relationship is stored under, which depends on the
// orientation.
type bucket struct {
	sync.Mutex
	owners  []uint64
	targets []uint64
	// propertyCount values per relationship
	properties []float64
}

type Builder struct {
	config        Config
	logger        logrus.FieldLogger
	metrics       *Metrics
	propertyCount int
	defaults      []float64

	bucketShift uint
	buckets     []bucket

	// raw number of staged relationships per owner node
	degrees       *sparse.GrowingBuilder
	relationships atomic.Uint64

	sealed   atomic.Bool
	errLock  sync.Mutex
	addError error
}

// New validates cfg and creates an empty builder.
func New(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid relationships builder config")
	}
	if err := paged.CheckSize(cfg.NodeCount); err != nil {
		return nil, err
	}

	bucketShift := uint(0)
	if nodeBits := bits.Len64(cfg.NodeCount); nodeBits > maxBucketBits {
		bucketShift = uint(nodeBits - maxBucketBits)
	}
	bucketCount := 1
	if cfg.NodeCount > 0 {
		bucketCount = int((cfg.NodeCount-1)>>bucketShift) + 1
	}

	metrics := NewMetrics(cfg.PrometheusMetrics, cfg.Orientation)

	defaults := make([]float64, len(cfg.Properties))
	for i, prop := range cfg.Properties {
		defaults[i] = prop.DefaultValue
	}

	return &Builder{
		config: cfg,
		logger: cfg.Logger.WithFields(logrus.Fields{
			"action":      "build_relationships",
			"orientation": cfg.Orientation.String(),
		}),
		metrics:       metrics,
		propertyCount: len(cfg.Properties),
		defaults:      defaults,
		bucketShift:   bucketShift,
		buckets:       make([]bucket, bucketCount),
		degrees: sparse.NewGrowingBuilder(0, cfg.NodeCount,
			metrics.TrackSparseAllocation),
	}, nil
}

// Add stages a relationship between two original node ids, which are
// translated through the configured IDMap. It is safe to call Add
// concurrently, but every call must have returned before Build.
func (b *Builder) Add(source, target uint64, properties ...float64) error {
	if b.config.IDMap == nil {
		return b.fail(errors.New("cannot add original node ids without an id map"))
	}

	mappedSource, ok := b.config.IDMap.ToMappedNodeID(source)
	if !ok {
		return b.fail(graph.NewUnknownOriginalID(source))
	}
	mappedTarget, ok := b.config.IDMap.ToMappedNodeID(target)
	if !ok {
		return b.fail(graph.NewUnknownOriginalID(target))
	}

	return b.AddFromInternal(mappedSource, mappedTarget, properties...)
}

// AddFromInternal stages a relationship between two dense node ids.
// Missing property values are filled with the configured defaults.
func (b *Builder) AddFromInternal(source, target uint64, properties ...float64) error {
	if b.sealed.Load() {
		return ErrAlreadyBuilt
	}
	if source >= b.config.NodeCount {
		return b.fail(graph.NewInvalidNodeReference(source, b.config.NodeCount))
	}
	if target >= b.config.NodeCount {
		return b.fail(graph.NewInvalidNodeReference(target, b.config.NodeCount))
	}
	if len(properties) > b.propertyCount {
		return b.fail(errors.Errorf("got %d property values, but only %d properties "+
			"are configured", len(properties), b.propertyCount))
	}

	switch b.config.Orientation {
	case graph.Natural:
		b.stage(source, target, properties)
	case graph.Reverse:
		b.stage(target, source, properties)
	case graph.Undirected:
		b.stage(source, target, properties)
		b.stage(target, source, properties)
	}
	return nil
}

// RelationshipCount is the number of staged relationships before
// aggregation. Undirected relationships count twice.
func (b *Builder) RelationshipCount() uint64 {
	return b.relationships.Load()
}

func (b *Builder) stage(owner, target uint64, properties []float64) {
	bucket := &b.buckets[owner>>b.bucketShift]

	bucket.Lock()
	bucket.owners = append(bucket.owners, owner)
	bucket.targets = append(bucket.targets, target)
	if b.propertyCount > 0 {
		bucket.properties = append(bucket.properties, properties...)
		bucket.properties = append(bucket.properties, b.defaults[len(properties):]...)
	}
	bucket.Unlock()

	b.degrees.AddTo(owner, 1)
	b.relationships.Add(1)
}

// fail remembers the first error of any Add call so Build reports it too.
func (b *Builder) fail(err error) error {
	b.errLock.Lock()
	defer b.errLock.Unlock()

	if b.addError == nil {
		b.addError = err
	}
	return err
}

func (b *Builder) firstAddError() error {
	b.errLock.Lock()
	defer b.errLock.Unlock()
	return b.addError
}
