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

package graph

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidNodeReference  = errors.New("invalid node reference")
	ErrDuplicateRelationship = errors.New("duplicate relationship")
	ErrCapacityOverflow      = errors.New("capacity overflow")
	ErrComputationAborted    = errors.New("computation aborted")
)

func NewInvalidNodeReference(nodeID, nodeCount uint64) error {
	return errors.Wrapf(ErrInvalidNodeReference,
		"node id %d is not within [0, %d)", nodeID, nodeCount)
}

func NewUnknownOriginalID(originalID uint64) error {
	return errors.Wrapf(ErrInvalidNodeReference,
		"original node id %d is not part of the id map", originalID)
}

func NewDuplicateRelationship(source, target uint64) error {
	return errors.Wrapf(ErrDuplicateRelationship,
		"relationship (%d)-->(%d) was added more than once", source, target)
}

func NewCapacityOverflow(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCapacityOverflow, format, args...)
}

func NewComputationAborted(cause error) error {
	if cause == nil {
		return ErrComputationAborted
	}
	return errors.Wrap(ErrComputationAborted, cause.Error())
}
