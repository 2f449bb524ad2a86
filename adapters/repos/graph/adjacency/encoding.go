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

// Package adjacency holds the compressed, immutable adjacency lists produced
// by the relationships builder and the cursors used to read them.
//
// Data order of a single node block
//
//	| Len | Description                                         |
//	| --- | --------------------------------------------------- |
//	| dyn | uvarint of the first (smallest) target id           |
//	| dyn | uvarint of target[i] - target[i-1] for i in 1..k-1  |
//
// Every varint carries 7 payload bits per byte, least significant group
// first, with the high bit set on every byte but the last. The number of
// targets is not part of the block, it is kept in the degree array.
package adjacency

import (
	"encoding/binary"
)

// AppendCompressed delta-encodes targets, which must be sorted ascending
// (duplicates are allowed and encode as a zero delta), and appends the
// varints to dst.
func AppendCompressed(dst []byte, targets []uint64) []byte {
	last := uint64(0)
	for _, target := range targets {
		dst = binary.AppendUvarint(dst, target-last)
		last = target
	}
	return dst
}

// CompressedSize is the exact number of bytes AppendCompressed writes for
// targets.
func CompressedSize(targets []uint64) int {
	size := 0
	last := uint64(0)
	for _, target := range targets {
		size += uvarintSize(target - last)
		last = target
	}
	return size
}

func uvarintSize(v uint64) int {
	size := 1
	for v >= 0x80 {
		v >>= 7
		size++
	}
	return size
}
