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
	"encoding/binary"
	"math"
)

// ChunkSize is the number of values decoded ahead in one go.
const ChunkSize = 64

// NotFound is returned by NextVLong and PeekVLong on an exhausted cursor.
// It can never be a valid node id.
const NotFound = uint64(math.MaxUint64)

// Cursor decodes the targets of one node. A cursor is owned by a single
// goroutine and can be re-initialized for another node without allocating.
type Cursor struct {
	pages [][]byte
	page  []byte
	pos   int

	buffer    [ChunkSize]uint64
	bufferPos int
	bufferLen int

	// values not yet decoded into the buffer
	undecoded uint64
	// last decoded absolute value, the base for the next delta
	last   uint64
	degree uint64
}

func newCursor(pages [][]byte) *Cursor {
	return &Cursor{pages: pages}
}

// Init positions the cursor at the block starting at offset holding degree
// values.
func (c *Cursor) Init(offset, degree uint64) {
	c.degree = degree
	c.undecoded = degree
	c.bufferPos = 0
	c.bufferLen = 0
	c.last = 0

	if degree == 0 {
		c.page = nil
		c.pos = 0
		return
	}
	c.page = c.pages[offset>>PageShift]
	c.pos = int(offset & PageMask)
}

// Size is the degree the cursor was initialized with.
func (c *Cursor) Size() uint64 {
	return c.degree
}

// Remaining is the number of values not yet consumed.
func (c *Cursor) Remaining() uint64 {
	return uint64(c.bufferLen-c.bufferPos) + c.undecoded
}

func (c *Cursor) HasNextVLong() bool {
	return c.bufferPos < c.bufferLen || c.undecoded > 0
}

// NextVLong consumes and returns the next target.
func (c *Cursor) NextVLong() uint64 {
	if c.bufferPos == c.bufferLen && !c.refill() {
		return NotFound
	}
	value := c.buffer[c.bufferPos]
	c.bufferPos++
	return value
}

// PeekVLong returns the next target without consuming it.
func (c *Cursor) PeekVLong() uint64 {
	if c.bufferPos == c.bufferLen && !c.refill() {
		return NotFound
	}
	return c.buffer[c.bufferPos]
}

// SkipUntil consumes every value smaller than or equal to target and then
// consumes and returns the first greater value. ok is false once the cursor
// is exhausted without finding one.
func (c *Cursor) SkipUntil(target uint64) (value uint64, ok bool) {
	for {
		for c.bufferPos < c.bufferLen {
			value = c.buffer[c.bufferPos]
			c.bufferPos++
			if value > target {
				return value, true
			}
		}
		if !c.refill() {
			return NotFound, false
		}
	}
}

// Advance consumes every value smaller than target and then consumes and
// returns the first value greater than or equal to target. ok is false once
// the cursor is exhausted without finding one.
func (c *Cursor) Advance(target uint64) (value uint64, ok bool) {
	for {
		for c.bufferPos < c.bufferLen {
			value = c.buffer[c.bufferPos]
			c.bufferPos++
			if value >= target {
				return value, true
			}
		}
		if !c.refill() {
			return NotFound, false
		}
	}
}

// refill decodes the next chunk. It returns false if nothing is left.
func (c *Cursor) refill() bool {
	if c.undecoded == 0 {
		c.bufferPos, c.bufferLen = 0, 0
		return false
	}

	n := uint64(ChunkSize)
	if c.undecoded < n {
		n = c.undecoded
	}

	page, pos, last := c.page, c.pos, c.last
	for i := uint64(0); i < n; i++ {
		delta, read := binary.Uvarint(page[pos:])
		pos += read
		last += delta
		c.buffer[i] = last
	}

	c.pos, c.last = pos, last
	c.undecoded -= n
	c.bufferPos, c.bufferLen = 0, int(n)
	return true
}
