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

package paged

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/graphstore/entities/graph"
)

func TestPagedArray(t *testing.T) {
	t.Run("pages are addressed through shift and mask", func(t *testing.T) {
		arr := NewWithShift[uint64](100, 3)
		require.Equal(t, uint64(100), arr.Capacity())
		require.Equal(t, 13, arr.PageCount())
		require.Equal(t, uint64(8), arr.PageSize())

		for i := uint64(0); i < 100; i++ {
			arr.Set(i, i*3)
		}
		for i := uint64(0); i < 100; i++ {
			assert.Equal(t, i*3, arr.Get(i))
		}
	})

	t.Run("unwritten pages stay unallocated and read as zero", func(t *testing.T) {
		arr := NewWithShift[int64](1000, 4)
		arr.Set(500, 7)

		assert.Equal(t, int64(7), arr.Get(500))
		assert.Zero(t, arr.Get(3))
		assert.Zero(t, arr.Get(999))
		assert.Equal(t, uint64(16*8), arr.SizeInBytes(), "only one page should be allocated")
	})

	t.Run("growing keeps previously written values and page identity", func(t *testing.T) {
		arr := NewWithShift[int32](10, 2)
		for i := uint64(0); i < 10; i++ {
			arr.Set(i, int32(i))
		}
		before := arr.AllocPageFor(0)

		arr.Grow(1000)
		require.Equal(t, uint64(1000), arr.Capacity())
		for i := uint64(0); i < 10; i++ {
			assert.Equal(t, int32(i), arr.Get(i))
		}
		after := arr.AllocPageFor(0)
		assert.Same(t, &before[0], &after[0])

		arr.Set(999, 42)
		assert.Equal(t, int32(42), arr.Get(999))

		arr.Grow(5)
		assert.Equal(t, uint64(1000), arr.Capacity(), "shrinking is a no-op")
	})

	t.Run("filled arrays are initialized eagerly", func(t *testing.T) {
		arr := NewFilled(40_000, func(i uint64) float64 { return float64(i) / 2 })
		assert.Equal(t, 0.0, arr.Get(0))
		assert.Equal(t, 19_999.5, arr.Get(39_999))
		assert.Equal(t, MemoryEstimation[float64](40_000), arr.SizeInBytes())
	})

	t.Run("slices never cross a page or the capacity", func(t *testing.T) {
		arr := NewWithShift[uint64](20, 3)
		assert.Len(t, arr.Slice(0, 100), 8)
		assert.Len(t, arr.Slice(6, 100), 2)
		assert.Len(t, arr.Slice(6, 1), 1)
		assert.Len(t, arr.Slice(17, 100), 3)

		run := arr.Slice(9, 3)
		copy(run, []uint64{1, 2, 3})
		assert.Equal(t, uint64(2), arr.Get(10))
	})

	t.Run("out of range access panics", func(t *testing.T) {
		arr := New[byte](3)
		assert.Panics(t, func() { arr.Get(3) })
		assert.Panics(t, func() { arr.Set(10, 1) })
	})
}

func TestPagedArrayConcurrentDisjointWriters(t *testing.T) {
	const (
		writers   = 16
		perWriter = 1000
	)
	// with a page size of 8 every page is shared by several writers
	arr := NewWithShift[uint64](writers*perWriter, 3)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// interleave the indexes so neighbouring slots belong to
				// different writers
				index := uint64(i*writers + w)
				arr.Set(index, index+1)
			}
		}(w)
	}
	wg.Wait()

	for i := uint64(0); i < writers*perWriter; i++ {
		require.Equal(t, i+1, arr.Get(i), "index %d", i)
	}
}

func TestPagedArraySizeLimits(t *testing.T) {
	t.Run("sizes beyond the page table are a capacity overflow", func(t *testing.T) {
		require.NoError(t, CheckSize(0))
		require.NoError(t, CheckSize(MaxSize))
		assert.ErrorIs(t, CheckSize(MaxSize+1), graph.ErrCapacityOverflow)
		assert.ErrorIs(t, CheckSize(math.MaxUint64-10), graph.ErrCapacityOverflow)
	})

	t.Run("creating an unaddressable array panics instead of wrapping", func(t *testing.T) {
		assert.PanicsWithValue(t,
			"paged: size 18446744073709551605 exceeds the addressable 70368744177664 elements",
			func() { New[uint64](math.MaxUint64 - 10) })
		assert.Panics(t, func() { NewWithShift[uint64](uint64(MaxPageCount)<<3+1, 3) })
	})

	t.Run("growing beyond the limit panics and keeps the array intact", func(t *testing.T) {
		arr := New[uint64](10)
		arr.Set(9, 1)
		assert.Panics(t, func() { arr.Grow(MaxSize + 1) })
		assert.Equal(t, uint64(10), arr.Capacity())
		assert.Equal(t, uint64(1), arr.Get(9))
	})
}
