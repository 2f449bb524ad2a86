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

// Package paged provides arrays addressed by 64-bit indexes that are split
// into fixed, power-of-two sized pages. Pages are allocated lazily on the
// first write to their range and are never moved afterwards, so growing an
// array never invalidates data that was already written.
package paged

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/weaviate/graphstore/entities/graph"
)

// DefaultPageShift gives pages of 16384 elements.
const DefaultPageShift = 14

// MaxPageCount bounds the page table of a single array.
const MaxPageCount = 1 << 32

// MaxSize is the number of elements an array with default pages can
// address.
const MaxSize = uint64(MaxPageCount) << DefaultPageShift

// CheckSize returns a capacity overflow error if an array with default
// pages cannot hold size elements.
func CheckSize(size uint64) error {
	if size > MaxSize {
		return graph.NewCapacityOverflow("paged arrays cannot address %d elements, "+
			"at most %d are supported", size, MaxSize)
	}
	return nil
}

// Array is not synchronized beyond page allocation: concurrent writers must
// own disjoint index ranges, and Grow must not run concurrently with any
// other call. Two writers that hit the same unallocated page converge on a
// single allocation.
type Array[T any] struct {
	pages    []atomic.Pointer[[]T]
	size     uint64
	shift    uint
	pageSize uint64
	mask     uint64
}

func New[T any](size uint64) *Array[T] {
	return NewWithShift[T](size, DefaultPageShift)
}

func NewWithShift[T any](size uint64, shift uint) *Array[T] {
	if shift == 0 || shift > 30 {
		panic(fmt.Sprintf("paged: page shift must be within [1, 30], got %d", shift))
	}

	a := &Array[T]{
		shift:    shift,
		pageSize: uint64(1) << shift,
		mask:     (uint64(1) << shift) - 1,
	}
	a.Grow(size)
	return a
}

// NewFilled allocates every page up front and initializes each slot with
// fill(index).
func NewFilled[T any](size uint64, fill func(index uint64) T) *Array[T] {
	a := New[T](size)
	for p := range a.pages {
		page := a.allocPage(p)
		base := uint64(p) << a.shift
		for i := range page {
			index := base + uint64(i)
			if index >= size {
				break
			}
			page[i] = fill(index)
		}
	}
	return a
}

// Capacity is the number of addressable elements.
func (a *Array[T]) Capacity() uint64 {
	return a.size
}

func (a *Array[T]) PageSize() uint64 {
	return a.pageSize
}

// PageCount is the number of page slots, allocated or not.
func (a *Array[T]) PageCount() int {
	return len(a.pages)
}

// Get returns the zero value for slots on pages that were never written.
func (a *Array[T]) Get(index uint64) T {
	a.checkIndex(index)

	page := a.pages[index>>a.shift].Load()
	if page == nil {
		var zero T
		return zero
	}
	return (*page)[index&a.mask]
}

func (a *Array[T]) Set(index uint64, value T) {
	a.checkIndex(index)

	page := a.AllocPageFor(index)
	page[index&a.mask] = value
}

// AllocPageFor makes sure the page covering index exists and returns it.
func (a *Array[T]) AllocPageFor(index uint64) []T {
	a.checkIndex(index)
	return a.allocPage(int(index >> a.shift))
}

// Slice returns the in-page run starting at index, at most length elements
// long, allocating the page if needed. Callers iterate over page runs to
// copy ranges without per-element address computation.
func (a *Array[T]) Slice(index, length uint64) []T {
	a.checkIndex(index)
	page := a.allocPage(int(index >> a.shift))
	start := index & a.mask
	end := start + length
	if end > a.pageSize {
		end = a.pageSize
	}
	if limit := a.size - (index - start); end > limit {
		end = limit
	}
	return page[start:end]
}

// Grow extends the array to newSize elements by appending page slots.
// Shrinking is not supported and a smaller newSize is a no-op. Sizes beyond
// MaxPageCount pages panic.
func (a *Array[T]) Grow(newSize uint64) {
	if newSize <= a.size {
		return
	}
	if limit := uint64(MaxPageCount) << a.shift; newSize > limit {
		panic(fmt.Sprintf("paged: size %d exceeds the addressable %d elements", newSize, limit))
	}

	pageCount := int((newSize + a.mask) >> a.shift)
	if pageCount > len(a.pages) {
		pages := make([]atomic.Pointer[[]T], pageCount)
		for i := range a.pages {
			pages[i].Store(a.pages[i].Load())
		}
		a.pages = pages
	}
	a.size = newSize
}

// SizeInBytes of all allocated pages.
func (a *Array[T]) SizeInBytes() uint64 {
	var zero T
	elem := uint64(unsafe.Sizeof(zero))

	allocated := uint64(0)
	for i := range a.pages {
		if a.pages[i].Load() != nil {
			allocated++
		}
	}
	return allocated * a.pageSize * elem
}

// MemoryEstimation is the size of a fully allocated array of the given size
// with default pages.
func MemoryEstimation[T any](size uint64) uint64 {
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	pageSize := uint64(1) << DefaultPageShift
	pages := (size + pageSize - 1) / pageSize
	return pages * pageSize * elem
}

func (a *Array[T]) allocPage(pageIndex int) []T {
	slot := &a.pages[pageIndex]
	if page := slot.Load(); page != nil {
		return *page
	}

	page := make([]T, a.pageSize)
	if slot.CompareAndSwap(nil, &page) {
		return page
	}
	// lost the race, somebody else installed the page first
	return *slot.Load()
}

func (a *Array[T]) checkIndex(index uint64) {
	if index >= a.size {
		panic(fmt.Sprintf("paged: index %d out of range [0, %d)", index, a.size))
	}
}
