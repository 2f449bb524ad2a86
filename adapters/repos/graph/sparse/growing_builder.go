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

package sparse

import (
	"sync"
	"sync/atomic"
)

// GrowingBuilder populates a LongMap from many goroutines at once. Every
// operation is atomic per slot; the page table grows on demand.
type GrowingBuilder struct {
	defaultValue    int64
	trackAllocation func(bytes int64)

	// growLock is taken exclusively to replace the page table and shared
	// while installing a page into it, so a page can never be installed into
	// a table that is concurrently being copied.
	growLock sync.RWMutex
	pages    atomic.Pointer[[]atomic.Pointer[longPage]]
}

// NewGrowingBuilder creates a builder with enough page slots for
// initialCapacity indexes. trackAllocation may be nil; it is called with the
// size of every page that ends up in the map.
func NewGrowingBuilder(defaultValue int64, initialCapacity uint64,
	trackAllocation func(bytes int64),
) *GrowingBuilder {
	if trackAllocation == nil {
		trackAllocation = func(int64) {}
	}

	b := &GrowingBuilder{
		defaultValue:    defaultValue,
		trackAllocation: trackAllocation,
	}

	pages := make([]atomic.Pointer[longPage], pageCountFor(initialCapacity))
	b.pages.Store(&pages)
	return b
}

// Set stores value at index. Concurrent writers to the same index race with
// last-write-wins semantics.
func (b *GrowingBuilder) Set(index uint64, value int64) {
	page := b.pageFor(index)
	slot := index & pageMask
	if page.claim(slot) {
		atomic.StoreInt64(&page.values[slot], value)
		page.publish(slot)
		return
	}
	page.awaitPresent(slot)
	atomic.StoreInt64(&page.values[slot], value)
}

// SetIfAbsent stores value only if no value was stored at index before and
// reports whether this call performed the write. Of several concurrent
// writers, including Set and AddTo, exactly one is the first.
func (b *GrowingBuilder) SetIfAbsent(index uint64, value int64) bool {
	page := b.pageFor(index)
	slot := index & pageMask
	if !page.claim(slot) {
		return false
	}
	atomic.StoreInt64(&page.values[slot], value)
	page.publish(slot)
	return true
}

// AddTo atomically adds delta to the value at index. A slot without a value
// starts at the default value.
func (b *GrowingBuilder) AddTo(index uint64, delta int64) {
	page := b.pageFor(index)
	slot := index & pageMask
	if page.claim(slot) {
		atomic.StoreInt64(&page.values[slot], b.defaultValue+delta)
		page.publish(slot)
		return
	}
	page.awaitPresent(slot)
	atomic.AddInt64(&page.values[slot], delta)
}

// Get returns the default value until the first write to index is
// published.
func (b *GrowingBuilder) Get(index uint64) int64 {
	page := b.existingPage(index)
	if page == nil {
		return b.defaultValue
	}
	slot := index & pageMask
	if !page.contains(slot) {
		return b.defaultValue
	}
	return page.get(slot)
}

func (b *GrowingBuilder) Contains(index uint64) bool {
	page := b.existingPage(index)
	if page == nil {
		return false
	}
	return page.contains(index & pageMask)
}

// Build returns a read-only view. The builder must not be written to once
// Build was called.
func (b *GrowingBuilder) Build() *LongMap {
	table := *b.pages.Load()

	// trailing pages that were never touched do not extend the capacity
	last := len(table) - 1
	for last >= 0 && table[last].Load() == nil {
		last--
	}

	pages := make([]*longPage, last+1)
	for i := range pages {
		pages[i] = table[i].Load()
	}

	return &LongMap{
		pages:        pages,
		capacity:     uint64(len(pages)) << pageShift,
		defaultValue: b.defaultValue,
	}
}

func (b *GrowingBuilder) existingPage(index uint64) *longPage {
	pages := *b.pages.Load()
	pageIndex := index >> pageShift
	if pageIndex >= uint64(len(pages)) {
		return nil
	}
	return pages[pageIndex].Load()
}

func (b *GrowingBuilder) pageFor(index uint64) *longPage {
	if page := b.existingPage(index); page != nil {
		return page
	}
	return b.allocatePage(int(index >> pageShift))
}

func (b *GrowingBuilder) allocatePage(pageIndex int) *longPage {
	b.growTable(pageIndex + 1)

	b.growLock.RLock()
	defer b.growLock.RUnlock()

	slot := &(*b.pages.Load())[pageIndex]
	if page := slot.Load(); page != nil {
		return page
	}

	page := newLongPage(b.defaultValue)
	if slot.CompareAndSwap(nil, page) {
		b.trackAllocation(pageSizeInBytes)
		return page
	}
	// another goroutine allocated the same page first, ours is dropped
	return slot.Load()
}

func (b *GrowingBuilder) growTable(minPages int) {
	if len(*b.pages.Load()) >= minPages {
		return
	}

	b.growLock.Lock()
	defer b.growLock.Unlock()

	current := *b.pages.Load()
	if len(current) >= minPages {
		return
	}

	newSize := len(current) + len(current)>>1
	if newSize < minPages {
		newSize = minPages
	}

	grown := make([]atomic.Pointer[longPage], newSize)
	for i := range current {
		grown[i].Store(current[i].Load())
	}
	b.pages.Store(&grown)
}

func pageCountFor(capacity uint64) int {
	pages := capacity >> pageShift
	if capacity&pageMask != 0 {
		pages++
	}
	return int(pages)
}
