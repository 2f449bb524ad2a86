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
	"sync"
	"sync/atomic"

	"github.com/weaviate/graphstore/entities/graph"
)

const (
	PageShift = 18
	PageSize  = 1 << PageShift
	PageMask  = PageSize - 1

	// offsets are page<<PageShift | inPage and must stay within an int64
	maxPages = 1 << (63 - PageShift)
)

type allocationPage struct {
	index int
	data  []byte
	top   atomic.Int64
}

// PageAllocator hands out non-overlapping byte ranges of shared pages to
// concurrent writers. A range is reserved with a single atomic add on the
// current page's write cursor; only switching to a fresh page takes the
// lock. Blocks larger than a page get a dedicated page of their own.
type PageAllocator struct {
	sync.Mutex
	pages   [][]byte
	current atomic.Pointer[allocationPage]

	usedBytes atomic.Int64
	onNewPage func(bytes int)
}

// NewPageAllocator creates an empty allocator. onNewPage may be nil.
func NewPageAllocator(onNewPage func(bytes int)) *PageAllocator {
	if onNewPage == nil {
		onNewPage = func(int) {}
	}
	return &PageAllocator{onNewPage: onNewPage}
}

// Insert copies block into page memory and returns its offset.
func (a *PageAllocator) Insert(block []byte) (uint64, error) {
	length := int64(len(block))
	if length > PageSize {
		return a.insertOversized(block)
	}

	for {
		current := a.current.Load()
		if current != nil {
			end := current.top.Add(length)
			if end <= PageSize {
				start := end - length
				copy(current.data[start:end], block)
				a.usedBytes.Add(length)
				return uint64(current.index)<<PageShift | uint64(start), nil
			}
		}

		if err := a.rollOver(current); err != nil {
			return 0, err
		}
	}
}

// Pages returns the page table. It must only be called once every Insert
// has returned.
func (a *PageAllocator) Pages() [][]byte {
	a.Lock()
	defer a.Unlock()

	pages := make([][]byte, len(a.pages))
	copy(pages, a.pages)
	return pages
}

// UsedBytes is the number of bytes handed out, excluding page tails that
// could not be filled.
func (a *PageAllocator) UsedBytes() int64 {
	return a.usedBytes.Load()
}

// rollOver installs a fresh current page unless another writer already
// replaced seen in the meantime.
func (a *PageAllocator) rollOver(seen *allocationPage) error {
	a.Lock()
	defer a.Unlock()

	if a.current.Load() != seen {
		return nil
	}

	index, err := a.appendPage(make([]byte, PageSize))
	if err != nil {
		return err
	}

	next := &allocationPage{index: index, data: a.pages[index]}
	a.current.Store(next)
	return nil
}

func (a *PageAllocator) insertOversized(block []byte) (uint64, error) {
	page := make([]byte, len(block))
	copy(page, block)

	a.Lock()
	index, err := a.appendPage(page)
	a.Unlock()
	if err != nil {
		return 0, err
	}

	a.usedBytes.Add(int64(len(block)))
	return uint64(index) << PageShift, nil
}

// appendPage must be called with the lock held.
func (a *PageAllocator) appendPage(page []byte) (int, error) {
	if uint64(len(a.pages)) >= maxPages {
		return 0, graph.NewCapacityOverflow(
			"adjacency pages exhausted, cannot address more than %d pages", uint64(maxPages))
	}
	a.pages = append(a.pages, page)
	a.onNewPage(len(page))
	return len(a.pages) - 1, nil
}
