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

// Package sparse implements a growable mapping from 64-bit indexes to int64
// values. Only pages that were touched are allocated, which makes it suitable
// for huge, sparsely populated index spaces such as original node ids.
package sparse

import (
	"math/bits"
	"runtime"
	"sync/atomic"
)

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
	wordCount = pageSize / 64

	// bytes held by one page: values plus the claimed and present bitsets
	pageSizeInBytes = pageSize*8 + 2*wordCount*8
)

// longPage is written with atomic operations only. present tracks which
// slots were explicitly written, so a stored default value is distinct from
// a slot that was never touched.
//
// The first write to a slot claims it, stores the value and only then marks
// it present. Every other writer of that slot waits for the present bit, so
// the transition from absent to present is a single step for all observers.
type longPage struct {
	values  [pageSize]int64
	claimed [wordCount]uint64
	present [wordCount]uint64
}

func newLongPage(defaultValue int64) *longPage {
	p := &longPage{}
	if defaultValue != 0 {
		for i := range p.values {
			p.values[i] = defaultValue
		}
	}
	return p
}

func (p *longPage) get(slot uint64) int64 {
	return atomic.LoadInt64(&p.values[slot])
}

func (p *longPage) contains(slot uint64) bool {
	word := atomic.LoadUint64(&p.present[slot>>6])
	return word&(uint64(1)<<(slot&63)) != 0
}

// claim returns true if this call is the first writer of slot. The winner
// must publish the slot once its value is stored.
func (p *longPage) claim(slot uint64) bool {
	return setBit(&p.claimed[slot>>6], slot&63)
}

func (p *longPage) publish(slot uint64) {
	setBit(&p.present[slot>>6], slot&63)
}

// awaitPresent blocks until the first writer of slot has published it.
func (p *longPage) awaitPresent(slot uint64) {
	for !p.contains(slot) {
		runtime.Gosched()
	}
}

// setBit returns true if this call flipped the bit.
func setBit(addr *uint64, bit uint64) bool {
	mask := uint64(1) << bit
	for {
		old := atomic.LoadUint64(addr)
		if old&mask != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(addr, old, old|mask) {
			return true
		}
	}
}

func (p *longPage) count() int {
	n := 0
	for i := range p.present {
		n += bits.OnesCount64(atomic.LoadUint64(&p.present[i]))
	}
	return n
}

// LongMap is the read-only result of a GrowingBuilder.
type LongMap struct {
	pages        []*longPage
	capacity     uint64
	defaultValue int64
}

// Capacity is one past the highest index that can hold a value.
func (m *LongMap) Capacity() uint64 {
	return m.capacity
}

func (m *LongMap) DefaultValue() int64 {
	return m.defaultValue
}

// Get returns the stored value, or the default value if the slot was never
// written.
func (m *LongMap) Get(index uint64) int64 {
	page := m.page(index)
	if page == nil {
		return m.defaultValue
	}
	return page.get(index & pageMask)
}

// Contains is true iff a value was explicitly stored at index, even if that
// value equals the default value.
func (m *LongMap) Contains(index uint64) bool {
	page := m.page(index)
	if page == nil {
		return false
	}
	return page.contains(index & pageMask)
}

// Count is the number of explicitly stored entries.
func (m *LongMap) Count() uint64 {
	n := uint64(0)
	for _, p := range m.pages {
		if p != nil {
			n += uint64(p.count())
		}
	}
	return n
}

// ForEach visits every present entry in ascending index order until fn
// returns false.
func (m *LongMap) ForEach(fn func(index uint64, value int64) bool) {
	for pageIndex, p := range m.pages {
		if p == nil {
			continue
		}
		base := uint64(pageIndex) << pageShift
		for w, word := range p.present {
			for word != 0 {
				bit := uint64(bits.TrailingZeros64(word))
				word &= word - 1
				slot := uint64(w)<<6 | bit
				if !fn(base+slot, p.values[slot]) {
					return
				}
			}
		}
	}
}

func (m *LongMap) page(index uint64) *longPage {
	pageIndex := index >> pageShift
	if pageIndex >= uint64(len(m.pages)) {
		return nil
	}
	return m.pages[pageIndex]
}
