// Copyright (c) 2026 The go-itss Authors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of chm.
//
// chm is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// chm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with chm.  If not, see <https://www.gnu.org/licenses/>.

package chm

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// blockCache holds a small number of fully decompressed blocks keyed
// by block index, so that sequential and nearby-random reads within a
// reset interval don't repeatedly replay history from the last reset
// point (§4.G, §9: "implementers may substitute an LRU policy without
// changing observable behavior" — this substitutes one).
//
// A direct-mapped cache (block index modulo capacity) was the simpler
// alternative and is what the spec describes as the baseline; an LRU
// keeps whichever blocks were actually touched recently instead of
// evicting on an arbitrary modulus collision, which matters once
// callers resize the cache at runtime.
type blockCache struct {
	mu  sync.Mutex
	lru *lru.Cache[uint32, []byte]
}

func newBlockCache(capacity int) *blockCache {
	c, err := lru.New[uint32, []byte](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0; callers pass
		// defaultCacheBlocks or another positive capacity.
		panic(err)
	}
	return &blockCache{lru: c}
}

// get returns the cached decompressed bytes for block b, if present.
// The returned slice is shared and must not be mutated by the caller.
func (bc *blockCache) get(b uint32) ([]byte, bool) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.lru.Get(b)
}

// put stores the decompressed bytes for block b, evicting the least
// recently used entry if the cache is full.
func (bc *blockCache) put(b uint32, data []byte) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.lru.Add(b, data)
}

// resize replaces the cache with one of the given capacity, discarding
// all currently cached blocks. Per §4.G a resize is always a full
// flush: there is no requirement to preserve any entries across a
// capacity change, and preserving them would mean picking which ones
// to keep under an arbitrary policy.
func (bc *blockCache) resize(capacity int) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	c, err := lru.New[uint32, []byte](capacity)
	if err != nil {
		panic(err)
	}
	bc.lru = c
}

// clampCacheSize bounds a requested cache capacity to [1, maxCacheBlocks].
func clampCacheSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxCacheBlocks {
		return maxCacheBlocks
	}
	return n
}
