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

import "fmt"

// decompressor drives the two-level decompression of a single
// archive's LZX content stream: resolving block bounds from the reset
// table, replaying decoder history forward from the last reset point,
// and caching fully decoded blocks so repeated or nearby reads don't
// re-walk history every time (§4.H).
type decompressor struct {
	src        ByteSource
	itsf       *itsfHeader
	ci         *compressionInfo
	resetEntry Entry
	cache      *blockCache
	codec      LZXCodec
}

func newDecompressor(src ByteSource, itsf *itsfHeader, ci *compressionInfo, resetEntry Entry, cache *blockCache) (*decompressor, error) {
	codec, err := getLZXCodec(ci.control.windowSize)
	if err != nil {
		return nil, err
	}
	return &decompressor{
		src:        src,
		itsf:       itsf,
		ci:         ci,
		resetEntry: resetEntry,
		cache:      cache,
		codec:      codec,
	}, nil
}

func (d *decompressor) close() error {
	return d.codec.Close()
}

// block returns the fully decompressed bytes of block b, decoding it
// (and any intervening blocks since the last reset point) if it is not
// already cached.
func (d *decompressor) block(b uint32) ([]byte, error) {
	if data, ok := d.cache.get(b); ok {
		return data, nil
	}

	resetBase := b - b%uint32(d.ci.resetBlkCnt) //nolint:gosec // resetBlkCnt bounded and nonzero, checked at load time
	if err := d.decompressRegion(resetBase, b); err != nil {
		return nil, err
	}

	data, ok := d.cache.get(b)
	if !ok {
		return nil, fmt.Errorf("%w: block %d not produced by decompression region", ErrDecompress, b)
	}
	return data, nil
}

// decompressRegion decodes every block from resetBase (a reset-
// interval boundary) through target inclusive, resetting the codec's
// history once at resetBase and replaying forward in order. Every
// block in the region must pass through the codec even if its output
// is already cached: the codec's internal window depends on having
// seen every preceding block's compressed data since the last reset,
// not just on the decompressed bytes being known, so there is no way
// to skip ahead to a cached block without losing decoder state. The
// cache's benefit is avoiding this replay on the *next* read, not this
// one; each decoded block is stored as it's produced so later reads
// into the same reset interval can stop at whichever block they need.
func (d *decompressor) decompressRegion(resetBase, target uint32) error {
	d.codec.Reset()

	for b := resetBase; b <= target; b++ {
		data, err := d.uncompressBlock(b)
		if err != nil {
			return err
		}
		d.cache.put(b, data)
	}
	return nil
}

// uncompressBlock decodes exactly one compressed block using the
// codec's current history state, without touching the cache.
func (d *decompressor) uncompressBlock(b uint32) ([]byte, error) {
	absOff, length, err := blockBounds(d.src, d.itsf, d.ci, d.resetEntry, b)
	if err != nil {
		return nil, err
	}

	compressed := make([]byte, length)
	if _, err := d.src.ReadAt(compressed, absOff); err != nil {
		return nil, fmt.Errorf("%w: read compressed block %d: %w", ErrIO, b, err)
	}

	out := make([]byte, d.ci.reset.blockLen)
	n, err := d.codec.Decompress(out, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: %w", ErrDecompress, b, err)
	}
	if uint64(n) != d.ci.reset.blockLen { //nolint:gosec // n is a non-negative byte count
		return nil, fmt.Errorf("%w: block %d produced %d bytes, want %d", ErrDecompress, b, n, d.ci.reset.blockLen)
	}

	return out, nil
}
