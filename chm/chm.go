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

// closer is satisfied by any owned byte source that needs releasing
// when the Handle is closed. OpenFS/OpenFile set this; Open alone does
// not, since the caller supplied the ByteSource and keeps owning it.
type closer interface {
	Close() error
}

// Handle is an open ITSS archive: its parsed headers, its directory,
// and (if present) its compression state. A Handle is not safe for
// concurrent use (§5): callers needing concurrent access open the
// archive multiple times or serialize access themselves.
type Handle struct {
	src   ByteSource
	owned closer

	itsf *itsfHeader
	itsp *itspHeader

	entries []Entry
	byPath  map[string]int

	ci     *compressionInfo
	decomp *decompressor
	cache  *blockCache

	debug  DebugFunc
	closed bool
}

// Open parses src as an ITSS archive and returns a ready-to-use
// Handle. src is never closed by Open or by the returned Handle's
// Close; callers that want the Handle to own and close the underlying
// file should use OpenFile or OpenFS instead.
func Open(src ByteSource) (*Handle, error) {
	h := &Handle{src: src, cache: newBlockCache(defaultCacheBlocks)}
	if err := h.init(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handle) init() error {
	itsf, err := parseITSF(h.src)
	if err != nil {
		return fmt.Errorf("parse ITSF header: %w", err)
	}
	h.itsf = itsf

	itsp, err := parseITSP(h.src, itsf.dirOffset)
	if err != nil {
		return fmt.Errorf("parse ITSP header: %w", err)
	}
	h.itsp = itsp

	entries, err := parseDirectory(h.src, itsf, itsp, itsf.dirOffset)
	if err != nil {
		return fmt.Errorf("parse directory: %w", err)
	}
	h.entries = entries

	h.byPath = make(map[string]int, len(entries))
	for i, e := range entries {
		h.byPath[foldPath(e.Path)] = i
	}

	ci, ok := loadCompression(h.src, itsf, entries)
	if !ok {
		h.debugf("chm: compression metadata unavailable, compressed reads disabled")
		return nil
	}
	h.ci = ci

	resetEntry := entries[ci.resetIdx]
	decomp, err := newDecompressor(h.src, itsf, ci, resetEntry, h.cache)
	if err != nil {
		// No LZX codec registered (or an unsupported window size) is
		// not fatal to opening the archive, only to reading compressed
		// entries from it: uncompressed entries (including the ones we
		// just used to parse compression metadata) remain readable.
		h.debugf("chm: LZX codec unavailable (%v), compressed reads disabled", err)
		h.ci = nil
		return nil
	}
	h.decomp = decomp

	return nil
}

// SetDebug installs f to receive diagnostic messages the Handle emits
// after this call. Passing nil disables diagnostics, which is also the
// default. The messages Open emits (compression being disabled) are
// produced before a sink can be installed and are not delivered; reads
// emit no messages.
func (h *Handle) SetDebug(f DebugFunc) {
	h.debug = f
}

// SetCacheSize resizes the decompressed-block cache to n blocks,
// clamped to [1, maxCacheBlocks], discarding any currently cached
// blocks. On an archive with no compression metadata the cache is never
// read, so this has no effect on reads.
func (h *Handle) SetCacheSize(n int) {
	h.cache.resize(clampCacheSize(n))
}

// Entries returns the archive's directory in on-disk traversal order.
// The returned slice must not be modified.
func (h *Handle) Entries() []Entry {
	return h.entries
}

// Lookup returns the entry whose path matches path under Unicode
// case-folding, and whether one was found.
func (h *Handle) Lookup(path string) (Entry, bool) {
	i, ok := h.byPath[foldPath(path)]
	if !ok {
		return Entry{}, false
	}
	return h.entries[i], true
}

// CompressionAvailable reports whether the archive's LZX compression
// metadata loaded successfully and a codec was constructed for it.
// Reading a Compressed entry when this is false fails with
// ErrNotApplicable.
func (h *Handle) CompressionAvailable() bool {
	return h.decomp != nil
}

// Close releases resources held by the Handle, including the
// underlying file if it was opened via OpenFile or OpenFS. Close is
// idempotent; it is safe to call more than once.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	var err error
	if h.decomp != nil {
		err = h.decomp.close()
	}
	if h.owned != nil {
		if cerr := h.owned.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
