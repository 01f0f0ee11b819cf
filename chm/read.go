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
	"fmt"
	"io"
)

// ReadAt reads up to len(p) bytes of entry's content starting at
// offset, returning the number of bytes read (§4.I). It follows the
// io.ReaderAt contract: a short read at end of entry returns io.EOF
// alongside n > 0 when some bytes were copied, or n == 0 and io.EOF
// when offset is at or past the entry's length.
func (h *Handle) ReadAt(entry Entry, p []byte, offset int64) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}
	if offset < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrMalformed, offset)
	}
	if uint64(offset) >= entry.Length { //nolint:gosec // offset already checked non-negative
		return 0, io.EOF
	}

	want := len(p)
	remaining := entry.Length - uint64(offset) //nolint:gosec // checked above
	if uint64(want) > remaining {
		want = int(remaining)
	}

	var n int
	var err error
	switch entry.Space {
	case Uncompressed:
		n, err = h.readUncompressed(entry, p[:want], offset)
	case Compressed:
		n, err = h.readCompressed(entry, p[:want], offset)
	default:
		return 0, fmt.Errorf("%w: entry space %d", ErrMalformed, entry.Space)
	}
	if err != nil {
		return n, err
	}
	if n < want || (uint64(n) == remaining && n < len(p)) {
		// Either a short read, or an exact read that reached the end of
		// the entry with room left in the caller's buffer: both are an
		// EOF signal per io.ReaderAt semantics.
		return n, io.EOF
	}
	return n, nil
}

func (h *Handle) readUncompressed(entry Entry, p []byte, offset int64) (int, error) {
	abs := h.itsf.dataOffset + entry.Start + uint64(offset) //nolint:gosec // offset validated non-negative and within entry.Length
	n, err := h.src.ReadAt(p, int64(abs))                   //nolint:gosec // abs bounded by validated header/entry fields
	if err != nil {
		return n, fmt.Errorf("%w: read entry %q: %w", ErrIO, entry.Path, err)
	}
	return n, nil
}

func (h *Handle) readCompressed(entry Entry, p []byte, offset int64) (int, error) {
	if h.decomp == nil {
		return 0, ErrNotApplicable
	}

	start := entry.Start + uint64(offset) //nolint:gosec // offset validated non-negative and within entry.Length
	blockLen := h.ci.reset.blockLen

	n := 0
	for n < len(p) {
		pos := start + uint64(n)
		b := pos / blockLen
		inBlock := pos % blockLen

		if b > 0xFFFFFFFF {
			return n, fmt.Errorf("%w: block index overflow", ErrMalformed)
		}

		data, err := h.decomp.block(uint32(b)) //nolint:gosec // checked above
		if err != nil {
			return n, err
		}
		if inBlock >= uint64(len(data)) {
			return n, fmt.Errorf("%w: block %d shorter than block_len", ErrMalformed, b)
		}

		copied := copy(p[n:], data[inBlock:])
		n += copied
	}

	return n, nil
}
