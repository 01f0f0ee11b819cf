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

	"golang.org/x/text/cases"
)

const pmglHeaderLen = 0x14

var pmglMagic = [4]byte{'P', 'M', 'G', 'L'}

// pathFolder normalizes a path for the exact case-insensitive matches
// the reserved compression-metadata entries require (§4.D).
var pathFolder = cases.Fold()

func foldPath(s string) string {
	return pathFolder.String(s)
}

// Reserved compression-metadata entry paths (§3 invariants).
const (
	resetTablePath = "::DataSpace/Storage/MSCompressed/Transform/" +
		"{7FC28940-9D31-11D0-9B27-00A0C91E9C7C}/InstanceData/ResetTable"
	contentPath     = "::DataSpace/Storage/MSCompressed/Content"
	controlDataPath = "::DataSpace/Storage/MSCompressed/ControlData"
)

// parseDirectory walks the PMGL page chain starting at itsp.indexHead
// and decodes every entry record into a directory slice in traversal
// order. dirOffset is the absolute offset of the ITSP header; pages
// begin immediately after it, at dirOffset + itsp.headerLen.
func parseDirectory(src ByteSource, itsf *itsfHeader, itsp *itspHeader, dirOffset uint64) ([]Entry, error) {
	var entries []Entry

	pagesBase := dirOffset + uint64(itsp.headerLen)
	page := itsp.indexHead
	seen := 0
	for page != -1 {
		seen++
		if seen > maxPMGLPages {
			return nil, fmt.Errorf("%w: PMGL chain exceeds %d pages", ErrMalformed, maxPMGLPages)
		}

		pageEntries, next, err := parsePMGLPage(src, itsp, pagesBase, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, pageEntries...)
		page = next
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty directory", ErrMalformed)
	}

	return entries, nil
}

// parsePMGLPage decodes a single PMGL page at the given block index,
// returning its entries and the next page index in the chain (-1 at
// the end).
func parsePMGLPage(src ByteSource, itsp *itspHeader, dirOffset uint64, page int32) ([]Entry, int32, error) {
	buf := make([]byte, itsp.blockLen)
	off := dirOffset + uint64(page)*uint64(itsp.blockLen)
	n, err := src.ReadAt(buf, int64(off)) //nolint:gosec // off bounded by validated ITSF/ITSP header fields
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read PMGL page %d: %w", ErrIO, page, err)
	}
	if uint32(n) < itsp.blockLen { //nolint:gosec // blockLen already validated nonzero and small
		return nil, 0, fmt.Errorf("%w: PMGL page %d short read", ErrMalformed, page)
	}

	c := newCursor(buf)
	var magic [4]byte
	copy(magic[:], c.bytesN(4))
	if magic != pmglMagic {
		return nil, 0, fmt.Errorf("%w: bad PMGL signature on page %d", ErrMalformed, page)
	}

	freeSpace := c.u32()
	c.skip(4) // reserved
	c.skip(4) // block_prev, unused by the core read path
	blockNext := c.i32()

	if !c.ok() {
		return nil, 0, fmt.Errorf("%w: truncated PMGL header on page %d", ErrMalformed, page)
	}
	if freeSpace > itsp.blockLen-pmglHeaderLen {
		return nil, 0, fmt.Errorf("%w: PMGL page %d free_space %d exceeds block", ErrMalformed, page, freeSpace)
	}

	usableEnd := int(itsp.blockLen - freeSpace)
	var entries []Entry
	for c.pos < usableEnd {
		entry, err := parseEntryRecord(c)
		if err != nil {
			return nil, 0, fmt.Errorf("page %d: %w", page, err)
		}
		entries = append(entries, entry)
	}
	if !c.ok() {
		return nil, 0, fmt.Errorf("%w: truncated entry record on page %d", ErrMalformed, page)
	}

	return entries, blockNext, nil
}

// parseEntryRecord decodes one directory entry record (§4.D, §6).
func parseEntryRecord(c *cursor) (Entry, error) {
	nameLen := c.cword()
	if !c.ok() || nameLen > maxPathLen {
		return Entry{}, fmt.Errorf("%w: entry name_len %d", ErrMalformed, nameLen)
	}

	path := c.cstring(int(nameLen))
	space := c.cword()
	start := c.cword()
	length := c.cword()
	if !c.ok() {
		return Entry{}, fmt.Errorf("%w: truncated entry record", ErrMalformed)
	}
	if space > 1 {
		return Entry{}, fmt.Errorf("%w: entry space %d", ErrMalformed, space)
	}

	return Entry{
		Path:   path,
		Space:  Space(space), //nolint:gosec // space validated above to be 0 or 1
		Start:  start,
		Length: length,
		Flags:  deriveFlags(path),
	}, nil
}

// findReservedEntry returns the index of the entry whose path matches
// want under case-insensitive Unicode folding, or -1 if not present.
func findReservedEntry(entries []Entry, want string) int {
	folded := foldPath(want)
	for i := range entries {
		if foldPath(entries[i].Path) == folded {
			return i
		}
	}
	return -1
}
