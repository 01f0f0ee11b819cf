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

// itsfLenV2 and itsfLenV3 are the minimum structural header lengths
// for the two supported ITSF versions.
const (
	itsfLenV2 = 0x58
	itsfLenV3 = 0x60

	itspLen = 0x54
)

var (
	itsfMagic = [4]byte{'I', 'T', 'S', 'F'}
	itspMagic = [4]byte{'I', 'T', 'S', 'P'}
)

// itsfHeader is the ITSS file header (§3, §6).
type itsfHeader struct {
	version      uint32
	headerLen    uint32
	lastModified uint32
	langID       uint32
	uuid1        [16]byte
	uuid2        [16]byte
	unknownOff   uint64
	unknownLen   uint64
	dirOffset    uint64
	dirLen       uint64
	dataOffset   uint64
}

// itspHeader is the ITSS directory header (§3, §6).
type itspHeader struct {
	version      uint32
	headerLen    uint32
	blockLen     uint32
	blockIdxIntv int32
	indexDepth   int32
	indexRoot    int32
	indexHead    int32
	numBlocks    uint32
	langID       uint32
	uuid         [16]byte
}

// parseITSF decodes and validates the ITSF header from the first
// itsfLenV3 bytes of the archive.
func parseITSF(src ByteSource) (*itsfHeader, error) {
	buf := make([]byte, itsfLenV3)
	n, err := src.ReadAt(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: read ITSF header: %w", ErrIO, err)
	}
	if n < itsfLenV2 {
		return nil, fmt.Errorf("%w: ITSF header short read (%d bytes)", ErrMalformed, n)
	}

	c := newCursor(buf)
	var magic [4]byte
	copy(magic[:], c.bytesN(4))
	if magic != itsfMagic {
		return nil, fmt.Errorf("%w: bad ITSF signature", ErrMalformed)
	}

	h := &itsfHeader{}
	h.version = c.u32()
	h.headerLen = c.u32()
	c.skip(4) // reserved
	h.lastModified = c.u32()
	h.langID = c.u32()
	h.uuid1 = c.uuid()
	h.uuid2 = c.uuid()
	h.unknownOff = c.u64()
	h.unknownLen = c.u64()
	h.dirOffset = c.u64()
	h.dirLen = c.u64()

	switch h.version {
	case 2:
		if h.headerLen < itsfLenV2 {
			return nil, fmt.Errorf("%w: ITSF v2 header_len %d too small", ErrMalformed, h.headerLen)
		}
		h.dataOffset = h.dirOffset + h.dirLen
	case 3:
		if h.headerLen < itsfLenV3 {
			return nil, fmt.Errorf("%w: ITSF v3 header_len %d too small", ErrMalformed, h.headerLen)
		}
		h.dataOffset = c.u64()
	default:
		return nil, fmt.Errorf("%w: ITSF version %d", ErrUnsupported, h.version)
	}

	if !c.ok() {
		return nil, fmt.Errorf("%w: truncated ITSF header", ErrMalformed)
	}
	if h.dirOffset > 0xFFFFFFFF || h.dirLen > 0xFFFFFFFF {
		return nil, fmt.Errorf("%w: ITSF directory bounds overflow uint32", ErrMalformed)
	}

	return h, nil
}

// parseITSP decodes and validates the ITSP (directory) header at the
// given absolute offset.
func parseITSP(src ByteSource, offset uint64) (*itspHeader, error) {
	buf := make([]byte, itspLen)
	n, err := src.ReadAt(buf, int64(offset)) //nolint:gosec // offset bounded by validated ITSF dirOffset
	if err != nil {
		return nil, fmt.Errorf("%w: read ITSP header: %w", ErrIO, err)
	}
	if n < itspLen {
		return nil, fmt.Errorf("%w: ITSP header short read (%d bytes)", ErrMalformed, n)
	}

	c := newCursor(buf)
	var magic [4]byte
	copy(magic[:], c.bytesN(4))
	if magic != itspMagic {
		return nil, fmt.Errorf("%w: bad ITSP signature", ErrMalformed)
	}

	h := &itspHeader{}
	h.version = c.u32()
	h.headerLen = c.u32()
	c.skip(4) // reserved
	h.blockLen = c.u32()
	h.blockIdxIntv = c.i32()
	h.indexDepth = c.i32()
	h.indexRoot = c.i32()
	h.indexHead = c.i32()
	c.skip(4) // reserved
	h.numBlocks = c.u32()
	c.skip(4) // reserved
	h.langID = c.u32()
	h.uuid = c.uuid()
	c.skip(16) // reserved

	if !c.ok() {
		return nil, fmt.Errorf("%w: truncated ITSP header", ErrMalformed)
	}
	if h.version != 1 {
		return nil, fmt.Errorf("%w: ITSP version %d", ErrUnsupported, h.version)
	}
	if h.headerLen != itspLen {
		return nil, fmt.Errorf("%w: ITSP header_len %d", ErrMalformed, h.headerLen)
	}
	if h.blockLen == 0 {
		return nil, fmt.Errorf("%w: ITSP block_len is zero", ErrMalformed)
	}
	if h.indexRoot < 0 {
		h.indexRoot = h.indexHead
	}

	return h, nil
}
