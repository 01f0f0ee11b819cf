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
	"encoding/binary"
	"fmt"
)

// blockBounds resolves compressed block b to its absolute offset and
// length in the archive file (§4.F).
func blockBounds(src ByteSource, itsf *itsfHeader, ci *compressionInfo, resetEntry Entry, b uint32) (int64, int64, error) {
	if b >= ci.reset.blockCount {
		return 0, 0, fmt.Errorf("%w: block index %d >= %d", ErrMalformed, b, ci.reset.blockCount)
	}

	tableBase := itsf.dataOffset + resetEntry.Start + ci.reset.tableOffset

	startOff := tableBase + 8*uint64(b)
	startBuf := make([]byte, 8)
	if _, err := src.ReadAt(startBuf, int64(startOff)); err != nil { //nolint:gosec // bounded by validated header/table fields
		return 0, 0, fmt.Errorf("%w: read reset table entry %d: %w", ErrIO, b, err)
	}
	startInStream := binary.LittleEndian.Uint64(startBuf)

	var endInStream uint64
	if b < ci.reset.blockCount-1 {
		endBuf := make([]byte, 8)
		if _, err := src.ReadAt(endBuf, int64(startOff+8)); err != nil { //nolint:gosec // bounded as above
			return 0, 0, fmt.Errorf("%w: read reset table entry %d: %w", ErrIO, b+1, err)
		}
		endInStream = binary.LittleEndian.Uint64(endBuf)
	} else {
		endInStream = ci.reset.compressedLen
	}

	if endInStream < startInStream {
		return 0, 0, fmt.Errorf("%w: reset table block %d has negative length", ErrMalformed, b)
	}
	length := endInStream - startInStream
	if length > ci.reset.blockLen+maxBlockSlack {
		return 0, 0, fmt.Errorf("%w: reset table block %d length %d exceeds slack bound", ErrMalformed, b, length)
	}

	absOffset := startInStream + itsf.dataOffset + ci.contentEntry.Start
	return int64(absOffset), int64(length), nil //nolint:gosec // bounded by validated 32-bit-range fields
}
