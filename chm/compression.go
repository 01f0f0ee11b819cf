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

var lzxcMagic = [4]byte{'L', 'Z', 'X', 'C'}

const (
	lzxcControlLenV1 = 0x18
	lzxcControlLenV2 = 0x1c

	resetTableHeaderLen = 0x28
)

// lzxcControl is the LZXC control-data structure (§3, §4.E).
type lzxcControl struct {
	version         uint32
	resetInterval   uint32
	windowSize      uint32
	windowsPerReset uint32
}

// resetTable is the parsed LZX reset-table header (§3, §4.E, §4.F).
type resetTable struct {
	blockCount    uint32
	tableOffset   uint64
	uncompressed  uint64
	compressedLen uint64
	blockLen      uint64
}

// compressionInfo bundles everything the decompression driver needs,
// derived once at open time from the three reserved entries.
type compressionInfo struct {
	control      lzxcControl
	reset        resetTable
	resetBlkCnt  uint64
	contentEntry Entry
	resetIdx     int
	contentIdx   int
	controlIdx   int
}

// readEntryBytes reads the full contents of an uncompressed entry.
// Used only for the compression-metadata entries, which are the one
// place the format requires data outside the LZX stream before the
// LZX stream itself can be interpreted.
func readEntryBytes(src ByteSource, itsf *itsfHeader, e Entry) ([]byte, error) {
	if e.Space != Uncompressed {
		return nil, fmt.Errorf("%w: metadata entry %q is not uncompressed", ErrMalformed, e.Path)
	}
	buf := make([]byte, e.Length)
	off := itsf.dataOffset + e.Start
	n, err := src.ReadAt(buf, int64(off)) //nolint:gosec // off bounded by validated header fields and entry.Start/Length
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %q: %w", ErrIO, e.Path, err)
	}
	if n < len(buf) {
		return nil, fmt.Errorf("%w: entry %q short read", ErrMalformed, e.Path)
	}
	return buf, nil
}

// loadCompression locates the three reserved compression-metadata
// entries and parses the LZXC control data and reset table. Per spec
// §3, any failure here downgrades the archive to compression_enabled
// = false rather than failing Open outright.
func loadCompression(src ByteSource, itsf *itsfHeader, entries []Entry) (*compressionInfo, bool) {
	resetIdx := findReservedEntry(entries, resetTablePath)
	contentIdx := findReservedEntry(entries, contentPath)
	controlIdx := findReservedEntry(entries, controlDataPath)
	if resetIdx < 0 || contentIdx < 0 || controlIdx < 0 {
		return nil, false
	}

	resetEntry := entries[resetIdx]
	controlEntry := entries[controlIdx]
	if resetEntry.Space != Uncompressed || controlEntry.Space != Uncompressed {
		return nil, false
	}

	controlBuf, err := readEntryBytes(src, itsf, controlEntry)
	if err != nil {
		return nil, false
	}
	control, err := parseLZXCControl(controlBuf)
	if err != nil {
		return nil, false
	}

	resetBuf, err := readEntryBytes(src, itsf, resetEntry)
	if err != nil {
		return nil, false
	}
	rt, err := parseResetTable(resetBuf)
	if err != nil {
		return nil, false
	}

	resetBlkCnt := uint64(control.resetInterval) / (uint64(control.windowSize) / 2) * uint64(control.windowsPerReset)
	if resetBlkCnt == 0 {
		return nil, false
	}

	return &compressionInfo{
		control:      control,
		reset:        rt,
		resetBlkCnt:  resetBlkCnt,
		contentEntry: entries[contentIdx],
		resetIdx:     resetIdx,
		contentIdx:   contentIdx,
		controlIdx:   controlIdx,
	}, true
}

// parseLZXCControl decodes and validates the LZXC control-data
// structure (§3 invariants).
func parseLZXCControl(buf []byte) (lzxcControl, error) {
	if len(buf) != lzxcControlLenV1 && len(buf) != lzxcControlLenV2 {
		return lzxcControl{}, fmt.Errorf("%w: LZXC control length %d", ErrMalformed, len(buf))
	}

	c := newCursor(buf)
	c.skip(4) // self-describing length, already checked via len(buf)
	var magic [4]byte
	copy(magic[:], c.bytesN(4))
	if magic != lzxcMagic {
		return lzxcControl{}, fmt.Errorf("%w: bad LZXC signature", ErrMalformed)
	}

	ctl := lzxcControl{}
	ctl.version = c.u32()
	ctl.resetInterval = c.u32()
	ctl.windowSize = c.u32()
	ctl.windowsPerReset = 1
	if len(buf) == lzxcControlLenV2 {
		ctl.windowsPerReset = c.u32()
	}
	if !c.ok() {
		return lzxcControl{}, fmt.Errorf("%w: truncated LZXC control data", ErrMalformed)
	}

	if ctl.version != 1 && ctl.version != 2 {
		return lzxcControl{}, fmt.Errorf("%w: LZXC version %d", ErrUnsupported, ctl.version)
	}
	if ctl.version == 2 {
		ctl.resetInterval *= 0x8000
		ctl.windowSize *= 0x8000
	}
	if ctl.windowSize <= 1 {
		return lzxcControl{}, fmt.Errorf("%w: LZXC window_size %d", ErrUnsupported, ctl.windowSize)
	}
	if ctl.resetInterval == 0 || ctl.resetInterval%(ctl.windowSize/2) != 0 {
		return lzxcControl{}, fmt.Errorf("%w: LZXC reset_interval %d not a multiple of window/2", ErrUnsupported, ctl.resetInterval)
	}

	return ctl, nil
}

// parseResetTable decodes and validates the LZX reset-table header
// (§3 invariants).
func parseResetTable(buf []byte) (resetTable, error) {
	if len(buf) < resetTableHeaderLen {
		return resetTable{}, fmt.Errorf("%w: reset table header length %d", ErrMalformed, len(buf))
	}

	c := newCursor(buf)
	version := c.u32()
	blockCount := c.u32()
	c.skip(4) // unknown/reserved
	tableOffset := uint64(c.u32())
	uncompressedLen := c.u64()
	compressedLen := c.u64()
	blockLen := c.u64()
	if !c.ok() {
		return resetTable{}, fmt.Errorf("%w: truncated reset table header", ErrMalformed)
	}

	if version != 2 {
		return resetTable{}, fmt.Errorf("%w: reset table version %d", ErrUnsupported, version)
	}
	if uncompressedLen > 0xFFFFFFFF || compressedLen > 0xFFFFFFFF {
		return resetTable{}, fmt.Errorf("%w: reset table length overflow", ErrMalformed)
	}
	if blockLen == 0 {
		return resetTable{}, fmt.Errorf("%w: reset table block_len is zero", ErrMalformed)
	}

	return resetTable{
		blockCount:    blockCount,
		tableOffset:   tableOffset,
		uncompressed:  uncompressedLen,
		compressedLen: compressedLen,
		blockLen:      blockLen,
	}, nil
}
