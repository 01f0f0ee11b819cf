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
	"bytes"
	"encoding/binary"
)

// The helpers in this file assemble synthetic ITSS byte streams for
// testing the parsers directly against known layouts, rather than
// depending on a real .chm fixture on disk.

func encodeCword(v uint64) []byte {
	groups := []byte{byte(v & 0x7f)}
	v >>= 7
	for v > 0 {
		groups = append(groups, byte(v&0x7f))
		v >>= 7
	}
	out := make([]byte, len(groups))
	for i, g := range groups {
		out[len(groups)-1-i] = g
	}
	for i := 0; i < len(out)-1; i++ {
		out[i] |= 0x80
	}
	return out
}

func putU32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func putU64(buf []byte, v uint64) { binary.LittleEndian.PutUint64(buf, v) }

func appendU32(b *bytes.Buffer, v uint32) { _ = binary.Write(b, binary.LittleEndian, v) }
func appendU64(b *bytes.Buffer, v uint64) { _ = binary.Write(b, binary.LittleEndian, v) }

// rawEntry describes one directory entry to embed in a synthetic
// archive, expressed relative to the data area (dataOffset).
type rawEntry struct {
	path   string
	space  Space
	start  uint64
	length uint64
}

func entryRecordBytes(e rawEntry) []byte {
	var b bytes.Buffer
	nameBytes := append([]byte(e.path), 0) // NUL terminator per entry-record format
	b.Write(encodeCword(uint64(len(nameBytes))))
	b.Write(nameBytes)
	b.Write(encodeCword(uint64(e.space)))
	b.Write(encodeCword(e.start))
	b.Write(encodeCword(e.length))
	return b.Bytes()
}

// buildITSFHeader returns a v3 ITSF header of itsfLenV3 bytes.
func buildITSFHeader(dirOffset, dirLen, dataOffset uint64) []byte {
	buf := make([]byte, itsfLenV3)
	copy(buf[0:4], itsfMagic[:])
	putU32(buf[4:8], 3) // version
	putU32(buf[8:12], itsfLenV3)
	// buf[12:16] reserved
	putU32(buf[16:20], 0) // lastModified
	putU32(buf[20:24], 0) // langID
	// buf[24:40] uuid1, buf[40:56] uuid2 left zero
	putU64(buf[56:64], 0) // unknownOff
	putU64(buf[64:72], 0) // unknownLen
	putU64(buf[72:80], dirOffset)
	putU64(buf[80:88], dirLen)
	putU64(buf[88:96], dataOffset)
	return buf
}

// buildITSPHeader returns an ITSP header of itspLen bytes describing a
// single-page, single-level directory.
func buildITSPHeader(blockLen uint32) []byte {
	buf := make([]byte, itspLen)
	copy(buf[0:4], itspMagic[:])
	putU32(buf[4:8], 1) // version
	putU32(buf[8:12], itspLen)
	// buf[12:16] reserved
	putU32(buf[16:20], blockLen)
	putU32(buf[20:24], 2) // block_idx_intv
	putU32(buf[24:28], 1) // index_depth
	putU32(buf[28:32], 0) // index_root
	putU32(buf[32:36], 0) // index_head
	// buf[36:40] reserved
	putU32(buf[40:44], 1) // num_blocks
	// buf[44:48] reserved, buf[48:52] langID, uuid+reserved left zero
	return buf
}

// buildPMGLPage lays out one directory page containing the given
// entries, padded to blockLen bytes.
func buildPMGLPage(blockLen uint32, entries []rawEntry) []byte {
	var body bytes.Buffer
	for _, e := range entries {
		body.Write(entryRecordBytes(e))
	}
	used := pmglHeaderLen + body.Len()
	if uint32(used) > blockLen {
		panic("synthetic PMGL page overflow, raise blockLen in test")
	}
	freeSpace := blockLen - uint32(used)

	page := make([]byte, blockLen)
	copy(page[0:4], pmglMagic[:])
	putU32(page[4:8], freeSpace)
	// page[8:12] reserved, page[12:16] block_prev
	binary.LittleEndian.PutUint32(page[16:20], uint32(int32(-1))) // block_next: end of chain
	copy(page[pmglHeaderLen:], body.Bytes())
	return page
}

// archiveEntry is a higher-level entry description that carries its
// own content bytes, used to build a full archive in one pass.
type archiveEntry struct {
	path    string
	space   Space
	content []byte // laid out in the data area for every entry; Start/Length derive from it
	start   uint64 // not read by buildSimpleArchive
}

// buildSimpleArchive assembles a minimal, fully uncompressed ITSS
// archive (no LZXC metadata at all) containing the given entries, each
// placed sequentially in the data area.
func buildSimpleArchive(entries []archiveEntry) []byte {
	const blockLen = 1024

	var data bytes.Buffer
	raw := make([]rawEntry, 0, len(entries))
	for _, e := range entries {
		start := uint64(data.Len())
		data.Write(e.content)
		raw = append(raw, rawEntry{path: e.path, space: e.space, start: start, length: uint64(len(e.content))})
	}

	page := buildPMGLPage(blockLen, raw)

	dirOffset := uint64(itsfLenV3)
	dirLen := uint64(itspLen) + uint64(len(page))
	dataOffset := dirOffset + dirLen

	var out bytes.Buffer
	out.Write(buildITSFHeader(dirOffset, dirLen, dataOffset))
	out.Write(buildITSPHeader(blockLen))
	out.Write(page)
	out.Write(data.Bytes())
	return out.Bytes()
}

// compressedArchiveSpec parameterizes buildCompressedArchive.
type compressedArchiveSpec struct {
	blockCount    int
	blockLen      uint64 // decompressed bytes per block
	windowSize    uint32
	resetInterval uint32
	// payload is the full decompressed content stream; its length must
	// equal blockCount*blockLen. The fake identity codec used in tests
	// stores it verbatim as the "compressed" bytes too.
	payload []byte
	// extraEntries are additional Compressed entries (beyond the
	// reserved three) pointing into payload.
	extraEntries []rawEntry
}

// buildCompressedArchive assembles an ITSS archive with full LZXC
// compression metadata and an identity-compressed content stream,
// suitable for exercising the decompression driver with a fake codec
// registered via SetLZXCodec.
func buildCompressedArchive(spec compressedArchiveSpec) []byte {
	const blockLen32 = 1024

	n := uint64(spec.blockCount)

	// Reset table: 40-byte header followed by n+... actually exactly n
	// start offsets (the last block's end is compressedLen).
	tableOffset := uint64(resetTableHeaderLen)
	var resetBuf bytes.Buffer
	appendU32(&resetBuf, 2) // version
	appendU32(&resetBuf, uint32(n))
	appendU32(&resetBuf, 0) // reserved
	appendU32(&resetBuf, uint32(tableOffset))
	appendU64(&resetBuf, uint64(len(spec.payload))) // uncompressed
	appendU64(&resetBuf, uint64(len(spec.payload))) // compressedLen (identity codec)
	appendU64(&resetBuf, spec.blockLen)
	for i := uint64(0); i < n; i++ {
		appendU64(&resetBuf, i*spec.blockLen)
	}

	// LZXC control data, version 1, padded to lzxcControlLenV1 bytes.
	controlBuf := make([]byte, lzxcControlLenV1)
	putU32(controlBuf[0:4], lzxcControlLenV1)
	copy(controlBuf[4:8], lzxcMagic[:])
	putU32(controlBuf[8:12], 1) // version
	putU32(controlBuf[12:16], spec.resetInterval)
	putU32(controlBuf[16:20], spec.windowSize)

	var data bytes.Buffer
	resetStart := uint64(data.Len())
	data.Write(resetBuf.Bytes())
	controlStart := uint64(data.Len())
	data.Write(controlBuf)
	contentStart := uint64(data.Len())
	data.Write(spec.payload)

	raw := []rawEntry{
		{path: resetTablePath, space: Uncompressed, start: resetStart, length: uint64(resetBuf.Len())},
		{path: controlDataPath, space: Uncompressed, start: controlStart, length: uint64(len(controlBuf))},
		{path: contentPath, space: Uncompressed, start: contentStart, length: uint64(len(spec.payload))},
	}
	raw = append(raw, spec.extraEntries...)

	page := buildPMGLPage(blockLen32, raw)

	dirOffset := uint64(itsfLenV3)
	dirLen := uint64(itspLen) + uint64(len(page))
	dataOffset := dirOffset + dirLen

	var out bytes.Buffer
	out.Write(buildITSFHeader(dirOffset, dirLen, dataOffset))
	out.Write(buildITSPHeader(blockLen32))
	out.Write(page)
	out.Write(data.Bytes())
	return out.Bytes()
}

// fakeLZXCodec is an identity stand-in for a real LZX decoder: it
// copies compressed bytes straight to the output buffer. Archives
// built by buildCompressedArchive store plaintext as their "compressed"
// stream specifically so this fake can exercise the driver without a
// real LZX implementation.
type fakeLZXCodec struct {
	resets int
	closed bool
}

func (f *fakeLZXCodec) Reset() { f.resets++ }

func (f *fakeLZXCodec) Decompress(dst, src []byte) (int, error) {
	return copy(dst, src), nil
}

func (f *fakeLZXCodec) Close() error {
	f.closed = true
	return nil
}

func registerFakeLZXCodec() *fakeLZXCodec {
	codec := &fakeLZXCodec{}
	SetLZXCodec(func(_ int) (LZXCodec, error) { return codec, nil })
	return codec
}
