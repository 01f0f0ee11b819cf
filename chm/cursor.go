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

	"github.com/icza/bitio"
)

// cursor is a positional reader over an in-memory buffer with a sticky
// error flag: once a read runs past the end of the buffer, every
// subsequent read becomes a no-op returning the zero value, and the
// caller checks err once at the end of decoding a structure. This
// avoids branching on every field the way a chain of individually
// error-returning reads would.
type cursor struct {
	buf []byte
	pos int
	err bool
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// ok reports whether decoding so far is still error-free.
func (c *cursor) ok() bool {
	return !c.err
}

// need checks that n bytes remain; on shortfall it sets the sticky
// error and returns false.
func (c *cursor) need(n int) bool {
	if c.err {
		return false
	}
	if n < 0 || c.pos+n > len(c.buf) {
		c.err = true
		return false
	}
	return true
}

func (c *cursor) u8() uint8 {
	if !c.need(1) {
		return 0
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

func (c *cursor) u16() uint16 {
	if !c.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) u32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) u64() uint64 {
	if !c.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v
}

func (c *cursor) i32() int32 {
	return int32(c.u32())
}

func (c *cursor) i64() int64 {
	return int64(c.u64())
}

// bytesN returns a copy of the next n bytes.
func (c *cursor) bytesN(n int) []byte {
	if !c.need(n) {
		return make([]byte, n)
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out
}

// uuid reads a 16-byte UUID verbatim; ITSF/ITSP UUIDs are opaque and
// never validated per spec, only copied.
func (c *cursor) uuid() [16]byte {
	var out [16]byte
	if !c.need(16) {
		return out
	}
	copy(out[:], c.buf[c.pos:c.pos+16])
	c.pos += 16
	return out
}

// skip advances the cursor n bytes without copying, for reserved
// fields whose value is never inspected.
func (c *cursor) skip(n int) {
	if !c.need(n) {
		return
	}
	c.pos += n
}

// cstring reads n raw bytes and returns them as a path: everything
// before the first NUL (or the whole run if none). The returned string
// does not include the NUL.
func (c *cursor) cstring(n int) string {
	raw := c.bytesN(n)
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	return string(raw[:end])
}

// cword decodes a variable-length base-128 big-endian integer: each
// byte contributes its low 7 bits, most-significant byte first, and
// the top bit of each byte signals "more bytes follow". Used only for
// entry-record fields.
func (c *cursor) cword() uint64 {
	if c.err {
		return 0
	}

	br := bitio.NewReader(bytes.NewReader(c.buf[c.pos:]))
	var val uint64
	consumed := 0
	for {
		more, err := br.ReadBool()
		if err != nil {
			c.err = true
			return 0
		}
		low7, err := br.ReadBits(7)
		if err != nil {
			c.err = true
			return 0
		}
		val = (val << 7) | low7
		consumed++
		if !more {
			break
		}
		// A cword feeding a uint64 accumulator can consume at most 10
		// continuation bytes (70 bits of payload); beyond that the
		// value has overflowed and the record is corrupt.
		if consumed > 10 {
			c.err = true
			return 0
		}
	}
	c.pos += consumed
	return val
}
