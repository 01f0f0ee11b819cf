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
	"sync"
)

// LZXCodec is the external LZX decompressor contract (§1, §6): a
// stateful decoder that must be reset at reset-interval boundaries and
// replays history across sequential blocks. The LZX algorithm itself
// is out of scope for this package — callers supply an implementation
// via SetLZXCodec and the decompression driver (decompress.go) only
// ever talks to it through this interface.
type LZXCodec interface {
	// Reset clears decoder history, as required at every reset-
	// interval boundary.
	Reset()

	// Decompress decodes one block worth of compressed input into
	// dst, returning the number of bytes written. dst is always
	// exactly the reset table's block_len, the decompressed block
	// size; src is the compressed bytes for that block as resolved by
	// the reset-table lookup.
	Decompress(dst, src []byte) (int, error)

	// Close releases any resources held by the decoder.
	Close() error
}

// LZXCodecFactory constructs a fresh LZXCodec for a given LZX window
// size, expressed in bits (window_bits = log2(window_size)).
type LZXCodecFactory func(windowBits int) (LZXCodec, error)

var (
	lzxFactoryMu sync.RWMutex
	lzxFactory   LZXCodecFactory
)

// SetLZXCodec registers the LZX codec factory used by every Handle
// opened after this call; the codec is constructed during Open. There
// is no default: an archive whose compression metadata loads
// successfully but which has no codec registered at Open time opens
// with compression disabled, and its compressed reads fail with
// ErrNotApplicable, exactly as for an archive with no LZXC metadata.
func SetLZXCodec(factory LZXCodecFactory) {
	lzxFactoryMu.Lock()
	defer lzxFactoryMu.Unlock()
	lzxFactory = factory
}

// getLZXCodec constructs a codec instance for the given window size
// using the currently registered factory.
func getLZXCodec(windowSize uint32) (LZXCodec, error) {
	lzxFactoryMu.RLock()
	factory := lzxFactory
	lzxFactoryMu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: no LZX codec registered", ErrUnsupported)
	}

	bits := log2PowerOfTwo(windowSize)
	if bits < 0 {
		return nil, fmt.Errorf("%w: LZX window_size %d is not a power of two", ErrUnsupported, windowSize)
	}

	codec, err := factory(bits)
	if err != nil {
		return nil, fmt.Errorf("%w: construct LZX codec: %w", ErrUnsupported, err)
	}
	return codec, nil
}

// log2PowerOfTwo returns log2(n) if n is a power of two, or -1
// otherwise. Mirrors the ffs-based window_bits derivation the C
// original uses, which implicitly assumes a power-of-two window_size.
// The multiple-of-window/2 check in parseLZXCControl does not exclude
// non-power-of-two values (0x6000 with a 0x3000 interval passes it);
// getLZXCodec rejects them when this returns -1.
func log2PowerOfTwo(n uint32) int {
	if n == 0 || n&(n-1) != 0 {
		return -1
	}
	bits := 0
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}
