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

// Package chm reads ITSS archives, the compound-file container format
// historically used for Microsoft Compiled HTML Help (.chm) documents.
package chm

import "errors"

// Allocation and structural limits, guarding against hostile input.
const (
	// maxPathLen is the maximum length of an entry path, including the
	// appended NUL.
	maxPathLen = 512

	// maxPMGLPages bounds the directory page chain walk so a corrupt
	// block_next cycle cannot spin forever.
	maxPMGLPages = 1_000_000

	// maxBlockSlack is the maximum bytes an LZX block may expand by
	// over blockLen; a per-spec hard upper bound on compressed block
	// size derived from the LZX maximum inflate for a 32KiB window.
	maxBlockSlack = 6144

	// defaultCacheBlocks is the block cache's default capacity.
	defaultCacheBlocks = 5

	// maxCacheBlocks is the hard ceiling on cache capacity.
	maxCacheBlocks = 64
)

// Error kinds. Each is a sentinel that call sites wrap with
// fmt.Errorf("...: %w", ...) for context; callers discover the kind
// with errors.Is.
var (
	// ErrIO indicates the byte source returned an error. A short read
	// of a header, directory page or metadata entry is reported as
	// ErrMalformed, not ErrIO.
	ErrIO = errors.New("chm: io error")

	// ErrMalformed indicates a signature, version, or bound check failed.
	ErrMalformed = errors.New("chm: malformed archive")

	// ErrUnsupported indicates a structurally valid but unsupported
	// version or parameter combination.
	ErrUnsupported = errors.New("chm: unsupported format")

	// ErrDecompress indicates the LZX codec reported failure.
	ErrDecompress = errors.New("chm: decompression failed")

	// ErrNotApplicable indicates a compressed read against a handle
	// whose compression metadata failed to load or for which no LZX
	// codec could be constructed at Open.
	ErrNotApplicable = errors.New("chm: compression not available")

	// ErrClosed indicates an operation on a handle that has been closed.
	ErrClosed = errors.New("chm: handle closed")
)
