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

	"github.com/spf13/afero"
)

// ByteSource is the pread-style abstraction the archive engine reads
// raw bytes through. Any io.ReaderAt satisfies it; it is spelled out
// as its own interface because the archive never needs anything else
// from the underlying file, memory buffer, or OS handle.
type ByteSource interface {
	ReadAt(buf []byte, off int64) (int, error)
}

// fileSource wraps an afero.File, closing it alongside the handle.
type fileSource struct {
	f afero.File
}

func (fs *fileSource) ReadAt(buf []byte, off int64) (int, error) {
	n, err := fs.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return n, nil
}

func (fs *fileSource) Close() error {
	return fs.f.Close()
}

// OpenFile opens path on the OS filesystem and returns an archive
// Handle over it. The returned Handle owns the file and closes it
// when Close is called.
func OpenFile(path string) (*Handle, error) {
	return OpenFS(afero.NewOsFs(), path)
}

// OpenFS opens path on fs and returns an archive Handle over it. Pass
// afero.NewMemMapFs() to open an in-memory archive (useful for tests
// and for archives staged entirely in RAM), or afero.NewOsFs() for a
// real file. The returned Handle owns the opened file and closes it
// when Close is called.
func OpenFS(fs afero.Fs, path string) (*Handle, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrIO, path, err)
	}

	src := &fileSource{f: f}
	h, err := Open(src)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	h.owned = src
	return h, nil
}
