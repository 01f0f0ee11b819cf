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

import "strings"

// Space distinguishes which logical stream an entry's Start/Length are
// measured in.
type Space uint8

const (
	// Uncompressed entries are read directly off the archive.
	Uncompressed Space = 0
	// Compressed entries live inside the single LZX content stream.
	Compressed Space = 1
)

// Entry flag bits, derived from an entry's path (§6). Exactly one of
// Dirs/Files is set, and exactly one of Special/Normal/Meta is set.
const (
	FlagDirs Flag = 1 << iota
	FlagFiles
	FlagSpecial
	FlagNormal
	FlagMeta
)

// Flag is a bitmask of entry-flag bits derived from an entry's path.
type Flag uint8

// Entry is one logical file listed in the archive's directory.
type Entry struct {
	Path   string
	Space  Space
	Start  uint64
	Length uint64
	Flags  Flag
}

// deriveFlags computes an entry's flag bitmask from its path per §6:
// a trailing slash marks a directory; a leading slash followed by '#'
// or '$' marks a special (metadata) entry, any other leading slash
// marks a normal entry, and no leading slash marks a meta entry (an
// internal listing entry with no archive-relative path meaning).
func deriveFlags(path string) Flag {
	var f Flag
	if strings.HasSuffix(path, "/") {
		f |= FlagDirs
	} else {
		f |= FlagFiles
	}

	switch {
	case len(path) >= 2 && path[0] == '/' && (path[1] == '#' || path[1] == '$'):
		f |= FlagSpecial
	case len(path) >= 1 && path[0] == '/':
		f |= FlagNormal
	default:
		f |= FlagMeta
	}

	return f
}
