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

// DebugFunc receives one-line diagnostic messages about non-fatal
// conditions, such as compressed reads being disabled because the
// compression metadata or the LZX codec is unavailable. There is no
// logging library
// anywhere in this package's dependency graph; a caller that wants
// these messages in their own structured logger wires it in here.
type DebugFunc func(format string, args ...any)

func (h *Handle) debugf(format string, args ...any) {
	if h.debug != nil {
		h.debug(format, args...)
	}
}
