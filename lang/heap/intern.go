// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package heap

import lru "github.com/hashicorp/golang-lru"

// Interner deduplicates constant strings across the Executables a long-
// running host loads over its lifetime (repeated lang/image loads, or a
// REPL that recompiles overlapping literals line after line). It is
// independent of the arena: Executable.Strings entries live outside the
// two-space heap entirely (§4.3), so interning them is just a matter of
// returning the same backing Go string rather than allocating a new one.
type Interner struct {
	cache *lru.Cache
}

// NewInterner returns an Interner bounded to at most size distinct strings;
// the least recently used entries are evicted once that bound is reached.
func NewInterner(size int) *Interner {
	cache, err := lru.New(size)
	if err != nil {
		// Only returns an error for size <= 0, which every caller in this
		// codebase passes as a positive constant.
		panic(err)
	}
	return &Interner{cache: cache}
}

// Intern returns s, or an equal string already seen, so that repeated
// identical constants across loaded Executables share one allocation.
func (in *Interner) Intern(s string) string {
	if v, ok := in.cache.Get(s); ok {
		return v.(string)
	}
	in.cache.Add(s, s)
	return s
}
