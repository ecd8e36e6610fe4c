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

package compiler

// funcScope is the compile-time symbol table for one runtime Scope: either
// a function body or the top-level program. Nested `{ }` blocks push a
// fresh name table onto blocks but share this funcScope's slot counter and
// runtime depth, since the VM allocates one Scope per call frame, not one
// per block (§4.1.5 frame_setup).
type funcScope struct {
	parent   *funcScope
	blocks   []map[string]uint8
	numSlots uint8
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, blocks: []map[string]uint8{{}}}
}

func (f *funcScope) pushBlock() { f.blocks = append(f.blocks, map[string]uint8{}) }

func (f *funcScope) popBlock() { f.blocks = f.blocks[:len(f.blocks)-1] }

// declare binds name to a fresh slot in the innermost block and returns it.
// Redeclaring a name already visible in the funcScope does not reuse the
// earlier slot: each `var` gets its own cell, matching the generation
// invariant's assumption that a slot's identity is stable for its scope's
// lifetime.
func (f *funcScope) declare(name string) uint8 {
	slot := f.numSlots
	f.numSlots++
	f.blocks[len(f.blocks)-1][name] = slot
	return slot
}

// resolve searches this funcScope's blocks (innermost first), then walks
// parent funcScopes, returning the (depth, slot) pair PUSH_VAR/PUSH_REF
// operands need. depth counts funcScope hops, which is exactly how many
// runtime Scope links separate the referencing frame from the declaring
// one, since each funcScope corresponds to exactly one runtime Scope.
func (f *funcScope) resolve(name string) (depth, slot uint8, ok bool) {
	d := uint8(0)
	for fs := f; fs != nil; fs = fs.parent {
		for i := len(fs.blocks) - 1; i >= 0; i-- {
			if s, found := fs.blocks[i][name]; found {
				return d, s, true
			}
		}
		d++
	}
	return 0, 0, false
}
