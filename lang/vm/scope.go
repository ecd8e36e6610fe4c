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

package vm

import "github.com/probechain/go-probe/lang/value"

// Scope is one link in the activation's scope chain: a fixed-size slot
// array plus a generation counter that invalidates stale references after
// the scope is torn down (frame_restore bumps it; PUSH_REF tokens minted
// before that no longer resolve, per the generation invariant).
//
// Slots and the chain itself live in ordinary Go-managed memory — only
// boxed String/Array/Dict/Script values are tracked by the arena in
// lang/heap. A Scope is therefore scanned as a GC root by walking its
// slots, not by the arena collector itself.
type Scope struct {
	slots      []value.Val
	generation uint8
	parent     *Scope
}

// NewScope allocates a scope with n slots, all initialized to undefined.
func NewScope(n int, parent *Scope) *Scope {
	slots := make([]value.Val, n)
	for i := range slots {
		slots[i] = value.Und()
	}
	return &Scope{slots: slots, parent: parent}
}

// ancestor walks depth links up the chain (0 = this scope).
func (s *Scope) ancestor(depth uint8) *Scope {
	cur := s
	for ; depth > 0 && cur != nil; depth-- {
		cur = cur.parent
	}
	return cur
}

// Get resolves (depth, slot) against the expected generation. It returns
// (value, false) if the scope no longer exists or its generation has
// moved on, matching get_var's Option<&Val> contract.
func (s *Scope) Get(depth, slot, generation uint8) (value.Val, bool) {
	target := s.ancestor(depth)
	if target == nil || target.generation != generation || int(slot) >= len(target.slots) {
		return value.Val{}, false
	}
	return target.slots[slot], true
}

// Set writes (depth, slot) if the generation still matches. It reports
// whether the write took effect.
func (s *Scope) Set(depth, slot, generation uint8, v value.Val) bool {
	target := s.ancestor(depth)
	if target == nil || target.generation != generation || int(slot) >= len(target.slots) {
		return false
	}
	target.slots[slot] = v
	return true
}

// CurrentGeneration returns the live generation of the ancestor at depth,
// the value a freshly minted PUSH_REF token should carry.
func (s *Scope) CurrentGeneration(depth uint8) (uint8, bool) {
	target := s.ancestor(depth)
	if target == nil {
		return 0, false
	}
	return target.generation, true
}

// Retire bumps this scope's generation, invalidating every reference minted
// against it. Called by frame_restore when an activation ends.
func (s *Scope) Retire() {
	s.generation++
}

// Grow extends the slot array to n slots, leaving existing slots and the
// current generation untouched. The REPL compiler uses this on the
// top-level scope to make room for a variable declared on a later input
// line, since that scope is never recreated the way a function call's
// scope is.
func (s *Scope) Grow(n int) {
	for len(s.slots) < n {
		s.slots = append(s.slots, value.Und())
	}
}

// Each calls fn for every slot in the chain starting at s, walking parent
// links. Used by the root scanner to mark live Vals during GC.
func (s *Scope) Each(fn func(*value.Val)) {
	for cur := s; cur != nil; cur = cur.parent {
		for i := range cur.slots {
			fn(&cur.slots[i])
		}
	}
}
