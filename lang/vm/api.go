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

// This file is the surface native modules (stdlib/math, stdlib/crypto, ...)
// program against: it re-exports the boxed-object helpers objects.go
// defines for the interpreter's own opcode handlers, under names a host
// package can call without reaching into vm's unexported internals.

// StringOf returns the Go string content of a String-kind Val, regardless
// of whether it is a constant-table or arena string.
func (e *Env) StringOf(v value.Val) string { return e.stringOf(v) }

// AllocString boxes s as a new arena string.
func (e *Env) AllocString(s string) (value.Val, error) { return e.allocString(s) }

// AllocArray boxes elems as a new arena array.
func (e *Env) AllocArray(elems []value.Val) (value.Val, error) { return e.allocArray(elems) }

// AllocDict boxes the given keys/vals (same length) as a new arena dict.
func (e *Env) AllocDict(keys []string, vals []value.Val) (value.Val, error) {
	return e.allocDict(keys, vals)
}

// ArrayLen returns an array's element count.
func (e *Env) ArrayLen(v value.Val) int { return e.arrayLen(v) }

// ArrayGet returns an array element, or undefined if idx is out of range.
func (e *Env) ArrayGet(v value.Val, idx int) value.Val { return e.arrayGet(v, idx) }

// ArraySet writes an array element; a no-op if idx is out of range.
func (e *Env) ArraySet(v value.Val, idx int, val value.Val) error { return e.arraySet(v, idx, val) }

// DictGet looks up key, returning (value, true) on a hit.
func (e *Env) DictGet(v value.Val, key string) (value.Val, bool) { return e.dictGet(v, key) }

// DictSet inserts or updates key, returning the (possibly relocated) dict
// Val the caller must use from here on.
func (e *Env) DictSet(v value.Val, key string, val value.Val) (value.Val, error) {
	return e.dictSet(v, key, val)
}

// Truthy applies the full, heap-aware truthiness rule (§4.1.1).
func (e *Env) Truthy(v value.Val) bool { return e.truthy(v) }

// ValEquals applies the full, heap-aware `==` rule (§4.1.2).
func (e *Env) ValEquals(a, b value.Val) bool { return e.valEquals(a, b) }

// RegisterNative exposes Executable.RegisterNative so a host assembling an
// Env can wire stdlib modules in before compiling or loading a program.
func (e *Env) RegisterNative(name string, fn NativeFunc) uint16 {
	return e.exec.RegisterNative(name, fn)
}

// Push stages a value on the operand stack. A native that itself wants to
// invoke a callee value (e.g. a higher-order array function taking a
// Script callback) pushes the callee followed by its arguments, then calls
// ExecuteCall with the argument count, exactly as FUNC_CALL's own bytecode
// handler would.
func (e *Env) Push(v value.Val) { e.push(v) }
