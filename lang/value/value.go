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

// Package value defines Val, the tagged cell every PROBE bytecode
// instruction pushes, pops, and rewrites on the operand stack.
//
// The reference implementation NaN-boxes a 64-bit double. Go gives no
// tolerated way to reinterpret bits across types without `unsafe`, and the
// instruction set here does not need the density NaN-boxing buys, so Val is
// a small tagged struct instead — one field per payload shape, selected by
// Kind. Handle fields (String/Array/Dict/Script) index into the lang/heap
// arena; Native indexes a host function table; Ref is the first-class
// lvalue token PUSH_REF produces.
package value

import "math"

// Kind identifies which payload field of a Val is meaningful.
type Kind uint8

const (
	Undefined Kind = iota
	NaN            // the canonical non-numeric sentinel (§3.1) — distinct from a
	// float64 math.NaN payload, though both compare unequal to everything.
	Number
	Bool
	String
	Array
	Dict
	Script
	Native
	Reference
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case NaN:
		return "nan"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case String:
		return "string"
	case Array:
		return "array"
	case Dict:
		return "dictionary"
	case Script:
		return "script"
	case Native:
		return "native"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Val is one stack cell / variable slot. Exactly one payload field is
// meaningful, selected by Kind; the rest are zero.
type Val struct {
	Kind Kind

	Num    float64 // Kind == Number
	Flag   bool    // Kind == Bool
	Handle uint32  // Kind == String, Array, Dict, Script: heap.Handle

	NativeIdx uint16 // Kind == Native

	RefDepth uint8 // Kind == Reference: scope-chain hops from the current scope
	RefSlot  uint8 // Kind == Reference
	RefGen   uint8 // Kind == Reference: the target scope's generation when the
	// reference was minted; a later generation means the scope was torn down
	// and the reference is stale (ERR_InvalidLeftValue).
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func Und() Val           { return Val{Kind: Undefined} }
func Nan() Val           { return Val{Kind: NaN} }
func Num(n float64) Val  { return Val{Kind: Number, Num: n} }
func Bln(b bool) Val     { return Val{Kind: Bool, Flag: b} }
func Str(h uint32) Val   { return Val{Kind: String, Handle: h} }
func Arr(h uint32) Val   { return Val{Kind: Array, Handle: h} }
func Dic(h uint32) Val   { return Val{Kind: Dict, Handle: h} }
func Scr(h uint32) Val   { return Val{Kind: Script, Handle: h} }
func Nat(idx uint16) Val { return Val{Kind: Native, NativeIdx: idx} }
func Ref(depth, slot, gen uint8) Val {
	return Val{Kind: Reference, RefDepth: depth, RefSlot: slot, RefGen: gen}
}

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

func (v Val) IsUndefined() bool { return v.Kind == Undefined }
func (v Val) IsNaN() bool       { return v.Kind == NaN }
func (v Val) IsNumber() bool    { return v.Kind == Number }
func (v Val) IsBool() bool      { return v.Kind == Bool }
func (v Val) IsString() bool    { return v.Kind == String }
func (v Val) IsArray() bool     { return v.Kind == Array }
func (v Val) IsDict() bool      { return v.Kind == Dict }
func (v Val) IsScript() bool    { return v.Kind == Script }
func (v Val) IsNative() bool    { return v.Kind == Native }
func (v Val) IsReference() bool { return v.Kind == Reference }

// IsHeapHandle reports whether v carries a handle into the managed heap
// arena (the root-scanning predicate the collector uses, §4.3).
func (v Val) IsHeapHandle() bool {
	switch v.Kind {
	case String, Array, Dict, Script:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Equality (§3.1, §4.1.2 bit-identity rule)
// ---------------------------------------------------------------------------

// IdentEquals implements the base `==` rule: bit-identical cells compare
// equal, except nan and undefined, which never compare equal to anything —
// including another nan/undefined cell. String identity here is by heap
// handle only; byte-wise string comparison is layered on top by the VM,
// which has heap access this package deliberately does not.
func IdentEquals(a, b Val) bool {
	if a.Kind == NaN || a.Kind == Undefined || b.Kind == NaN || b.Kind == Undefined {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Number:
		return a.Num == b.Num
	case Bool:
		return a.Flag == b.Flag
	case String, Array, Dict, Script:
		return a.Handle == b.Handle
	case Native:
		return a.NativeIdx == b.NativeIdx
	case Reference:
		return a.RefDepth == b.RefDepth && a.RefSlot == b.RefSlot && a.RefGen == b.RefGen
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Conversions (§4.1.1)
// ---------------------------------------------------------------------------

// Truthy implements the non-string/array/dict truthiness rule: undefined,
// nan, numeric zero, and false are false; everything else is true. String,
// array, and dict truthiness (by length) additionally requires heap access
// and is implemented by the VM.
func Truthy(v Val) bool {
	switch v.Kind {
	case Undefined, NaN:
		return false
	case Number:
		return v.Num != 0
	case Bool:
		return v.Flag
	default:
		return true
	}
}

// ToInt32 truncates a Val toward zero and wraps to a 32-bit two's-complement
// integer, the coercion every bitwise opcode applies to both operands
// (§4.1.1). Non-numbers coerce to 0, matching "else nan" for the arithmetic
// result built on top of this helper (the opcode itself decides whether a
// non-number operand forces the whole result to nan; ToInt32 only performs
// the numeric half of the conversion).
func ToInt32(v Val) int32 {
	if v.Kind != Number || math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0
	}
	return int32(uint32(int64(v.Num)))
}
