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

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/probechain/go-probe/lang/value"
)

// Exec runs code starting at pc 0 against the Env's current scope (the
// top-level scope for execute_string/execute_image, or a frame already set
// up by execute_call) until BC_STOP or a latched error. It implements the
// run(env, pc) -> error_code contract of §4.1.
func (e *Env) Exec(code []byte) ErrCode {
	e.code = code
	e.pc = 0
	e.clearError()
	for {
		if e.pc >= len(e.code) {
			e.SetError(ErrInvalidByteCode)
			return e.err
		}
		op := Opcode(e.code[e.pc])
		e.pc++
		if op == OpStop {
			return ErrNone
		}
		e.step(op)
		if e.err != ErrNone {
			return e.err
		}
	}
}

// ---------------------------------------------------------------------------
// Operand readers
// ---------------------------------------------------------------------------

func (e *Env) readU8() uint8 {
	b := e.code[e.pc]
	e.pc++
	return b
}

func (e *Env) readS8() int { return int(int8(e.readU8())) }

func (e *Env) readU16() uint16 {
	b := binary.BigEndian.Uint16(e.code[e.pc : e.pc+2])
	e.pc += 2
	return b
}

func (e *Env) readS16() int { return int(int16(e.readU16())) }

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func (e *Env) step(op Opcode) {
	switch op {
	case OpPass:
		// no-op

	case OpRet0:
		e.frameRestore()
		e.push(value.Und())
	case OpRet:
		v := e.pop()
		e.frameRestore()
		e.push(v)

	case OpSJmp:
		off := e.readS8()
		e.pc += off
	case OpJmp:
		off := e.readS16()
		e.pc += off
	case OpSJmpT:
		off := e.readS8()
		if e.truthy(e.peek(0)) {
			e.pc += off
		}
	case OpSJmpF:
		off := e.readS8()
		if !e.truthy(e.peek(0)) {
			e.pc += off
		}
	case OpJmpT:
		off := e.readS16()
		if e.truthy(e.peek(0)) {
			e.pc += off
		}
	case OpJmpF:
		off := e.readS16()
		if !e.truthy(e.peek(0)) {
			e.pc += off
		}
	case OpPopSJmpT:
		off := e.readS8()
		if e.truthy(e.pop()) {
			e.pc += off
		}
	case OpPopSJmpF:
		off := e.readS8()
		if !e.truthy(e.pop()) {
			e.pc += off
		}
	case OpPopJmpT:
		off := e.readS16()
		if e.truthy(e.pop()) {
			e.pc += off
		}
	case OpPopJmpF:
		off := e.readS16()
		if !e.truthy(e.pop()) {
			e.pc += off
		}

	case OpPushUnd:
		e.push(value.Und())
	case OpPushNan:
		e.push(value.Nan())
	case OpPushTrue:
		e.push(value.Bln(true))
	case OpPushFalse:
		e.push(value.Bln(false))
	case OpPushZero:
		e.push(value.Num(0))
	case OpPushNum:
		idx := e.readU16()
		e.push(value.Num(e.exec.Numbers[idx]))
	case OpPushStr:
		idx := e.readU16()
		e.push(constStr(idx))
	case OpPushVar:
		depth, slot := e.readU8(), e.readU8()
		gen, ok := e.scope.CurrentGeneration(depth)
		if !ok {
			e.SetError(ErrSysError)
			return
		}
		v, ok := e.scope.Get(depth, slot, gen)
		if !ok {
			e.SetError(ErrSysError)
			return
		}
		e.push(v)
	case OpPushRef:
		depth, slot := e.readU8(), e.readU8()
		gen, ok := e.scope.CurrentGeneration(depth)
		if !ok {
			e.SetError(ErrSysError)
			return
		}
		e.push(value.Ref(depth, slot, gen))
	case OpPushScript:
		idx := e.readU16()
		scopeID := e.heap.RegisterScope(e.scope)
		v, err := e.allocScript(idx, scopeID)
		if err != nil {
			e.SetError(ErrNotEnoughMemory)
			return
		}
		e.push(v)
	case OpPushNative:
		idx := e.readU16()
		e.push(value.Nat(idx))

	case OpPop:
		e.pop()

	case OpNeg:
		v := e.peek(0)
		if v.Kind == value.Number {
			e.setTOS(value.Num(-v.Num))
		} else {
			e.setTOS(value.Nan())
		}
	case OpNot:
		v := e.peek(0)
		if v.Kind != value.Number {
			e.setTOS(value.Nan())
		} else {
			e.setTOS(int32Val(^value.ToInt32(v)))
		}
	case OpLogicNot:
		v := e.peek(0)
		e.setTOS(value.Bln(!e.truthy(v)))

	case OpMul:
		e.binaryArith(arithMul)
	case OpDiv:
		e.binaryArith(arithDiv)
	case OpMod:
		e.binaryArith(arithMod)
	case OpAdd:
		e.binaryAdd()
	case OpSub:
		e.binaryArith(arithSub)
	case OpAAnd:
		e.binaryBitwise(arithAnd)
	case OpAOr:
		e.binaryBitwise(arithOr)
	case OpAXor:
		e.binaryBitwise(arithXor)
	case OpLShift:
		e.binaryBitwise(arithShl)
	case OpRShift:
		e.binaryBitwise(arithShr)

	case OpTEq:
		right, left := e.pop(), e.peek(0)
		e.setTOS(value.Bln(e.valEquals(left, right)))
	case OpTNe:
		right, left := e.pop(), e.peek(0)
		e.setTOS(value.Bln(!e.valEquals(left, right)))
	case OpTGt:
		e.compareOp(func(c int) bool { return c > 0 })
	case OpTGe:
		e.compareOp(func(c int) bool { return c >= 0 })
	case OpTLt:
		e.compareOp(func(c int) bool { return c < 0 })
	case OpTLe:
		e.compareOp(func(c int) bool { return c <= 0 })

	case OpProp:
		key := e.pop()
		obj := e.pop()
		e.push(e.propGet(obj, e.stringOf(key)))
	case OpPropMeth:
		key := e.pop()
		obj := e.peek(0)
		e.push(e.propGet(obj, e.stringOf(key)))
	case OpElem:
		key := e.pop()
		obj := e.pop()
		e.push(e.elemGet(obj, key))
	case OpElemMeth:
		key := e.pop()
		obj := e.peek(0)
		e.push(e.elemGet(obj, key))

	case OpAssign:
		e.doAssign()
	case OpAddAssign:
		e.doCompoundAssign(arithAdd)
	case OpSubAssign:
		e.doCompoundAssign(arithSub)
	case OpMulAssign:
		e.doCompoundAssign(arithMul)
	case OpDivAssign:
		e.doCompoundAssign(arithDiv)
	case OpModAssign:
		e.doCompoundAssign(arithMod)
	case OpAAndAssign:
		e.doCompoundAssign(arithAnd)
	case OpAOrAssign:
		e.doCompoundAssign(arithOr)
	case OpAXorAssign:
		e.doCompoundAssign(arithXor)
	case OpLShiftAssign:
		e.doCompoundAssign(arithShl)
	case OpRShiftAssign:
		e.doCompoundAssign(arithShr)

	case OpPropAssign:
		e.doPropAssign(nil)
	case OpPropAddAssign:
		op := arithAdd
		e.doPropAssign(&op)
	case OpPropSubAssign:
		op := arithSub
		e.doPropAssign(&op)
	case OpPropMulAssign:
		op := arithMul
		e.doPropAssign(&op)
	case OpPropDivAssign:
		op := arithDiv
		e.doPropAssign(&op)
	case OpPropModAssign:
		op := arithMod
		e.doPropAssign(&op)

	case OpElemAssign:
		e.doElemAssign(nil)
	case OpElemAddAssign:
		op := arithAdd
		e.doElemAssign(&op)
	case OpElemSubAssign:
		op := arithSub
		e.doElemAssign(&op)
	case OpElemMulAssign:
		op := arithMul
		e.doElemAssign(&op)
	case OpElemDivAssign:
		op := arithDiv
		e.doElemAssign(&op)
	case OpElemModAssign:
		op := arithMod
		e.doElemAssign(&op)

	case OpFuncCall:
		argc := int(e.readU8())
		e.doCall(argc)

	case OpArray:
		n := int(e.readU16())
		elems := append([]value.Val(nil), e.stack[e.sp-n:e.sp]...)
		e.release(n)
		v, err := e.allocArray(elems)
		if err != nil {
			e.SetError(ErrNotEnoughMemory)
			return
		}
		e.push(v)
	case OpDict:
		n := int(e.readU16())
		keys := make([]string, n)
		vals := make([]value.Val, n)
		base := e.sp - n*2
		for i := 0; i < n; i++ {
			keys[i] = e.stringOf(e.stack[base+i*2])
			vals[i] = e.stack[base+i*2+1]
		}
		e.release(n * 2)
		v, err := e.allocDict(keys, vals)
		if err != nil {
			e.SetError(ErrNotEnoughMemory)
			return
		}
		e.push(v)

	default:
		e.SetError(ErrInvalidByteCode)
	}
}

// ---------------------------------------------------------------------------
// Truthiness & equality (§4.1.1, §4.1.2) — the heap-aware extensions to
// value.Truthy/value.IdentEquals, which cannot see string contents.
// ---------------------------------------------------------------------------

func (e *Env) truthy(v value.Val) bool {
	if v.Kind == value.String {
		return len(e.stringOf(v)) > 0
	}
	return value.Truthy(v)
}

func (e *Env) valEquals(a, b value.Val) bool {
	if a.Kind == value.NaN || a.Kind == value.Undefined || b.Kind == value.NaN || b.Kind == value.Undefined {
		return false
	}
	if a.Kind == value.String && b.Kind == value.String {
		return e.stringOf(a) == e.stringOf(b)
	}
	return value.IdentEquals(a, b)
}

func (e *Env) compareOp(test func(cmp int) bool) {
	right := e.pop()
	left := e.peek(0)
	var result bool
	switch {
	case left.Kind == value.Number && right.Kind == value.Number:
		switch {
		case left.Num < right.Num:
			result = test(-1)
		case left.Num > right.Num:
			result = test(1)
		case left.Num == right.Num:
			result = test(0)
		default: // either operand is NaN
			result = false
		}
	case left.Kind == value.String && right.Kind == value.String:
		ls, rs := e.stringOf(left), e.stringOf(right)
		switch {
		case ls < rs:
			result = test(-1)
		case ls > rs:
			result = test(1)
		default:
			result = test(0)
		}
	default:
		result = false
	}
	e.setTOS(value.Bln(result))
}

// ---------------------------------------------------------------------------
// Arithmetic (§4.1.1)
// ---------------------------------------------------------------------------

type arithOp uint8

const (
	arithAdd arithOp = iota
	arithSub
	arithMul
	arithDiv
	arithMod
	arithAnd
	arithOr
	arithXor
	arithShl
	arithShr
)

func int32Val(i int32) value.Val { return value.Num(float64(i)) }

// numVal wraps a computed float64 as a Number, normalizing any non-finite
// result (division by zero, overflow) to the nan sentinel rather than
// letting +Inf/-Inf/NaN leak into a Number cell: nan is the only non-finite
// value the language exposes, and it is the one for which equality always
// fails (§8 scenario #6), matching the original's number_* normalization.
func numVal(r float64) value.Val {
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return value.Nan()
	}
	return value.Num(r)
}

// binaryArith implements MUL/DIV/MOD/SUB: pop right, require both operands
// number, write the result over the left cell; nan otherwise.
func (e *Env) binaryArith(op arithOp) {
	right := e.pop()
	left := e.peek(0)
	if left.Kind != value.Number || right.Kind != value.Number {
		e.setTOS(value.Nan())
		return
	}
	var r float64
	switch op {
	case arithSub:
		r = left.Num - right.Num
	case arithMul:
		r = left.Num * right.Num
	case arithDiv:
		r = left.Num / right.Num
	case arithMod:
		r = math.Mod(left.Num, right.Num)
	}
	e.setTOS(numVal(r))
}

// binaryBitwise implements AAND/AOR/AXOR/LSHIFT/RSHIFT: both operands
// truncate toward zero and wrap to 32-bit two's complement first (§4.1.1).
func (e *Env) binaryBitwise(op arithOp) {
	right := e.pop()
	left := e.peek(0)
	a, b := value.ToInt32(left), value.ToInt32(right)
	var r int32
	switch op {
	case arithAnd:
		r = a & b
	case arithOr:
		r = a | b
	case arithXor:
		r = a ^ b
	case arithShl:
		r = a << (uint32(b) & 31)
	case arithShr:
		r = int32(uint32(a) >> (uint32(b) & 31))
	}
	e.setTOS(int32Val(r))
}

// binaryAdd implements ADD/+=: number addition, or string concatenation
// when the left operand is a string (§4.1.1). Concatenation requires both
// operands be strings; any other left/right combination that isn't
// number+number produces nan — this repo's reading of an otherwise
// unspecified corner of the add rule.
func (e *Env) binaryAdd() {
	right := e.pop()
	left := e.peek(0)
	e.setTOS(e.addVals(left, right))
}

func (e *Env) addVals(left, right value.Val) value.Val {
	switch {
	case left.Kind == value.Number && right.Kind == value.Number:
		return numVal(left.Num + right.Num)
	case left.Kind == value.String && right.Kind == value.String:
		v, err := e.allocString(e.stringOf(left) + e.stringOf(right))
		if err != nil {
			e.SetError(ErrNotEnoughMemory)
			return value.Nan()
		}
		return v
	default:
		return value.Nan()
	}
}

// ---------------------------------------------------------------------------
// Assignment (§4.1.3)
// ---------------------------------------------------------------------------

func (e *Env) doAssign() {
	val := e.pop()
	ref := e.pop()
	if ref.Kind != value.Reference || !e.scope.Set(ref.RefDepth, ref.RefSlot, ref.RefGen, val) {
		e.SetError(ErrInvalidLeftValue)
		return
	}
	e.push(val)
}

func (e *Env) doCompoundAssign(op arithOp) {
	val := e.pop()
	ref := e.pop()
	if ref.Kind != value.Reference {
		e.SetError(ErrInvalidLeftValue)
		return
	}
	cur, ok := e.scope.Get(ref.RefDepth, ref.RefSlot, ref.RefGen)
	if !ok {
		e.SetError(ErrInvalidLeftValue)
		return
	}
	result, err := e.applyCompound(op, cur, val)
	if err != ErrNone {
		e.SetError(err)
		return
	}
	e.scope.Set(ref.RefDepth, ref.RefSlot, ref.RefGen, result)
	e.push(result)
}

// applyCompound computes cur OP val for a compound assignment. Non-add
// operators require cur to already be a number (ERR_InvalidLeftValue
// otherwise); add additionally accepts a string cur with string concat.
// A non-number val with a numeric cur coerces through the same rules as
// the matching plain binary opcode.
func (e *Env) applyCompound(op arithOp, cur, val value.Val) (value.Val, ErrCode) {
	if op == arithAdd {
		if cur.Kind != value.Number && cur.Kind != value.String {
			return value.Val{}, ErrInvalidLeftValue
		}
		return e.addVals(cur, val), ErrNone
	}
	if cur.Kind != value.Number {
		return value.Val{}, ErrInvalidLeftValue
	}
	switch op {
	case arithAnd, arithOr, arithXor, arithShl, arithShr:
		e.push(cur) // binaryBitwise reads TOS via peek; stage operands
		e.push(val)
		e.binaryBitwise(op)
		return e.pop(), ErrNone
	default:
		e.push(cur)
		e.push(val)
		e.binaryArith(op)
		return e.pop(), ErrNone
	}
}

// ---------------------------------------------------------------------------
// Property & element access (§4.1.4)
// ---------------------------------------------------------------------------

func (e *Env) propGet(obj value.Val, key string) value.Val {
	switch obj.Kind {
	case value.Dict:
		if v, ok := e.dictGet(obj, key); ok {
			return v
		}
		return value.Und()
	case value.Array:
		if key == "length" {
			return value.Num(float64(e.arrayLen(obj)))
		}
		return value.Und()
	case value.String:
		if key == "length" {
			return value.Num(float64(len(e.stringOf(obj))))
		}
		return value.Und()
	default:
		return value.Und()
	}
}

func (e *Env) coerceKey(key value.Val) string {
	if key.Kind == value.String {
		return e.stringOf(key)
	}
	if key.Kind == value.Number {
		return strconv.FormatFloat(key.Num, 'g', -1, 64)
	}
	return ""
}

func (e *Env) elemGet(obj, key value.Val) value.Val {
	switch obj.Kind {
	case value.Array:
		return e.arrayGet(obj, int(value.ToInt32(key)))
	case value.Dict:
		if v, ok := e.dictGet(obj, e.coerceKey(key)); ok {
			return v
		}
		return value.Und()
	default:
		return value.Und()
	}
}

func (e *Env) writeProp(obj value.Val, key string, val value.Val) error {
	if obj.Kind != value.Dict {
		return nil
	}
	_, err := e.dictSet(obj, key, val)
	return err
}

func (e *Env) writeElem(obj, key, val value.Val) error {
	switch obj.Kind {
	case value.Array:
		return e.arraySet(obj, int(value.ToInt32(key)), val)
	case value.Dict:
		_, err := e.dictSet(obj, e.coerceKey(key), val)
		return err
	default:
		return nil
	}
}

func (e *Env) doPropAssign(compound *arithOp) {
	val := e.pop()
	key := e.pop()
	obj := e.peek(0)
	keyStr := e.stringOf(key)

	out := val
	if compound != nil {
		cur := e.propGet(obj, keyStr)
		result, errc := e.applyCompound(*compound, cur, val)
		if errc != ErrNone {
			e.SetError(errc)
			return
		}
		out = result
	}
	if err := e.writeProp(obj, keyStr, out); err != nil {
		e.SetError(ErrNotEnoughMemory)
		return
	}
	e.pop() // drop obj
	e.push(out)
}

func (e *Env) doElemAssign(compound *arithOp) {
	val := e.pop()
	key := e.pop()
	obj := e.peek(0)

	out := val
	if compound != nil {
		cur := e.elemGet(obj, key)
		result, errc := e.applyCompound(*compound, cur, val)
		if errc != ErrNone {
			e.SetError(errc)
			return
		}
		out = result
	}
	if err := e.writeElem(obj, key, out); err != nil {
		e.SetError(ErrNotEnoughMemory)
		return
	}
	e.pop() // drop obj
	e.push(out)
}

// ---------------------------------------------------------------------------
// Function call (§4.1.5)
// ---------------------------------------------------------------------------

func (e *Env) doCall(argc int) {
	callee := e.peek(argc)
	switch callee.Kind {
	case value.Script:
		funcIdx, scopeID := e.scriptInfo(callee)
		if int(funcIdx) >= len(e.exec.Functions) {
			e.SetError(ErrSysError)
			return
		}
		parent, _ := e.heap.Scope(scopeID).(*Scope)
		proto := &e.exec.Functions[funcIdx]
		e.frameSetup(proto, argc, parent, e.code, e.pc)
	case value.Native:
		if int(callee.NativeIdx) >= len(e.exec.Natives) {
			e.SetError(ErrSysError)
			return
		}
		fn := e.exec.Natives[callee.NativeIdx]
		argv := append([]value.Val(nil), e.stack[e.sp-argc:e.sp]...)
		result, err := fn(e, argv)
		if err != nil {
			e.SetError(ErrSysError)
			return
		}
		e.release(argc)
		e.setTOS(result)
	default:
		e.SetError(ErrInvalidCallor)
	}
}
