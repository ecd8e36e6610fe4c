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

import "github.com/probechain/go-probe/lang/vm"

// emitter accumulates one function's (or the top level's) bytecode. Jumps
// are always emitted in their long (16-bit offset) form; this compiler does
// not do the short-jump peephole pass a more mature toolchain would (see
// DESIGN.md).
type emitter struct {
	code []byte
}

func (e *emitter) op(op vm.Opcode) { e.code = append(e.code, byte(op)) }

func (e *emitter) u8(v uint8) { e.code = append(e.code, v) }

func (e *emitter) u16(v uint16) { e.code = append(e.code, byte(v>>8), byte(v)) }

func (e *emitter) opU16(op vm.Opcode, v uint16) {
	e.op(op)
	e.u16(v)
}

func (e *emitter) opVar(op vm.Opcode, depth, slot uint8) {
	e.op(op)
	e.u8(depth)
	e.u8(slot)
}

// pos returns the offset the next emitted byte will land at.
func (e *emitter) pos() int { return len(e.code) }

// jump emits a long-form jump opcode with a placeholder operand and returns
// the position of the opcode byte, to be resolved by patch once the target
// address is known.
func (e *emitter) jump(op vm.Opcode) int {
	at := e.pos()
	e.op(op)
	e.u16(0)
	return at
}

// patch resolves a jump emitted by jump to target, relative to the byte
// immediately following the jump's operand (§4.1 jump semantics).
func (e *emitter) patch(at int, target int) {
	base := at + 3 // 1 opcode byte + 2 operand bytes
	off := int16(target - base)
	e.code[at+1] = byte(uint16(off) >> 8)
	e.code[at+2] = byte(uint16(off))
}

// here returns the position patch should target for "jump to right here".
func (e *emitter) here() int { return e.pos() }
