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
	"fmt"
)

// Instruction is one decoded row of a disassembly listing: byte offset,
// mnemonic, and a human-readable rendering of its operand (empty for
// operandNone opcodes).
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand string
}

// Disassemble decodes code into a flat instruction listing, stopping at the
// first OpStop or at a truncated/unknown trailing opcode (its Operand is
// left empty in that case, same as a zero-operand instruction, since there
// is nothing left to decode).
func Disassemble(code []byte) []Instruction {
	var out []Instruction
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		offset := pc
		pc++

		var operand string
		if int(op) < len(opcodeTable) {
			switch opcodeTable[op].operand {
			case operandS8:
				if pc < len(code) {
					operand = fmt.Sprintf("%d", int(int8(code[pc])))
					pc++
				}
			case operandS16:
				if pc+2 <= len(code) {
					operand = fmt.Sprintf("%d", int(int16(binary.BigEndian.Uint16(code[pc:pc+2]))))
					pc += 2
				}
			case operandU16:
				if pc+2 <= len(code) {
					operand = fmt.Sprintf("#%d", binary.BigEndian.Uint16(code[pc:pc+2]))
					pc += 2
				}
			case operandVar:
				if pc+2 <= len(code) {
					operand = fmt.Sprintf("(%d,%d)", code[pc], code[pc+1])
					pc += 2
				}
			case operandArgc:
				if pc < len(code) {
					operand = fmt.Sprintf("argc=%d", code[pc])
					pc++
				}
			case operandArity:
				if pc+2 <= len(code) {
					operand = fmt.Sprintf("n=%d", binary.BigEndian.Uint16(code[pc:pc+2]))
					pc += 2
				}
			}
		}

		out = append(out, Instruction{Offset: offset, Op: op, Operand: operand})
		if op == OpStop || (operand == "" && op.operandSize() > 0) {
			break
		}
	}
	return out
}
