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

import "testing"

func TestDisassembleDecodesOperandsAndStopsAtStop(t *testing.T) {
	code := program(
		u16op(OpPushNum, 3),
		[]byte{byte(OpPushVar), 1, 2},
		[]byte{byte(OpFuncCall), 4},
	)

	ins := Disassemble(code)
	if len(ins) != 4 { // PUSH_NUM, PUSH_VAR, FUNC_CALL, STOP
		t.Fatalf("got %d instructions, want 4", len(ins))
	}

	if ins[0].Op != OpPushNum || ins[0].Operand != "#3" {
		t.Errorf("ins[0] = %+v, want PUSH_NUM #3", ins[0])
	}
	if ins[1].Op != OpPushVar || ins[1].Operand != "(1,2)" {
		t.Errorf("ins[1] = %+v, want PUSH_VAR (1,2)", ins[1])
	}
	if ins[2].Op != OpFuncCall || ins[2].Operand != "argc=4" {
		t.Errorf("ins[2] = %+v, want FUNC_CALL argc=4", ins[2])
	}
	if ins[3].Op != OpStop {
		t.Errorf("ins[3].Op = %v, want OpStop", ins[3].Op)
	}

	offsets := []int{ins[0].Offset, ins[1].Offset, ins[2].Offset, ins[3].Offset}
	if offsets[0] != 0 || offsets[1] != 3 || offsets[2] != 6 || offsets[3] != 8 {
		t.Errorf("offsets = %v, want [0 3 6 8]", offsets)
	}
}
