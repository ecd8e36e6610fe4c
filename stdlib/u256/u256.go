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

// Package u256 registers fixed-width 256-bit integer natives: arithmetic
// beyond what a float64 Number cell can represent exactly, the precision a
// scripting language embedded in a blockchain client needs for balances and
// wide hashes. A u256 value is represented in PROBE source as a 32-byte
// big-endian String — the VM has no native kind for it — and every native
// in this package decodes/encodes that representation at its boundary.
package u256

import (
	"github.com/holiman/uint256"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

// Register wires every native this package provides into exec.
func Register(exec *vm.Executable) {
	exec.RegisterNative("u256_from_number", nativeFromNumber)
	exec.RegisterNative("u256_to_string", nativeToString)
	exec.RegisterNative("u256_add", nativeAdd)
	exec.RegisterNative("u256_sub", nativeSub)
	exec.RegisterNative("u256_mul", nativeMul)
	exec.RegisterNative("u256_div", nativeDiv)
	exec.RegisterNative("u256_mod", nativeMod)
	exec.RegisterNative("u256_cmp", nativeCmp)
}

// decode reads argv[i] as a 32-byte big-endian string into an *Int, or the
// zero value if the argument is missing or the wrong shape — mirroring the
// VM's "type mismatch is never an error" rule (§7) rather than failing the
// whole native call over one bad operand.
func decode(env *vm.Env, argv []value.Val, i int) *uint256.Int {
	n := new(uint256.Int)
	if i >= len(argv) || !argv[i].IsString() {
		return n
	}
	s := env.StringOf(argv[i])
	n.SetBytes([]byte(s))
	return n
}

func encode(env *vm.Env, n *uint256.Int) (value.Val, error) {
	b := n.Bytes32()
	return env.AllocString(string(b[:]))
}

func nativeFromNumber(env *vm.Env, argv []value.Val) (value.Val, error) {
	var f float64
	if len(argv) > 0 && argv[0].IsNumber() {
		f = argv[0].Num
	}
	if f < 0 {
		f = 0
	}
	n := new(uint256.Int).SetUint64(uint64(f))
	return encode(env, n)
}

func nativeToString(env *vm.Env, argv []value.Val) (value.Val, error) {
	n := decode(env, argv, 0)
	return env.AllocString(n.Dec())
}

func nativeAdd(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return encode(env, new(uint256.Int).Add(a, b))
}

func nativeSub(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return encode(env, new(uint256.Int).Sub(a, b))
}

func nativeMul(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return encode(env, new(uint256.Int).Mul(a, b))
}

// nativeDiv returns zero for a division by zero, matching uint256.Div's own
// documented behavior rather than introducing a host-level error for it.
func nativeDiv(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return encode(env, new(uint256.Int).Div(a, b))
}

func nativeMod(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return encode(env, new(uint256.Int).Mod(a, b))
}

// nativeCmp returns -1, 0, or 1 the way the standard library's own Compare
// conventions do.
func nativeCmp(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := decode(env, argv, 0), decode(env, argv, 1)
	return value.Num(float64(a.Cmp(b))), nil
}
