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

package u256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

func newEnv(t *testing.T) *vm.Env {
	t.Helper()
	exec := vm.NewExecutable()
	Register(exec)
	return vm.InitImage(1<<16, 256, exec)
}

func call(t *testing.T, env *vm.Env, name string, args ...value.Val) value.Val {
	t.Helper()
	exec := env.Executable()
	idx, ok := exec.NativeNames[name]
	require.True(t, ok, "native %q not registered", name)
	env.Push(value.Nat(idx))
	for _, a := range args {
		env.Push(a)
	}
	v, _, errc := env.ExecuteCall(len(args))
	require.Equal(t, vm.ErrNone, errc)
	return v
}

func TestAddSubRoundTrip(t *testing.T) {
	env := newEnv(t)
	a := call(t, env, "u256_from_number", value.Num(100))
	b := call(t, env, "u256_from_number", value.Num(42))

	sum := call(t, env, "u256_add", a, b)
	assert.Equal(t, "142", env.StringOf(call(t, env, "u256_to_string", sum)))

	diff := call(t, env, "u256_sub", sum, b)
	assert.Equal(t, "100", env.StringOf(call(t, env, "u256_to_string", diff)))
}

func TestMulDivMod(t *testing.T) {
	env := newEnv(t)
	a := call(t, env, "u256_from_number", value.Num(7))
	b := call(t, env, "u256_from_number", value.Num(6))

	prod := call(t, env, "u256_mul", a, b)
	assert.Equal(t, "42", env.StringOf(call(t, env, "u256_to_string", prod)))

	q := call(t, env, "u256_div", prod, b)
	assert.Equal(t, "7", env.StringOf(call(t, env, "u256_to_string", q)))

	r := call(t, env, "u256_mod", prod, a)
	assert.Equal(t, "0", env.StringOf(call(t, env, "u256_to_string", r)))
}

func TestCmp(t *testing.T) {
	env := newEnv(t)
	a := call(t, env, "u256_from_number", value.Num(10))
	b := call(t, env, "u256_from_number", value.Num(20))

	assert.Equal(t, -1.0, call(t, env, "u256_cmp", a, b).Num)
	assert.Equal(t, 1.0, call(t, env, "u256_cmp", b, a).Num)
	assert.Equal(t, 0.0, call(t, env, "u256_cmp", a, a).Num)
}

func TestDivByZeroIsZero(t *testing.T) {
	env := newEnv(t)
	a := call(t, env, "u256_from_number", value.Num(10))
	zero := call(t, env, "u256_from_number", value.Num(0))

	q := call(t, env, "u256_div", a, zero)
	assert.Equal(t, "0", env.StringOf(call(t, env, "u256_to_string", q)))
}
