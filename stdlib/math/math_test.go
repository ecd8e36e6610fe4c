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

package math

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

func TestScalarNatives(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, 3.0, call(t, env, "abs", value.Num(-3)).Num)
	assert.Equal(t, 2.0, call(t, env, "floor", value.Num(2.9)).Num)
	assert.Equal(t, 3.0, call(t, env, "ceil", value.Num(2.1)).Num)
	assert.Equal(t, 3.0, call(t, env, "sqrt", value.Num(9)).Num)
	assert.Equal(t, 8.0, call(t, env, "pow", value.Num(2), value.Num(3)).Num)
	assert.Equal(t, 1.0, call(t, env, "min", value.Num(1), value.Num(5)).Num)
	assert.Equal(t, 5.0, call(t, env, "max", value.Num(1), value.Num(5)).Num)
}

func TestIotaAndSum(t *testing.T) {
	env := newEnv(t)
	arr := call(t, env, "iota", value.Num(5))
	require.True(t, arr.IsArray())
	assert.Equal(t, 5, env.ArrayLen(arr))
	assert.Equal(t, 0.0, env.ArrayGet(arr, 0).Num)
	assert.Equal(t, 4.0, env.ArrayGet(arr, 4).Num)

	sum := call(t, env, "sum", arr)
	assert.Equal(t, 10.0, sum.Num)
}

func TestDot(t *testing.T) {
	env := newEnv(t)
	a, err := env.AllocArray([]value.Val{value.Num(1), value.Num(2), value.Num(3)})
	require.NoError(t, err)
	b, err := env.AllocArray([]value.Val{value.Num(4), value.Num(5), value.Num(6)})
	require.NoError(t, err)

	got := call(t, env, "dot", a, b)
	assert.Equal(t, 32.0, got.Num) // 1*4 + 2*5 + 3*6
}
