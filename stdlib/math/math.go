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

// Package math registers numeric and array natives into the PROBE standard
// library. Array operations follow the J/APL-style iota/map/zip/reduce
// shape the teacher's original standalone U64Array explored, rewired here
// against value.Val arrays the VM actually allocates rather than a
// standalone uint64 slice type nothing in the VM could call.
package math

import (
	stdmath "math"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

// Register wires every native this package provides into exec, under the
// names PROBE source refers to them by.
func Register(exec *vm.Executable) {
	exec.RegisterNative("abs", nativeAbs)
	exec.RegisterNative("floor", nativeFloor)
	exec.RegisterNative("ceil", nativeCeil)
	exec.RegisterNative("sqrt", nativeSqrt)
	exec.RegisterNative("pow", nativePow)
	exec.RegisterNative("min", nativeMin)
	exec.RegisterNative("max", nativeMax)

	exec.RegisterNative("iota", nativeIota)
	exec.RegisterNative("sum", nativeSum)
	exec.RegisterNative("dot", nativeDot)
	exec.RegisterNative("map", nativeMap)
	exec.RegisterNative("filter", nativeFilter)
	exec.RegisterNative("reduce", nativeReduce)
}

// arg returns argv[i], or undefined if the caller passed too few arguments
// — PROBE natives treat a missing argument as undefined the same way a
// missing parameter on a script call leaves its slot undefined (§4.1.5).
func arg(argv []value.Val, i int) value.Val {
	if i >= len(argv) {
		return value.Und()
	}
	return argv[i]
}

// num converts a single argument to its float64 view, or NaN if it is not
// a number. Per §7, a type mismatch here is never an error, only nan —
// natives follow the same branch-light philosophy the interpreter's own
// arithmetic opcodes do.
func num(v value.Val) float64 {
	if !v.IsNumber() {
		return stdmath.NaN()
	}
	return v.Num
}

func nativeAbs(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Abs(num(arg(argv, 0)))), nil
}

func nativeFloor(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Floor(num(arg(argv, 0)))), nil
}

func nativeCeil(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Ceil(num(arg(argv, 0)))), nil
}

func nativeSqrt(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Sqrt(num(arg(argv, 0)))), nil
}

func nativePow(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Pow(num(arg(argv, 0)), num(arg(argv, 1)))), nil
}

func nativeMin(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Min(num(arg(argv, 0)), num(arg(argv, 1)))), nil
}

func nativeMax(_ *vm.Env, argv []value.Val) (value.Val, error) {
	return value.Num(stdmath.Max(num(arg(argv, 0)), num(arg(argv, 1)))), nil
}

// nativeIota builds [0, 1, ..., n-1] (J-style iota), the generator every
// other array native in this package composes with.
func nativeIota(env *vm.Env, argv []value.Val) (value.Val, error) {
	n := int(num(arg(argv, 0)))
	if n < 0 {
		n = 0
	}
	elems := make([]value.Val, n)
	for i := range elems {
		elems[i] = value.Num(float64(i))
	}
	return env.AllocArray(elems)
}

func nativeSum(env *vm.Env, argv []value.Val) (value.Val, error) {
	a := arg(argv, 0)
	if !a.IsArray() {
		return value.Nan(), nil
	}
	var s float64
	n := env.ArrayLen(a)
	for i := 0; i < n; i++ {
		s += num(env.ArrayGet(a, i))
	}
	return value.Num(s), nil
}

// nativeDot computes a (dyadic) dot product over two equal-length arrays.
func nativeDot(env *vm.Env, argv []value.Val) (value.Val, error) {
	a, b := arg(argv, 0), arg(argv, 1)
	if !a.IsArray() || !b.IsArray() {
		return value.Nan(), nil
	}
	n := env.ArrayLen(a)
	if m := env.ArrayLen(b); m < n {
		n = m
	}
	var s float64
	for i := 0; i < n; i++ {
		s += num(env.ArrayGet(a, i)) * num(env.ArrayGet(b, i))
	}
	return value.Num(s), nil
}

// callback invokes fn(x) via the VM's own call mechanism, exactly the way
// FUNC_CALL would: stage the callee then the argument, then let ExecuteCall
// run it to completion.
func callback(env *vm.Env, fn value.Val, x value.Val) (value.Val, error) {
	env.Push(fn)
	env.Push(x)
	result, _, errc := env.ExecuteCall(1)
	if errc != vm.ErrNone {
		return value.Val{}, errc
	}
	return result, nil
}

// nativeMap applies fn to every element of arr (monadic map), building a
// fresh array of the results.
func nativeMap(env *vm.Env, argv []value.Val) (value.Val, error) {
	arr, fn := arg(argv, 0), arg(argv, 1)
	if !arr.IsArray() {
		return value.Nan(), nil
	}
	n := env.ArrayLen(arr)
	out := make([]value.Val, n)
	for i := 0; i < n; i++ {
		v, err := callback(env, fn, env.ArrayGet(arr, i))
		if err != nil {
			return value.Val{}, err
		}
		out[i] = v
	}
	return env.AllocArray(out)
}

// nativeFilter keeps the elements of arr for which fn(x) is truthy.
func nativeFilter(env *vm.Env, argv []value.Val) (value.Val, error) {
	arr, fn := arg(argv, 0), arg(argv, 1)
	if !arr.IsArray() {
		return value.Nan(), nil
	}
	n := env.ArrayLen(arr)
	var out []value.Val
	for i := 0; i < n; i++ {
		elem := env.ArrayGet(arr, i)
		keep, err := callback(env, fn, elem)
		if err != nil {
			return value.Val{}, err
		}
		if env.Truthy(keep) {
			out = append(out, elem)
		}
	}
	return env.AllocArray(out)
}

// nativeReduce folds arr left-to-right with fn(acc, x), starting from init.
func nativeReduce(env *vm.Env, argv []value.Val) (value.Val, error) {
	arr, fn, acc := arg(argv, 0), arg(argv, 1), arg(argv, 2)
	if !arr.IsArray() {
		return value.Nan(), nil
	}
	n := env.ArrayLen(arr)
	for i := 0; i < n; i++ {
		env.Push(fn)
		env.Push(acc)
		env.Push(env.ArrayGet(arr, i))
		result, _, errc := env.ExecuteCall(2)
		if errc != vm.ErrNone {
			return value.Val{}, errc
		}
		acc = result
	}
	return acc, nil
}
