// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value_test

import (
	"testing"

	"github.com/probechain/go-probe/lang/value"
)

func TestIdentEqualsNaNAndUndefinedNeverEqual(t *testing.T) {
	cases := []value.Val{value.Nan(), value.Und()}
	for _, v := range cases {
		if value.IdentEquals(v, v) {
			t.Errorf("%s should never equal itself", v.Kind)
		}
		if value.IdentEquals(v, value.Num(0)) {
			t.Errorf("%s should never equal another kind", v.Kind)
		}
	}
}

func TestIdentEqualsNumbers(t *testing.T) {
	if !value.IdentEquals(value.Num(1), value.Num(1)) {
		t.Error("1 == 1 should be true")
	}
	if value.IdentEquals(value.Num(1), value.Num(2)) {
		t.Error("1 == 2 should be false")
	}
}

func TestIdentEqualsHandles(t *testing.T) {
	a := value.Arr(5)
	b := value.Arr(5)
	c := value.Arr(6)
	if !value.IdentEquals(a, b) {
		t.Error("equal handles of the same kind should compare equal")
	}
	if value.IdentEquals(a, c) {
		t.Error("distinct handles should compare unequal")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    value.Val
		want bool
	}{
		{value.Und(), false},
		{value.Nan(), false},
		{value.Num(0), false},
		{value.Num(1), true},
		{value.Num(-1), true},
		{value.Bln(false), false},
		{value.Bln(true), true},
		{value.Str(0), true},
		{value.Arr(0), true},
	}
	for _, c := range cases {
		if got := value.Truthy(c.v); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestToInt32Truncation(t *testing.T) {
	cases := []struct {
		n    float64
		want int32
	}{
		{3.9, 3},
		{-3.9, -3},
		{0, 0},
		{4294967296, 0},   // 2^32 wraps to 0
		{4294967297, 1},   // 2^32 + 1 wraps to 1
		{-1, -1},
	}
	for _, c := range cases {
		if got := value.ToInt32(value.Num(c.n)); got != c.want {
			t.Errorf("ToInt32(%v) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestToInt32NonNumberIsZero(t *testing.T) {
	if got := value.ToInt32(value.Bln(true)); got != 0 {
		t.Errorf("ToInt32(bool) = %d, want 0", got)
	}
}
