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

import (
	"testing"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

func runSource(t *testing.T, src string) (value.Val, vm.Status) {
	t.Helper()
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInterpreter(1<<16, 256, exec, c)
	v, status, errc := env.ExecuteString(src)
	if errc != vm.ErrNone {
		t.Fatalf("ExecuteString(%q) failed: %s", src, errc)
	}
	return v, status
}

func TestArithmeticPrecedence(t *testing.T) {
	v, status := runSource(t, "1+2*3;")
	if status != vm.StatusValue {
		t.Fatalf("expected a value result, got status %v", status)
	}
	if !v.IsNumber() || v.Num != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestStringCompoundAssign(t *testing.T) {
	v, _ := runSource(t, `var s = "foo"; s += "bar"; s;`)
	if !v.IsString() {
		t.Fatalf("expected a string result, got %v", v)
	}
}

func TestArrayElementCompoundAssign(t *testing.T) {
	v, _ := runSource(t, "var a = [1, 2, 3]; a[1] += 5; a[1];")
	if !v.IsNumber() || v.Num != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestIfElseBranching(t *testing.T) {
	v, _ := runSource(t, "var x = 10; if (x > 5) { x = 1; } else { x = 2; } x;")
	if !v.IsNumber() || v.Num != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
	v, _ = runSource(t, "var x = 1; if (x > 5) { x = 1; } else { x = 2; } x;")
	if !v.IsNumber() || v.Num != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	v, _ := runSource(t, "var i = 0; var sum = 0; while (i < 5) { sum += i; i += 1; } sum;")
	if !v.IsNumber() || v.Num != 10 {
		t.Fatalf("expected 10, got %v", v)
	}
}

func TestFunctionCallAndReturn(t *testing.T) {
	v, _ := runSource(t, "function add(a, b) { return a + b; } add(3, 4);")
	if !v.IsNumber() || v.Num != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestRecursiveFunctionLiteral(t *testing.T) {
	v, _ := runSource(t, `
		function fact(n) {
			if (n < 2) { return 1; }
			return n * fact(n - 1);
		}
		fact(5);
	`)
	if !v.IsNumber() || v.Num != 120 {
		t.Fatalf("expected 120, got %v", v)
	}
}

func TestDuplicateParameterNameRejected(t *testing.T) {
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInterpreter(1<<16, 256, exec, c)
	if _, _, errc := env.ExecuteString("function f(a, a) { return a; }"); errc == vm.ErrNone {
		t.Fatalf("expected a compile error for duplicate parameter names")
	}
}

func TestDuplicateDictKeyRejected(t *testing.T) {
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInterpreter(1<<16, 256, exec, c)
	if _, _, errc := env.ExecuteString(`var d = {a: 1, a: 2};`); errc == vm.ErrNone {
		t.Fatalf("expected a compile error for duplicate dictionary keys")
	}
}

func TestUndefinedIdentifierRejected(t *testing.T) {
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInterpreter(1<<16, 256, exec, c)
	if _, _, errc := env.ExecuteString("y;"); errc == vm.ErrNone {
		t.Fatalf("expected a compile error for an undefined identifier")
	}
}

func TestConstantPoolDeduplicatesAcrossLines(t *testing.T) {
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInteractive(1<<16, 256, exec, c)

	if _, _, errc := env.ExecuteInteractive(`var x = 42;`, nil); errc != vm.ErrNone {
		t.Fatalf("first line failed: %s", errc)
	}
	if _, _, errc := env.ExecuteInteractive(`var y = 42;`, nil); errc != vm.ErrNone {
		t.Fatalf("second line failed: %s", errc)
	}
	if len(exec.Numbers) != 1 {
		t.Fatalf("expected the 42 constant to be shared, got %d entries", len(exec.Numbers))
	}
}

func TestInteractiveMoreFnContinuesIncompleteInput(t *testing.T) {
	exec := vm.NewExecutable()
	c := New(exec)
	env := vm.InitInteractive(1<<16, 256, exec, c)

	calls := 0
	more := func() (string, bool) {
		calls++
		if calls > 1 {
			return "", false
		}
		return "1; }", true
	}
	v, _, errc := env.ExecuteInteractive("var x = 0; if (true) { x = ", more)
	if errc != vm.ErrNone {
		t.Fatalf("expected the continuation to complete the statement, got %s", errc)
	}
	_ = v
	if calls != 1 {
		t.Fatalf("expected moreFn to be called exactly once, got %d", calls)
	}
}
