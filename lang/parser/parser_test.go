// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser_test

import (
	"testing"

	"github.com/probechain/go-probe/lang/ast"
	"github.com/probechain/go-probe/lang/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := parser.Parse("test.probe", src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return prog
}

func TestVarStmt(t *testing.T) {
	prog := mustParse(t, `var x = 1 + 2;`)
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.VarStmt", prog.Statements[0])
	}
	if stmt.Name.Value != "x" {
		t.Errorf("name = %q, want x", stmt.Name.Value)
	}
	infix, ok := stmt.Value.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("value is %T, want *ast.InfixExpr", stmt.Value)
	}
	if infix.String() != "(1 + 2)" {
		t.Errorf("value = %q, want (1 + 2)", infix.String())
	}
}

func TestAssignStmt(t *testing.T) {
	prog := mustParse(t, `x += 1;`)
	stmt, ok := prog.Statements[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.AssignStmt", prog.Statements[0])
	}
	if _, ok := stmt.Target.(*ast.Ident); !ok {
		t.Errorf("target is %T, want *ast.Ident", stmt.Target)
	}
}

func TestFieldAssign(t *testing.T) {
	prog := mustParse(t, `obj.count = 0;`)
	stmt, ok := prog.Statements[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.AssignStmt", prog.Statements[0])
	}
	if _, ok := stmt.Target.(*ast.FieldExpr); !ok {
		t.Errorf("target is %T, want *ast.FieldExpr", stmt.Target)
	}
}

func TestIndexAssign(t *testing.T) {
	prog := mustParse(t, `arr[0] = 9;`)
	stmt, ok := prog.Statements[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.AssignStmt", prog.Statements[0])
	}
	if _, ok := stmt.Target.(*ast.IndexExpr); !ok {
		t.Errorf("target is %T, want *ast.IndexExpr", stmt.Target)
	}
}

func TestIfElse(t *testing.T) {
	prog := mustParse(t, `if (x < 1) { return 1; } else { return 2; }`)
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.IfStmt", prog.Statements[0])
	}
	if stmt.Alternative == nil {
		t.Fatal("expected an else branch")
	}
}

func TestElseIf(t *testing.T) {
	prog := mustParse(t, `if (x < 1) { } else if (x < 2) { } else { }`)
	stmt := prog.Statements[0].(*ast.IfStmt)
	elseIf, ok := stmt.Alternative.(*ast.IfStmt)
	if !ok {
		t.Fatalf("alternative is %T, want *ast.IfStmt", stmt.Alternative)
	}
	if elseIf.Alternative == nil {
		t.Fatal("expected the else-if to itself have an else branch")
	}
}

func TestWhile(t *testing.T) {
	prog := mustParse(t, `while (i < 10) { i += 1; }`)
	stmt, ok := prog.Statements[0].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.WhileStmt", prog.Statements[0])
	}
	if len(stmt.Body.Statements) != 1 {
		t.Fatalf("body has %d statements, want 1", len(stmt.Body.Statements))
	}
}

func TestOperatorPrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3))"},
		{"1 * 2 + 3;", "((1 * 2) + 3)"},
		{"a & b | c;", "((a & b) | c)"},
		{"a | b ^ c & d;", "(a | (b ^ (c & d)))"},
		{"1 << 2 + 3;", "(1 << (2 + 3))"},
		{"-a * b;", "((-a) * b)"},
		{"!a == b;", "((!a) == b)"},
		{"a.b.c;", "((a.b).c)"},
		{"a[0][1];", "((a[0])[1])"},
		{"a.b(1, 2);", "(a.b)(1, 2)"},
	}
	for _, c := range cases {
		prog := mustParse(t, c.src)
		stmt, ok := prog.Statements[0].(*ast.ExprStmt)
		if !ok {
			t.Fatalf("%q: statement is %T, want *ast.ExprStmt", c.src, prog.Statements[0])
		}
		if got := stmt.Expression.String(); got != c.want {
			t.Errorf("%q: got %q, want %q", c.src, got, c.want)
		}
	}
}

func TestArrayAndDictLiterals(t *testing.T) {
	prog := mustParse(t, `var a = [1, 2, 3];`)
	stmt := prog.Statements[0].(*ast.VarStmt)
	arr, ok := stmt.Value.(*ast.ArrayLit)
	if !ok {
		t.Fatalf("value is %T, want *ast.ArrayLit", stmt.Value)
	}
	if len(arr.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(arr.Elements))
	}

	prog = mustParse(t, `var d = { x: 1, y: 2 };`)
	stmt = prog.Statements[0].(*ast.VarStmt)
	dict, ok := stmt.Value.(*ast.DictLit)
	if !ok {
		t.Fatalf("value is %T, want *ast.DictLit", stmt.Value)
	}
	if len(dict.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(dict.Entries))
	}
}

func TestFunctionLiteral(t *testing.T) {
	prog := mustParse(t, `var f = function(a, b) { return a + b; };`)
	stmt := prog.Statements[0].(*ast.VarStmt)
	fn, ok := stmt.Value.(*ast.FunctionLit)
	if !ok {
		t.Fatalf("value is %T, want *ast.FunctionLit", stmt.Value)
	}
	if len(fn.Parameters) != 2 {
		t.Errorf("got %d params, want 2", len(fn.Parameters))
	}
	if len(fn.Body.Statements) != 1 {
		t.Errorf("got %d body statements, want 1", len(fn.Body.Statements))
	}
}

func TestCallExpr(t *testing.T) {
	prog := mustParse(t, `add(1, 2);`)
	stmt := prog.Statements[0].(*ast.ExprStmt)
	call, ok := stmt.Expression.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expression is %T, want *ast.CallExpr", stmt.Expression)
	}
	if len(call.Arguments) != 2 {
		t.Errorf("got %d args, want 2", len(call.Arguments))
	}
}

func TestUndefinedAndNaNLiterals(t *testing.T) {
	prog := mustParse(t, `var a = undefined; var b = NaN;`)
	if _, ok := prog.Statements[0].(*ast.VarStmt).Value.(*ast.UndefinedLit); !ok {
		t.Error("expected UndefinedLit")
	}
	if _, ok := prog.Statements[1].(*ast.VarStmt).Value.(*ast.NaNLit); !ok {
		t.Error("expected NaNLit")
	}
}

func TestParseErrorRecovery(t *testing.T) {
	_, errs := parser.Parse("test.probe", `var = 1; var y = 2;`)
	if len(errs) == 0 {
		t.Fatal("expected at least one parse error")
	}
}
