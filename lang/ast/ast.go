// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the Abstract Syntax Tree for the PROBE scripting
// language.
//
// Design overview:
//
//   - All AST nodes implement the Node interface via TokenLiteral and String.
//   - Expression and Statement each have a marker interface that embeds Node
//     to enable type-safe dispatch.
//   - The tree is position-annotated via token.Token so compiler diagnostics
//     can reference source locations.
//   - The language is dynamically typed and expression-oriented: there are no
//     type-expr, struct, enum, trait, or agent nodes. Every value lives in the
//     tagged Val union the lang/value package defines; the AST only needs to
//     describe syntax, not static types.
package ast

import (
	"bytes"
	"strings"

	"github.com/probechain/go-probe/lang/token"
)

// ---------------------------------------------------------------------------
// Core interfaces
// ---------------------------------------------------------------------------

// Node is the base interface every AST node satisfies.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is a Node that appears at statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that yields a value.
type Expression interface {
	Node
	expressionNode()
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is the root node of every parsed source file.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var buf bytes.Buffer
	for _, s := range p.Statements {
		buf.WriteString(s.String())
		buf.WriteString("\n")
	}
	return buf.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// VarStmt declares a new scope-local variable: `var x = expr;`
type VarStmt struct {
	Token token.Token // the VAR token
	Name  *Ident
	Value Expression
}

func (s *VarStmt) statementNode()       {}
func (s *VarStmt) TokenLiteral() string { return s.Token.Literal }
func (s *VarStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString("var ")
	buf.WriteString(s.Name.String())
	if s.Value != nil {
		buf.WriteString(" = ")
		buf.WriteString(s.Value.String())
	}
	buf.WriteString(";")
	return buf.String()
}

// AssignStmt assigns to an existing lvalue: a variable, `.prop`, or `[elem]`.
// Op is token.ASSIGN for plain `=`, or one of the PLUSEQ/MINUSEQ/... family
// for a compound assignment.
type AssignStmt struct {
	Token  token.Token
	Target Expression // Ident, FieldExpr, or IndexExpr
	Op     token.Type
	Value  Expression
}

func (s *AssignStmt) statementNode()       {}
func (s *AssignStmt) TokenLiteral() string { return s.Token.Literal }
func (s *AssignStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString(s.Target.String())
	buf.WriteString(" ")
	buf.WriteString(s.Op.String())
	buf.WriteString(" ")
	buf.WriteString(s.Value.String())
	buf.WriteString(";")
	return buf.String()
}

// ReturnStmt is `return expr;` or a bare `return;` (returns undefined).
type ReturnStmt struct {
	Token       token.Token
	ReturnValue Expression
}

func (s *ReturnStmt) statementNode()       {}
func (s *ReturnStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString("return")
	if s.ReturnValue != nil {
		buf.WriteString(" ")
		buf.WriteString(s.ReturnValue.String())
	}
	buf.WriteString(";")
	return buf.String()
}

// ExprStmt wraps an expression evaluated for its side effect; its value is
// discarded (the compiler emits POP after it).
type ExprStmt struct {
	Token      token.Token
	Expression Expression
}

func (s *ExprStmt) statementNode()       {}
func (s *ExprStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ExprStmt) String() string {
	if s.Expression != nil {
		return s.Expression.String()
	}
	return ""
}

// BlockStmt is a brace-delimited sequence of statements introducing a new
// lexical scope.
type BlockStmt struct {
	Token      token.Token // the '{' token
	Statements []Statement
}

func (s *BlockStmt) statementNode()       {}
func (s *BlockStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BlockStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString("{ ")
	for _, st := range s.Statements {
		buf.WriteString(st.String())
		buf.WriteString(" ")
	}
	buf.WriteString("}")
	return buf.String()
}

// IfStmt is `if (cond) block [else block|ifstmt]`.
type IfStmt struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStmt
	Alternative Statement // *BlockStmt or *IfStmt (else-if chaining), or nil
}

func (s *IfStmt) statementNode()       {}
func (s *IfStmt) TokenLiteral() string { return s.Token.Literal }
func (s *IfStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString("if (")
	buf.WriteString(s.Condition.String())
	buf.WriteString(") ")
	buf.WriteString(s.Consequence.String())
	if s.Alternative != nil {
		buf.WriteString(" else ")
		buf.WriteString(s.Alternative.String())
	}
	return buf.String()
}

// WhileStmt is `while (cond) block`.
type WhileStmt struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStmt
}

func (s *WhileStmt) statementNode()       {}
func (s *WhileStmt) TokenLiteral() string { return s.Token.Literal }
func (s *WhileStmt) String() string {
	var buf bytes.Buffer
	buf.WriteString("while (")
	buf.WriteString(s.Condition.String())
	buf.WriteString(") ")
	buf.WriteString(s.Body.String())
	return buf.String()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Ident is a bare identifier reference.
type Ident struct {
	Token token.Token
	Value string
}

func (e *Ident) expressionNode()      {}
func (e *Ident) TokenLiteral() string { return e.Token.Literal }
func (e *Ident) String() string       { return e.Value }

// NumberLit is a numeric literal; the VM represents all numbers as float64.
type NumberLit struct {
	Token token.Token
	Value float64
}

func (e *NumberLit) expressionNode()      {}
func (e *NumberLit) TokenLiteral() string { return e.Token.Literal }
func (e *NumberLit) String() string       { return e.Token.Literal }

// StringLit is a string literal with escapes already decoded.
type StringLit struct {
	Token token.Token
	Value string
}

func (e *StringLit) expressionNode()      {}
func (e *StringLit) TokenLiteral() string { return e.Token.Literal }
func (e *StringLit) String() string       { return "\"" + e.Value + "\"" }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Token token.Token
	Value bool
}

func (e *BoolLit) expressionNode()      {}
func (e *BoolLit) TokenLiteral() string { return e.Token.Literal }
func (e *BoolLit) String() string       { return e.Token.Literal }

// UndefinedLit is the `undefined` literal.
type UndefinedLit struct {
	Token token.Token
}

func (e *UndefinedLit) expressionNode()      {}
func (e *UndefinedLit) TokenLiteral() string { return e.Token.Literal }
func (e *UndefinedLit) String() string       { return "undefined" }

// NaNLit is the `NaN` literal.
type NaNLit struct {
	Token token.Token
}

func (e *NaNLit) expressionNode()      {}
func (e *NaNLit) TokenLiteral() string { return e.Token.Literal }
func (e *NaNLit) String() string       { return "NaN" }

// ArrayLit is `[e1, e2, ...]`.
type ArrayLit struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (e *ArrayLit) expressionNode()      {}
func (e *ArrayLit) TokenLiteral() string { return e.Token.Literal }
func (e *ArrayLit) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictEntry is one `key: value` pair inside a DictLit.
type DictEntry struct {
	Key   Expression // Ident or StringLit
	Value Expression
}

// DictLit is `{ k1: v1, k2: v2, ... }`.
type DictLit struct {
	Token   token.Token // the '{' token
	Entries []DictEntry
}

func (e *DictLit) expressionNode()      {}
func (e *DictLit) TokenLiteral() string { return e.Token.Literal }
func (e *DictLit) String() string {
	parts := make([]string, len(e.Entries))
	for i, ent := range e.Entries {
		parts[i] = ent.Key.String() + ": " + ent.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionLit is `function (p1, p2) { ... }`; an anonymous or named closure
// compiled down to a `script` Val referencing a bytecode blob.
type FunctionLit struct {
	Token      token.Token // the FUNCTION token
	Name       string      // non-empty when declared via `function name(...)`
	Parameters []*Ident
	Body       *BlockStmt
}

func (e *FunctionLit) expressionNode()      {}
func (e *FunctionLit) TokenLiteral() string { return e.Token.Literal }
func (e *FunctionLit) String() string {
	params := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		params[i] = p.String()
	}
	var buf bytes.Buffer
	buf.WriteString("function ")
	buf.WriteString(e.Name)
	buf.WriteString("(")
	buf.WriteString(strings.Join(params, ", "))
	buf.WriteString(") ")
	buf.WriteString(e.Body.String())
	return buf.String()
}

// PrefixExpr is a unary operator application: `-x`, `!x`, `~x`.
type PrefixExpr struct {
	Token    token.Token
	Operator token.Type
	Right    Expression
}

func (e *PrefixExpr) expressionNode()      {}
func (e *PrefixExpr) TokenLiteral() string { return e.Token.Literal }
func (e *PrefixExpr) String() string {
	return "(" + e.Operator.String() + e.Right.String() + ")"
}

// InfixExpr is a binary operator application.
type InfixExpr struct {
	Token    token.Token
	Left     Expression
	Operator token.Type
	Right    Expression
}

func (e *InfixExpr) expressionNode()      {}
func (e *InfixExpr) TokenLiteral() string { return e.Token.Literal }
func (e *InfixExpr) String() string {
	return "(" + e.Left.String() + " " + e.Operator.String() + " " + e.Right.String() + ")"
}

// IndexExpr is `target[index]`: array/dictionary element access.
type IndexExpr struct {
	Token  token.Token // the '[' token
	Target Expression
	Index  Expression
}

func (e *IndexExpr) expressionNode()      {}
func (e *IndexExpr) TokenLiteral() string { return e.Token.Literal }
func (e *IndexExpr) String() string {
	return "(" + e.Target.String() + "[" + e.Index.String() + "])"
}

// FieldExpr is `target.name`: dictionary field access.
type FieldExpr struct {
	Token  token.Token // the '.' token
	Target Expression
	Name   *Ident
}

func (e *FieldExpr) expressionNode()      {}
func (e *FieldExpr) TokenLiteral() string { return e.Token.Literal }
func (e *FieldExpr) String() string {
	return "(" + e.Target.String() + "." + e.Name.Value + ")"
}

// CallExpr is `callee(arg1, arg2, ...)`. Callee may be an Ident/FieldExpr/
// IndexExpr/FunctionLit; the compiler compiles every Callee the same way
// (a FieldExpr/IndexExpr callee through plain PROP/ELEM) followed by
// FUNC_CALL. It never emits PROP_METH/ELEM_METH, so a method call has no
// bound receiver.
type CallExpr struct {
	Token     token.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (e *CallExpr) expressionNode()      {}
func (e *CallExpr) TokenLiteral() string { return e.Token.Literal }
func (e *CallExpr) String() string {
	args := make([]string, len(e.Arguments))
	for i, a := range e.Arguments {
		args[i] = a.String()
	}
	return e.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}
