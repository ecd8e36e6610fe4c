// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser implements a recursive-descent / Pratt parser for the PROBE
// scripting language.
//
// Design overview:
//
//   - Statements are parsed with straightforward recursive descent.
//   - Expressions are parsed with a Pratt (top-down operator precedence) table.
//   - Errors are collected rather than aborting; the parser attempts to
//     recover by skipping to the next semicolon or closing brace so that
//     subsequent statements can still be parsed.
//   - Comments produced by the lexer are silently skipped.
//   - There is no "&&" / "||" precedence level: the language has no
//     short-circuit boolean operators, only the bitwise AMP/PIPE/CARET family,
//     matching the opcode catalog the compiler must target.
package parser

import (
	"fmt"
	"strconv"

	"github.com/probechain/go-probe/lang/ast"
	"github.com/probechain/go-probe/lang/lexer"
	"github.com/probechain/go-probe/lang/token"
)

// ---------------------------------------------------------------------------
// Precedence levels (Pratt)
// ---------------------------------------------------------------------------

type precedence int

const (
	precLowest  precedence = iota // base
	precCmp                       // == != < > <= >=
	precBitOr                     // |
	precBitXor                    // ^
	precBitAnd                    // &
	precShift                     // << >>
	precAdd                       // + -
	precMul                       // * / %
	precPrefix                    // -x !x ~x
	precPostfix                   // . [] ()
)

// infixPrecedence maps a token type to its infix binding power.
var infixPrecedence = map[token.Type]precedence{
	token.EQ:       precCmp,
	token.NEQ:      precCmp,
	token.LT:       precCmp,
	token.GT:       precCmp,
	token.LTE:      precCmp,
	token.GTE:      precCmp,
	token.PIPE:     precBitOr,
	token.CARET:    precBitXor,
	token.AMP:      precBitAnd,
	token.LSHIFT:   precShift,
	token.RSHIFT:   precShift,
	token.PLUS:     precAdd,
	token.MINUS:    precAdd,
	token.STAR:     precMul,
	token.SLASH:    precMul,
	token.PERCENT:  precMul,
	token.DOT:      precPostfix,
	token.LBRACKET: precPostfix,
	token.LPAREN:   precPostfix,
}

// assignOps is the set of token types that begin an AssignStmt.
var assignOps = map[token.Type]bool{
	token.ASSIGN:    true,
	token.PLUSEQ:    true,
	token.MINUSEQ:   true,
	token.STAREQ:    true,
	token.SLASHEQ:   true,
	token.PERCENTEQ: true,
	token.AMPEQ:     true,
	token.PIPEEQ:    true,
	token.CARETEQ:   true,
	token.LSHIFTEQ:  true,
	token.RSHIFTEQ:  true,
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the mutable state for a single parse run.
type Parser struct {
	lex    *lexer.Lexer
	cur    token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// newParser initialises a Parser from source text.
func newParser(filename, source string) *Parser {
	p := &Parser{
		lex: lexer.New(filename, source),
	}
	// Prime cur and peek, skipping comments.
	p.advance()
	p.advance()
	return p
}

// Parse is the public entry point. It tokenises source, runs the parser, and
// returns the program AST together with any non-fatal errors that were
// collected during parsing.
func Parse(filename, source string) (*ast.Program, []error) {
	p := newParser(filename, source)
	prog := p.parseProgram()
	return prog, p.errors
}

// ---------------------------------------------------------------------------
// Token navigation helpers
// ---------------------------------------------------------------------------

// advance reads the next non-comment token from the lexer into cur/peek.
func (p *Parser) advance() {
	p.cur = p.peek
	for {
		p.peek = p.lex.NextToken()
		if p.peek.Type != token.COMMENT {
			break
		}
	}
}

// expect consumes the current token if it matches typ, otherwise records an
// error and does NOT consume the token.
func (p *Parser) expect(typ token.Type) (token.Token, bool) {
	if p.cur.Type == typ {
		tok := p.cur
		p.advance()
		return tok, true
	}
	p.errorf(p.cur.Pos, "expected %s, got %s (%q)", typ, p.cur.Type, p.cur.Literal)
	return p.cur, false
}

// expectPeek consumes the peek token if it matches typ, returning true.
// Otherwise records an error and returns false without advancing.
func (p *Parser) expectPeek(typ token.Type) bool {
	if p.peek.Type == typ {
		p.advance()
		return true
	}
	p.errorf(p.peek.Pos, "expected %s, got %s (%q)", typ, p.peek.Type, p.peek.Literal)
	return false
}

// curIs returns true if the current token has the given type.
func (p *Parser) curIs(typ token.Type) bool { return p.cur.Type == typ }

// peekIs returns true if the lookahead token has the given type.
func (p *Parser) peekIs(typ token.Type) bool { return p.peek.Type == typ }

// skipTo advances past tokens until one of the given types (or EOF) is the
// current token. Used for error recovery.
func (p *Parser) skipTo(types ...token.Type) {
	for p.cur.Type != token.EOF {
		for _, t := range types {
			if p.cur.Type == t {
				return
			}
		}
		p.advance()
	}
}

// errorf records a parse error at the given position.
func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Errorf("%s: %s", pos, msg))
}

// ---------------------------------------------------------------------------
// Program and statements
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog
}

// parseStatement dispatches to the appropriate statement parser. Unknown
// leading tokens trigger an error and recovery skip to the next statement
// boundary.
func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.VAR:
		return p.parseVarStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.LBRACE:
		return p.parseBlockStmt()
	case token.SEMICOLON:
		p.advance() // empty statement
		return nil
	default:
		return p.parseSimpleStmt()
	}
}

// var_stmt = "var" IDENT "=" expr ";" ;
func (p *Parser) parseVarStmt() *ast.VarStmt {
	tok := p.cur
	p.advance() // consume 'var'

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.skipTo(token.SEMICOLON, token.RBRACE)
		return nil
	}
	stmt := &ast.VarStmt{Token: tok, Name: &ast.Ident{Token: nameTok, Value: nameTok.Literal}}

	if _, ok := p.expect(token.ASSIGN); !ok {
		p.skipTo(token.SEMICOLON, token.RBRACE)
		return stmt
	}
	stmt.Value = p.parseExpression(precLowest)

	if p.peekIs(token.SEMICOLON) {
		p.advance()
	}
	p.advance()
	return stmt
}

// if_stmt = "if" "(" expr ")" block [ "else" ( if_stmt | block ) ] ;
func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok := p.cur
	p.advance() // consume 'if'

	if !p.curIs(token.LPAREN) {
		p.errorf(p.cur.Pos, "expected '(' after 'if', got %s", p.cur.Type)
	} else {
		p.advance()
	}
	cond := p.parseExpression(precLowest)
	p.advance() // move onto ')'
	if !p.curIs(token.RPAREN) {
		p.errorf(p.cur.Pos, "expected ')' to close if condition, got %s", p.cur.Type)
	} else {
		p.advance()
	}

	stmt := &ast.IfStmt{Token: tok, Condition: cond, Consequence: p.parseBlockStmt()}

	if p.curIs(token.ELSE) {
		p.advance()
		if p.curIs(token.IF) {
			stmt.Alternative = p.parseIfStmt()
		} else {
			stmt.Alternative = p.parseBlockStmt()
		}
	}
	return stmt
}

// while_stmt = "while" "(" expr ")" block ;
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	tok := p.cur
	p.advance() // consume 'while'

	if !p.curIs(token.LPAREN) {
		p.errorf(p.cur.Pos, "expected '(' after 'while', got %s", p.cur.Type)
	} else {
		p.advance()
	}
	cond := p.parseExpression(precLowest)
	p.advance()
	if !p.curIs(token.RPAREN) {
		p.errorf(p.cur.Pos, "expected ')' to close while condition, got %s", p.cur.Type)
	} else {
		p.advance()
	}

	return &ast.WhileStmt{Token: tok, Condition: cond, Body: p.parseBlockStmt()}
}

// return_stmt = "return" [ expr ] ";" ;
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	tok := p.cur
	p.advance() // consume 'return'

	stmt := &ast.ReturnStmt{Token: tok}
	if !p.curIs(token.SEMICOLON) {
		stmt.ReturnValue = p.parseExpression(precLowest)
		p.advance()
	}
	if p.curIs(token.SEMICOLON) {
		p.advance()
	}
	return stmt
}

// block = "{" statement* "}" ;
func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	tok := p.cur
	block := &ast.BlockStmt{Token: tok}

	if !p.curIs(token.LBRACE) {
		p.errorf(p.cur.Pos, "expected '{', got %s", p.cur.Type)
		return block
	}
	p.advance() // consume '{'

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	if p.curIs(token.RBRACE) {
		p.advance()
	} else {
		p.errorf(p.cur.Pos, "expected '}' to close block, got %s", p.cur.Type)
	}
	return block
}

// parseSimpleStmt parses an expression statement or an assignment statement;
// the two share a prefix (an expression used as the assignment target), so
// they are disambiguated only once the operator following the expression is
// known.
func (p *Parser) parseSimpleStmt() ast.Statement {
	tok := p.cur
	expr := p.parseExpression(precLowest)

	if assignOps[p.peek.Type] {
		p.advance() // cur is now the assignment operator
		op := p.cur.Type
		p.advance() // cur is now the first token of the RHS
		value := p.parseExpression(precLowest)
		if p.peekIs(token.SEMICOLON) {
			p.advance()
		}
		p.advance()
		return &ast.AssignStmt{Token: tok, Target: expr, Op: op, Value: value}
	}

	if p.peekIs(token.SEMICOLON) {
		p.advance()
	}
	p.advance()
	return &ast.ExprStmt{Token: tok, Expression: expr}
}

// ---------------------------------------------------------------------------
// Expressions (Pratt)
// ---------------------------------------------------------------------------

func (p *Parser) peekPrecedence() precedence {
	if prec, ok := infixPrecedence[p.peek.Type]; ok {
		return prec
	}
	return precLowest
}

// parseExpression parses an expression with the given minimum binding power.
// On entry, p.cur is the first token of the expression; on exit, p.cur is
// the last token consumed as part of the expression.
func (p *Parser) parseExpression(minPrec precedence) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for !p.peekIs(token.SEMICOLON) && minPrec < p.peekPrecedence() {
		switch p.peek.Type {
		case token.LPAREN:
			p.advance()
			left = p.parseCallExpr(left)
		case token.LBRACKET:
			p.advance()
			left = p.parseIndexExpr(left)
		case token.DOT:
			p.advance()
			left = p.parseFieldExpr(left)
		default:
			p.advance()
			left = p.parseInfixExpr(left)
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur.Type {
	case token.IDENT:
		return &ast.Ident{Token: p.cur, Value: p.cur.Literal}
	case token.NUMBER:
		return p.parseNumberLit()
	case token.STRING:
		return &ast.StringLit{Token: p.cur, Value: decodeStringLiteral(p.cur.Literal)}
	case token.TRUE, token.FALSE:
		return &ast.BoolLit{Token: p.cur, Value: p.cur.Type == token.TRUE}
	case token.UNDEFINED:
		return &ast.UndefinedLit{Token: p.cur}
	case token.NAN:
		return &ast.NaNLit{Token: p.cur}
	case token.MINUS, token.BANG, token.TILDE:
		return p.parsePrefixExpr()
	case token.LPAREN:
		return p.parseGroupedExpr()
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseDictLit()
	case token.FUNCTION:
		return p.parseFunctionLit()
	default:
		p.errorf(p.cur.Pos, "unexpected token %s (%q) in expression", p.cur.Type, p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseNumberLit() ast.Expression {
	val, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		p.errorf(p.cur.Pos, "invalid number literal %q: %s", p.cur.Literal, err)
		val = 0
	}
	return &ast.NumberLit{Token: p.cur, Value: val}
}

func (p *Parser) parsePrefixExpr() ast.Expression {
	tok := p.cur
	op := p.cur.Type
	p.advance()
	right := p.parseExpression(precPrefix)
	return &ast.PrefixExpr{Token: tok, Operator: op, Right: right}
}

func (p *Parser) parseInfixExpr(left ast.Expression) ast.Expression {
	tok := p.cur
	op := p.cur.Type
	prec := infixPrecedence[op]
	p.advance()
	right := p.parseExpression(prec)
	return &ast.InfixExpr{Token: tok, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseGroupedExpr() ast.Expression {
	p.advance() // consume '('
	expr := p.parseExpression(precLowest)
	if !p.expectPeek(token.RPAREN) {
		return expr
	}
	return expr
}

// array_lit = "[" [ expr ( "," expr )* [ "," ] ] "]" ;
func (p *Parser) parseArrayLit() ast.Expression {
	lit := &ast.ArrayLit{Token: p.cur}
	if p.peekIs(token.RBRACKET) {
		p.advance()
		return lit
	}
	p.advance()
	lit.Elements = append(lit.Elements, p.parseExpression(precLowest))
	for p.peekIs(token.COMMA) {
		p.advance()
		if p.peekIs(token.RBRACKET) {
			break
		}
		p.advance()
		lit.Elements = append(lit.Elements, p.parseExpression(precLowest))
	}
	if !p.expectPeek(token.RBRACKET) {
		return lit
	}
	return lit
}

// dict_lit = "{" [ dict_entry ( "," dict_entry )* [ "," ] ] "}" ;
// dict_entry = ( IDENT | STRING ) ":" expr ;
func (p *Parser) parseDictLit() ast.Expression {
	lit := &ast.DictLit{Token: p.cur}
	if p.peekIs(token.RBRACE) {
		p.advance()
		return lit
	}
	p.advance()
	lit.Entries = append(lit.Entries, p.parseDictEntry())
	for p.peekIs(token.COMMA) {
		p.advance()
		if p.peekIs(token.RBRACE) {
			break
		}
		p.advance()
		lit.Entries = append(lit.Entries, p.parseDictEntry())
	}
	if !p.expectPeek(token.RBRACE) {
		return lit
	}
	return lit
}

func (p *Parser) parseDictEntry() ast.DictEntry {
	var key ast.Expression
	switch p.cur.Type {
	case token.IDENT:
		key = &ast.Ident{Token: p.cur, Value: p.cur.Literal}
	case token.STRING:
		key = &ast.StringLit{Token: p.cur, Value: decodeStringLiteral(p.cur.Literal)}
	default:
		p.errorf(p.cur.Pos, "expected identifier or string as dictionary key, got %s", p.cur.Type)
	}
	if !p.expectPeek(token.COLON) {
		return ast.DictEntry{Key: key}
	}
	p.advance()
	value := p.parseExpression(precLowest)
	return ast.DictEntry{Key: key, Value: value}
}

// function_lit = "function" [ IDENT ] "(" [ param_list ] ")" block ;
func (p *Parser) parseFunctionLit() ast.Expression {
	lit := &ast.FunctionLit{Token: p.cur}
	p.advance() // consume 'function'

	if p.curIs(token.IDENT) {
		lit.Name = p.cur.Literal
		p.advance()
	}

	if !p.curIs(token.LPAREN) {
		p.errorf(p.cur.Pos, "expected '(' in function literal, got %s", p.cur.Type)
		return lit
	}
	p.advance() // consume '('

	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if p.curIs(token.IDENT) {
			lit.Parameters = append(lit.Parameters, &ast.Ident{Token: p.cur, Value: p.cur.Literal})
			p.advance()
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	if p.curIs(token.RPAREN) {
		p.advance()
	}

	lit.Body = p.parseBlockStmt()
	return lit
}

func (p *Parser) parseIndexExpr(target ast.Expression) ast.Expression {
	tok := p.cur
	p.advance() // consume the index expression's first token
	index := p.parseExpression(precLowest)
	if !p.expectPeek(token.RBRACKET) {
		return &ast.IndexExpr{Token: tok, Target: target, Index: index}
	}
	return &ast.IndexExpr{Token: tok, Target: target, Index: index}
}

func (p *Parser) parseFieldExpr(target ast.Expression) ast.Expression {
	tok := p.cur
	if !p.expectPeek(token.IDENT) {
		return &ast.FieldExpr{Token: tok, Target: target, Name: &ast.Ident{}}
	}
	return &ast.FieldExpr{Token: tok, Target: target, Name: &ast.Ident{Token: p.cur, Value: p.cur.Literal}}
}

func (p *Parser) parseCallExpr(callee ast.Expression) ast.Expression {
	tok := p.cur
	call := &ast.CallExpr{Token: tok, Callee: callee}
	if p.peekIs(token.RPAREN) {
		p.advance()
		return call
	}
	p.advance()
	call.Arguments = append(call.Arguments, p.parseExpression(precLowest))
	for p.peekIs(token.COMMA) {
		p.advance()
		p.advance()
		call.Arguments = append(call.Arguments, p.parseExpression(precLowest))
	}
	if !p.expectPeek(token.RPAREN) {
		return call
	}
	return call
}

// decodeStringLiteral strips the surrounding quotes from a raw STRING token
// literal and decodes the standard backslash escape sequences the lexer
// passed through verbatim.
func decodeStringLiteral(raw string) string {
	if len(raw) < 2 {
		return ""
	}
	body := raw[1 : len(raw)-1]
	var buf []byte
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			buf = append(buf, body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			buf = append(buf, '\n')
		case 't':
			buf = append(buf, '\t')
		case 'r':
			buf = append(buf, '\r')
		case '"':
			buf = append(buf, '"')
		case '\\':
			buf = append(buf, '\\')
		case '0':
			buf = append(buf, 0)
		default:
			buf = append(buf, '\\', body[i])
		}
	}
	return string(buf)
}
