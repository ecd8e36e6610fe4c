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

// Package compiler lowers a parsed PROBE-script AST (lang/ast) to the
// stack-based bytecode lang/vm executes. It is a single-pass compiler:
// expressions emit directly as they are walked, and only jump targets are
// backpatched once known, in the teacher's house style for straight-line
// bytecode emitters.
package compiler

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/go-probe/lang/ast"
	"github.com/probechain/go-probe/lang/parser"
	"github.com/probechain/go-probe/lang/token"
	"github.com/probechain/go-probe/lang/vm"
)

// errIncompleteInput is vm.ErrIncompleteInput under a local name: source
// ends with an unclosed block or a parse failure that lands exactly at
// EOF. ExecuteInteractive (lang/vm) compares the error returned from
// CompileTopLevel against that same sentinel by identity to decide
// whether to ask for another line rather than failing outright, so this
// must be the exact value, not a look-alike declared in this package.
var errIncompleteInput = vm.ErrIncompleteInput

// ErrUndefinedIdentifier is wrapped with the offending name when an
// expression references a name that resolves to neither a local variable
// nor a registered native.
var ErrUndefinedIdentifier = errors.New("compiler: undefined identifier")

// ErrDuplicateName is wrapped with context when the same identifier is
// declared twice where the language requires uniqueness (function
// parameters, dictionary literal keys).
var ErrDuplicateName = errors.New("compiler: duplicate name")

// Compiler holds the state that must persist across REPL input lines: the
// constant pool dedup tables and the top-level symbol table, so `var x = 1;`
// on one line and `x + 1;` on the next resolve against the same slot.
type Compiler struct {
	exec *vm.Executable

	numberIdx map[float64]uint16
	stringIdx map[string]uint16
	topScope  *funcScope
}

// New returns a Compiler ready to compile against exec. exec should already
// have any native functions registered (stdlib wiring happens before the
// first compile).
func New(exec *vm.Executable) *Compiler {
	return &Compiler{
		exec:      exec,
		numberIdx: make(map[float64]uint16),
		stringIdx: make(map[string]uint16),
		topScope:  newFuncScope(nil),
	}
}

// CompileTopLevel implements vm.Compiler. It parses src, compiles it
// against the top-level symbol table carried on c, grows env's top-level
// scope to match, and returns the compiled instruction stream.
func (c *Compiler) CompileTopLevel(env *vm.Env, src string) ([]byte, error) {
	prog, errs := parser.Parse("<input>", src)
	if len(errs) > 0 {
		if looksIncomplete(errs) {
			return nil, errIncompleteInput
		}
		return nil, fmt.Errorf("compiler: %w", errs[0])
	}

	// The final statement, if it is a bare expression, keeps its value on
	// the stack instead of going through compileStmt's ExprStmt case (which
	// always pops): runTopLevel reports StatusValue only when something is
	// left above the stack base, and that value is how ExecuteString /
	// ExecuteInteractive hand a result back to the host.
	e := &emitter{}
	for i, stmt := range prog.Statements {
		if i == len(prog.Statements)-1 {
			if tail, ok := stmt.(*ast.ExprStmt); ok && tail.Expression != nil {
				if err := c.compileExpr(e, c.topScope, tail.Expression); err != nil {
					return nil, err
				}
				break
			}
		}
		if err := c.compileStmt(e, c.topScope, stmt); err != nil {
			return nil, err
		}
	}
	e.op(vm.OpStop)

	env.GrowTopScope(int(c.topScope.numSlots))
	return e.code, nil
}

// looksIncomplete guesses whether a parse failure was caused by input
// ending before a block or expression closed, rather than a genuine syntax
// error — the signal ExecuteInteractive needs to decide whether asking for
// one more line could help. The parser reports this the same way a normal
// syntax error is reported (it has no distinct "unexpected EOF" type), so
// this checks for EOF appearing as the unexpected token in the first error.
func looksIncomplete(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	msg := errs[0].Error()
	return containsEOFGot(msg)
}

func containsEOFGot(msg string) bool {
	const marker = "got EOF"
	for i := 0; i+len(marker) <= len(msg); i++ {
		if msg[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Constant pool
// ---------------------------------------------------------------------------

func (c *Compiler) numberConst(v float64) uint16 {
	if idx, ok := c.numberIdx[v]; ok {
		return idx
	}
	idx := uint16(len(c.exec.Numbers))
	c.exec.Numbers = append(c.exec.Numbers, v)
	c.numberIdx[v] = idx
	return idx
}

func (c *Compiler) stringConst(s string) uint16 {
	if idx, ok := c.stringIdx[s]; ok {
		return idx
	}
	idx := uint16(len(c.exec.Strings))
	c.exec.Strings = append(c.exec.Strings, s)
	c.stringIdx[s] = idx
	return idx
}

// ---------------------------------------------------------------------------
// Duplicate-name checking
// ---------------------------------------------------------------------------

// checkUnique reports ErrDuplicateName, wrapping context, the first time a
// name repeats in names.
func checkUnique(names []string, context string) error {
	seen := mapset.NewSet()
	for _, n := range names {
		if seen.Contains(n) {
			return fmt.Errorf("%w: %s %q", ErrDuplicateName, context, n)
		}
		seen.Add(n)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *Compiler) compileStmt(e *emitter, fs *funcScope, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VarStmt:
		return c.compileVarStmt(e, fs, s)
	case *ast.AssignStmt:
		return c.compileAssignStmt(e, fs, s)
	case *ast.ReturnStmt:
		return c.compileReturnStmt(e, fs, s)
	case *ast.ExprStmt:
		if s.Expression == nil {
			return nil
		}
		if err := c.compileExpr(e, fs, s.Expression); err != nil {
			return err
		}
		e.op(vm.OpPop)
		return nil
	case *ast.BlockStmt:
		return c.compileBlock(e, fs, s)
	case *ast.IfStmt:
		return c.compileIfStmt(e, fs, s)
	case *ast.WhileStmt:
		return c.compileWhileStmt(e, fs, s)
	default:
		return fmt.Errorf("compiler: unsupported statement %T", stmt)
	}
}

func (c *Compiler) compileBlock(e *emitter, fs *funcScope, block *ast.BlockStmt) error {
	fs.pushBlock()
	defer fs.popBlock()
	for _, stmt := range block.Statements {
		if err := c.compileStmt(e, fs, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileVarStmt(e *emitter, fs *funcScope, s *ast.VarStmt) error {
	slot := fs.declare(s.Name.Value)
	e.opVar(vm.OpPushRef, 0, slot)
	if err := c.compileExpr(e, fs, s.Value); err != nil {
		return err
	}
	e.op(vm.OpAssign)
	e.op(vm.OpPop)
	return nil
}

func (c *Compiler) compileReturnStmt(e *emitter, fs *funcScope, s *ast.ReturnStmt) error {
	if s.ReturnValue == nil {
		e.op(vm.OpRet0)
		return nil
	}
	if err := c.compileExpr(e, fs, s.ReturnValue); err != nil {
		return err
	}
	e.op(vm.OpRet)
	return nil
}

func (c *Compiler) compileIfStmt(e *emitter, fs *funcScope, s *ast.IfStmt) error {
	if err := c.compileExpr(e, fs, s.Condition); err != nil {
		return err
	}
	jmpFalse := e.jump(vm.OpPopJmpF)
	if err := c.compileBlock(e, fs, s.Consequence); err != nil {
		return err
	}
	if s.Alternative == nil {
		e.patch(jmpFalse, e.here())
		return nil
	}
	jmpEnd := e.jump(vm.OpJmp)
	e.patch(jmpFalse, e.here())
	if err := c.compileStmt(e, fs, s.Alternative); err != nil {
		return err
	}
	e.patch(jmpEnd, e.here())
	return nil
}

func (c *Compiler) compileWhileStmt(e *emitter, fs *funcScope, s *ast.WhileStmt) error {
	loopStart := e.here()
	if err := c.compileExpr(e, fs, s.Condition); err != nil {
		return err
	}
	jmpEnd := e.jump(vm.OpPopJmpF)
	if err := c.compileBlock(e, fs, s.Body); err != nil {
		return err
	}
	back := e.jump(vm.OpJmp)
	e.patch(back, loopStart)
	e.patch(jmpEnd, e.here())
	return nil
}

func (c *Compiler) compileAssignStmt(e *emitter, fs *funcScope, s *ast.AssignStmt) error {
	switch target := s.Target.(type) {
	case *ast.Ident:
		depth, slot, ok := fs.resolve(target.Value)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUndefinedIdentifier, target.Value)
		}
		e.opVar(vm.OpPushRef, depth, slot)
		if err := c.compileExpr(e, fs, s.Value); err != nil {
			return err
		}
		e.op(assignOpcode(s.Op))
	case *ast.FieldExpr:
		if err := c.compileExpr(e, fs, target.Target); err != nil {
			return err
		}
		e.opU16(vm.OpPushStr, c.stringConst(target.Name.Value))
		if err := c.compileExpr(e, fs, s.Value); err != nil {
			return err
		}
		e.op(propAssignOpcode(s.Op))
	case *ast.IndexExpr:
		if err := c.compileExpr(e, fs, target.Target); err != nil {
			return err
		}
		if err := c.compileExpr(e, fs, target.Index); err != nil {
			return err
		}
		if err := c.compileExpr(e, fs, s.Value); err != nil {
			return err
		}
		e.op(elemAssignOpcode(s.Op))
	default:
		return fmt.Errorf("compiler: invalid assignment target %T", s.Target)
	}
	e.op(vm.OpPop)
	return nil
}

func assignOpcode(op token.Type) vm.Opcode {
	switch op {
	case token.PLUSEQ:
		return vm.OpAddAssign
	case token.MINUSEQ:
		return vm.OpSubAssign
	case token.STAREQ:
		return vm.OpMulAssign
	case token.SLASHEQ:
		return vm.OpDivAssign
	case token.PERCENTEQ:
		return vm.OpModAssign
	case token.AMPEQ:
		return vm.OpAAndAssign
	case token.PIPEEQ:
		return vm.OpAOrAssign
	case token.CARETEQ:
		return vm.OpAXorAssign
	case token.LSHIFTEQ:
		return vm.OpLShiftAssign
	case token.RSHIFTEQ:
		return vm.OpRShiftAssign
	default:
		return vm.OpAssign
	}
}

func propAssignOpcode(op token.Type) vm.Opcode {
	switch op {
	case token.PLUSEQ:
		return vm.OpPropAddAssign
	case token.MINUSEQ:
		return vm.OpPropSubAssign
	case token.STAREQ:
		return vm.OpPropMulAssign
	case token.SLASHEQ:
		return vm.OpPropDivAssign
	case token.PERCENTEQ:
		return vm.OpPropModAssign
	default:
		return vm.OpPropAssign
	}
}

func elemAssignOpcode(op token.Type) vm.Opcode {
	switch op {
	case token.PLUSEQ:
		return vm.OpElemAddAssign
	case token.MINUSEQ:
		return vm.OpElemSubAssign
	case token.STAREQ:
		return vm.OpElemMulAssign
	case token.SLASHEQ:
		return vm.OpElemDivAssign
	case token.PERCENTEQ:
		return vm.OpElemModAssign
	default:
		return vm.OpElemAssign
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) compileExpr(e *emitter, fs *funcScope, expr ast.Expression) error {
	switch x := expr.(type) {
	case *ast.Ident:
		return c.compileIdent(e, fs, x)
	case *ast.NumberLit:
		if x.Value == 0 {
			e.op(vm.OpPushZero)
			return nil
		}
		e.opU16(vm.OpPushNum, c.numberConst(x.Value))
		return nil
	case *ast.StringLit:
		e.opU16(vm.OpPushStr, c.stringConst(x.Value))
		return nil
	case *ast.BoolLit:
		if x.Value {
			e.op(vm.OpPushTrue)
		} else {
			e.op(vm.OpPushFalse)
		}
		return nil
	case *ast.UndefinedLit:
		e.op(vm.OpPushUnd)
		return nil
	case *ast.NaNLit:
		e.op(vm.OpPushNan)
		return nil
	case *ast.ArrayLit:
		for _, el := range x.Elements {
			if err := c.compileExpr(e, fs, el); err != nil {
				return err
			}
		}
		e.opU16(vm.OpArray, uint16(len(x.Elements)))
		return nil
	case *ast.DictLit:
		return c.compileDictLit(e, fs, x)
	case *ast.FunctionLit:
		return c.compileFunctionLit(e, fs, x)
	case *ast.PrefixExpr:
		return c.compilePrefixExpr(e, fs, x)
	case *ast.InfixExpr:
		return c.compileInfixExpr(e, fs, x)
	case *ast.IndexExpr:
		if err := c.compileExpr(e, fs, x.Target); err != nil {
			return err
		}
		if err := c.compileExpr(e, fs, x.Index); err != nil {
			return err
		}
		e.op(vm.OpElem)
		return nil
	case *ast.FieldExpr:
		if err := c.compileExpr(e, fs, x.Target); err != nil {
			return err
		}
		e.opU16(vm.OpPushStr, c.stringConst(x.Name.Value))
		e.op(vm.OpProp)
		return nil
	case *ast.CallExpr:
		return c.compileCallExpr(e, fs, x)
	default:
		return fmt.Errorf("compiler: unsupported expression %T", expr)
	}
}

// compileIdent resolves name as a local variable first, then a registered
// native; an identifier matching neither is a compile error (§7
// ErrInvalidByteCode territory the compiler catches ahead of time instead).
func (c *Compiler) compileIdent(e *emitter, fs *funcScope, id *ast.Ident) error {
	if depth, slot, ok := fs.resolve(id.Value); ok {
		e.opVar(vm.OpPushVar, depth, slot)
		return nil
	}
	if idx, ok := c.exec.NativeNames[id.Value]; ok {
		e.opU16(vm.OpPushNative, idx)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUndefinedIdentifier, id.Value)
}

func (c *Compiler) compileDictLit(e *emitter, fs *funcScope, lit *ast.DictLit) error {
	names := make([]string, len(lit.Entries))
	for i, ent := range lit.Entries {
		switch k := ent.Key.(type) {
		case *ast.Ident:
			names[i] = k.Value
		case *ast.StringLit:
			names[i] = k.Value
		default:
			return fmt.Errorf("compiler: invalid dictionary key %T", ent.Key)
		}
	}
	if err := checkUnique(names, "dictionary key"); err != nil {
		return err
	}
	for i, ent := range lit.Entries {
		e.opU16(vm.OpPushStr, c.stringConst(names[i]))
		if err := c.compileExpr(e, fs, ent.Value); err != nil {
			return err
		}
	}
	e.opU16(vm.OpDict, uint16(len(lit.Entries)))
	return nil
}

func (c *Compiler) compilePrefixExpr(e *emitter, fs *funcScope, x *ast.PrefixExpr) error {
	if err := c.compileExpr(e, fs, x.Right); err != nil {
		return err
	}
	switch x.Operator {
	case token.MINUS:
		e.op(vm.OpNeg)
	case token.TILDE:
		e.op(vm.OpNot)
	case token.BANG:
		e.op(vm.OpLogicNot)
	default:
		return fmt.Errorf("compiler: unsupported prefix operator %s", x.Operator)
	}
	return nil
}

func (c *Compiler) compileInfixExpr(e *emitter, fs *funcScope, x *ast.InfixExpr) error {
	if err := c.compileExpr(e, fs, x.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e, fs, x.Right); err != nil {
		return err
	}
	op, ok := infixOpcodes[x.Operator]
	if !ok {
		return fmt.Errorf("compiler: unsupported infix operator %s", x.Operator)
	}
	e.op(op)
	return nil
}

var infixOpcodes = map[token.Type]vm.Opcode{
	token.PLUS:    vm.OpAdd,
	token.MINUS:   vm.OpSub,
	token.STAR:    vm.OpMul,
	token.SLASH:   vm.OpDiv,
	token.PERCENT: vm.OpMod,
	token.AMP:     vm.OpAAnd,
	token.PIPE:    vm.OpAOr,
	token.CARET:   vm.OpAXor,
	token.LSHIFT:  vm.OpLShift,
	token.RSHIFT:  vm.OpRShift,
	token.EQ:      vm.OpTEq,
	token.NEQ:     vm.OpTNe,
	token.LT:      vm.OpTLt,
	token.GT:      vm.OpTGt,
	token.LTE:     vm.OpTLe,
	token.GTE:     vm.OpTGe,
}

// compileCallExpr compiles callee then arguments then FUNC_CALL. Method
// calls (obj.method(...) / obj[key](...)) resolve through plain PROP/ELEM
// rather than the PROP_METH/ELEM_METH pair lang/vm implements: this
// language has no implicit receiver binding, so there is no second value
// that needs preserving below the callee (see DESIGN.md).
func (c *Compiler) compileCallExpr(e *emitter, fs *funcScope, x *ast.CallExpr) error {
	if err := c.compileExpr(e, fs, x.Callee); err != nil {
		return err
	}
	for _, arg := range x.Arguments {
		if err := c.compileExpr(e, fs, arg); err != nil {
			return err
		}
	}
	if len(x.Arguments) > 255 {
		return fmt.Errorf("compiler: call has %d arguments, max 255", len(x.Arguments))
	}
	e.op(vm.OpFuncCall)
	e.u8(uint8(len(x.Arguments)))
	return nil
}

func (c *Compiler) compileFunctionLit(e *emitter, fs *funcScope, lit *ast.FunctionLit) error {
	names := make([]string, len(lit.Parameters))
	for i, p := range lit.Parameters {
		names[i] = p.Value
	}
	if err := checkUnique(names, "parameter"); err != nil {
		return err
	}
	if len(lit.Parameters) > 255 {
		return fmt.Errorf("compiler: function has %d parameters, max 255", len(lit.Parameters))
	}

	// A named function literal binds its own name in the *enclosing* scope
	// before compiling its body, so a recursive call inside the body
	// resolves to the closure currently being constructed.
	var selfDepth, selfSlot uint8
	var selfBound bool
	if lit.Name != "" {
		selfSlot = fs.declare(lit.Name)
		selfDepth = 0
		selfBound = true
		e.opVar(vm.OpPushRef, selfDepth, selfSlot)
	}

	inner := newFuncScope(fs)
	for _, p := range lit.Parameters {
		inner.declare(p.Value)
	}

	body := &emitter{}
	for _, stmt := range lit.Body.Statements {
		if err := c.compileStmt(body, inner, stmt); err != nil {
			return err
		}
	}
	body.op(vm.OpRet0)

	funcIdx := uint16(len(c.exec.Functions))
	c.exec.Functions = append(c.exec.Functions, vm.FunctionProto{
		Code:      body.code,
		NumParams: uint8(len(lit.Parameters)),
		NumSlots:  inner.numSlots,
	})

	e.opU16(vm.OpPushScript, funcIdx)
	if selfBound {
		e.op(vm.OpAssign)
	}
	return nil
}
