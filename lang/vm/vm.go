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

package vm

import "github.com/probechain/go-probe/lang/value"

// Status is the host API's result discriminant (§6.3): 0 = executed with
// no value, 1 = executed with a value, negative = an ErrCode.
type Status int32

const (
	StatusNoValue Status = 0
	StatusValue   Status = 1
)

// MoreFn is invoked by ExecuteInteractive when input ends mid-statement;
// it should return an additional line, or ("", false) to give up.
type MoreFn func() (string, bool)

// Compiler is the narrow interface vm depends on to turn source text into
// bytecode, so this package does not import lang/compiler directly
// (lang/compiler imports lang/vm for Env, Executable and FunctionProto; a
// direct back-import would cycle). It is handed the Env itself, not just
// its Executable, because a REPL compiler may need to grow the top-level
// scope (GrowTopScope) when a later input line declares a new variable.
type Compiler interface {
	// CompileTopLevel compiles src as a new top-level script against env's
	// Executable and returns the compiled code.
	CompileTopLevel(env *Env, src string) ([]byte, error)
}

// InitInteractive configures an Env for a REPL: the compiler is retained
// so each line can extend the same Executable's constant/function tables.
func InitInteractive(heapSize, stackSize uint32, exec *Executable, compiler Compiler) *Env {
	env := NewEnv(ModeInteractive, heapSize, stackSize, exec)
	env.compiler = compiler
	return env
}

// InitInterpreter configures an Env for a one-shot batch run: the compiler
// parses once via ExecuteString and is not retained afterward.
func InitInterpreter(heapSize, stackSize uint32, exec *Executable, compiler Compiler) *Env {
	env := NewEnv(ModeInterpreter, heapSize, stackSize, exec)
	env.compiler = compiler
	return env
}

// InitImage configures an Env to run a prebuilt Executable (lang/image);
// no compiler is attached.
func InitImage(heapSize, stackSize uint32, exec *Executable) *Env {
	return NewEnv(ModeImage, heapSize, stackSize, exec)
}

// ExecuteString compiles src as the top-level program and runs it
// (§6.3). Only valid in ModeInteractive/ModeInterpreter, where a Compiler
// was attached at Init time. In ModeInterpreter the compiler is dropped
// after this first compile, so a later call returns ErrInvalidInput.
func (e *Env) ExecuteString(src string) (value.Val, Status, ErrCode) {
	if e.compiler == nil {
		return value.Val{}, 0, ErrInvalidInput
	}
	code, err := e.compiler.CompileTopLevel(e, src)
	if e.Mode == ModeInterpreter {
		e.compiler = nil
	}
	if err != nil {
		return value.Val{}, 0, ErrInvalidByteCode
	}
	e.exec.TopLevel = code
	return e.runTopLevel(code)
}

// ExecuteImage runs the Executable's preloaded TopLevel code (§6.3),
// without invoking a compiler.
func (e *Env) ExecuteImage() (value.Val, Status, ErrCode) {
	if e.exec == nil || e.exec.TopLevel == nil {
		return value.Val{}, 0, ErrInvalidInput
	}
	return e.runTopLevel(e.exec.TopLevel)
}

// ExecuteInteractive compiles and runs src; if the input ends mid-statement
// the compiler signals this (via CompileTopLevel returning a sentinel the
// host-facing wrapper recognizes) and moreFn is asked for another line,
// which is appended and recompiled. ModeInteractive only.
func (e *Env) ExecuteInteractive(src string, moreFn MoreFn) (value.Val, Status, ErrCode) {
	if e.compiler == nil || e.Mode != ModeInteractive {
		return value.Val{}, 0, ErrInvalidInput
	}
	buf := src
	for {
		code, err := e.compiler.CompileTopLevel(e, buf)
		if err == ErrIncompleteInput && moreFn != nil {
			more, ok := moreFn()
			if !ok {
				return value.Val{}, 0, ErrInvalidInput
			}
			buf += "\n" + more
			continue
		}
		if err != nil {
			return value.Val{}, 0, ErrInvalidByteCode
		}
		e.exec.TopLevel = code
		return e.runTopLevel(code)
	}
}

// ExecuteCall invokes a callable the host has already staged on the
// operand stack, followed by argc argument cells, matching FUNC_CALL's
// own stack contract (§6.3, §4.1.5).
func (e *Env) ExecuteCall(argc int) (value.Val, Status, ErrCode) {
	if e.sp < argc+1 {
		return value.Val{}, 0, ErrInvalidInput
	}
	callerCode, callerPC := e.code, e.pc
	e.code = nil
	e.pc = 0
	topFrame := len(e.frames)

	e.doCall(argc)
	if e.err != ErrNone {
		code := e.err
		e.code, e.pc = callerCode, callerPC
		return value.Val{}, 0, code
	}

	// A native callee returns immediately with no new frame; a script
	// callee needs the loop to run until its frame unwinds back to
	// topFrame.
	if len(e.frames) > topFrame {
		for len(e.frames) > topFrame {
			if e.pc >= len(e.code) {
				e.SetError(ErrInvalidByteCode)
				break
			}
			op := Opcode(e.code[e.pc])
			e.pc++
			if op == OpStop {
				break
			}
			e.step(op)
			if e.err != ErrNone {
				break
			}
		}
	}

	e.code, e.pc = callerCode, callerPC
	if e.err != ErrNone {
		return value.Val{}, 0, e.err
	}
	result := e.pop()
	return result, StatusValue, ErrNone
}

func (e *Env) runTopLevel(code []byte) (value.Val, Status, ErrCode) {
	if errc := e.Exec(code); errc != ErrNone {
		return value.Val{}, 0, errc
	}
	if e.sp == 0 {
		return value.Val{}, StatusNoValue, ErrNone
	}
	return e.pop(), StatusValue, ErrNone
}
