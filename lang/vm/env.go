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

import (
	"github.com/probechain/go-probe/lang/heap"
	"github.com/probechain/go-probe/lang/value"
)

// constStrFlag marks a Val.Handle as indexing Executable.Strings rather
// than a lang/heap arena handle. Constant strings are parsed once and live
// for the lifetime of the Executable; per §4.3 they are not heap-collected,
// so they must be distinguishable from runtime-allocated strings without
// consulting the heap.
const constStrFlag uint32 = 1 << 31

// Mode selects what an Env retains after loading a program (§4.2 init).
type Mode uint8

const (
	// ModeInteractive keeps compiler working memory for incremental REPL
	// input (execute_interactive).
	ModeInteractive Mode = iota
	// ModeInterpreter discards the compiler after the initial parse; used
	// for one-shot execute_string batch runs.
	ModeInterpreter
	// ModeImage loads a prebuilt Executable with no compiler at all.
	ModeImage
)

// FunctionProto is one compiled function: its own bytecode blob plus the
// frame shape the compiler computed for it.
type FunctionProto struct {
	Code      []byte
	NumParams uint8
	NumSlots  uint8 // params + locals
}

// NativeFunc is a host function invocable via PUSH_NATIVE + FUNC_CALL. argv
// is a snapshot of the argument cells, taken off the operand stack before
// the call and therefore not itself scanned as a GC root: a native that
// needs an argument's string/array/dict contents after calling back into
// env.Alloc (directly or via a helper that allocates) must read that
// content out into plain Go data first. Natives that only look at Number,
// Bool, and Native argv cells need not worry about this.
type NativeFunc func(env *Env, argv []value.Val) (value.Val, error)

// Executable is the constant pool and function table a compiled or loaded
// program runs against (§3.4). Numbers and Strings are plain Go slices:
// strings here are the "constants outside the managed heaps" the heap
// package's doc comment calls out, not arena objects.
type Executable struct {
	Numbers   []float64
	Strings   []string
	Functions []FunctionProto
	Natives   []NativeFunc

	// NativeNames maps a registered native's name to its table index, used
	// by the compiler to resolve identifiers to PUSH_NATIVE operands.
	NativeNames map[string]uint16

	// TopLevel is the entry code run by execute_string / execute_image.
	TopLevel []byte
}

// NewExecutable returns an empty Executable ready for native registration
// and constant/function population.
func NewExecutable() *Executable {
	return &Executable{NativeNames: make(map[string]uint16)}
}

// RegisterNative appends fn to the native table under name and returns its
// index, for use as a PUSH_NATIVE operand.
func (e *Executable) RegisterNative(name string, fn NativeFunc) uint16 {
	idx := uint16(len(e.Natives))
	e.Natives = append(e.Natives, fn)
	e.NativeNames[name] = idx
	return idx
}

// frame is an activation record: what FUNC_CALL pushes and RET/RET0 pops.
type frame struct {
	returnCode  []byte
	returnPC    int
	callerScope *Scope
	savedSP     int // operand stack depth to restore the callee slot into
}

// Env is one interpreter instance: operand stack, scope chain, heap, and
// the executable it runs. The zero value is not usable; use NewEnv.
type Env struct {
	Mode Mode

	stack []value.Val
	sp    int

	scope  *Scope
	frames []frame

	// scratch pins Vals that a multi-step allocation (e.g. materializing
	// several array elements in turn) needs to survive a GC triggered by a
	// later step in the same operation, even though they are not currently
	// sitting on the operand stack. See pinScratch/unpinScratch.
	scratch []value.Val

	heap *heap.Heap
	exec *Executable

	// compiler is set by InitInteractive/InitInterpreter so ExecuteString
	// and ExecuteInteractive (vm.go) can turn source text into bytecode; it
	// is nil in ModeImage.
	compiler Compiler

	code []byte
	pc   int

	err ErrCode
}

// NewEnv lays out an Env's stack and heap (§4.2 init). heapSize is the size
// of each of the two semi-spaces; stackSize is the operand stack's fixed
// cell capacity.
func NewEnv(mode Mode, heapSize, stackSize uint32, exec *Executable) *Env {
	return &Env{
		Mode:  mode,
		stack: make([]value.Val, stackSize),
		scope: NewScope(0, nil),
		heap:  heap.New(heapSize),
		exec:  exec,
	}
}

// Heap exposes the Env's arena, e.g. for a compiler scratch-allocating
// constants (heap_get_free, §4.2) or a host inspecting live state.
func (e *Env) Heap() *heap.Heap { return e.heap }

// Executable returns the Env's constant/function table.
func (e *Env) Executable() *Executable { return e.exec }

// GrowTopScope extends the top-level scope to n slots. A Compiler calls
// this when a REPL line declares a variable the top-level scope (fixed at
// 0 slots by NewEnv, since the spec's init contract has no slot count
// parameter) has no room for yet.
func (e *Env) GrowTopScope(n int) { e.scope.Grow(n) }

// ---------------------------------------------------------------------------
// Error latch (§4.2 set_error, §7 propagation)
// ---------------------------------------------------------------------------

// SetError latches the first error code; subsequent calls are ignored until
// the Env is reset for a new top-level run.
func (e *Env) SetError(code ErrCode) {
	if e.err == ErrNone {
		e.err = code
	}
}

// Error returns the latched error code, or ErrNone if none has occurred.
func (e *Env) Error() ErrCode { return e.err }

func (e *Env) clearError() { e.err = ErrNone }

// ---------------------------------------------------------------------------
// Operand stack primitives (§4.2)
// ---------------------------------------------------------------------------

func (e *Env) push(v value.Val) {
	if e.sp >= len(e.stack) {
		e.SetError(ErrNotEnoughMemory)
		return
	}
	e.stack[e.sp] = v
	e.sp++
}

// pop removes and returns TOS. Callers must not call pop on an empty stack;
// the compiler guarantees stack balance (§8 property 1) so this is a
// programming-error panic, not a user-facing fault.
func (e *Env) pop() value.Val {
	e.sp--
	v := e.stack[e.sp]
	e.stack[e.sp] = value.Und()
	return v
}

// peek returns the value n cells below TOS without removing it (peek(0) is
// TOS itself).
func (e *Env) peek(n int) value.Val {
	return e.stack[e.sp-1-n]
}

// setTOS overwrites the top cell, the write-result-over-left-operand
// pattern every binary opcode uses (§4.1.1).
func (e *Env) setTOS(v value.Val) {
	e.stack[e.sp-1] = v
}

// release shrinks the stack by n cells without touching the cell that was
// already above them — used after a binary op writes its result over the
// left operand and only needs to drop the right one.
func (e *Env) release(n int) {
	for i := 0; i < n; i++ {
		e.stack[e.sp-1-i] = value.Und()
	}
	e.sp -= n
}

// ---------------------------------------------------------------------------
// Variable resolution (§4.2 get_var)
// ---------------------------------------------------------------------------

func (e *Env) getVar(depth, slot uint8) (value.Val, bool) {
	gen, ok := e.scope.CurrentGeneration(depth)
	if !ok {
		return value.Val{}, false
	}
	return e.scope.Get(depth, slot, gen)
}

// ---------------------------------------------------------------------------
// Frame setup / restore (§4.1.5, §4.2)
// ---------------------------------------------------------------------------

func (e *Env) frameSetup(proto *FunctionProto, argc int, parentScope *Scope, code []byte, returnPC int) {
	e.frames = append(e.frames, frame{
		returnCode:  code,
		returnPC:    returnPC,
		callerScope: e.scope,
		savedSP:     e.sp - argc - 1, // where the callee slot sits
	})

	newScope := NewScope(int(proto.NumSlots), parentScope)
	e.heap.RegisterScope(newScope)

	n := argc
	if n > int(proto.NumParams) {
		n = int(proto.NumParams)
	}
	for i := 0; i < n; i++ {
		newScope.slots[i] = e.stack[e.sp-argc+i]
	}

	e.release(argc + 1) // drop args + callee slot; RET{,0} repushes the result
	e.scope = newScope
	e.code = proto.Code
	e.pc = 0
}

// frameRestore pops the top activation record, retires its scope
// (invalidating any reference minted against it), and resumes the caller
// at its saved code/pc.
func (e *Env) frameRestore() {
	n := len(e.frames)
	f := e.frames[n-1]
	e.frames = e.frames[:n-1]

	e.scope.Retire()
	e.scope = f.callerScope
	e.code = f.returnCode
	e.pc = f.returnPC
}

// ---------------------------------------------------------------------------
// Root scanning (§4.3)
// ---------------------------------------------------------------------------

func heapKindOf(k value.Kind) heap.Kind {
	switch k {
	case value.String:
		return heap.KindString
	case value.Array:
		return heap.KindArray
	case value.Dict:
		return heap.KindDict
	case value.Script:
		return heap.KindScript
	default:
		return 0
	}
}

// scanRoots builds the RootScanner lang/heap.Collect needs: every live
// operand-stack cell, plus every slot in every registered scope chain
// (current call chain and any closure-captured scope a Script might still
// invoke). Constant-table strings are skipped — constStrFlag marks them as
// living outside the arena.
func (e *Env) scanRoots(visit func(handle *uint32, kind heap.Kind)) {
	visitVal := func(v *value.Val) {
		if !v.IsHeapHandle() || v.Handle&constStrFlag != 0 {
			return
		}
		visit(&v.Handle, heapKindOf(v.Kind))
	}
	for i := 0; i < e.sp; i++ {
		visitVal(&e.stack[i])
	}
	e.heap.EachScope(func(s interface{}) {
		scope, ok := s.(*Scope)
		if !ok {
			return
		}
		scope.Each(visitVal)
	})
	for i := range e.scratch {
		visitVal(&e.scratch[i])
	}
}

// pinScratch appends vals to the scratch root set and returns the base
// index to pass to unpinScratch once the caller no longer needs them held
// live outside the operand stack.
func (e *Env) pinScratch(vals ...value.Val) int {
	base := len(e.scratch)
	e.scratch = append(e.scratch, vals...)
	return base
}

// unpinScratch truncates the scratch root set back to base.
func (e *Env) unpinScratch(base int) {
	for i := base; i < len(e.scratch); i++ {
		e.scratch[i] = value.Val{}
	}
	e.scratch = e.scratch[:base]
}

// alloc is the single entry point every allocating opcode uses; it wires
// scanRoots into heap.Alloc so a mid-allocation collection sees the full
// live set.
func (e *Env) alloc(kind heap.Kind, size uint32) (heap.Handle, []byte, error) {
	return e.heap.Alloc(kind, size, e.scanRoots)
}

// ---------------------------------------------------------------------------
// Constant-string resolution
// ---------------------------------------------------------------------------

// constStr wraps a constant-table index as a Val whose Handle is tagged
// with constStrFlag, so the VM's string accessor knows not to dereference
// it against the arena.
func constStr(idx uint16) value.Val {
	return value.Str(constStrFlag | uint32(idx))
}

// stringOf resolves a String-kind Val to its Go string, whichever of the
// two storage classes (constant table vs. arena) it carries.
func (e *Env) stringOf(v value.Val) string {
	if v.Handle&constStrFlag != 0 {
		return e.exec.Strings[v.Handle&^constStrFlag]
	}
	return decodeString(e.heap.Payload(heap.Handle(v.Handle)))
}
