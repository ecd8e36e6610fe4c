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

import "errors"

// ErrIncompleteInput is returned by a Compiler when source ends
// mid-statement (an open brace, a dangling binary operator); it is not an
// ErrCode because it never reaches a host boundary — ExecuteInteractive
// handles it by requesting another line via MoreFn. Exported so that
// lang/compiler, which implements the Compiler interface, can return this
// exact sentinel rather than one of its own that ExecuteInteractive would
// never recognize.
var ErrIncompleteInput = errors.New("vm: incomplete input")

// ErrCode is the stable, negative error code an Env latches on its first
// fault and the host API returns from execute_*. 0 is reserved for "no
// error".
type ErrCode int32

const (
	// ErrNone means no error has been latched.
	ErrNone ErrCode = 0
	// ErrNotEnoughMemory is raised when the heap is exhausted after a
	// collection, or executable memory sizing fails.
	ErrNotEnoughMemory ErrCode = -1
	// ErrInvalidByteCode is raised on an unknown opcode or an unsupported
	// decode (malformed operand, truncated instruction).
	ErrInvalidByteCode ErrCode = -2
	// ErrInvalidLeftValue is raised when an assignment target is not a live
	// reference, or a numeric-only compound assign hits a non-number.
	ErrInvalidLeftValue ErrCode = -3
	// ErrInvalidCallor is raised when FUNC_CALL targets a non-callable.
	ErrInvalidCallor ErrCode = -4
	// ErrInvalidInput is raised on null/malformed arguments to the host API.
	ErrInvalidInput ErrCode = -5
	// ErrSysError is raised on an internal consistency failure (bad function
	// index, corrupt frame).
	ErrSysError ErrCode = -6
)

func (c ErrCode) String() string {
	switch c {
	case ErrNone:
		return "none"
	case ErrNotEnoughMemory:
		return "NotEnoughMemory"
	case ErrInvalidByteCode:
		return "InvalidByteCode"
	case ErrInvalidLeftValue:
		return "InvalidLeftValue"
	case ErrInvalidCallor:
		return "InvalidCallor"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrSysError:
		return "SysError"
	default:
		return "unknown"
	}
}

func (c ErrCode) Error() string { return "vm: " + c.String() }
