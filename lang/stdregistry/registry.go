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

// Package stdregistry is the single place every Engine constructor
// (integration.NewEngine and NewImageEngine, and through them cmd/probe)
// goes to wire the full set
// of stdlib native modules into a fresh Executable, so adding a new module
// never means hunting down every call site that builds one.
package stdregistry

import (
	"github.com/probechain/go-probe/lang/vm"
	"github.com/probechain/go-probe/stdlib/crypto"
	"github.com/probechain/go-probe/stdlib/math"
	"github.com/probechain/go-probe/stdlib/u256"
)

// RegisterAll registers every stdlib native module's functions into exec.
func RegisterAll(exec *vm.Executable) {
	math.Register(exec)
	crypto.Register(exec)
	u256.Register(exec)
}
