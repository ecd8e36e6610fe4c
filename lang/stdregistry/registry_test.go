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

package stdregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probechain/go-probe/lang/vm"
)

func TestRegisterAllWiresEveryModule(t *testing.T) {
	exec := vm.NewExecutable()
	RegisterAll(exec)

	for _, name := range []string{
		"abs", "sqrt", "map", "filter", "reduce", // stdlib/math
		"sha3_256", "keccak256", "secp256k1_recover", // stdlib/crypto
		"u256_add", "u256_to_string", // stdlib/u256
	} {
		_, ok := exec.NativeNames[name]
		assert.True(t, ok, "native %q not registered", name)
	}
}
