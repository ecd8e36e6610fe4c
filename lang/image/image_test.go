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

package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-probe/lang/vm"
)

func sampleExecutable() *vm.Executable {
	exec := vm.NewExecutable()
	exec.Numbers = []float64{0, 1.5, -42}
	exec.Strings = []string{"hello", "probe"}
	exec.Functions = []vm.FunctionProto{
		{Code: []byte{byte(vm.OpPushZero), byte(vm.OpRet)}, NumParams: 1, NumSlots: 2},
	}
	exec.TopLevel = []byte{byte(vm.OpPushStr), 0, 0, byte(vm.OpStop)}
	return exec
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	exec := sampleExecutable()
	data := Encode(exec)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, exec.Numbers, got.Numbers)
	assert.Equal(t, exec.Strings, got.Strings)
	assert.Equal(t, exec.TopLevel, got.TopLevel)
	require.Len(t, got.Functions, 1)
	assert.Equal(t, exec.Functions[0].Code, got.Functions[0].Code)
	assert.Equal(t, exec.Functions[0].NumParams, got.Functions[0].NumParams)
	assert.Equal(t, exec.Functions[0].NumSlots, got.Functions[0].NumSlots)
}

func TestDecodeRejectsBadPreamble(t *testing.T) {
	data := Encode(sampleExecutable())
	data[0] = 7
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrBadPreamble)
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	data := Encode(sampleExecutable())
	_, err := Decode(data[:len(data)-2])
	assert.Error(t, err)
}

func TestDigestIsDeterministicAndSensitiveToContent(t *testing.T) {
	a := Encode(sampleExecutable())
	b := Encode(sampleExecutable())
	assert.Equal(t, Digest(a), Digest(b))

	other := sampleExecutable()
	other.Strings[0] = "changed"
	c := Encode(other)
	assert.NotEqual(t, Digest(a), Digest(c))
}

func TestDecodeForeignEndianPreambleStillDecodesNumbers(t *testing.T) {
	exec := sampleExecutable()
	data := Encode(exec)

	// Flip the preamble byte to simulate a file written by the opposite
	// host order, without actually running on one, so that decodeTables
	// takes the foreign-order branch.
	flipped := make([]byte, len(data))
	copy(flipped, data)
	if flipped[0] == preambleLittle {
		flipped[0] = preambleBig
	} else {
		flipped[0] = preambleLittle
	}

	// The foreign-order branch only byte-swaps the numbers table; it will
	// not reproduce exec.Numbers unless the bytes were actually written in
	// that order. This test only asserts that decoding does not error and
	// produces the declared count of numbers, not bit-for-bit equality.
	got, err := Decode(flipped)
	require.NoError(t, err)
	assert.Len(t, got.Numbers, len(exec.Numbers))
}
