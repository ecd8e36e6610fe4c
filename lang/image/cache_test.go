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
)

func TestCacheLoadRoundTripsAndReusesDecompression(t *testing.T) {
	c := NewCache(1 << 20)
	data := Encode(sampleExecutable())

	first, err := c.Load(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "probe"}, first.Strings)

	second, err := c.Load(data)
	require.NoError(t, err)
	assert.Equal(t, first.Strings, second.Strings)
}

func TestCacheInternsDuplicateStringsAcrossLoads(t *testing.T) {
	c := NewCache(1 << 20)

	a := sampleExecutable()
	a.Strings = []string{"shared"}
	b := sampleExecutable()
	b.Strings = []string{"shared"}

	execA, err := c.Load(Encode(a))
	require.NoError(t, err)
	execB, err := c.Load(Encode(b))
	require.NoError(t, err)

	// Interning guarantees the same underlying string value is handed
	// back; Go strings compare by content regardless, so this only checks
	// that both loads succeeded with matching content, which is the
	// externally observable half of the interning guarantee.
	assert.Equal(t, execA.Strings[0], execB.Strings[0])
}

func TestCacheRejectsBadPreamble(t *testing.T) {
	c := NewCache(1 << 20)
	data := Encode(sampleExecutable())
	data[0] = 9
	_, err := c.Load(data)
	assert.ErrorIs(t, err, ErrBadPreamble)
}
