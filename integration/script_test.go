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

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-probe/lang/vm"
)

// TestMapFilterReduceThroughCompiledScript exercises stdlib/math's
// higher-order natives against a real closure compiled from source,
// through the full compiler -> vm -> native -> callback round trip: the
// piece too cross-cutting to unit-test inside stdlib/math itself.
func TestMapFilterReduceThroughCompiledScript(t *testing.T) {
	cfg := DefaultVMConfig()
	cfg.Mode = ModeInterpreter
	eg, err := NewEngine(cfg)
	require.NoError(t, err)

	val, status, errc := eg.ExecuteString(`
		var doubled = map(iota(5), function(x) { return x * 2; });
		var evens = filter(doubled, function(x) { return x % 4 == 0; });
		reduce(evens, function(acc, x) { return acc + x; }, 0);
	`)
	require.Equal(t, vm.ErrNone, errc)
	assert.Equal(t, vm.StatusValue, status)
	// iota(5) = [0,1,2,3,4]; doubled = [0,2,4,6,8]; evens = [0,4,8]; sum = 12
	assert.Equal(t, 12.0, val.Num)
}

// TestEndToEndScenarios runs the source/expected pairs named in SPEC_FULL.md's
// testable-properties table through a real engine end to end, rather than
// unit-testing the compiler or VM in isolation.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want float64
	}{
		// scenario 1: operator precedence.
		{"ArithmeticPrecedence", "1 + 2 * 3;", 7},
		// scenario 4: closures over call arguments.
		{"ClosureCall", "var f = function(x){ return x*x; }; f(6);", 36},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultVMConfig()
			cfg.Mode = ModeInterpreter
			eg, err := NewEngine(cfg)
			require.NoError(t, err)

			val, status, errc := eg.ExecuteString(tc.src)
			require.Equal(t, vm.ErrNone, errc)
			assert.Equal(t, vm.StatusValue, status)
			assert.Equal(t, tc.want, val.Num)
		})
	}
}

// TestDivisionByZeroNeverEqualsItself covers scenario 6: a division result
// that overflows to +Inf must be normalized to the nan sentinel before
// landing on the stack, so comparing it against itself evaluates false.
func TestDivisionByZeroNeverEqualsItself(t *testing.T) {
	cfg := DefaultVMConfig()
	cfg.Mode = ModeInterpreter
	eg, err := NewEngine(cfg)
	require.NoError(t, err)

	val, status, errc := eg.ExecuteString("1/0 == 1/0;")
	require.Equal(t, vm.ErrNone, errc)
	assert.Equal(t, vm.StatusValue, status)
	assert.True(t, val.IsBool())
	assert.False(t, val.Flag)
}
