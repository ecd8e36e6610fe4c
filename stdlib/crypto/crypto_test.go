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

package crypto

import (
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

func newEnv(t *testing.T) *vm.Env {
	t.Helper()
	exec := vm.NewExecutable()
	Register(exec)
	return vm.InitImage(1<<16, 256, exec)
}

func call(t *testing.T, env *vm.Env, name string, args ...value.Val) value.Val {
	t.Helper()
	exec := env.Executable()
	idx, ok := exec.NativeNames[name]
	require.True(t, ok, "native %q not registered", name)
	env.Push(value.Nat(idx))
	for _, a := range args {
		env.Push(a)
	}
	v, _, errc := env.ExecuteCall(len(args))
	require.Equal(t, vm.ErrNone, errc)
	return v
}

func TestSHA3256Deterministic(t *testing.T) {
	env := newEnv(t)
	msg, err := env.AllocString("probe")
	require.NoError(t, err)

	first := call(t, env, "sha3_256", msg)
	second := call(t, env, "sha3_256", msg)
	assert.Equal(t, env.StringOf(first), env.StringOf(second))
	assert.Len(t, env.StringOf(first), 32)
}

func TestShake256RespectsOutputLength(t *testing.T) {
	env := newEnv(t)
	msg, err := env.AllocString("probe")
	require.NoError(t, err)

	out := call(t, env, "shake256", msg, value.Num(64))
	assert.Len(t, env.StringOf(out), 64)
}

func TestSecp256k1RecoverMatchesSigner(t *testing.T) {
	env := newEnv(t)

	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	var hash [32]byte
	copy(hash[:], "0123456789abcdef0123456789abcde")

	sig, err := btcec.SignCompact(btcec.S256(), priv, hash[:], false)
	require.NoError(t, err)

	h := sha3.NewLegacyKeccak256()
	h.Write(priv.PubKey().SerializeUncompressed()[1:])
	wantAddr := h.Sum(nil)[12:]

	hashVal, err := env.AllocString(string(hash[:]))
	require.NoError(t, err)
	sigVal, err := env.AllocString(string(sig))
	require.NoError(t, err)

	got := call(t, env, "secp256k1_recover", hashVal, sigVal)
	require.True(t, got.IsString())
	assert.Equal(t, string(wantAddr), env.StringOf(got))
}
