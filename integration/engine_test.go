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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-probe/lang/vm"
)

func TestNewEngineInterpreterExecutesString(t *testing.T) {
	cfg := DefaultVMConfig()
	eg, err := NewEngine(cfg)
	require.NoError(t, err)

	val, status, errc := eg.ExecuteString("1 + 2 * 3")
	require.Equal(t, vm.ErrNone, errc)
	assert.Equal(t, vm.StatusValue, status)
	assert.Equal(t, 7.0, val.Num)
}

func TestNewEngineRejectsUnknownMode(t *testing.T) {
	cfg := DefaultVMConfig()
	cfg.Mode = Mode("bogus")
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestLoadVMConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.toml")
	require.NoError(t, os.WriteFile(path, []byte("heap_size = 2048\nstack_size = 64\nmode = \"interpreter\"\n"), 0o644))

	cfg, err := LoadVMConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(2048), cfg.HeapSize)
	assert.Equal(t, uint32(64), cfg.StackSize)
	assert.Equal(t, ModeInterpreter, cfg.Mode)
}

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()
	eg, err := NewEngine(DefaultVMConfig())
	require.NoError(t, err)

	id := r.Put(eg)
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, eg, got)

	r.Remove(id)
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestProbeLanguageAPIExecuteString(t *testing.T) {
	api := NewProbeLanguageAPI()
	ctx := context.Background()

	id, err := api.NewSession(ctx, DefaultVMConfig())
	require.NoError(t, err)

	res, err := api.ExecuteString(ctx, id, "10 - 3")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "number", res.Value.Kind)
	assert.Equal(t, 7.0, res.Value.Scalar)

	api.CloseSession(ctx, id)
	_, err = api.ExecuteString(ctx, id, "1")
	assert.Error(t, err)
}
