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

// Package integration is the PROBE Language runtime's host API glue
// (§6.3): it wraps lang/vm's three init variants and four execute variants
// behind an Engine a host application constructs once per session, plus a
// VMConfig loader and an Engine registry for hosts that address a running
// engine by an opaque session ID rather than holding the Go value.
package integration

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/naoina/toml"

	"github.com/probechain/go-probe/lang/compiler"
	"github.com/probechain/go-probe/lang/image"
	"github.com/probechain/go-probe/lang/stdregistry"
	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

// Mode selects which of the three host API init variants (§6.3) an Engine
// is built with.
type Mode string

const (
	// ModeInteractive retains the compiler across calls, for a REPL host.
	ModeInteractive Mode = "interactive"
	// ModeInterpreter compiles once per Engine for a batch script run.
	ModeInterpreter Mode = "interpreter"
	// ModeImage runs a prebuilt lang/image Executable with no compiler.
	ModeImage Mode = "image"
)

// VMConfig is the TOML-decoded configuration controlling Env.init's
// parameters, loaded via github.com/naoina/toml the way the rest of the
// ProbeChain toolchain loads its node configuration.
type VMConfig struct {
	HeapSize   uint32 `toml:"heap_size"`
	StackSize  uint32 `toml:"stack_size"`
	Mode       Mode   `toml:"mode"`
	CacheBytes int    `toml:"cache_bytes"`
}

// DefaultVMConfig returns sane defaults for an embedding host that never
// bothers to load a config file.
func DefaultVMConfig() VMConfig {
	return VMConfig{
		HeapSize:   1 << 20,
		StackSize:  1024,
		Mode:       ModeInterpreter,
		CacheBytes: 16 << 20,
	}
}

// LoadVMConfig reads and decodes a TOML file at path, filling in defaults
// for any field the file omits.
func LoadVMConfig(path string) (VMConfig, error) {
	cfg := DefaultVMConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("integration: open config: %w", err)
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("integration: decode config: %w", err)
	}
	return cfg, nil
}

// Engine is one embedding session: an Env plus the identifiers and
// bookkeeping a host needs to address it from outside this package.
type Engine struct {
	ID     string
	Env    *vm.Env
	Exec   *vm.Executable
	Config VMConfig
}

// NewEngine builds an Engine in the given mode, registering every stdlib
// native module (§1's external native-registration collaborator) into a
// fresh Executable before the Env is constructed.
func NewEngine(cfg VMConfig) (*Engine, error) {
	exec := vm.NewExecutable()
	stdregistry.RegisterAll(exec)

	var env *vm.Env
	switch cfg.Mode {
	case ModeInteractive:
		env = vm.InitInteractive(cfg.HeapSize, cfg.StackSize, exec, compiler.New(exec))
	case ModeInterpreter:
		env = vm.InitInterpreter(cfg.HeapSize, cfg.StackSize, exec, compiler.New(exec))
	case ModeImage:
		env = vm.InitImage(cfg.HeapSize, cfg.StackSize, exec)
	default:
		return nil, fmt.Errorf("integration: unknown mode %q", cfg.Mode)
	}

	return &Engine{
		ID:     uuid.New().String(),
		Env:    env,
		Exec:   exec,
		Config: cfg,
	}, nil
}

// NewImageEngine decodes a lang/image-encoded Executable (optionally via a
// shared image.Cache, so repeat loads of the same bytes skip decompression)
// and wraps it in a ModeImage Engine.
func NewImageEngine(cache *image.Cache, data []byte, cfg VMConfig) (*Engine, error) {
	cfg.Mode = ModeImage
	var exec *vm.Executable
	var err error
	if cache != nil {
		exec, err = cache.Load(data)
	} else {
		exec, err = image.Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("integration: load image: %w", err)
	}
	stdregistry.RegisterAll(exec)

	return &Engine{
		ID:     uuid.New().String(),
		Env:    vm.InitImage(cfg.HeapSize, cfg.StackSize, exec),
		Exec:   exec,
		Config: cfg,
	}, nil
}

// ExecuteString runs src as a new top-level program (execute_string, §6.3).
func (eg *Engine) ExecuteString(src string) (value.Val, vm.Status, vm.ErrCode) {
	return eg.Env.ExecuteString(src)
}

// ExecuteImage runs the Engine's preloaded Executable (execute_image, §6.3).
func (eg *Engine) ExecuteImage() (value.Val, vm.Status, vm.ErrCode) {
	return eg.Env.ExecuteImage()
}

// ExecuteInteractive runs src, asking moreFn for additional lines on
// incomplete input (execute_interactive, §6.3).
func (eg *Engine) ExecuteInteractive(src string, moreFn vm.MoreFn) (value.Val, vm.Status, vm.ErrCode) {
	return eg.Env.ExecuteInteractive(src, moreFn)
}

// ExecuteCall invokes a callee the caller has already staged on the operand
// stack via eg.Env.Push (execute_call, §6.3).
func (eg *Engine) ExecuteCall(argc int) (value.Val, vm.Status, vm.ErrCode) {
	return eg.Env.ExecuteCall(argc)
}

// Registry tracks running Engines by their session ID, so an RPC-style host
// API (rpc.go) can address an Engine across separate calls without the
// caller holding the Go value directly.
type Registry struct {
	engines map[string]*Engine
}

// NewRegistry creates an empty Engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*Engine)}
}

// Put registers eg under its own ID and returns that ID.
func (r *Registry) Put(eg *Engine) string {
	r.engines[eg.ID] = eg
	return eg.ID
}

// Get looks up a previously registered Engine by session ID.
func (r *Registry) Get(id string) (*Engine, bool) {
	eg, ok := r.engines[id]
	return eg, ok
}

// Remove discards a session's Engine.
func (r *Registry) Remove(id string) {
	delete(r.engines, id)
}
