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

// Package integration (rpc.go) exposes the Engine registry as a set of
// RPC-shaped methods, in the style of the teacher's node-service API
// objects (one exported method per RPC call, context.Context as the first
// parameter, a result struct with a Success/Error field rather than a bare
// Go error for expected failures).
package integration

import (
	"context"
	"fmt"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

// ProbeLanguageAPI provides RPC methods for creating and driving PROBE
// Language engines. Each session is addressed by the opaque ID returned
// from NewSession, so the API object itself holds no per-call state beyond
// the Registry.
type ProbeLanguageAPI struct {
	registry *Registry
}

// NewProbeLanguageAPI creates a PROBE Language RPC API backed by a fresh
// session registry.
func NewProbeLanguageAPI() *ProbeLanguageAPI {
	return &ProbeLanguageAPI{registry: NewRegistry()}
}

// ValueResult is the JSON-friendly rendering of a value.Val returned from
// an execute_* call: Kind always set, Scalar set for Number/Bool/String
// kinds and left as the zero value (nil) otherwise, since Array/Dict/Script
// results are heap handles this API does not attempt to serialize whole.
type ValueResult struct {
	Kind   string      `json:"kind"`
	Scalar interface{} `json:"scalar,omitempty"`
}

// ExecResult is the common shape returned by every execute_* RPC method.
type ExecResult struct {
	Value   ValueResult `json:"value"`
	Status  int32       `json:"status"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
}

// NewSession creates a new Engine under the given VMConfig and returns its
// session ID for use in subsequent calls.
func (api *ProbeLanguageAPI) NewSession(_ context.Context, cfg VMConfig) (string, error) {
	eg, err := NewEngine(cfg)
	if err != nil {
		return "", err
	}
	return api.registry.Put(eg), nil
}

// CloseSession discards a session's Engine.
func (api *ProbeLanguageAPI) CloseSession(_ context.Context, sessionID string) {
	api.registry.Remove(sessionID)
}

// ExecuteString runs src as a new top-level program in the given session
// (execute_string, §6.3).
func (api *ProbeLanguageAPI) ExecuteString(_ context.Context, sessionID, src string) (ExecResult, error) {
	eg, ok := api.registry.Get(sessionID)
	if !ok {
		return ExecResult{}, fmt.Errorf("integration: unknown session %q", sessionID)
	}
	val, status, errc := eg.ExecuteString(src)
	return toExecResult(eg, val, status, errc), nil
}

// ExecuteImage runs the session's preloaded Executable (execute_image,
// §6.3).
func (api *ProbeLanguageAPI) ExecuteImage(_ context.Context, sessionID string) (ExecResult, error) {
	eg, ok := api.registry.Get(sessionID)
	if !ok {
		return ExecResult{}, fmt.Errorf("integration: unknown session %q", sessionID)
	}
	val, status, errc := eg.ExecuteImage()
	return toExecResult(eg, val, status, errc), nil
}

// Version returns the PROBE Language runtime version.
func (api *ProbeLanguageAPI) Version(_ context.Context) string {
	return "0.1.0"
}

// toExecResult renders an execute_*'s (value.Val, Status, ErrCode) triple
// into the RPC-friendly ExecResult, resolving a String result's contents
// through eg.Env so the caller does not need heap access of its own.
func toExecResult(eg *Engine, val value.Val, status vm.Status, errc vm.ErrCode) ExecResult {
	res := ExecResult{
		Status:  int32(status),
		Success: errc == vm.ErrNone,
	}
	if errc != vm.ErrNone {
		res.Error = errc.Error()
		return res
	}
	res.Value = ValueResult{Kind: val.Kind.String()}
	switch {
	case val.IsNumber():
		res.Value.Scalar = val.Num
	case val.IsBool():
		res.Value.Scalar = val.Flag
	case val.IsString():
		res.Value.Scalar = eg.Env.StringOf(val)
	}
	return res
}
