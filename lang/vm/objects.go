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

import (
	"encoding/binary"

	"github.com/probechain/go-probe/lang/heap"
	"github.com/probechain/go-probe/lang/value"
)

// ---------------------------------------------------------------------------
// String (§4.4): length-prefixed byte buffer.
// ---------------------------------------------------------------------------

func decodeString(payload []byte) string {
	n := binary.BigEndian.Uint32(payload[0:4])
	return string(payload[4 : 4+n])
}

func (e *Env) allocString(s string) (value.Val, error) {
	h, payload, err := e.alloc(heap.KindString, uint32(4+len(s)))
	if err != nil {
		return value.Val{}, err
	}
	binary.BigEndian.PutUint32(payload[0:4], uint32(len(s)))
	copy(payload[4:], s)
	return value.Str(uint32(h)), nil
}

// materializeString copies a constant-table string into the arena, giving
// it a handle valid inside an Array/Dict cell the collector will rewrite.
// Arena strings pass through unchanged. Every other Val kind passes
// through unchanged too — only String payloads carry the two-storage-class
// distinction env.go's constStrFlag documents.
func (e *Env) materializeString(v value.Val) (value.Val, error) {
	if v.Kind != value.String || v.Handle&constStrFlag == 0 {
		return v, nil
	}
	return e.allocString(e.exec.Strings[v.Handle&^constStrFlag])
}

// ---------------------------------------------------------------------------
// Array (§4.4): 4-byte count + count*16-byte encoded cells.
// ---------------------------------------------------------------------------

func encodeValCell(dst []byte, v value.Val) {
	heap.EncodeCell(dst, byte(v.Kind), v.Num, v.Flag, v.Handle, v.NativeIdx, v.RefDepth, v.RefSlot, v.RefGen)
}

func decodeValCell(src []byte) value.Val {
	kindTag, num, flag, handle, native, refDepth, refSlot, refGen := heap.DecodeCell(src)
	k := value.Kind(kindTag)
	switch k {
	case value.Number:
		return value.Num(num)
	case value.Bool:
		return value.Bln(flag)
	case value.String:
		return value.Str(handle)
	case value.Array:
		return value.Arr(handle)
	case value.Dict:
		return value.Dic(handle)
	case value.Script:
		return value.Scr(handle)
	case value.Native:
		return value.Nat(native)
	case value.Reference:
		return value.Ref(refDepth, refSlot, refGen)
	default:
		return value.Val{Kind: k}
	}
}

const arrayCellSize = 16

func (e *Env) allocArray(elems []value.Val) (value.Val, error) {
	// Pin every element for the duration of materialization: a later
	// element's allocation can trigger a GC that would otherwise strand an
	// earlier element's already-resolved constant-string handle.
	base := e.pinScratch(elems...)
	defer e.unpinScratch(base)
	for i := base; i < len(e.scratch); i++ {
		mv, err := e.materializeString(e.scratch[i])
		if err != nil {
			return value.Val{}, err
		}
		e.scratch[i] = mv
	}

	h, payload, err := e.alloc(heap.KindArray, uint32(4+len(elems)*arrayCellSize))
	if err != nil {
		return value.Val{}, err
	}
	binary.BigEndian.PutUint32(payload[0:4], uint32(len(elems)))
	cells := payload[4:]
	for i := 0; i < len(elems); i++ {
		encodeValCell(cells[i*arrayCellSize:(i+1)*arrayCellSize], e.scratch[base+i])
	}
	return value.Arr(uint32(h)), nil
}

func (e *Env) arrayLen(v value.Val) int {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	return int(binary.BigEndian.Uint32(payload[0:4]))
}

// arrayGet returns undefined for an out-of-range index (§4.1.4).
func (e *Env) arrayGet(v value.Val, idx int) value.Val {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	n := int(binary.BigEndian.Uint32(payload[0:4]))
	if idx < 0 || idx >= n {
		return value.Und()
	}
	off := 4 + idx*arrayCellSize
	return decodeValCell(payload[off : off+arrayCellSize])
}

// arraySet is a no-op for an out-of-range index (§4.1.4). v is pinned
// across the possible materializeString allocation so a GC it triggers
// updates v's handle in place before the final write re-resolves it.
func (e *Env) arraySet(v value.Val, idx int, val value.Val) error {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	n := int(binary.BigEndian.Uint32(payload[0:4]))
	if idx < 0 || idx >= n {
		return nil
	}

	base := e.pinScratch(v, val)
	defer e.unpinScratch(base)
	mv, err := e.materializeString(e.scratch[base+1])
	if err != nil {
		return err
	}

	payload = e.heap.Payload(heap.Handle(e.scratch[base].Handle))
	off := 4 + idx*arrayCellSize
	encodeValCell(payload[off:off+arrayCellSize], mv)
	return nil
}

// ---------------------------------------------------------------------------
// Dict (§4.4): ordered (key_string_handle, Val) pairs, linear lookup.
// ---------------------------------------------------------------------------

const dictEntrySize = 4 + arrayCellSize

func (e *Env) allocDict(keys []string, vals []value.Val) (value.Val, error) {
	base := e.pinScratch(vals...)
	defer e.unpinScratch(base)
	for i := base; i < len(e.scratch); i++ {
		mv, err := e.materializeString(e.scratch[i])
		if err != nil {
			return value.Val{}, err
		}
		e.scratch[i] = mv
	}

	keyBase := e.pinScratch()
	defer e.unpinScratch(keyBase)
	for _, k := range keys {
		kv, err := e.allocString(k)
		if err != nil {
			return value.Val{}, err
		}
		e.scratch = append(e.scratch, kv)
	}

	h, payload, err := e.alloc(heap.KindDict, uint32(4+len(keys)*dictEntrySize))
	if err != nil {
		return value.Val{}, err
	}
	binary.BigEndian.PutUint32(payload[0:4], uint32(len(keys)))
	entries := payload[4:]
	for i := range keys {
		off := i * dictEntrySize
		binary.BigEndian.PutUint32(entries[off:off+4], e.scratch[keyBase+i].Handle)
		encodeValCell(entries[off+4:off+dictEntrySize], e.scratch[base+i])
	}
	return value.Dic(uint32(h)), nil
}

func (e *Env) dictLen(v value.Val) int {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	return int(binary.BigEndian.Uint32(payload[0:4]))
}

// dictGet performs the linear key scan (§4.4 small-map assumption),
// returning (value, true) on a hit.
func (e *Env) dictGet(v value.Val, key string) (value.Val, bool) {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	n := int(binary.BigEndian.Uint32(payload[0:4]))
	entries := payload[4:]
	for i := 0; i < n; i++ {
		off := i * dictEntrySize
		keyHandle := binary.BigEndian.Uint32(entries[off : off+4])
		if decodeString(e.heap.Payload(heap.Handle(keyHandle))) == key {
			return decodeValCell(entries[off+4 : off+dictEntrySize]), true
		}
	}
	return value.Und(), false
}

// dictSet updates an existing key in place, or appends a new entry. Unlike
// Array, Dict has no fixed element count decided at construction time, so
// an append reallocates the whole object; the caller must treat v's handle
// as potentially stale afterward and use the returned Val.
func (e *Env) dictSet(v value.Val, key string, val value.Val) (value.Val, error) {
	base := e.pinScratch(v, val)
	defer e.unpinScratch(base)
	mv, err := e.materializeString(e.scratch[base+1])
	if err != nil {
		return value.Val{}, err
	}
	e.scratch[base+1] = mv
	v = e.scratch[base] // pick up any relocation materializeString caused

	payload := e.heap.Payload(heap.Handle(v.Handle))
	n := int(binary.BigEndian.Uint32(payload[0:4]))
	entries := payload[4:]
	for i := 0; i < n; i++ {
		off := i * dictEntrySize
		keyHandle := binary.BigEndian.Uint32(entries[off : off+4])
		if decodeString(e.heap.Payload(heap.Handle(keyHandle))) == key {
			encodeValCell(entries[off+4:off+dictEntrySize], mv)
			return v, nil
		}
	}

	keys := make([]string, n+1)
	vals := make([]value.Val, n+1)
	for i := 0; i < n; i++ {
		off := i * dictEntrySize
		keyHandle := binary.BigEndian.Uint32(entries[off : off+4])
		keys[i] = decodeString(e.heap.Payload(heap.Handle(keyHandle)))
		vals[i] = decodeValCell(entries[off+4 : off+dictEntrySize])
	}
	keys[n] = key
	vals[n] = mv
	return e.allocDict(keys, vals)
}

// ---------------------------------------------------------------------------
// Script (§4.4): function index + captured scope chain registry id.
// ---------------------------------------------------------------------------

func (e *Env) allocScript(funcIdx uint16, scopeID uint32) (value.Val, error) {
	h, payload, err := e.alloc(heap.KindScript, 6)
	if err != nil {
		return value.Val{}, err
	}
	binary.BigEndian.PutUint16(payload[0:2], funcIdx)
	binary.BigEndian.PutUint32(payload[2:6], scopeID)
	return value.Scr(uint32(h)), nil
}

func (e *Env) scriptInfo(v value.Val) (funcIdx uint16, scopeID uint32) {
	payload := e.heap.Payload(heap.Handle(v.Handle))
	funcIdx = binary.BigEndian.Uint16(payload[0:2])
	scopeID = binary.BigEndian.Uint32(payload[2:6])
	return
}
