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

// Package image implements the image-loading format (§6.2): a persisted
// encoding of an Executable's constant pool, function table, and top-level
// code, meant to be produced once by a compiler and loaded many times by
// init_image without re-parsing source.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"unsafe"

	"github.com/golang/snappy"

	"github.com/probechain/go-probe/lang/vm"
)

// ErrBadPreamble is returned when the leading byte order marker is neither
// 0 nor 1.
var ErrBadPreamble = errors.New("image: bad preamble byte")

// ErrTruncated is returned when the buffer ends before a declared table is
// fully present.
var ErrTruncated = errors.New("image: truncated buffer")

const (
	preambleBig    byte = 0
	preambleLittle byte = 1
)

// hostLittleEndian is computed once: true on every platform Go actually
// ships on today, but computed rather than assumed so the zero-copy path
// below is provably conditioned on a real check rather than a comment.
var hostLittleEndian = func() bool {
	var probe uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&probe))
	return b[0] == 1
}()

// Digest returns the FNV-1a hash of an encoded image's bytes (the glossary's
// "Executable digest"), used as the Cache lookup key.
func Digest(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// Encode serializes exec's Numbers, Strings, Functions and TopLevel tables
// into the wire format: a 1-byte endianness preamble, a 4-byte
// little-endian length of the compressed payload, then the snappy-
// compressed payload. The payload holds four u32 counts (numbers, strings,
// functions, top-level code length) followed by the tables themselves
// (numbers inline as float64, strings and function code blobs
// length-prefixed, each code blob followed by its NumParams and NumSlots
// bytes) and finally the top-level code. Natives are never serialized — stdlib registration on
// the loading Env happens before execute_image runs, exactly as it does
// before execute_string.
func Encode(exec *vm.Executable) []byte {
	payload := make([]byte, 0, 64+len(exec.Numbers)*8+len(exec.Strings)*8)

	var tmp4 [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp4[:], v)
		payload = append(payload, tmp4[:]...)
	}
	// Numbers are written in the host's native byte order, not always
	// little-endian like the rest of the format: that is what lets Decode
	// reinterpret the byte range directly as []float64 with no per-element
	// conversion when a reader's host order matches the preamble.
	numberOrder := binary.ByteOrder(binary.LittleEndian)
	if !hostLittleEndian {
		numberOrder = binary.BigEndian
	}
	var tmp8 [8]byte
	putU64 := func(v uint64) {
		numberOrder.PutUint64(tmp8[:], v)
		payload = append(payload, tmp8[:]...)
	}

	putU32(uint32(len(exec.Numbers)))
	putU32(uint32(len(exec.Strings)))
	putU32(uint32(len(exec.Functions)))
	putU32(uint32(len(exec.TopLevel)))

	for _, n := range exec.Numbers {
		putU64(math.Float64bits(n))
	}
	for _, s := range exec.Strings {
		putU32(uint32(len(s)))
		payload = append(payload, s...)
	}
	for _, fn := range exec.Functions {
		putU32(uint32(len(fn.Code)))
		payload = append(payload, fn.Code...)
		payload = append(payload, fn.NumParams, fn.NumSlots)
	}
	payload = append(payload, exec.TopLevel...)

	compressed := snappy.Encode(nil, payload)

	out := make([]byte, 0, 1+4+len(compressed))
	if hostLittleEndian {
		out = append(out, preambleLittle)
	} else {
		out = append(out, preambleBig)
	}
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(compressed)))
	out = append(out, tmp4[:]...)
	out = append(out, compressed...)
	return out
}

// tableReader walks a decompressed payload without copying it, handing out
// sub-slices that alias the payload directly (the "map these tables
// directly into the Executable without copying" requirement, to the extent
// Go's memory model permits: the returned Executable's function code, and
// its Numbers when the byte order matches, hold slices backed by the same
// allocation as payload for as long as it lives; Strings are copied out).
type tableReader struct {
	buf []byte
	off int
}

func (r *tableReader) u32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *tableReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, ErrTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Decode parses data (as produced by Encode) into a fresh Executable. The
// returned Executable has no Natives registered and an empty NativeNames
// map — the caller wires stdlib natives into it the same way it would for
// a freshly compiled Executable, then can still grow the constant pool
// further if it also attaches a Compiler.
func Decode(data []byte) (*vm.Executable, error) {
	if len(data) < 5 {
		return nil, ErrTruncated
	}
	preamble := data[0]
	if preamble != preambleBig && preamble != preambleLittle {
		return nil, ErrBadPreamble
	}
	compressedLen := binary.LittleEndian.Uint32(data[1:5])
	if int(compressedLen) > len(data)-5 {
		return nil, ErrTruncated
	}
	payload, err := snappy.Decode(nil, data[5:5+compressedLen])
	if err != nil {
		return nil, fmt.Errorf("image: decompress: %w", err)
	}
	return decodeTables(payload, preamble == preambleLittle)
}

func decodeTables(payload []byte, littleEndian bool) (*vm.Executable, error) {
	r := &tableReader{buf: payload}

	numCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	strCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	fnCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	topLen, err := r.u32()
	if err != nil {
		return nil, err
	}

	exec := vm.NewExecutable()

	if littleEndian == hostLittleEndian {
		numBytes, err := r.bytes(int(numCount) * 8)
		if err != nil {
			return nil, err
		}
		if numCount > 0 {
			exec.Numbers = unsafe.Slice((*float64)(unsafe.Pointer(&numBytes[0])), numCount)
		}
	} else {
		// The file's numbers were written in the writer's host order, the
		// opposite of ours here, since we already failed the == check above.
		foreignOrder := binary.ByteOrder(binary.BigEndian)
		if littleEndian {
			foreignOrder = binary.LittleEndian
		}
		exec.Numbers = make([]float64, numCount)
		for i := range exec.Numbers {
			b, err := r.bytes(8)
			if err != nil {
				return nil, err
			}
			exec.Numbers[i] = math.Float64frombits(foreignOrder.Uint64(b))
		}
	}

	exec.Strings = make([]string, strCount)
	for i := range exec.Strings {
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		exec.Strings[i] = string(b)
	}

	exec.Functions = make([]vm.FunctionProto, fnCount)
	for i := range exec.Functions {
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		code, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		flags, err := r.bytes(2)
		if err != nil {
			return nil, err
		}
		exec.Functions[i] = vm.FunctionProto{Code: code, NumParams: flags[0], NumSlots: flags[1]}
	}

	top, err := r.bytes(int(topLen))
	if err != nil {
		return nil, err
	}
	exec.TopLevel = top

	return exec, nil
}
