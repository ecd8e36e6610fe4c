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
	"encoding/binary"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/golang/snappy"

	"github.com/probechain/go-probe/lang/heap"
	"github.com/probechain/go-probe/lang/vm"
)

// internPoolSize bounds how many distinct constant strings Cache keeps
// deduplicated across the Executables it loads.
const internPoolSize = 4096

// Cache memoizes the expensive part of loading an image a second time: the
// snappy decompression of its table payload. It does not memoize the
// Executable itself, since an Executable carries live Natives function
// values that must be wired fresh for each loading Env; decodeTables'
// per-table slicing over an already-decompressed buffer is cheap enough
// not to need its own cache tier.
type Cache struct {
	decompressed *fastcache.Cache
	strings      *heap.Interner
}

// NewCache returns a Cache backed by an in-memory fastcache instance sized
// to maxBytes.
func NewCache(maxBytes int) *Cache {
	return &Cache{
		decompressed: fastcache.New(maxBytes),
		strings:      heap.NewInterner(internPoolSize),
	}
}

// Load decodes data, reusing a cached decompressed payload when data's
// digest has been seen before.
func (c *Cache) Load(data []byte) (*vm.Executable, error) {
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

	key := digestKey(Digest(data))
	payload, ok := c.decompressed.HasGet(nil, key)
	if !ok {
		var err error
		payload, err = snappy.Decode(nil, data[5:5+compressedLen])
		if err != nil {
			return nil, fmt.Errorf("image: decompress: %w", err)
		}
		c.decompressed.Set(key, payload)
	}
	exec, err := decodeTables(payload, preamble == preambleLittle)
	if err != nil {
		return nil, err
	}
	for i, s := range exec.Strings {
		exec.Strings[i] = c.strings.Intern(s)
	}
	return exec, nil
}

func digestKey(d uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], d)
	return b[:]
}
