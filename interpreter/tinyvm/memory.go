// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tinyvm

import (
	"math"

	"github.com/Fantom-foundation/Figaro/figaro"
)

// maxMemoryExtent is the largest memory size, in bytes, whose expansion cost
// still fits the gas counter. No gas limit can pay for more, and capping here
// keeps the word rounding below free of overflow.
const maxMemoryExtent = 0x1FFFFFFFE0

// Memory is the byte-addressable scratch space of one execution frame. It
// grows in 32-byte words; growth is charged with the EVM's quadratic
// expansion cost before it happens.
type Memory struct {
	store       []byte
	currentCost figaro.Gas // total expansion cost charged so far
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) size() uint64 {
	return uint64(len(m.store))
}

// expansionCost computes the total expansion cost of a memory of the given
// size in bytes.
func expansionCost(size uint64) figaro.Gas {
	words := (size + 31) / 32
	return figaro.Gas(3*words + words*words/512)
}

// ensure grows the memory to cover [offset, offset+size) and charges the
// expansion delta against the context's gas. A size of zero never grows nor
// charges.
func (m *Memory) ensure(c *context, offset, size uint64) error {
	if size == 0 {
		return nil
	}
	if offset > math.MaxUint64-size {
		return errGasUintOverflow
	}
	needed := offset + size
	if needed <= m.size() {
		return nil
	}
	if needed > maxMemoryExtent {
		return errGasUintOverflow
	}
	// Grow in full words.
	needed = ((needed + 31) / 32) * 32
	cost := expansionCost(needed)
	if err := c.useGas(cost - m.currentCost); err != nil {
		return err
	}
	m.currentCost = cost
	grown := make([]byte, needed)
	copy(grown, m.store)
	m.store = grown
	return nil
}

// read returns a copy of the given memory range.
func (m *Memory) read(offset, size uint64) []byte {
	res := make([]byte, size)
	copy(res, m.store[offset:offset+size])
	return res
}

// view returns the given memory range without copying. Only valid until the
// next grow.
func (m *Memory) view(offset, size uint64) []byte {
	return m.store[offset : offset+size]
}

func (m *Memory) write(offset uint64, data []byte) {
	copy(m.store[offset:], data)
}
