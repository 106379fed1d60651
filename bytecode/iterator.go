// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package bytecode presents raw EVM byte code as a sequence of decoded
// instructions. Decoding is total: arbitrary byte buffers, including
// non-canonical or truncated code found on chain, decode without errors.
package bytecode

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Figaro/figaro/vm"
)

// Instruction is one decoded instruction: its position in the code, its
// opcode, and the immediate bytes of push-class instructions. The immediate
// slice aliases the input buffer and is empty for non-push instructions and
// for pushes truncated by the end of the buffer.
type Instruction struct {
	PC        uint64
	OpCode    vm.OpCode
	Immediate []byte
}

// String renders the instruction as its mnemonic, followed by the immediate
// value in hexadecimal if there is one.
func (i Instruction) String() string {
	if len(i.Immediate) == 0 {
		return i.OpCode.String()
	}
	return fmt.Sprintf("%s 0x%x", i.OpCode, i.Immediate)
}

// Iterator walks a byte buffer instruction by instruction. The zero distance
// between two instructions is the width of the first one; push immediates
// are skipped, not decoded as opcodes. Iteration never fails; it ends at the
// end of the buffer.
//
// Usage:
//
//	it := NewIterator(code)
//	for it.Next() {
//		inst := it.Instruction()
//		...
//	}
type Iterator struct {
	code    []byte
	next    uint64
	current Instruction
}

// NewIterator creates an iterator positioned before the first instruction of
// the given code. The code buffer is not copied and must not be modified
// during iteration.
func NewIterator(code []byte) *Iterator {
	return &Iterator{code: code}
}

// Next advances to the next instruction. It returns false when the end of
// the code is reached.
func (it *Iterator) Next() bool {
	if it.next >= uint64(len(it.code)) {
		return false
	}
	pc := it.next
	op := vm.OpCode(it.code[pc])
	immediate := it.code[pc+1:]
	if size := uint64(op.PushSize()); size < uint64(len(immediate)) {
		immediate = immediate[:size]
	} else if size > uint64(len(immediate)) {
		// Truncated push: the immediate is reported empty and iteration
		// ends after this instruction.
		immediate = nil
	}
	it.current = Instruction{PC: pc, OpCode: op, Immediate: immediate}
	it.next = pc + 1 + uint64(len(immediate))
	if len(immediate) < op.PushSize() {
		it.next = uint64(len(it.code))
	}
	return true
}

// Instruction returns the instruction the iterator currently points to. Only
// valid after a call to Next that returned true.
func (it *Iterator) Instruction() Instruction {
	return it.current
}

// Disassemble decodes the full code buffer into a slice of instructions.
func Disassemble(code []byte) []Instruction {
	var res []Instruction
	it := NewIterator(code)
	for it.Next() {
		res = append(res, it.Instruction())
	}
	return res
}

// Format renders the code as human-readable text: one mnemonic per
// instruction, followed by its immediate value in hexadecimal if non-empty,
// space-separated without a trailing separator.
func Format(code []byte) string {
	var b strings.Builder
	it := NewIterator(code)
	for it.Next() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(it.Instruction().String())
	}
	return b.String()
}
