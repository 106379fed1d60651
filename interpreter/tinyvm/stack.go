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
	"sync"

	"github.com/holiman/uint256"
)

// maxStackSize is the maximum size of the VM stack allowed.
const maxStackSize = 1024

// stack is the 1024-element 256-bit word-wide stack used by the VM. It is a
// fixed-size array to prevent memory reallocation during execution. Since
// each stack consumes 32KB of memory, instances are pooled; obtain one with
// NewStack() and return it with ReturnStack(s).
//
// The stack is not thread-safe. NewStack() and ReturnStack() are.
type stack struct {
	data         [maxStackSize]uint256.Int
	stackPointer int
}

func (s *stack) push(d *uint256.Int) {
	s.data[s.stackPointer] = *d
	s.stackPointer++
}

// pushUndefined adds a value with an undefined content to the top of the
// stack and returns a pointer to it, to be initialized by the caller.
func (s *stack) pushUndefined() *uint256.Int {
	s.stackPointer++
	return &s.data[s.stackPointer-1]
}

// pop removes the top element from the stack and returns a pointer to it.
// The value remains valid until the next push operation.
func (s *stack) pop() *uint256.Int {
	s.stackPointer--
	return &s.data[s.stackPointer]
}

func (s *stack) len() int {
	return s.stackPointer
}

// peekN returns a pointer to the n-th element from the top, counting from 0.
func (s *stack) peekN(n int) *uint256.Int {
	return &s.data[s.stackPointer-1-n]
}

func (s *stack) swap(n int) {
	top := s.stackPointer - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
}

func (s *stack) dup(n int) {
	s.data[s.stackPointer] = s.data[s.stackPointer-n]
	s.stackPointer++
}

var stackPool = sync.Pool{
	New: func() any { return &stack{} },
}

func NewStack() *stack {
	return stackPool.Get().(*stack)
}

func ReturnStack(s *stack) {
	s.stackPointer = 0
	stackPool.Put(s)
}
