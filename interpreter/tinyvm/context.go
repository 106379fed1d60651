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
	"github.com/Fantom-foundation/Figaro/bytecode"
	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/figaro/vm"
)

// status is the enumeration of the execution state of an interpretation
// run.
type status byte

const (
	statusRunning  status = iota // < all fine, ready for the next instruction
	statusStopped                // < execution stopped with STOP
	statusReturned               // < execution stopped with RETURN
	statusReverted               // < execution stopped with REVERT
	statusOutOfGas               // < execution ran out of gas
	statusFailed                 // < execution faulted
)

// context is the execution environment of a single frame run by the
// interpreter. One context is created per Run call and never shared.
type context struct {
	params  figaro.Parameters
	context figaro.RunContext

	// inspector is non-nil only when step-level observation was requested.
	inspector figaro.Inspector

	pc     uint64
	gas    figaro.Gas
	refund figaro.Gas

	stack  *stack
	memory *Memory
	code   figaro.Code

	output     []byte
	returnData []byte

	// jumpDests is the set of valid jump targets of the code, built lazily
	// on the first JUMP or JUMPI.
	jumpDests map[uint64]bool
}

// useGas deducts the given amount of gas from the remaining gas of the
// current frame. It returns errOutOfGas if the frame does not have enough
// gas left, leaving the gas counter at zero.
func (c *context) useGas(amount figaro.Gas) error {
	if amount < 0 || c.gas < amount {
		c.gas = 0
		return errOutOfGas
	}
	c.gas -= amount
	return nil
}

// isValidJumpDest checks that the given target is a JUMPDEST instruction
// and not part of the immediate data of a push.
func (c *context) isValidJumpDest(dest uint64) bool {
	if c.jumpDests == nil {
		c.jumpDests = map[uint64]bool{}
		it := bytecode.NewIterator(c.code)
		for it.Next() {
			if it.Instruction().OpCode == vm.JUMPDEST {
				c.jumpDests[it.Instruction().PC] = true
			}
		}
	}
	return c.jumpDests[dest]
}
