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
	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/figaro/vm"
)

// Gas tiers of the instruction set. Account and storage accesses are priced
// at their warm-access cost; the cold/warm distinction of the access-list
// rules is not modeled.
const (
	gasZero     figaro.Gas = 0
	gasBase     figaro.Gas = 2
	gasVeryLow  figaro.Gas = 3
	gasLow      figaro.Gas = 5
	gasMid      figaro.Gas = 8
	gasHigh     figaro.Gas = 10
	gasWarm     figaro.Gas = 100
	gasJumpDest figaro.Gas = 1

	gasSha3     figaro.Gas = 30
	gasSha3Word figaro.Gas = 6
	gasCopyWord figaro.Gas = 3

	gasExp     figaro.Gas = 10
	gasExpByte figaro.Gas = 50

	gasLog      figaro.Gas = 375
	gasLogTopic figaro.Gas = 375
	gasLogByte  figaro.Gas = 8

	gasSStoreSet   figaro.Gas = 20000
	gasSStoreReset figaro.Gas = 2900
	gasSStoreWarm  figaro.Gas = 100

	refundSStoreClear figaro.Gas = 4800

	gasCall        figaro.Gas = 100
	gasCallValue   figaro.Gas = 9000
	gasCallStipend figaro.Gas = 2300
	gasCreate      figaro.Gas = 32000
)

// staticGasPrices is the base gas cost of every instruction, indexed by the
// opcode. Dynamic components (memory expansion, data sizes, storage effects)
// are charged by the individual instruction handlers.
var staticGasPrices = newStaticGasPrices()

func newStaticGasPrices() [256]figaro.Gas {
	var res [256]figaro.Gas

	for _, op := range []vm.OpCode{
		vm.ADD, vm.SUB, vm.NOT, vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ,
		vm.ISZERO, vm.AND, vm.OR, vm.XOR, vm.BYTE, vm.SHL, vm.SHR, vm.SAR,
		vm.CALLDATALOAD, vm.MLOAD, vm.MSTORE, vm.MSTORE8,
	} {
		res[op] = gasVeryLow
	}
	for op := vm.PUSH1; op <= vm.PUSH32; op++ {
		res[op] = gasVeryLow
	}
	for op := vm.DUP1; op <= vm.DUP16; op++ {
		res[op] = gasVeryLow
	}
	for op := vm.SWAP1; op <= vm.SWAP16; op++ {
		res[op] = gasVeryLow
	}

	for _, op := range []vm.OpCode{
		vm.MUL, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.SIGNEXTEND,
	} {
		res[op] = gasLow
	}

	res[vm.ADDMOD] = gasMid
	res[vm.MULMOD] = gasMid
	res[vm.JUMP] = gasMid
	res[vm.JUMPI] = gasHigh
	res[vm.JUMPDEST] = gasJumpDest

	for _, op := range []vm.OpCode{
		vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE, vm.CALLDATASIZE,
		vm.CODESIZE, vm.GASPRICE, vm.RETURNDATASIZE, vm.PC, vm.MSIZE,
		vm.GAS, vm.COINBASE, vm.TIMESTAMP, vm.NUMBER, vm.PREVRANDAO,
		vm.GASLIMIT, vm.CHAINID, vm.BASEFEE, vm.POP, vm.PUSH0,
	} {
		res[op] = gasBase
	}

	res[vm.SELFBALANCE] = gasLow

	for _, op := range []vm.OpCode{
		vm.BALANCE, vm.EXTCODESIZE, vm.EXTCODEHASH, vm.SLOAD, vm.BLOCKHASH,
		vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL,
	} {
		res[op] = gasWarm
	}

	res[vm.SHA3] = gasSha3
	res[vm.EXP] = gasExp

	for _, op := range []vm.OpCode{
		vm.CALLDATACOPY, vm.CODECOPY, vm.RETURNDATACOPY, vm.EXTCODECOPY,
		vm.MCOPY,
	} {
		res[op] = gasVeryLow
	}
	res[vm.EXTCODECOPY] = gasWarm

	res[vm.LOG0] = gasLog
	res[vm.LOG1] = gasLog
	res[vm.LOG2] = gasLog
	res[vm.LOG3] = gasLog
	res[vm.LOG4] = gasLog

	res[vm.CREATE] = gasCreate
	res[vm.CREATE2] = gasCreate

	// STOP, RETURN, and REVERT are free.
	return res
}

// toWords rounds a byte size up to full 32-byte words.
func toWords(size uint64) figaro.Gas {
	return figaro.Gas((size + 31) / 32)
}
