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
	"hash"
	"math"
	"sync"

	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/figaro/vm"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// execute runs the instruction loop of the given context until the frame
// terminates and reports the final status.
func execute(c *context) status {
	for {
		if c.pc >= uint64(len(c.code)) {
			// Running off the end of the code is an implicit STOP.
			return statusStopped
		}
		op := vm.OpCode(c.code[c.pc])

		if c.inspector != nil {
			c.inspector.StepStart(figaro.Step{
				PC:     c.pc,
				OpCode: op,
				Depth:  c.params.Depth,
				Gas:    c.gas,
				Stack:  captureStack(c.stack),
				Memory: append([]byte(nil), c.memory.store...),
			})
		}

		res, change, err := step(c, op)

		if c.inspector != nil {
			c.inspector.StepEnd(figaro.StepEnd{
				GasLeft: c.gas,
				Err:     err,
				Storage: change,
			})
		}

		if err != nil {
			if err == errOutOfGas {
				return statusOutOfGas
			}
			return statusFailed
		}
		if res != statusRunning {
			return res
		}
	}
}

// step executes the single instruction the program counter points at. It
// reports the resulting execution status, the storage delta of a successful
// storage write, and the error terminating the frame, if any.
func step(c *context, op vm.OpCode) (status, *figaro.StorageChange, error) {
	if !vm.IsValid(op) {
		return statusFailed, nil, errInvalidOpCode
	}
	use := stackUsages[op]
	if c.stack.len() < use.popped {
		return statusFailed, nil, errStackUnderflow
	}
	if c.stack.len()+use.pushed-use.popped > maxStackSize {
		return statusFailed, nil, errStackOverflow
	}
	if err := c.useGas(staticGasPrices[op]); err != nil {
		return statusFailed, nil, err
	}

	if op.IsPush() {
		opPush(c, op)
		return statusRunning, nil, nil
	}
	if vm.DUP1 <= op && op <= vm.DUP16 {
		c.stack.dup(int(op-vm.DUP1) + 1)
		c.pc++
		return statusRunning, nil, nil
	}
	if vm.SWAP1 <= op && op <= vm.SWAP16 {
		c.stack.swap(int(op-vm.SWAP1) + 1)
		c.pc++
		return statusRunning, nil, nil
	}

	switch op {
	case vm.STOP:
		return statusStopped, nil, nil

	case vm.ADD:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Add(a, b)
	case vm.MUL:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Mul(a, b)
	case vm.SUB:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Sub(a, b)
	case vm.DIV:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Div(a, b)
	case vm.SDIV:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.SDiv(a, b)
	case vm.MOD:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Mod(a, b)
	case vm.SMOD:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.SMod(a, b)
	case vm.ADDMOD:
		x, y := c.stack.pop(), c.stack.pop()
		m := c.stack.peekN(0)
		m.AddMod(x, y, m)
	case vm.MULMOD:
		x, y := c.stack.pop(), c.stack.pop()
		m := c.stack.peekN(0)
		m.MulMod(x, y, m)
	case vm.EXP:
		base, exponent := c.stack.pop(), c.stack.peekN(0)
		if err := c.useGas(gasExpByte * figaro.Gas(exponent.ByteLen())); err != nil {
			return statusFailed, nil, err
		}
		exponent.Exp(base, exponent)
	case vm.SIGNEXTEND:
		back, num := c.stack.pop(), c.stack.peekN(0)
		num.ExtendSign(num, back)

	case vm.LT:
		b, a := c.stack.pop(), c.stack.peekN(0)
		setBool(a, a.Lt(b))
	case vm.GT:
		b, a := c.stack.pop(), c.stack.peekN(0)
		setBool(a, a.Gt(b))
	case vm.SLT:
		b, a := c.stack.pop(), c.stack.peekN(0)
		setBool(a, a.Slt(b))
	case vm.SGT:
		b, a := c.stack.pop(), c.stack.peekN(0)
		setBool(a, a.Sgt(b))
	case vm.EQ:
		b, a := c.stack.pop(), c.stack.peekN(0)
		setBool(a, a.Eq(b))
	case vm.ISZERO:
		a := c.stack.peekN(0)
		setBool(a, a.IsZero())
	case vm.AND:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.And(a, b)
	case vm.OR:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Or(a, b)
	case vm.XOR:
		b, a := c.stack.pop(), c.stack.peekN(0)
		a.Xor(a, b)
	case vm.NOT:
		a := c.stack.peekN(0)
		a.Not(a)
	case vm.BYTE:
		th, val := c.stack.pop(), c.stack.peekN(0)
		val.Byte(th)
	case vm.SHL:
		shift, value := c.stack.pop(), c.stack.peekN(0)
		if shift.LtUint64(256) {
			value.Lsh(value, uint(shift.Uint64()))
		} else {
			value.Clear()
		}
	case vm.SHR:
		shift, value := c.stack.pop(), c.stack.peekN(0)
		if shift.LtUint64(256) {
			value.Rsh(value, uint(shift.Uint64()))
		} else {
			value.Clear()
		}
	case vm.SAR:
		shift, value := c.stack.pop(), c.stack.peekN(0)
		if shift.LtUint64(256) {
			value.SRsh(value, uint(shift.Uint64()))
		} else if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}

	case vm.SHA3:
		offset, size := c.stack.pop(), c.stack.peekN(0)
		off, sz, err := memRange(offset, size)
		if err != nil {
			return statusFailed, nil, err
		}
		if err := c.memory.ensure(c, off, sz); err != nil {
			return statusFailed, nil, err
		}
		if err := c.useGas(gasSha3Word * toWords(sz)); err != nil {
			return statusFailed, nil, err
		}
		h := keccak256(c.memory.view(off, sz))
		size.SetBytes(h[:])

	case vm.ADDRESS:
		c.stack.pushUndefined().SetBytes(c.params.Recipient[:])
	case vm.BALANCE:
		slot := c.stack.peekN(0)
		balance := c.context.GetBalance(figaro.Address(slot.Bytes20()))
		slot.SetBytes(balance[:])
	case vm.ORIGIN:
		c.stack.pushUndefined().SetBytes(c.params.Origin[:])
	case vm.CALLER:
		c.stack.pushUndefined().SetBytes(c.params.Sender[:])
	case vm.CALLVALUE:
		c.stack.pushUndefined().SetBytes(c.params.Value[:])
	case vm.CALLDATALOAD:
		offset := c.stack.peekN(0)
		if !offset.IsUint64() {
			offset.Clear()
		} else {
			offset.SetBytes(getData(c.params.Input, offset.Uint64(), 32))
		}
	case vm.CALLDATASIZE:
		c.stack.pushUndefined().SetUint64(uint64(len(c.params.Input)))
	case vm.CALLDATACOPY:
		if _, err := opCopyIn(c, c.params.Input); err != nil {
			return statusFailed, nil, err
		}
	case vm.CODESIZE:
		c.stack.pushUndefined().SetUint64(uint64(len(c.code)))
	case vm.CODECOPY:
		if _, err := opCopyIn(c, c.code); err != nil {
			return statusFailed, nil, err
		}
	case vm.GASPRICE:
		c.stack.pushUndefined().SetBytes(c.params.GasPrice[:])
	case vm.EXTCODESIZE:
		slot := c.stack.peekN(0)
		size := c.context.GetCodeSize(figaro.Address(slot.Bytes20()))
		slot.SetUint64(uint64(size))
	case vm.EXTCODECOPY:
		addr := figaro.Address(c.stack.pop().Bytes20())
		if _, err := opCopyIn(c, c.context.GetCode(addr)); err != nil {
			return statusFailed, nil, err
		}
	case vm.EXTCODEHASH:
		slot := c.stack.peekN(0)
		addr := figaro.Address(slot.Bytes20())
		if !c.context.AccountExists(addr) {
			slot.Clear()
		} else {
			h := c.context.GetCodeHash(addr)
			slot.SetBytes(h[:])
		}
	case vm.RETURNDATASIZE:
		c.stack.pushUndefined().SetUint64(uint64(len(c.returnData)))
	case vm.RETURNDATACOPY:
		memOffset, dataOffset, size := c.stack.pop(), c.stack.pop(), c.stack.pop()
		if size.IsZero() {
			break
		}
		off, sz, err := memRange(dataOffset, size)
		if err != nil {
			return statusFailed, nil, err
		}
		if off > math.MaxUint64-sz || off+sz > uint64(len(c.returnData)) {
			return statusFailed, nil, errReturnDataOutOfBounds
		}
		dst, _, err := memRange(memOffset, size)
		if err != nil {
			return statusFailed, nil, err
		}
		if err := c.memory.ensure(c, dst, sz); err != nil {
			return statusFailed, nil, err
		}
		if err := c.useGas(gasCopyWord * toWords(sz)); err != nil {
			return statusFailed, nil, err
		}
		c.memory.write(dst, c.returnData[off:off+sz])

	case vm.BLOCKHASH:
		// Historic block hashes are not part of the tracked state.
		c.stack.peekN(0).Clear()
	case vm.COINBASE:
		c.stack.pushUndefined().SetBytes(c.params.Coinbase[:])
	case vm.TIMESTAMP:
		c.stack.pushUndefined().SetUint64(uint64(c.params.Timestamp))
	case vm.NUMBER:
		c.stack.pushUndefined().SetUint64(uint64(c.params.BlockNumber))
	case vm.PREVRANDAO:
		c.stack.pushUndefined().SetBytes(c.params.PrevRandao[:])
	case vm.GASLIMIT:
		c.stack.pushUndefined().SetUint64(uint64(c.params.BlockParameters.GasLimit))
	case vm.CHAINID:
		c.stack.pushUndefined().SetBytes(c.params.ChainID[:])
	case vm.SELFBALANCE:
		balance := c.context.GetBalance(c.params.Recipient)
		c.stack.pushUndefined().SetBytes(balance[:])
	case vm.BASEFEE:
		c.stack.pushUndefined().SetBytes(c.params.BaseFee[:])

	case vm.POP:
		c.stack.pop()
	case vm.MLOAD:
		offset := c.stack.peekN(0)
		if !offset.IsUint64() {
			return statusFailed, nil, errGasUintOverflow
		}
		off := offset.Uint64()
		if err := c.memory.ensure(c, off, 32); err != nil {
			return statusFailed, nil, err
		}
		offset.SetBytes(c.memory.view(off, 32))
	case vm.MSTORE:
		offset, value := c.stack.pop(), c.stack.pop()
		if !offset.IsUint64() {
			return statusFailed, nil, errGasUintOverflow
		}
		off := offset.Uint64()
		if err := c.memory.ensure(c, off, 32); err != nil {
			return statusFailed, nil, err
		}
		word := value.Bytes32()
		c.memory.write(off, word[:])
	case vm.MSTORE8:
		offset, value := c.stack.pop(), c.stack.pop()
		if !offset.IsUint64() {
			return statusFailed, nil, errGasUintOverflow
		}
		off := offset.Uint64()
		if err := c.memory.ensure(c, off, 1); err != nil {
			return statusFailed, nil, err
		}
		c.memory.write(off, []byte{byte(value.Uint64())})
	case vm.MCOPY:
		dst, src, size := c.stack.pop(), c.stack.pop(), c.stack.pop()
		if size.IsZero() {
			break
		}
		d, sz, err := memRange(dst, size)
		if err != nil {
			return statusFailed, nil, err
		}
		s, _, err := memRange(src, size)
		if err != nil {
			return statusFailed, nil, err
		}
		top := d
		if s > top {
			top = s
		}
		if err := c.memory.ensure(c, top, sz); err != nil {
			return statusFailed, nil, err
		}
		if err := c.useGas(gasCopyWord * toWords(sz)); err != nil {
			return statusFailed, nil, err
		}
		copy(c.memory.store[d:d+sz], c.memory.store[s:s+sz])

	case vm.SLOAD:
		slot := c.stack.peekN(0)
		value := c.context.GetStorage(c.params.Recipient, figaro.Key(slot.Bytes32()))
		slot.SetBytes(value[:])
	case vm.SSTORE:
		return opSStore(c)

	case vm.JUMP:
		dest := c.stack.pop()
		if !dest.IsUint64() || !c.isValidJumpDest(dest.Uint64()) {
			return statusFailed, nil, errInvalidJump
		}
		c.pc = dest.Uint64()
		return statusRunning, nil, nil
	case vm.JUMPI:
		dest, cond := c.stack.pop(), c.stack.pop()
		if !cond.IsZero() {
			if !dest.IsUint64() || !c.isValidJumpDest(dest.Uint64()) {
				return statusFailed, nil, errInvalidJump
			}
			c.pc = dest.Uint64()
			return statusRunning, nil, nil
		}
	case vm.PC:
		c.stack.pushUndefined().SetUint64(c.pc)
	case vm.MSIZE:
		c.stack.pushUndefined().SetUint64(c.memory.size())
	case vm.GAS:
		c.stack.pushUndefined().SetUint64(uint64(c.gas))
	case vm.JUMPDEST:
		// no-op

	case vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4:
		if err := opLog(c, int(op-vm.LOG0)); err != nil {
			return statusFailed, nil, err
		}

	case vm.CREATE, vm.CREATE2:
		if err := opCreate(c, op); err != nil {
			return statusFailed, nil, err
		}
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		if err := opCall(c, op); err != nil {
			return statusFailed, nil, err
		}

	case vm.RETURN:
		output, err := opEndWithOutput(c)
		if err != nil {
			return statusFailed, nil, err
		}
		c.output = output
		return statusReturned, nil, nil
	case vm.REVERT:
		output, err := opEndWithOutput(c)
		if err != nil {
			return statusFailed, nil, err
		}
		c.output = output
		return statusReverted, nil, nil

	default:
		// Remaining opcodes (transient storage, self-destruct) are outside
		// the supported instruction set.
		return statusFailed, nil, errUnsupportedOpCode
	}

	c.pc++
	return statusRunning, nil, nil
}

func opPush(c *context, op vm.OpCode) {
	n := op.PushSize()
	value := c.stack.pushUndefined()
	if n == 0 {
		value.Clear()
	} else {
		start := c.pc + 1
		end := start + uint64(n)
		if end > uint64(len(c.code)) {
			end = uint64(len(c.code))
		}
		value.SetBytes(c.code[start:end])
	}
	c.pc += uint64(1 + n)
}

// opCopyIn implements the shared semantics of CALLDATACOPY, CODECOPY, and
// the tail of EXTCODECOPY: copy a zero-padded slice of the given source into
// memory.
func opCopyIn(c *context, source []byte) (uint64, error) {
	memOffset, dataOffset, size := c.stack.pop(), c.stack.pop(), c.stack.pop()
	if size.IsZero() {
		return 0, nil
	}
	dst, sz, err := memRange(memOffset, size)
	if err != nil {
		return 0, err
	}
	if err := c.memory.ensure(c, dst, sz); err != nil {
		return 0, err
	}
	if err := c.useGas(gasCopyWord * toWords(sz)); err != nil {
		return 0, err
	}
	var src uint64
	if dataOffset.IsUint64() {
		src = dataOffset.Uint64()
	} else {
		src = uint64(len(source))
	}
	c.memory.write(dst, getData(source, src, sz))
	return sz, nil
}

func opSStore(c *context) (status, *figaro.StorageChange, error) {
	if c.params.Static {
		return statusFailed, nil, errWriteProtection
	}
	keyValue, newValue := c.stack.pop(), c.stack.pop()
	key := figaro.Key(keyValue.Bytes32())
	value := figaro.Word(newValue.Bytes32())

	current := c.context.GetStorage(c.params.Recipient, key)
	storageStatus := c.context.SetStorage(c.params.Recipient, key, value)

	var cost figaro.Gas
	switch storageStatus {
	case figaro.StorageAdded:
		cost = gasSStoreSet
	case figaro.StorageDeleted, figaro.StorageModified:
		cost = gasSStoreReset
	default:
		cost = gasSStoreWarm
	}
	if err := c.useGas(cost); err != nil {
		return statusFailed, nil, err
	}
	if storageStatus == figaro.StorageDeleted {
		c.refund += refundSStoreClear
	}

	var change *figaro.StorageChange
	if current != value {
		change = &figaro.StorageChange{
			Address:  c.params.Recipient,
			Key:      key,
			NewValue: value,
		}
	}
	c.pc++
	return statusRunning, change, nil
}

func opLog(c *context, topicCount int) error {
	if c.params.Static {
		return errWriteProtection
	}
	offset, size := c.stack.pop(), c.stack.pop()
	topics := make([]figaro.Hash, topicCount)
	for i := range topics {
		topics[i] = figaro.Hash(c.stack.pop().Bytes32())
	}
	var data []byte
	if !size.IsZero() {
		off, sz, err := memRange(offset, size)
		if err != nil {
			return err
		}
		if err := c.memory.ensure(c, off, sz); err != nil {
			return err
		}
		data = c.memory.read(off, sz)
	}
	cost := gasLogTopic*figaro.Gas(topicCount) + gasLogByte*figaro.Gas(len(data))
	if err := c.useGas(cost); err != nil {
		return err
	}
	c.context.EmitLog(figaro.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

func opEndWithOutput(c *context) ([]byte, error) {
	offset, size := c.stack.pop(), c.stack.pop()
	if size.IsZero() {
		return nil, nil
	}
	off, sz, err := memRange(offset, size)
	if err != nil {
		return nil, err
	}
	if err := c.memory.ensure(c, off, sz); err != nil {
		return nil, err
	}
	return c.memory.read(off, sz), nil
}

func opCall(c *context, op vm.OpCode) error {
	gasLimit := *c.stack.pop()
	target := figaro.Address(c.stack.pop().Bytes20())
	var value figaro.Value
	if op == vm.CALL || op == vm.CALLCODE {
		value = figaro.ValueFromUint256(c.stack.pop())
	}
	inOffset, inSize := c.stack.pop(), c.stack.pop()
	outOffset, outSize := c.stack.pop(), c.stack.pop()

	zeroValue := figaro.Value{}
	if op == vm.CALL && value != zeroValue && c.params.Static {
		return errWriteProtection
	}

	var input []byte
	if !inSize.IsZero() {
		off, sz, err := memRange(inOffset, inSize)
		if err != nil {
			return err
		}
		if err := c.memory.ensure(c, off, sz); err != nil {
			return err
		}
		input = c.memory.read(off, sz)
	}
	var outOff, outSz uint64
	if !outSize.IsZero() {
		var err error
		outOff, outSz, err = memRange(outOffset, outSize)
		if err != nil {
			return err
		}
		if err := c.memory.ensure(c, outOff, outSz); err != nil {
			return err
		}
	}

	if value != zeroValue {
		if err := c.useGas(gasCallValue); err != nil {
			return err
		}
	}

	// All but one 64th of the remaining gas can be forwarded.
	limit := c.gas - c.gas/64
	requested := limit
	if gasLimit.IsUint64() && figaro.Gas(gasLimit.Uint64()) < limit {
		requested = figaro.Gas(gasLimit.Uint64())
	}
	if err := c.useGas(requested); err != nil {
		return err
	}
	endowment := requested
	if value != zeroValue {
		endowment += gasCallStipend
	}

	params := figaro.CallParameters{
		Gas:         endowment,
		Input:       input,
		CodeAddress: target,
	}
	var kind figaro.CallKind
	switch op {
	case vm.CALL:
		kind = figaro.Call
		params.Sender = c.params.Recipient
		params.Recipient = target
		params.Value = value
	case vm.CALLCODE:
		kind = figaro.CallCode
		params.Sender = c.params.Recipient
		params.Recipient = c.params.Recipient
		params.Value = value
	case vm.DELEGATECALL:
		kind = figaro.DelegateCall
		params.Sender = c.params.Sender
		params.Recipient = c.params.Recipient
		params.Value = c.params.Value
	case vm.STATICCALL:
		kind = figaro.StaticCall
		params.Sender = c.params.Recipient
		params.Recipient = target
	}

	res, err := c.context.Call(kind, params)
	if err != nil {
		return err
	}

	c.returnData = res.Output
	if outSz > 0 && len(res.Output) > 0 {
		n := outSz
		if uint64(len(res.Output)) < n {
			n = uint64(len(res.Output))
		}
		c.memory.write(outOff, res.Output[:n])
	}
	c.gas += res.GasLeft
	c.refund += res.GasRefund
	setBool(c.stack.pushUndefined(), res.Success())
	return nil
}

func opCreate(c *context, op vm.OpCode) error {
	if c.params.Static {
		return errWriteProtection
	}
	value := figaro.ValueFromUint256(c.stack.pop())
	offset, size := c.stack.pop(), c.stack.pop()
	var salt figaro.Hash
	kind := figaro.Create
	if op == vm.CREATE2 {
		salt = figaro.Hash(c.stack.pop().Bytes32())
		kind = figaro.Create2
	}

	var input []byte
	if !size.IsZero() {
		off, sz, err := memRange(offset, size)
		if err != nil {
			return err
		}
		if err := c.memory.ensure(c, off, sz); err != nil {
			return err
		}
		if op == vm.CREATE2 {
			// CREATE2 hashes the init code to derive the address.
			if err := c.useGas(gasSha3Word * toWords(sz)); err != nil {
				return err
			}
		}
		input = c.memory.read(off, sz)
	}

	requested := c.gas - c.gas/64
	if err := c.useGas(requested); err != nil {
		return err
	}

	res, err := c.context.Call(kind, figaro.CallParameters{
		Sender: c.params.Recipient,
		Value:  value,
		Input:  input,
		Gas:    requested,
		Salt:   salt,
	})
	if err != nil {
		return err
	}

	// Only a revert exposes return data to the creator.
	if res.Status == figaro.ExitRevert {
		c.returnData = res.Output
	} else {
		c.returnData = nil
	}
	c.gas += res.GasLeft
	c.refund += res.GasRefund
	result := c.stack.pushUndefined()
	if res.Success() {
		result.SetBytes(res.CreatedAddress[:])
	} else {
		result.Clear()
	}
	return nil
}

// memRange converts an (offset,size) stack pair into native integers,
// rejecting ranges that cannot be addressed.
func memRange(offset, size *uint256.Int) (uint64, uint64, error) {
	if !offset.IsUint64() || !size.IsUint64() {
		return 0, 0, errGasUintOverflow
	}
	return offset.Uint64(), size.Uint64(), nil
}

// getData returns a slice of the given size from the source, starting at
// the given offset and zero-padded past the end of the source.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	res := make([]byte, size)
	copy(res, data[start:end])
	return res
}

func setBool(z *uint256.Int, b bool) {
	if b {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func captureStack(s *stack) []figaro.Word {
	res := make([]figaro.Word, s.len())
	for i := 0; i < s.len(); i++ {
		res[i] = figaro.Word(s.data[i].Bytes32())
	}
	return res
}

var keccakPool = sync.Pool{
	New: func() any { return sha3.NewLegacyKeccak256() },
}

func keccak256(data []byte) (res figaro.Hash) {
	hasher := keccakPool.Get().(hash.Hash)
	hasher.Reset()
	hasher.Write(data)
	hasher.Sum(res[:0])
	keccakPool.Put(hasher)
	return
}

type stackUsage struct {
	popped, pushed int
}

// stackUsages lists the number of stack elements consumed and produced by
// every instruction, indexed by opcode.
var stackUsages = newStackUsages()

func newStackUsages() [256]stackUsage {
	var res [256]stackUsage

	set := func(popped, pushed int, ops ...vm.OpCode) {
		for _, op := range ops {
			res[op] = stackUsage{popped: popped, pushed: pushed}
		}
	}

	set(2, 1,
		vm.ADD, vm.MUL, vm.SUB, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.EXP,
		vm.SIGNEXTEND, vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.AND, vm.OR,
		vm.XOR, vm.BYTE, vm.SHL, vm.SHR, vm.SAR, vm.SHA3)
	set(3, 1, vm.ADDMOD, vm.MULMOD)
	set(1, 1,
		vm.ISZERO, vm.NOT, vm.BALANCE, vm.CALLDATALOAD, vm.EXTCODESIZE,
		vm.EXTCODEHASH, vm.BLOCKHASH, vm.MLOAD, vm.SLOAD)
	set(0, 1,
		vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE, vm.CALLDATASIZE,
		vm.CODESIZE, vm.GASPRICE, vm.RETURNDATASIZE, vm.COINBASE,
		vm.TIMESTAMP, vm.NUMBER, vm.PREVRANDAO, vm.GASLIMIT, vm.CHAINID,
		vm.SELFBALANCE, vm.BASEFEE, vm.PC, vm.MSIZE, vm.GAS)
	set(3, 0, vm.CALLDATACOPY, vm.CODECOPY, vm.RETURNDATACOPY, vm.MCOPY)
	set(4, 0, vm.EXTCODECOPY)
	set(1, 0, vm.POP, vm.JUMP)
	set(2, 0, vm.MSTORE, vm.MSTORE8, vm.SSTORE, vm.JUMPI, vm.RETURN, vm.REVERT)

	for op := vm.PUSH0; op <= vm.PUSH32; op++ {
		res[op] = stackUsage{popped: 0, pushed: 1}
	}
	for op := vm.DUP1; op <= vm.DUP16; op++ {
		n := int(op-vm.DUP1) + 1
		res[op] = stackUsage{popped: n, pushed: n + 1}
	}
	for op := vm.SWAP1; op <= vm.SWAP16; op++ {
		n := int(op-vm.SWAP1) + 1
		res[op] = stackUsage{popped: n + 1, pushed: n + 1}
	}

	for i, op := range []vm.OpCode{vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4} {
		res[op] = stackUsage{popped: 2 + i, pushed: 0}
	}

	set(3, 1, vm.CREATE)
	set(4, 1, vm.CREATE2)
	set(7, 1, vm.CALL, vm.CALLCODE)
	set(6, 1, vm.DELEGATECALL, vm.STATICCALL)

	return res
}
