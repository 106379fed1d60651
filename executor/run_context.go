// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package executor

import (
	"fmt"

	"github.com/Fantom-foundation/Figaro/figaro"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxRecursiveDepth is the nesting limit of recursive contract calls.
	MaxRecursiveDepth = 1024

	maxCodeSize          = 24576
	createGasCostPerByte = 200
)

var emptyCodeHash = figaro.Hash(crypto.Keccak256(nil))

// runContext is the call environment threaded through one execution. It
// implements figaro.RunContext, dispatching the recursive calls issued by
// the interpreter and reporting every frame boundary to the inspector.
type runContext struct {
	figaro.TransactionContext
	interpreter           figaro.Interpreter
	blockParameters       figaro.BlockParameters
	transactionParameters figaro.TransactionParameters
	inspector             figaro.Inspector
	depth                 int
	static                bool
}

func (r runContext) Call(kind figaro.CallKind, parameters figaro.CallParameters) (figaro.CallResult, error) {
	frame := figaro.CallFrame{
		Depth:     r.depth,
		Kind:      kind,
		Caller:    parameters.Sender,
		Recipient: parameters.Recipient,
		Input:     parameters.Input,
		Gas:       parameters.Gas,
		Value:     parameters.Value,
	}
	if kind == figaro.DelegateCall || kind == figaro.CallCode {
		frame.Recipient = parameters.CodeAddress
	}
	if r.inspector != nil {
		r.inspector.EnterCall(frame)
	}

	var result figaro.CallResult
	var err error
	if kind.IsCreate() {
		result, err = r.executeCreate(kind, parameters)
	} else {
		result, err = r.executeCall(kind, parameters)
	}

	if r.inspector != nil {
		end := figaro.CallEnd{
			Status:  result.Status,
			Output:  result.Output,
			GasUsed: parameters.Gas - result.GasLeft,
		}
		if kind.IsCreate() && result.Status == figaro.ExitSuccess {
			created := result.CreatedAddress
			end.CreatedAddress = &created
		}
		if err != nil {
			end.Status = figaro.ExitFault
		}
		r.inspector.ExitCall(end)
	}
	return result, err
}

// EmitLog reports the log to the inspector before recording it in the
// transaction context. The trace keeps logs of frames that later revert,
// marked by the frame's exit status; the backend rolls them back, so they
// do not appear among the persisted logs of the run.
func (r runContext) EmitLog(log figaro.Log) {
	if r.inspector != nil {
		r.inspector.Log(log)
	}
	r.TransactionContext.EmitLog(log)
}

func (r runContext) executeCall(kind figaro.CallKind, parameters figaro.CallParameters) (figaro.CallResult, error) {
	if r.depth >= MaxRecursiveDepth {
		return figaro.CallResult{
			Status:  figaro.ExitCallTooDeep,
			GasLeft: parameters.Gas,
		}, nil
	}
	r.depth++

	if kind == figaro.Call || kind == figaro.CallCode {
		if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
			return figaro.CallResult{
				Status:  figaro.ExitOutOfFunds,
				GasLeft: parameters.Gas,
			}, nil
		}
	}
	snapshot := r.CreateSnapshot()
	recipient := parameters.Recipient

	if kind == figaro.StaticCall {
		r.static = true
	}

	if kind == figaro.Call || kind == figaro.CallCode {
		transferValue(r, parameters.Value, parameters.Sender, recipient)
	}

	result, isPrecompiled := handlePrecompiled(
		r.blockParameters.Revision, parameters.Input, recipient, parameters.Gas)
	if isPrecompiled {
		if !result.Success() {
			r.RestoreSnapshot(snapshot)
			result.GasLeft = 0
		}
		return result, nil
	}

	var codeHash figaro.Hash
	var code figaro.Code
	if kind == figaro.Call || kind == figaro.StaticCall {
		codeHash = r.GetCodeHash(recipient)
		code = r.GetCode(recipient)
	} else {
		code = r.GetCode(parameters.CodeAddress)
		codeHash = r.GetCodeHash(parameters.CodeAddress)
	}

	interpreterParameters := figaro.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Inspector:             r.inspector,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	callResult, err := r.interpreter.Run(interpreterParameters)
	if err != nil {
		r.RestoreSnapshot(snapshot)
		return figaro.CallResult{Status: figaro.ExitFault}, fmt.Errorf("interpreter failure: %w", err)
	}
	if !callResult.Success() {
		r.RestoreSnapshot(snapshot)
		if callResult.Status != figaro.ExitRevert {
			// only a revert returns the unused portion of the gas
			callResult.GasLeft = 0
		}
	}

	return figaro.CallResult{
		Status:    callResult.Status,
		Output:    callResult.Output,
		GasLeft:   callResult.GasLeft,
		GasRefund: callResult.GasRefund,
	}, nil
}

func (r runContext) executeCreate(kind figaro.CallKind, parameters figaro.CallParameters) (figaro.CallResult, error) {
	if r.depth >= MaxRecursiveDepth {
		return figaro.CallResult{
			Status:  figaro.ExitCallTooDeep,
			GasLeft: parameters.Gas,
		}, nil
	}
	r.depth++

	if !canTransferValue(r, parameters.Value, parameters.Sender, nil) {
		return figaro.CallResult{
			Status:  figaro.ExitOutOfFunds,
			GasLeft: parameters.Gas,
		}, nil
	}
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return figaro.CallResult{Status: figaro.ExitFault}, nil
	}

	code := figaro.Code(parameters.Input)
	codeHash := hashCode(code)

	createdAddress := createAddress(kind, parameters.Sender, r.GetNonce(parameters.Sender)-1,
		parameters.Salt, codeHash)

	if r.GetNonce(createdAddress) != 0 ||
		(r.GetCodeHash(createdAddress) != (figaro.Hash{}) &&
			r.GetCodeHash(createdAddress) != emptyCodeHash) {
		// address collision, the creation is burned
		return figaro.CallResult{Status: figaro.ExitFault}, nil
	}
	snapshot := r.CreateSnapshot()
	r.SetNonce(createdAddress, 1)

	transferValue(r, parameters.Value, parameters.Sender, createdAddress)

	interpreterParameters := figaro.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Inspector:             r.inspector,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             createdAddress,
		Sender:                parameters.Sender,
		Input:                 nil,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
	}

	result, err := r.interpreter.Run(interpreterParameters)
	if err != nil {
		r.RestoreSnapshot(snapshot)
		return figaro.CallResult{Status: figaro.ExitFault}, fmt.Errorf("interpreter failure: %w", err)
	}
	if !result.Success() {
		r.RestoreSnapshot(snapshot)
		if result.Status == figaro.ExitRevert {
			return figaro.CallResult{
				Status:         figaro.ExitRevert,
				Output:         result.Output,
				GasLeft:        result.GasLeft,
				CreatedAddress: createdAddress,
			}, nil
		}
		return figaro.CallResult{Status: result.Status}, nil
	}

	outCode := result.Output
	status := figaro.ExitSuccess
	if len(outCode) > maxCodeSize {
		status = figaro.ExitFault
	}
	if r.blockParameters.Revision >= figaro.R10_London && len(outCode) > 0 && outCode[0] == 0xEF {
		status = figaro.ExitFault
	}
	createGas := figaro.Gas(len(outCode) * createGasCostPerByte)
	if result.GasLeft < createGas {
		status = figaro.ExitOutOfGas
	}
	result.GasLeft -= createGas

	if status == figaro.ExitSuccess {
		r.SetCode(createdAddress, figaro.Code(outCode))
	} else {
		r.RestoreSnapshot(snapshot)
		result.GasLeft = 0
		result.Output = nil
	}

	return figaro.CallResult{
		Status:         status,
		Output:         result.Output,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		CreatedAddress: createdAddress,
	}, nil
}

func hashCode(code figaro.Code) figaro.Hash {
	return figaro.Hash(crypto.Keccak256(code))
}

func createAddress(
	kind figaro.CallKind,
	sender figaro.Address,
	nonce uint64,
	salt figaro.Hash,
	initHash figaro.Hash,
) figaro.Address {
	if kind == figaro.Create {
		return figaro.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return figaro.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}

func canTransferValue(
	context figaro.TransactionContext,
	value figaro.Value,
	sender figaro.Address,
	recipient *figaro.Address,
) bool {
	if value == (figaro.Value{}) {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return false
	}

	if recipient == nil || sender == *recipient {
		return true
	}

	receiverBalance := context.GetBalance(*recipient)
	updatedBalance := figaro.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return false
	}

	return true
}

func incrementNonce(context figaro.TransactionContext, address figaro.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}

// Only to be called after canTransferValue
func transferValue(
	context figaro.TransactionContext,
	value figaro.Value,
	sender figaro.Address,
	recipient figaro.Address,
) {
	if value == (figaro.Value{}) {
		return
	}
	if sender == recipient {
		return
	}

	senderBalance := context.GetBalance(sender)
	receiverBalance := context.GetBalance(recipient)
	updatedBalance := figaro.Add(receiverBalance, value)

	senderBalance = figaro.Sub(senderBalance, value)
	context.SetBalance(sender, senderBalance)
	context.SetBalance(recipient, updatedBalance)
}
