// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package tinyvm provides a compact, portable interpreter for the practical
// core of the EVM instruction set. It is the default engine of the harness:
// sufficient for executing, tracing, and gas-metering ordinary contract
// code, while deliberately omitting the exotic corners of the instruction
// set (transient storage, self-destruct, blob operations), which report as
// faults.
//
// The interpreter registers itself under the name "tinyvm".
package tinyvm

import (
	"github.com/Fantom-foundation/Figaro/figaro"
)

func init() {
	err := figaro.RegisterInterpreterFactory("tinyvm", func(config any) (figaro.Interpreter, error) {
		return &tinyvm{}, nil
	})
	if err != nil {
		panic(err)
	}
}

type tinyvm struct{}

func (t *tinyvm) Run(params figaro.Parameters) (figaro.Result, error) {
	// Empty code trivially succeeds without consuming gas.
	if len(params.Code) == 0 {
		return figaro.Result{
			Status:  figaro.ExitSuccess,
			GasLeft: params.Gas,
		}, nil
	}

	ctxt := &context{
		params:  params,
		context: params.Context,
		gas:     params.Gas,
		stack:   NewStack(),
		memory:  NewMemory(),
		code:    params.Code,
	}
	defer ReturnStack(ctxt.stack)

	if params.Inspector != nil && params.Inspector.WantsSteps() {
		ctxt.inspector = params.Inspector
	}

	status := execute(ctxt)
	return generateResult(status, ctxt), nil
}

// generateResult translates the final interpreter status into the result
// visible to the harness.
func generateResult(status status, ctxt *context) figaro.Result {
	switch status {
	case statusStopped:
		return figaro.Result{
			Status:    figaro.ExitSuccess,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}
	case statusReturned:
		return figaro.Result{
			Status:    figaro.ExitSuccess,
			Output:    ctxt.output,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}
	case statusReverted:
		return figaro.Result{
			Status:  figaro.ExitRevert,
			Output:  ctxt.output,
			GasLeft: ctxt.gas,
		}
	case statusOutOfGas:
		return figaro.Result{Status: figaro.ExitOutOfGas}
	default:
		return figaro.Result{Status: figaro.ExitFault}
	}
}
