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
	"github.com/Fantom-foundation/Figaro/figaro"

	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
)

// handlePrecompiled intercepts calls targeting one of the precompiled
// contract addresses and evaluates them through the geth implementations.
// The second return value reports whether the call was intercepted.
func handlePrecompiled(revision figaro.Revision, input figaro.Data, address figaro.Address, gas figaro.Gas) (figaro.CallResult, bool) {
	contract, ok := precompiledContract(address, revision)
	if !ok {
		return figaro.CallResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gas < figaro.Gas(gasCost) {
		return figaro.CallResult{Status: figaro.ExitOutOfGas}, true
	}
	gas -= figaro.Gas(gasCost)
	output, err := contract.Run(input)

	// precompiled contracts only return errors on invalid input
	status := figaro.ExitSuccess
	if err != nil {
		status = figaro.ExitFault
	}
	return figaro.CallResult{
		Status:  status,
		Output:  output,
		GasLeft: gas,
	}, true
}

func precompiledContract(address figaro.Address, revision figaro.Revision) (geth.PrecompiledContract, bool) {
	var precompiles map[common.Address]geth.PrecompiledContract
	switch revision {
	case figaro.R13_Cancun:
		precompiles = geth.PrecompiledContractsCancun
	case figaro.R12_Shanghai, figaro.R11_Paris, figaro.R10_London, figaro.R09_Berlin:
		precompiles = geth.PrecompiledContractsBerlin
	default:
		precompiles = geth.PrecompiledContractsIstanbul
	}
	contract, ok := precompiles[common.Address(address)]
	return contract, ok
}
