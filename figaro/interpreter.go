// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package figaro

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Interpreter is a component capable of executing EVM byte-code. It is the
// engine below the execution harness; the harness adds recursive contract
// calls, state layering, and tracing on top.
type Interpreter interface {
	// Run executes the code provided by the parameters in the specified
	// context and returns the processing result. The resulting error is nil
	// whenever the code was correctly executed, even if the execution was
	// aborted due to a code-internal issue such as running out of gas. The
	// error is not nil if some problem within the interpreter caused the
	// execution to fail to correctly process the provided program. In such a
	// case the result is undefined. Interpreters are required to be
	// thread-safe, multiple runs may be conducted in parallel.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the list of input parameters required for executing
// code.
type Parameters struct {
	BlockParameters
	TransactionParameters
	Context   RunContext
	Inspector Inspector // optional, may be nil
	Kind      CallKind
	Static    bool
	Depth     int
	Gas       Gas
	Recipient Address
	Sender    Address
	Input     Data
	Value     Value
	CodeHash  *Hash
	Code      Code
}

// BlockParameters contains information about the current block.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
	Coinbase    Address
	GasLimit    Gas
	PrevRandao  Hash
	BaseFee     Value
	Revision    Revision

	// Difficulty carries the pre-merge difficulty reported by some chains.
	// Chain normalization rules may substitute it for PrevRandao, see the
	// state package.
	Difficulty Hash

	// AltBlockNumber is a secondary block number reported by some L2 chains
	// through a side channel. When non-zero, chain normalization substitutes
	// it for BlockNumber before use.
	AltBlockNumber int64
}

// TransactionParameters contains information about the current transaction.
type TransactionParameters struct {
	Origin   Address
	GasPrice Value
}

// RunContext provides an interface to access and manipulate state and
// transaction properties as needed by individual EVM instructions.
type RunContext interface {
	TransactionContext

	Call(kind CallKind, parameter CallParameters) (CallResult, error)
}

// Result summarizes the result of an EVM code computation.
type Result struct {
	Status    ExitStatus
	Output    Data
	GasLeft   Gas
	GasRefund Gas
}

// Success returns true if the execution ended without a revert or fault.
func (r Result) Success() bool {
	return r.Status == ExitSuccess
}

// CallKind is an enum enabling the differentiation of the different types
// of recursive contract calls supported in the EVM.
type CallKind int

const (
	Call CallKind = iota
	DelegateCall
	StaticCall
	CallCode
	Create
	Create2
)

func (k CallKind) String() string {
	switch k {
	case Call:
		return "call"
	case StaticCall:
		return "static_call"
	case DelegateCall:
		return "delegate_call"
	case CallCode:
		return "call_code"
	case Create:
		return "create"
	case Create2:
		return "create2"
	default:
		return "unknown"
	}
}

func (k CallKind) MarshalJSON() ([]byte, error) {
	switch k {
	case Call, StaticCall, DelegateCall, CallCode, Create, Create2:
		return json.Marshal(k.String())
	default:
		return nil, fmt.Errorf("invalid call kind: %v", int(k))
	}
}

func (k *CallKind) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err != nil {
		return err
	}
	switch strings.ToLower(kind) {
	case "call":
		*k = Call
	case "static_call":
		*k = StaticCall
	case "delegate_call":
		*k = DelegateCall
	case "call_code":
		*k = CallCode
	case "create":
		*k = Create
	case "create2":
		*k = Create2
	default:
		return fmt.Errorf("unknown call kind: %s", kind)
	}
	return nil
}

// IsCreate returns true for the contract-creation call kinds.
func (k CallKind) IsCreate() bool {
	return k == Create || k == Create2
}

// CallParameters summarizes the parameters of a (recursive) contract call.
type CallParameters struct {
	Sender      Address
	Recipient   Address // not relevant for CREATE and CREATE2
	Value       Value   // ignored by static calls, considered to be 0
	Input       Data
	Gas         Gas
	Salt        Hash    // only relevant for CREATE2 calls
	CodeAddress Address // code source for DELEGATECALL and CALLCODE
}

// CallResult summarizes the result of a (recursive) contract call.
type CallResult struct {
	Status         ExitStatus
	Output         Data
	GasLeft        Gas
	GasRefund      Gas
	CreatedAddress Address // only meaningful for CREATE and CREATE2
}

// Success returns true if the call ended without a revert or fault.
func (r CallResult) Success() bool {
	return r.Status == ExitSuccess
}

// Revision is an enumeration for EVM specification revisions (aka hard-forks).
type Revision int

const (
	R07_Istanbul Revision = iota
	R09_Berlin
	R10_London
	R11_Paris
	R12_Shanghai
	R13_Cancun
)

func (r Revision) String() string {
	switch r {
	case R07_Istanbul:
		return "Istanbul"
	case R09_Berlin:
		return "Berlin"
	case R10_London:
		return "London"
	case R11_Paris:
		return "Paris"
	case R12_Shanghai:
		return "Shanghai"
	case R13_Cancun:
		return "Cancun"
	}
	return fmt.Sprintf("Revision(%d)", int(r))
}
