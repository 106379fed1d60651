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
	"fmt"

	"github.com/Fantom-foundation/Figaro/figaro/vm"
)

// ExitStatus classifies the outcome of a call or an execution frame. All of
// these are normal outcomes of running byte code; none of them is an error
// of the harness itself.
type ExitStatus byte

const (
	ExitSuccess ExitStatus = iota
	ExitRevert
	ExitOutOfGas
	ExitFault       // invalid opcode, stack or memory bounds violation
	ExitOutOfFunds  // insufficient balance for the attempted value transfer
	ExitCallTooDeep // the call-depth limit was exceeded
)

func (s ExitStatus) String() string {
	switch s {
	case ExitSuccess:
		return "success"
	case ExitRevert:
		return "reverted"
	case ExitOutOfGas:
		return "out of gas"
	case ExitFault:
		return "fault"
	case ExitOutOfFunds:
		return "out of funds"
	case ExitCallTooDeep:
		return "call too deep"
	}
	return fmt.Sprintf("ExitStatus(%d)", byte(s))
}

// IsGasRelated returns true for the failure classes a gas-limit search must
// attribute to an insufficient gas limit: out-of-gas, reverts, and the
// inability to fund the gas purchase or the value transfer.
func (s ExitStatus) IsGasRelated() bool {
	switch s {
	case ExitOutOfGas, ExitRevert, ExitOutOfFunds:
		return true
	}
	return false
}

// Inspector is the observer interface of the harness. An implementation is
// invoked at every call boundary, every emitted log, and, when attached to
// an interpreter supporting it, at every instruction boundary. Inspectors
// must not alter the semantics of the observed execution.
//
// One Inspector instance is bound to exactly one execution at a time; it is
// not shared across concurrent executions. All events of one execution are
// delivered in execution order. Enter/Exit events are strictly nested: for
// every EnterCall there is exactly one matching ExitCall, also when the
// observed frame faults.
type Inspector interface {
	// EnterCall signals the start of a new call or create frame. The depth
	// of the top-level frame is 0, nested frames increment it by one.
	EnterCall(frame CallFrame)

	// ExitCall signals the end of the frame entered by the matching
	// EnterCall.
	ExitCall(end CallEnd)

	// Log reports a log emitted by the currently active frame.
	Log(log Log)

	// StepStart signals the start of one instruction within the currently
	// active frame. Only delivered when the interpreter supports stepping
	// and step observation is requested by the inspector configuration.
	StepStart(step Step)

	// StepEnd signals the completion of the instruction reported by the
	// preceding StepStart.
	StepEnd(end StepEnd)

	// WantsSteps reports whether instruction-level events should be
	// delivered. Interpreters may skip the (costly) capture of stack and
	// memory snapshots when this returns false.
	WantsSteps() bool
}

// CallFrame describes the entry into one call or create frame.
type CallFrame struct {
	Depth     int
	Kind      CallKind
	Caller    Address
	Recipient Address
	Input     Data
	Gas       Gas
	Value     Value
}

// CallEnd describes the exit from the most recently entered frame.
type CallEnd struct {
	Status  ExitStatus
	Output  Data
	GasUsed Gas

	// CreatedAddress replaces the frame's recipient for create frames,
	// where the final deployed address is only known at exit time. It is
	// nil for all other frames.
	CreatedAddress *Address
}

// Step describes the state at the start of one instruction.
type Step struct {
	PC     uint64
	OpCode vm.OpCode
	Depth  int
	Gas    Gas    // gas remaining before the instruction executes
	Stack  []Word // bottom-first copy of the operand stack
	Memory []byte // copy of the touched memory
}

// StepEnd describes the completion of one instruction.
type StepEnd struct {
	GasLeft Gas
	Err     error // non-nil if the instruction faulted

	// Storage carries the slot delta of a storage-affecting instruction
	// whose execution actually changed a value, nil otherwise.
	Storage *StorageChange
}

// StorageChange is the slot delta recorded for storage-affecting
// instructions.
type StorageChange struct {
	Address  Address
	Key      Key
	NewValue Word
}
