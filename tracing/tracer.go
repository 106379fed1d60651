// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tracing

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Fantom-foundation/Figaro/figaro"
)

// Tracer is the default figaro.Inspector: it records the causal tree of
// calls and creates with their logs into an Arena, optionally together with
// one InstructionStep per executed opcode.
//
// A Tracer observes exactly one execution at a time. To seed repeated
// executions with independent trace copies, clone the tracer between runs.
type Tracer struct {
	arena Arena

	// callStack holds the arena indices of the currently open frames,
	// innermost last. stepStack mirrors it with the index of the currently
	// open instruction step per frame, -1 when none is open.
	callStack []int
	stepStack []int

	recordSteps bool
}

// NewTracer creates a tracer recording call boundaries and logs only.
func NewTracer() *Tracer {
	return &Tracer{}
}

// NewStepTracer creates a tracer that additionally records every executed
// instruction with its stack, memory, and gas snapshot.
func NewStepTracer() *Tracer {
	return &Tracer{recordSteps: true}
}

// Traces grants access to the arena recorded so far. The arena is owned by
// the tracer; use Clone for an independent copy.
func (t *Tracer) Traces() *Arena {
	return &t.arena
}

// Clone creates a tracer carrying a deep copy of the already-recorded arena
// and the same configuration. The clone observes its own execution,
// independent of the original.
func (t *Tracer) Clone() *Tracer {
	return &Tracer{
		arena:       *t.arena.Clone(),
		callStack:   slices.Clone(t.callStack),
		stepStack:   slices.Clone(t.stepStack),
		recordSteps: t.recordSteps,
	}
}

func (t *Tracer) WantsSteps() bool {
	return t.recordSteps
}

func (t *Tracer) EnterCall(frame figaro.CallFrame) {
	index := len(t.arena.Nodes)
	t.arena.Nodes = append(t.arena.Nodes, CallTraceNode{
		Depth:   frame.Depth,
		Kind:    frame.Kind,
		Caller:  frame.Caller,
		Address: frame.Recipient,
		Input:   bytes.Clone(frame.Input),
		Value:   frame.Value,
	})
	if len(t.callStack) > 0 {
		parent := &t.arena.Nodes[t.currentNode()]
		parent.Children = append(parent.Children, index)
		parent.Ordering = append(parent.Ordering, Member{Kind: CallMember, Index: index})
	}
	t.callStack = append(t.callStack, index)
	t.stepStack = append(t.stepStack, -1)
}

func (t *Tracer) ExitCall(end figaro.CallEnd) {
	if len(t.callStack) == 0 {
		panic("tracing: call exit event without a matching enter")
	}
	node := &t.arena.Nodes[t.currentNode()]
	node.Status = end.Status
	node.GasUsed = end.GasUsed
	node.Output = bytes.Clone(end.Output)
	node.completed = true
	if end.CreatedAddress != nil {
		node.Address = *end.CreatedAddress
	}
	t.callStack = t.callStack[:len(t.callStack)-1]
	t.stepStack = t.stepStack[:len(t.stepStack)-1]
}

func (t *Tracer) Log(log figaro.Log) {
	if len(t.callStack) == 0 {
		panic("tracing: log event outside of any call frame")
	}
	node := &t.arena.Nodes[t.currentNode()]
	node.Ordering = append(node.Ordering, Member{Kind: LogMember, Index: len(node.Logs)})
	node.Logs = append(node.Logs, figaro.Log{
		Address: log.Address,
		Topics:  slices.Clone(log.Topics),
		Data:    bytes.Clone(log.Data),
	})
}

func (t *Tracer) StepStart(step figaro.Step) {
	if !t.recordSteps || len(t.callStack) == 0 {
		return
	}
	node := &t.arena.Nodes[t.currentNode()]
	t.stepStack[len(t.stepStack)-1] = len(node.Steps)
	node.Steps = append(node.Steps, InstructionStep{
		PC:     step.PC,
		OpCode: step.OpCode,
		Depth:  step.Depth,
		Gas:    step.Gas,
		Stack:  slices.Clone(step.Stack),
		Memory: bytes.Clone(step.Memory),
	})
}

func (t *Tracer) StepEnd(end figaro.StepEnd) {
	if !t.recordSteps || len(t.callStack) == 0 {
		return
	}
	open := t.stepStack[len(t.stepStack)-1]
	if open < 0 {
		panic("tracing: step end event without a matching start")
	}
	t.stepStack[len(t.stepStack)-1] = -1
	step := &t.arena.Nodes[t.currentNode()].Steps[open]
	step.GasCost = step.Gas - end.GasLeft
	if end.Err != nil {
		step.Error = end.Err.Error()
	}
	if end.Storage != nil {
		storage := *end.Storage
		step.Storage = &storage
	}
}

func (t *Tracer) currentNode() int {
	return t.callStack[len(t.callStack)-1]
}

// CheckBalanced verifies that all entered frames have been exited. It is
// used by the executor after a run to detect harness bugs early.
func (t *Tracer) CheckBalanced() error {
	if len(t.callStack) != 0 {
		return fmt.Errorf("trace arena left unbalanced, %d frames still open", len(t.callStack))
	}
	return nil
}
