// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package tracing provides the inspector implementations of the harness:
// the call tracer building an arena of call-trace nodes, a broadcast
// wrapper composing independent inspectors, and a rendering helper for the
// resulting call trees.
package tracing

import (
	"bytes"
	"slices"

	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/figaro/vm"
)

// Arena is the flat, depth-first list of call-trace nodes produced by one
// execution. Nodes reference their children by index into the arena rather
// than by pointer; nodes are appended on call entry and mutated in place on
// call exit, never removed.
type Arena struct {
	Nodes []CallTraceNode
}

// MemberKind discriminates the entries of a node's ordering list.
type MemberKind byte

const (
	LogMember  MemberKind = iota // Index refers to the node's Logs list
	CallMember                   // Index refers to the arena's Nodes list
)

// Member is one entry in a node's ordered event list, recording the
// relative order of emitted logs and nested calls.
type Member struct {
	Kind  MemberKind
	Index int
}

// CallTraceNode is one recorded call or create invocation.
type CallTraceNode struct {
	Depth     int
	Kind      figaro.CallKind
	Caller    figaro.Address
	Address   figaro.Address // callee; for creates the deployed address
	Input     figaro.Data
	Value     figaro.Value
	GasUsed   figaro.Gas
	Status    figaro.ExitStatus
	Output    figaro.Data
	Logs      []figaro.Log
	Children  []int // arena indices, each with Depth == this.Depth+1
	Ordering  []Member
	Steps     []InstructionStep // only populated when step recording is on
	completed bool
}

// Completed reports whether the node's exit event has been recorded.
func (n *CallTraceNode) Completed() bool {
	return n.completed
}

// InstructionStep records one executed instruction of a node.
type InstructionStep struct {
	PC      uint64
	OpCode  vm.OpCode
	Depth   int
	Gas     figaro.Gas // gas remaining before execution
	GasCost figaro.Gas
	Stack   []figaro.Word
	Memory  []byte
	Storage *figaro.StorageChange // set for storage writes that changed a value
	Error   string                // non-empty if the instruction faulted
}

// Clone produces a deep copy of the arena.
func (a *Arena) Clone() *Arena {
	res := &Arena{Nodes: make([]CallTraceNode, len(a.Nodes))}
	for i, node := range a.Nodes {
		clone := node
		clone.Input = bytes.Clone(node.Input)
		clone.Output = bytes.Clone(node.Output)
		clone.Children = slices.Clone(node.Children)
		clone.Ordering = slices.Clone(node.Ordering)
		clone.Logs = make([]figaro.Log, len(node.Logs))
		for j, log := range node.Logs {
			clone.Logs[j] = figaro.Log{
				Address: log.Address,
				Topics:  slices.Clone(log.Topics),
				Data:    bytes.Clone(log.Data),
			}
		}
		clone.Steps = make([]InstructionStep, len(node.Steps))
		for j, step := range node.Steps {
			stepClone := step
			stepClone.Stack = slices.Clone(step.Stack)
			stepClone.Memory = bytes.Clone(step.Memory)
			if step.Storage != nil {
				storage := *step.Storage
				stepClone.Storage = &storage
			}
			clone.Steps[j] = stepClone
		}
		res.Nodes[i] = clone
	}
	return res
}
