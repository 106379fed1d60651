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

import "github.com/Fantom-foundation/Figaro/figaro"

// Mux broadcasts inspector events to a list of independent inspectors, so
// separate concerns (tracing, coverage, logging) can observe the same
// execution without being merged into one implementation.
type Mux struct {
	inspectors []figaro.Inspector
}

// NewMux composes the given inspectors. Events are delivered in argument
// order.
func NewMux(inspectors ...figaro.Inspector) *Mux {
	return &Mux{inspectors: inspectors}
}

func (m *Mux) WantsSteps() bool {
	for _, inspector := range m.inspectors {
		if inspector.WantsSteps() {
			return true
		}
	}
	return false
}

func (m *Mux) EnterCall(frame figaro.CallFrame) {
	for _, inspector := range m.inspectors {
		inspector.EnterCall(frame)
	}
}

func (m *Mux) ExitCall(end figaro.CallEnd) {
	for _, inspector := range m.inspectors {
		inspector.ExitCall(end)
	}
}

func (m *Mux) Log(log figaro.Log) {
	for _, inspector := range m.inspectors {
		inspector.Log(log)
	}
}

func (m *Mux) StepStart(step figaro.Step) {
	for _, inspector := range m.inspectors {
		if inspector.WantsSteps() {
			inspector.StepStart(step)
		}
	}
}

func (m *Mux) StepEnd(end figaro.StepEnd) {
	for _, inspector := range m.inspectors {
		if inspector.WantsSteps() {
			inspector.StepEnd(end)
		}
	}
}

// Nop is an inspector ignoring all events. It serves as a default where an
// inspector is required but nothing should be observed.
type Nop struct{}

func (Nop) WantsSteps() bool                { return false }
func (Nop) EnterCall(figaro.CallFrame)      {}
func (Nop) ExitCall(figaro.CallEnd)         {}
func (Nop) Log(figaro.Log)                  {}
func (Nop) StepStart(figaro.Step)           {}
func (Nop) StepEnd(figaro.StepEnd)          {}
