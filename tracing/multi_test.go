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
	"testing"

	"github.com/Fantom-foundation/Figaro/figaro"
)

// countingInspector tallies received events.
type countingInspector struct {
	wantsSteps bool
	enters     int
	exits      int
	logs       int
	steps      int
}

func (c *countingInspector) WantsSteps() bool              { return c.wantsSteps }
func (c *countingInspector) EnterCall(figaro.CallFrame)    { c.enters++ }
func (c *countingInspector) ExitCall(figaro.CallEnd)       { c.exits++ }
func (c *countingInspector) Log(figaro.Log)                { c.logs++ }
func (c *countingInspector) StepStart(figaro.Step)         { c.steps++ }
func (c *countingInspector) StepEnd(figaro.StepEnd)        {}

func TestMux_BroadcastsCallAndLogEvents(t *testing.T) {
	a := &countingInspector{}
	b := &countingInspector{}
	mux := NewMux(a, b)

	mux.EnterCall(figaro.CallFrame{})
	mux.Log(figaro.Log{})
	mux.ExitCall(figaro.CallEnd{})

	for i, inspector := range []*countingInspector{a, b} {
		if inspector.enters != 1 || inspector.exits != 1 || inspector.logs != 1 {
			t.Errorf("inspector %d missed events: %+v", i, *inspector)
		}
	}
}

func TestMux_WantsStepsIfAnyMemberDoes(t *testing.T) {
	if NewMux(&countingInspector{}, &countingInspector{}).WantsSteps() {
		t.Errorf("mux over step-less inspectors must not want steps")
	}
	if !NewMux(&countingInspector{}, &countingInspector{wantsSteps: true}).WantsSteps() {
		t.Errorf("one step-interested member must be enough")
	}
}

func TestMux_StepEventsOnlyReachInterestedMembers(t *testing.T) {
	uninterested := &countingInspector{}
	interested := &countingInspector{wantsSteps: true}
	mux := NewMux(uninterested, interested)

	mux.StepStart(figaro.Step{})
	mux.StepEnd(figaro.StepEnd{})

	if uninterested.steps != 0 {
		t.Errorf("uninterested member received %d step events", uninterested.steps)
	}
	if interested.steps != 1 {
		t.Errorf("interested member received %d step events", interested.steps)
	}
}

func TestNop_ImplementsTheInspectorInterface(t *testing.T) {
	var inspector figaro.Inspector = Nop{}
	if inspector.WantsSteps() {
		t.Errorf("Nop must not request steps")
	}
	inspector.EnterCall(figaro.CallFrame{})
	inspector.ExitCall(figaro.CallEnd{})
	inspector.Log(figaro.Log{})
}
