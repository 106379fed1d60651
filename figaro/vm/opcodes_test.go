// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

import (
	"testing"
)

func TestOpCode_PushClassification(t *testing.T) {
	for i := 0; i < 256; i++ {
		op := OpCode(i)
		want := PUSH0 <= op && op <= PUSH32
		if got := op.IsPush(); got != want {
			t.Errorf("IsPush(%v): wanted %t, got %t", op, want, got)
		}
	}
}

func TestOpCode_PushSize(t *testing.T) {
	if got := PUSH0.PushSize(); got != 0 {
		t.Errorf("PUSH0 carries no immediate, got %d", got)
	}
	for i := 0; i < 32; i++ {
		op := PUSH1 + OpCode(i)
		if got := op.PushSize(); got != i+1 {
			t.Errorf("PushSize(%v): wanted %d, got %d", op, i+1, got)
		}
	}
	if got := ADD.PushSize(); got != 0 {
		t.Errorf("non-push opcodes carry no immediate, got %d", got)
	}
}

func TestOpCode_WidthCoversOpCodeAndImmediate(t *testing.T) {
	tests := map[OpCode]int{
		STOP:   1,
		PUSH0:  1,
		PUSH1:  2,
		PUSH32: 33,
		ADD:    1,
	}
	for op, want := range tests {
		if got := op.Width(); got != want {
			t.Errorf("Width(%v): wanted %d, got %d", op, want, got)
		}
	}
}

func TestOpCode_Validity(t *testing.T) {
	valid := []OpCode{STOP, ADD, SHA3, PUSH0, PUSH32, SSTORE, CALL, SELFDESTRUCT, MCOPY}
	for _, op := range valid {
		if !IsValid(op) {
			t.Errorf("%v must be valid", op)
		}
	}
	invalid := []OpCode{INVALID, OpCode(0x0c), OpCode(0x21), OpCode(0xef)}
	for _, op := range invalid {
		if IsValid(op) {
			t.Errorf("%v must be invalid", op)
		}
	}
}

func TestValidOpCodesNoPush_ExcludesThePushClass(t *testing.T) {
	ops := ValidOpCodesNoPush()
	if len(ops) == 0 {
		t.Fatalf("no valid opcodes reported")
	}
	for _, op := range ops {
		if op.IsPush() {
			t.Errorf("%v must not be included", op)
		}
		if !IsValid(op) {
			t.Errorf("%v must be valid", op)
		}
	}
}
