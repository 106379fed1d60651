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
	"testing"
)

func TestCallKind_JsonEncodingRoundTrips(t *testing.T) {
	kinds := []CallKind{Call, DelegateCall, StaticCall, CallCode, Create, Create2}
	for _, kind := range kinds {
		encoded, err := json.Marshal(kind)
		if err != nil {
			t.Fatalf("failed to encode %v: %v", kind, err)
		}
		var restored CallKind
		if err := json.Unmarshal(encoded, &restored); err != nil {
			t.Fatalf("failed to decode %s: %v", encoded, err)
		}
		if restored != kind {
			t.Errorf("wanted %v, got %v", kind, restored)
		}
	}
}

func TestCallKind_InvalidValuesAreRejected(t *testing.T) {
	if _, err := json.Marshal(CallKind(99)); err == nil {
		t.Errorf("encoding an invalid kind must fail")
	}
	var kind CallKind
	if err := json.Unmarshal([]byte(`"sidecall"`), &kind); err == nil {
		t.Errorf("decoding an unknown kind must fail")
	}
}

func TestCallKind_CreateClassification(t *testing.T) {
	creates := map[CallKind]bool{
		Call: false, DelegateCall: false, StaticCall: false,
		CallCode: false, Create: true, Create2: true,
	}
	for kind, want := range creates {
		if got := kind.IsCreate(); got != want {
			t.Errorf("IsCreate(%v): wanted %t, got %t", kind, want, got)
		}
	}
}

func TestResult_OnlySuccessIsSuccessful(t *testing.T) {
	statuses := []ExitStatus{
		ExitSuccess, ExitRevert, ExitOutOfGas,
		ExitFault, ExitOutOfFunds, ExitCallTooDeep,
	}
	for _, status := range statuses {
		want := status == ExitSuccess
		if got := (Result{Status: status}).Success(); got != want {
			t.Errorf("Result{%v}.Success(): wanted %t, got %t", status, want, got)
		}
		if got := (CallResult{Status: status}).Success(); got != want {
			t.Errorf("CallResult{%v}.Success(): wanted %t, got %t", status, want, got)
		}
	}
}
