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
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/state"
	"go.uber.org/mock/gomock"
)

var mockInterpreterCounter atomic.Int32

// registerThresholdInterpreter installs an interpreter that succeeds if and
// only if the frame is given at least the threshold amount of gas, consuming
// the given amount on success. It returns the registry name to use in the
// executor configuration.
func registerThresholdInterpreter(t *testing.T, threshold, consumed figaro.Gas) string {
	t.Helper()
	ctrl := gomock.NewController(t)
	interpreter := figaro.NewMockInterpreter(ctrl)
	interpreter.EXPECT().Run(gomock.Any()).DoAndReturn(
		func(params figaro.Parameters) (figaro.Result, error) {
			if params.Gas < threshold {
				return figaro.Result{Status: figaro.ExitOutOfGas}, nil
			}
			return figaro.Result{
				Status:  figaro.ExitSuccess,
				GasLeft: params.Gas - consumed,
			}, nil
		}).AnyTimes()

	name := fmt.Sprintf("threshold-test-%d", mockInterpreterCounter.Add(1))
	if err := figaro.RegisterInterpreterFactory(name,
		func(any) (figaro.Interpreter, error) { return interpreter, nil },
	); err != nil {
		t.Fatalf("failed to register interpreter: %v", err)
	}
	return name
}

func TestEstimateGas_FindsTheExactThreshold(t *testing.T) {
	const threshold = 25_000
	name := registerThresholdInterpreter(t, threshold, 10_000)
	executor, err := NewExecutor(state.NewDB(), Config{
		Interpreter: name,
		GasLimit:    1_000_000,
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	estimate, err := executor.EstimateGasWith(
		GasSearchConfig{Tolerance: -1}, sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate != threshold {
		t.Errorf("wanted the exact threshold %d, got %d", threshold, estimate)
	}
}

func TestEstimateGas_EarlyStopStaysAboveTheThreshold(t *testing.T) {
	const threshold = 25_000
	name := registerThresholdInterpreter(t, threshold, 10_000)
	executor, err := NewExecutor(state.NewDB(), Config{
		Interpreter: name,
		GasLimit:    1_000_000,
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	estimate, err := executor.EstimateGas(sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate < threshold {
		t.Errorf("estimate %d below the sufficient limit %d", estimate, threshold)
	}
	if limit := figaro.Gas(1_000_000); estimate > limit {
		t.Errorf("estimate %d exceeds the executor limit %d", estimate, limit)
	}
}

func TestEstimateGas_IterationBoundIsReportedAsAnError(t *testing.T) {
	name := registerThresholdInterpreter(t, 25_000, 10_000)
	executor, err := NewExecutor(state.NewDB(), Config{
		Interpreter: name,
		GasLimit:    1_000_000,
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	_, err = executor.EstimateGasWith(
		GasSearchConfig{Tolerance: -1, MaxIterations: 1},
		sender, contract, nil, figaro.Value{})
	if err == nil || !strings.Contains(err.Error(), "did not converge") {
		t.Fatalf("wanted a non-convergence error, got %v", err)
	}
}

func TestEstimateGas_BaselineFailureReportsBaselineConsumption(t *testing.T) {
	db := state.NewDB()
	// PUSH1 0 PUSH1 0 REVERT
	db.SetCode(contract, figaro.Code{0x60, 0x00, 0x60, 0x00, 0xfd})
	executor := newTestExecutor(t, db)

	baseline, err := executor.Call(sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if baseline.Status != figaro.ExitRevert {
		t.Fatalf("unexpected baseline status: %v", baseline.Status)
	}

	estimate, err := executor.EstimateGas(sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate != baseline.GasUsed {
		t.Errorf("wanted baseline consumption %d, got %d", baseline.GasUsed, estimate)
	}
}

func TestEstimateGas_ProbesAreDryRuns(t *testing.T) {
	db := state.NewDB()
	db.SetCode(contract, storeOne)
	executor := newTestExecutor(t, db)

	if _, err := executor.EstimateGas(sender, contract, nil, figaro.Value{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := db.GetStorage(contract, figaro.Key{}); got != (figaro.Word{}) {
		t.Errorf("estimation leaked state, slot holds %v", got)
	}
}

func TestEstimateGas_EndToEndRoundTrip(t *testing.T) {
	db := state.NewDB()
	db.SetCode(contract, returnThirtyTwoZeros)
	executor := newTestExecutor(t, db)

	baseline, err := executor.Call(sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, estimate, err := executor.CallWithEstimatedGas(sender, contract, nil, figaro.Value{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate < baseline.GasUsed {
		t.Errorf("estimate %d below the observed consumption %d", estimate, baseline.GasUsed)
	}
	if result.Status != figaro.ExitSuccess {
		t.Errorf("call under the estimated limit failed: %v", result.Status)
	}
	if result.GasUsed != baseline.GasUsed {
		t.Errorf("consumption changed under the estimated limit: %d vs %d",
			result.GasUsed, baseline.GasUsed)
	}
}
