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

	"github.com/Fantom-foundation/Figaro/figaro"
)

// GasSearchConfig tunes the binary search of EstimateGas. The zero value
// selects the defaults.
type GasSearchConfig struct {
	// Headroom is the multiplier applied to the baseline gas consumption to
	// obtain the upper end of the initial search bracket. Defaults to 3.
	Headroom figaro.Gas

	// Tolerance is the relative shrinkage of the accepted upper bound below
	// which the search stops early instead of converging to a single unit.
	// Defaults to 0.1; a negative value disables the early stop.
	Tolerance float64

	// MaxIterations bounds the number of probe executions. Exceeding it is
	// reported as an error. Defaults to 64.
	MaxIterations int
}

func (c GasSearchConfig) withDefaults() GasSearchConfig {
	if c.Headroom <= 0 {
		c.Headroom = 3
	}
	if c.Tolerance == 0 {
		c.Tolerance = 0.1
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 64
	}
	return c
}

// EstimateGas finds the minimal gas limit at which the given call keeps the
// exit status it has under the executor's full gas limit. All probe
// executions are dry runs; the state backend is left untouched.
func (e *Executor) EstimateGas(from, to figaro.Address, input figaro.Data, value figaro.Value) (figaro.Gas, error) {
	return e.EstimateGasWith(GasSearchConfig{}, from, to, input, value)
}

// EstimateGasWith is EstimateGas with explicit search parameters.
func (e *Executor) EstimateGasWith(config GasSearchConfig, from, to figaro.Address, input figaro.Data, value figaro.Value) (figaro.Gas, error) {
	config = config.withDefaults()

	request := callRequest{
		kind:   figaro.Call,
		sender: from, recipient: to,
		input: input, value: value,
		gas: e.gasLimit,
	}

	// Baseline run under the unrestricted limit. If this already fails, the
	// failure is not attributable to the gas limit and the search does not
	// apply; the baseline consumption is reported as-is.
	baseline, err := e.run(request, runOptions{})
	if err != nil {
		return 0, err
	}
	if baseline.Status != figaro.ExitSuccess {
		return baseline.GasUsed, nil
	}

	lowest := baseline.GasUsed
	highest := baseline.GasUsed * config.Headroom
	if highest > e.gasLimit {
		highest = e.gasLimit
	}

	for iterations := 0; highest-lowest > 1; iterations++ {
		if iterations >= config.MaxIterations {
			return 0, fmt.Errorf(
				"gas search did not converge after %d probes, bracket [%d, %d]",
				config.MaxIterations, lowest, highest)
		}

		mid := (highest + lowest) / 2
		probe := request
		probe.gas = mid
		result, err := e.run(probe, runOptions{})
		if err != nil {
			return 0, err
		}

		if result.Status.IsGasRelated() {
			lowest = mid
			continue
		}

		// The probe succeeded with less gas; tighten the upper bound. Once
		// consecutive accepted bounds are close, further precision is not
		// worth more probes.
		if config.Tolerance >= 0 &&
			float64(highest-mid)/float64(highest) < config.Tolerance {
			return mid, nil
		}
		highest = mid
	}

	return highest, nil
}

// CallWithEstimatedGas estimates the minimal sufficient gas limit of the
// call and then executes it once, committing, under exactly that limit. It
// returns the committed result and the estimate used.
func (e *Executor) CallWithEstimatedGas(from, to figaro.Address, input figaro.Data, value figaro.Value) (RawCallResult, figaro.Gas, error) {
	estimate, err := e.EstimateGas(from, to, input, value)
	if err != nil {
		return RawCallResult{}, 0, err
	}
	result, err := e.run(callRequest{
		kind:   figaro.Call,
		sender: from, recipient: to,
		input: input, value: value,
		gas: estimate,
	}, runOptions{commit: true})
	if err != nil {
		return RawCallResult{}, 0, err
	}
	return result, estimate, nil
}
