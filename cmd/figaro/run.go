// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Fantom-foundation/Figaro/executor"
	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/state"
	"github.com/Fantom-foundation/Figaro/tracing"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"

	_ "github.com/Fantom-foundation/Figaro/interpreter/tinyvm"
)

var RunCmd = cli.Command{
	Action:    doRun,
	Name:      "run",
	Usage:     "Deploy the given byte code and call it once, printing the trace",
	ArgsUsage: "<hex-code>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "input",
			Usage: "hex-encoded call data",
		},
		&cli.StringFlag{
			Name:  "interpreter",
			Usage: "name of the interpreter to use",
			Value: "tinyvm",
		},
		&cli.Int64Flag{
			Name:  "gas-limit",
			Usage: "gas limit of the call",
			Value: 30_000_000,
		},
		&cli.BoolFlag{
			Name:  "steps",
			Usage: "record instruction-level trace data",
		},
		&cli.BoolFlag{
			Name:  "estimate",
			Usage: "run the gas estimator on the call after deployment",
		},
		&cli.StringFlag{
			Name:  "fork-url",
			Usage: "RPC endpoint to lazily fetch unseen state from",
		},
		&cli.Uint64Flag{
			Name:  "fork-block",
			Usage: "block height the fork state is pinned to",
		},
	},
}

func doRun(context *cli.Context) error {
	if context.Args().Len() < 1 {
		return fmt.Errorf("missing byte code argument")
	}
	code, err := decodeHexArgument(context.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid byte code: %w", err)
	}
	var input []byte
	if arg := context.String("input"); arg != "" {
		input, err = decodeHexArgument(arg)
		if err != nil {
			return fmt.Errorf("invalid input data: %w", err)
		}
	}

	db, err := openState(context)
	if err != nil {
		return err
	}

	sender := figaro.Address{0x42}
	db.SetBalance(sender, figaro.NewValue(1_000_000_000_000_000_000))

	exec, err := executor.NewExecutor(db, executor.Config{
		Interpreter: context.String("interpreter"),
		GasLimit:    figaro.Gas(context.Int64("gas-limit")),
		TraceSteps:  context.Bool("steps"),
	})
	if err != nil {
		return err
	}
	exec.SetLabel(sender, "sender")

	deployed, err := exec.Deploy(sender, code, figaro.Value{}, nil)
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	if deployed.Status != figaro.ExitSuccess {
		fmt.Fprintf(os.Stdout, "deployment ended with %v\n", deployed.Status)
		fmt.Fprint(os.Stdout, tracing.Render(deployed.Traces, deployed.Labels))
		return nil
	}
	exec.SetLabel(deployed.Address, "contract")

	start := time.Now()
	result, err := exec.Call(sender, deployed.Address, input, figaro.Value{})
	if err != nil {
		return err
	}
	duration := time.Since(start)

	fmt.Fprintf(os.Stdout, "status:   %v\n", result.Status)
	fmt.Fprintf(os.Stdout, "output:   0x%x\n", result.Output)
	fmt.Fprintf(os.Stdout, "gas used: %sgas in %v\n",
		unitconv.FormatPrefix(float64(result.GasUsed), unitconv.SI, 2), duration)
	for _, log := range result.Logs {
		fmt.Fprintf(os.Stdout, "log from %v: %d topics, 0x%x\n",
			log.Address, len(log.Topics), log.Data)
	}
	fmt.Fprint(os.Stdout, tracing.Render(result.Traces, result.Labels))

	if context.Bool("estimate") {
		estimate, err := exec.EstimateGas(sender, deployed.Address, input, figaro.Value{})
		if err != nil {
			return fmt.Errorf("gas estimation failed: %w", err)
		}
		fmt.Fprintf(os.Stdout, "gas estimate: %d (%sgas)\n",
			estimate, unitconv.FormatPrefix(float64(estimate), unitconv.SI, 2))
	}
	return nil
}

func openState(context *cli.Context) (*state.DB, error) {
	url := context.String("fork-url")
	if url == "" {
		return state.NewDB(), nil
	}
	source, err := state.DialRPCSource(url, context.Uint64("fork-block"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to fork source: %w", err)
	}
	cached, err := state.NewCachedSource(source, 4096, 65536)
	if err != nil {
		return nil, err
	}
	return state.NewForkedDB(cached), nil
}
