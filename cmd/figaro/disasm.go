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

	"github.com/Fantom-foundation/Figaro/bytecode"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var DisasmCmd = cli.Command{
	Action:    doDisasm,
	Name:      "disasm",
	Usage:     "Disassemble EVM byte code",
	ArgsUsage: "<hex-code>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "list",
			Usage: "print one instruction per line with program counters",
		},
	},
}

func doDisasm(context *cli.Context) error {
	if context.Args().Len() < 1 {
		return fmt.Errorf("missing byte code argument")
	}
	code, err := decodeHexArgument(context.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid byte code: %w", err)
	}

	if context.Bool("list") {
		for _, instruction := range bytecode.Disassemble(code) {
			fmt.Fprintf(os.Stdout, "0x%04x: %v\n", instruction.PC, instruction)
		}
		return nil
	}
	fmt.Fprintln(os.Stdout, bytecode.Format(code))
	return nil
}

// decodeHexArgument accepts hex input with or without the 0x prefix.
func decodeHexArgument(arg string) ([]byte, error) {
	if len(arg) >= 2 && arg[0] == '0' && (arg[1] == 'x' || arg[1] == 'X') {
		return hexutil.Decode("0x" + arg[2:])
	}
	return hexutil.Decode("0x" + arg)
}
