// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tinyvm

import "github.com/Fantom-foundation/Figaro/figaro"

const (
	errGasUintOverflow       = figaro.ConstError("gas uint64 overflow")
	errInvalidJump           = figaro.ConstError("invalid jump destination")
	errInvalidOpCode         = figaro.ConstError("invalid opcode")
	errOutOfGas              = figaro.ConstError("out of gas")
	errReturnDataOutOfBounds = figaro.ConstError("return data out of bounds")
	errStackOverflow         = figaro.ConstError("stack overflow")
	errStackUnderflow        = figaro.ConstError("stack underflow")
	errUnsupportedOpCode     = figaro.ConstError("unsupported instruction")
	errWriteProtection       = figaro.ConstError("write protection")
)
