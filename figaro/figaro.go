// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package figaro defines the public interface of the Figaro project: an
// execution and call-tracing harness for EVM byte code. It provides the
// value types of the machine, the world-state and execution-context
// interfaces connecting interpreters to state backends, the inspector
// interface observing executions, and a registry for interpreter
// implementations.
//
// The package itself contains no execution logic; engines implementing
// the Interpreter interface are provided by sub-packages and registered
// under a name during their package initialization.
package figaro
