// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package executor runs transactions against a state.DB using a registered
// interpreter, recording a call trace for every run. A plain Call is a dry
// run whose state changes are rolled back; CallCommitting and Deploy retain
// them. The package also hosts the binary-search gas estimator.
package executor

import (
	"fmt"

	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/Fantom-foundation/Figaro/state"
	"github.com/Fantom-foundation/Figaro/tracing"
	"golang.org/x/exp/maps"
)

// defaultGasLimit is used when the configuration does not set a gas limit
// for executed calls.
const defaultGasLimit = figaro.Gas(30_000_000)

// Config parameterizes a new Executor.
type Config struct {
	// Interpreter is the name of a registered interpreter factory. Defaults
	// to "tinyvm".
	Interpreter string

	// InterpreterConfig is handed to the interpreter factory unmodified.
	InterpreterConfig any

	Block       figaro.BlockParameters
	Transaction figaro.TransactionParameters

	// GasLimit is the gas limit applied to executed calls. Defaults to the
	// block gas limit, or defaultGasLimit if that is unset.
	GasLimit figaro.Gas

	// TraceSteps enables instruction-level trace recording.
	TraceSteps bool

	// Inspector is an optional additional observer attached to every run,
	// next to the built-in tracer.
	Inspector figaro.Inspector
}

// ScheduledTransaction is a follow-up transaction enqueued by host-layer
// code during an execution, to be dispatched by the caller after the run.
type ScheduledTransaction struct {
	Sender    figaro.Address
	Recipient *figaro.Address // nil for contract creation
	Input     figaro.Data
	Value     figaro.Value
	Gas       figaro.Gas
}

// RawCallResult is the outcome of one executed call. Execution faults are
// reported through the Status field; the enclosing Call only returns an
// error for harness failures.
type RawCallResult struct {
	Status   figaro.ExitStatus
	Reverted bool
	Output   figaro.Data
	GasUsed  figaro.Gas
	Logs     []figaro.Log
	Traces   *tracing.Arena
	Labels   map[figaro.Address]string

	// ScheduledTransactions lists the queued sub-transactions drained by
	// this run, in schedule order. Only populated on persisting runs.
	ScheduledTransactions []ScheduledTransaction

	// Checkpoint is a state snapshot taken right after a committing run,
	// usable to roll the backend back to this result's state later. It is
	// only set on committing runs.
	Checkpoint    figaro.Snapshot
	HasCheckpoint bool
}

// DeployResult extends a call result with the address of the deployed
// contract.
type DeployResult struct {
	RawCallResult
	Address figaro.Address
}

// Executor runs individual calls or deployments against one state.DB. An
// Executor is single-threaded; to run executions in parallel, use one
// Executor and one DB per goroutine.
type Executor struct {
	db          *state.DB
	interpreter figaro.Interpreter
	config      Config
	gasLimit    figaro.Gas
	labels      map[figaro.Address]string
	scheduled   []ScheduledTransaction
}

// NewExecutor creates an executor over the given state. The block parameters
// of the configuration are normalized using the registered chain rules
// before first use.
func NewExecutor(db *state.DB, config Config) (*Executor, error) {
	if db == nil {
		return nil, fmt.Errorf("executor requires a state backend")
	}
	name := config.Interpreter
	if name == "" {
		name = "tinyvm"
	}
	interpreter, err := figaro.NewInterpreter(name, config.InterpreterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	state.NormalizeBlockParameters(&config.Block)

	gasLimit := config.GasLimit
	if gasLimit <= 0 {
		gasLimit = config.Block.GasLimit
	}
	if gasLimit <= 0 {
		gasLimit = defaultGasLimit
	}

	return &Executor{
		db:          db,
		interpreter: interpreter,
		config:      config,
		gasLimit:    gasLimit,
		labels:      map[figaro.Address]string{},
	}, nil
}

// SetLabel attaches a human-readable name to an address. Labels are carried
// on every subsequent result and used by trace rendering.
func (e *Executor) SetLabel(addr figaro.Address, label string) {
	e.labels[addr] = label
}

// Labels returns a copy of the currently known address labels.
func (e *Executor) Labels() map[figaro.Address]string {
	return maps.Clone(e.labels)
}

// Schedule enqueues a follow-up transaction. Entries stay queued until the
// next committing run, which reports and drains the whole queue; dry runs
// leave it untouched. Intended for host-layer inspectors reacting to events
// of the execution; safe to call from inspector callbacks since executions
// are single-threaded.
func (e *Executor) Schedule(tx ScheduledTransaction) {
	e.scheduled = append(e.scheduled, tx)
}

// Call executes a call as a dry run: the returned result reflects the full
// execution, but all state changes are rolled back afterwards.
func (e *Executor) Call(from, to figaro.Address, input figaro.Data, value figaro.Value) (RawCallResult, error) {
	return e.run(callRequest{
		kind:   figaro.Call,
		sender: from, recipient: to,
		input: input, value: value,
		gas: e.gasLimit,
	}, runOptions{})
}

// CallCommitting executes a call and retains its state changes.
func (e *Executor) CallCommitting(from, to figaro.Address, input figaro.Data, value figaro.Value) (RawCallResult, error) {
	return e.run(callRequest{
		kind:   figaro.Call,
		sender: from, recipient: to,
		input: input, value: value,
		gas: e.gasLimit,
	}, runOptions{commit: true})
}

// Deploy creates a new contract from the given init code and constructor
// arguments. Deployments always commit, since the resulting address depends
// on the sender nonce consumed by the creation.
func (e *Executor) Deploy(from figaro.Address, code figaro.Code, value figaro.Value, constructorArgs figaro.Data) (DeployResult, error) {
	input := make(figaro.Data, 0, len(code)+len(constructorArgs))
	input = append(input, code...)
	input = append(input, constructorArgs...)

	result, created, err := e.runFrame(callRequest{
		kind:   figaro.Create,
		sender: from,
		input:  input, value: value,
		gas: e.gasLimit,
	}, runOptions{commit: true})
	if err != nil {
		return DeployResult{}, err
	}
	return DeployResult{RawCallResult: result, Address: created}, nil
}

// GetBalance and its siblings are pass-through conveniences over the state
// backend, for setup and assertions in calling code.
func (e *Executor) GetBalance(addr figaro.Address) figaro.Value { return e.db.GetBalance(addr) }
func (e *Executor) SetBalance(addr figaro.Address, value figaro.Value) {
	e.db.SetBalance(addr, value)
}
func (e *Executor) GetNonce(addr figaro.Address) uint64        { return e.db.GetNonce(addr) }
func (e *Executor) SetNonce(addr figaro.Address, nonce uint64) { e.db.SetNonce(addr, nonce) }

type callRequest struct {
	kind      figaro.CallKind
	sender    figaro.Address
	recipient figaro.Address
	input     figaro.Data
	value     figaro.Value
	gas       figaro.Gas
}

// runOptions is the scoped per-run configuration. Gas-search probes run
// with a fresh zero value; there is no shared toggle to restore afterwards.
type runOptions struct {
	// commit retains the state changes of the run.
	commit bool
}

func (e *Executor) run(request callRequest, opts runOptions) (RawCallResult, error) {
	result, _, err := e.runFrame(request, opts)
	return result, err
}

// runFrame performs one top-level execution. It returns the created address
// for creation requests.
func (e *Executor) runFrame(request callRequest, opts runOptions) (RawCallResult, figaro.Address, error) {
	if err := e.db.Error(); err != nil {
		return RawCallResult{}, figaro.Address{}, fmt.Errorf("state backend in failed state: %w", err)
	}

	var tracer *tracing.Tracer
	if e.config.TraceSteps {
		tracer = tracing.NewStepTracer()
	} else {
		tracer = tracing.NewTracer()
	}
	var inspector figaro.Inspector = tracer
	if e.config.Inspector != nil {
		inspector = tracing.NewMux(tracer, e.config.Inspector)
	}

	scheduledBefore := len(e.scheduled)
	logsBefore := len(e.db.GetLogs())
	snapshot := e.db.CreateSnapshot()

	context := runContext{
		TransactionContext:    e.db,
		interpreter:           e.interpreter,
		blockParameters:       e.config.Block,
		transactionParameters: e.transactionParameters(request),
		inspector:             inspector,
	}

	callResult, err := context.Call(request.kind, figaro.CallParameters{
		Sender:    request.sender,
		Recipient: request.recipient,
		Value:     request.value,
		Input:     request.input,
		Gas:       request.gas,
	})
	if err != nil {
		e.db.RestoreSnapshot(snapshot)
		e.scheduled = e.scheduled[:scheduledBefore]
		return RawCallResult{}, figaro.Address{}, err
	}
	if err := e.db.Error(); err != nil {
		e.db.RestoreSnapshot(snapshot)
		e.scheduled = e.scheduled[:scheduledBefore]
		return RawCallResult{}, figaro.Address{}, fmt.Errorf("state backend failure: %w", err)
	}
	if err := tracer.CheckBalanced(); err != nil {
		panic(fmt.Sprintf("corrupted call trace: %v", err))
	}

	logs := append([]figaro.Log(nil), e.db.GetLogs()[logsBefore:]...)

	result := RawCallResult{
		Status:   callResult.Status,
		Reverted: callResult.Status == figaro.ExitRevert,
		Output:   callResult.Output,
		GasUsed:  request.gas - callResult.GasLeft,
		Logs:     logs,
		Traces:   tracer.Traces(),
		Labels:   maps.Clone(e.labels),
	}

	if opts.commit {
		// A committing run drains the whole queue, including entries
		// scheduled before the run started.
		result.ScheduledTransactions = append(
			[]ScheduledTransaction(nil), e.scheduled...)
		e.scheduled = nil
		e.db.ReleaseSnapshot(snapshot)
		result.Checkpoint = e.db.CreateSnapshot()
		result.HasCheckpoint = true
	} else {
		e.db.RestoreSnapshot(snapshot)
		e.scheduled = e.scheduled[:scheduledBefore]
	}

	return result, callResult.CreatedAddress, nil
}

func (e *Executor) transactionParameters(request callRequest) figaro.TransactionParameters {
	params := e.config.Transaction
	if params.Origin == (figaro.Address{}) {
		params.Origin = request.sender
	}
	return params
}
