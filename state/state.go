// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state provides the versioned account store executions run
// against: an in-memory overlay with O(1) snapshot/revert based on an undo
// log, optionally backed by a lazily queried remote fork source pinned to a
// historical block height.
package state

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/Fantom-foundation/Figaro/figaro"

	"github.com/ethereum/go-ethereum/crypto"
)

// account is the materialized state of one address. Absent storage keys are
// implicitly zero.
type account struct {
	balance figaro.Value
	nonce   uint64
	code    figaro.Code
	storage map[figaro.Key]figaro.Word
}

type slotID struct {
	addr figaro.Address
	key  figaro.Key
}

// DB implements figaro.TransactionContext on an in-memory account overlay.
//
// Snapshots are undo-log positions: creating one is O(1), reverting one
// replays the undo entries recorded since. Snapshot tokens are single-use;
// reverting to a token invalidates it and every younger token, and using an
// invalid token panics, since that is a bug in the harness rather than a
// property of the executed code.
//
// A DB is not safe for concurrent use; run concurrent executions on
// separate DB instances, sharing at most a CachedSource.
type DB struct {
	accounts  map[figaro.Address]*account
	committed map[slotID]figaro.Word // first-seen slot values of this transaction
	logs      []figaro.Log
	undo      []func()

	nextSnapshot figaro.Snapshot
	snapshots    map[figaro.Snapshot]int // live token -> undo log length

	fork           ForkSource // nil without fork backing
	fetchedAccount map[figaro.Address]bool
	fetchedSlot    map[slotID]bool

	err error // sticky fork-source failure, see Error()
}

// NewDB creates an empty state overlay without fork backing.
func NewDB() *DB {
	return NewForkedDB(nil)
}

// NewForkedDB creates a state overlay that lazily populates unseen accounts
// and storage slots from the given fork source. A nil source yields a plain
// empty overlay. The source is only ever read; all mutations stay in the
// overlay.
func NewForkedDB(fork ForkSource) *DB {
	return &DB{
		accounts:       map[figaro.Address]*account{},
		committed:      map[slotID]figaro.Word{},
		snapshots:      map[figaro.Snapshot]int{},
		fork:           fork,
		fetchedAccount: map[figaro.Address]bool{},
		fetchedSlot:    map[slotID]bool{},
	}
}

// Error returns the first fork-source failure encountered by a read, or nil.
// Since the WorldState interface reports values, not errors, a failing
// remote read materializes a zero value and records the failure here; the
// executor checks and propagates it as a hard error after the run.
func (db *DB) Error() error {
	return db.err
}

func (db *DB) setError(err error) {
	if db.err == nil {
		db.err = err
	}
}

// get materializes the account for the given address, consulting the fork
// source on first contact if one is configured.
func (db *DB) get(addr figaro.Address) *account {
	if res, found := db.accounts[addr]; found {
		return res
	}
	res := &account{storage: map[figaro.Key]figaro.Word{}}
	if db.fork != nil && !db.fetchedAccount[addr] {
		db.fetchedAccount[addr] = true
		nonce, balance, code, err := db.fork.Account(addr)
		if err != nil {
			db.setError(fmt.Errorf("fork source failed to provide account %v: %w", addr, err))
		} else {
			res.nonce = nonce
			res.balance = balance
			res.code = code
		}
	}
	db.accounts[addr] = res
	return res
}

// getStorage reads one slot, consulting the fork source on first contact.
func (db *DB) getStorage(addr figaro.Address, key figaro.Key) figaro.Word {
	acc := db.get(addr)
	if value, found := acc.storage[key]; found {
		return value
	}
	id := slotID{addr, key}
	if db.fork != nil && !db.fetchedSlot[id] {
		db.fetchedSlot[id] = true
		value, err := db.fork.StorageSlot(addr, key)
		if err != nil {
			db.setError(fmt.Errorf("fork source failed to provide storage %v/%v: %w", addr, key, err))
			return figaro.Word{}
		}
		acc.storage[key] = value
		return value
	}
	return figaro.Word{}
}

func (db *DB) AccountExists(addr figaro.Address) bool {
	acc := db.get(addr)
	return acc.balance != (figaro.Value{}) || acc.nonce != 0 || len(acc.code) != 0
}

func (db *DB) GetBalance(addr figaro.Address) figaro.Value {
	return db.get(addr).balance
}

func (db *DB) SetBalance(addr figaro.Address, value figaro.Value) {
	acc := db.get(addr)
	old := acc.balance
	if old == value {
		return
	}
	acc.balance = value
	db.undo = append(db.undo, func() { acc.balance = old })
}

func (db *DB) GetNonce(addr figaro.Address) uint64 {
	return db.get(addr).nonce
}

func (db *DB) SetNonce(addr figaro.Address, nonce uint64) {
	acc := db.get(addr)
	old := acc.nonce
	if old == nonce {
		return
	}
	acc.nonce = nonce
	db.undo = append(db.undo, func() { acc.nonce = old })
}

func (db *DB) GetCode(addr figaro.Address) figaro.Code {
	return bytes.Clone(db.get(addr).code)
}

func (db *DB) GetCodeHash(addr figaro.Address) figaro.Hash {
	return figaro.Hash(crypto.Keccak256(db.get(addr).code))
}

func (db *DB) GetCodeSize(addr figaro.Address) int {
	return len(db.get(addr).code)
}

func (db *DB) SetCode(addr figaro.Address, code figaro.Code) {
	acc := db.get(addr)
	old := acc.code
	acc.code = bytes.Clone(code)
	db.undo = append(db.undo, func() { acc.code = old })
}

func (db *DB) GetStorage(addr figaro.Address, key figaro.Key) figaro.Word {
	return db.getStorage(addr, key)
}

func (db *DB) SetStorage(addr figaro.Address, key figaro.Key, value figaro.Word) figaro.StorageStatus {
	current := db.getStorage(addr, key)
	id := slotID{addr, key}
	original, seen := db.committed[id]
	if !seen {
		original = current
		db.committed[id] = current
	}

	acc := db.get(addr)
	prev, hadValue := acc.storage[key]
	acc.storage[key] = value
	db.undo = append(db.undo, func() {
		if hadValue {
			acc.storage[key] = prev
		} else {
			delete(acc.storage, key)
		}
	})
	return figaro.GetStorageStatus(original, current, value)
}

func (db *DB) GetCommittedStorage(addr figaro.Address, key figaro.Key) figaro.Word {
	if value, found := db.committed[slotID{addr, key}]; found {
		return value
	}
	return db.getStorage(addr, key)
}

func (db *DB) EmitLog(log figaro.Log) {
	length := len(db.logs)
	db.logs = append(db.logs, log)
	db.undo = append(db.undo, func() { db.logs = db.logs[:length] })
}

func (db *DB) GetLogs() []figaro.Log {
	return slices.Clone(db.logs)
}

func (db *DB) CreateSnapshot() figaro.Snapshot {
	token := db.nextSnapshot
	db.nextSnapshot++
	db.snapshots[token] = len(db.undo)
	return token
}

func (db *DB) RestoreSnapshot(snapshot figaro.Snapshot) {
	position, found := db.snapshots[snapshot]
	if !found {
		panic(fmt.Sprintf("state: revert to stale or consumed snapshot token %d", int(snapshot)))
	}
	for len(db.undo) > position {
		db.undo[len(db.undo)-1]()
		db.undo = db.undo[:len(db.undo)-1]
	}
	// The token itself and every younger token are consumed.
	for token := snapshot; token < db.nextSnapshot; token++ {
		delete(db.snapshots, token)
	}
}

// ReleaseSnapshot consumes the given token while keeping every change made
// since it was created. Like a revert it also consumes all younger tokens;
// older tokens remain usable. Panics when given a stale or consumed token.
func (db *DB) ReleaseSnapshot(snapshot figaro.Snapshot) {
	if _, found := db.snapshots[snapshot]; !found {
		panic(fmt.Sprintf("state: release of stale or consumed snapshot token %d", int(snapshot)))
	}
	for token := snapshot; token < db.nextSnapshot; token++ {
		delete(db.snapshots, token)
	}
}
