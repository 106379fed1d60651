// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"

	"github.com/Fantom-foundation/Figaro/figaro"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ForkSource is a read-only provider of historical account state, pinned to
// one block height at construction time. Reads are blocking and fallible;
// they have no side effects on the remote end. Implementations must be safe
// for use from a single goroutine; share a source across goroutines only
// through a CachedSource.
type ForkSource interface {
	// Account provides the nonce, balance, and code of the given address.
	Account(figaro.Address) (nonce uint64, balance figaro.Value, code figaro.Code, err error)

	// StorageSlot provides the value of one storage slot.
	StorageSlot(figaro.Address, figaro.Key) (figaro.Word, error)
}

// --- RPC-backed source ---

// rpcSource reads accounts and slots from an Ethereum JSON-RPC endpoint at a
// fixed historical block.
type rpcSource struct {
	client *rpc.Client
	block  string // pinned block number, hex encoded
}

// NewRPCSource creates a ForkSource reading from the given RPC client,
// pinned to the given block number. The client is only used for the
// read-only calls eth_getTransactionCount, eth_getBalance, eth_getCode, and
// eth_getStorageAt.
func NewRPCSource(client *rpc.Client, blockNumber uint64) ForkSource {
	return &rpcSource{
		client: client,
		block:  hexutil.EncodeUint64(blockNumber),
	}
}

// DialRPCSource connects to the given JSON-RPC URL and pins the source to
// the given block number.
func DialRPCSource(url string, blockNumber uint64) (ForkSource, error) {
	client, err := rpc.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to fork source %s: %w", url, err)
	}
	return NewRPCSource(client, blockNumber), nil
}

func (s *rpcSource) Account(addr figaro.Address) (uint64, figaro.Value, figaro.Code, error) {
	var nonce hexutil.Uint64
	if err := s.client.Call(&nonce, "eth_getTransactionCount", common.Address(addr), s.block); err != nil {
		return 0, figaro.Value{}, nil, err
	}
	var balance hexutil.Big
	if err := s.client.Call(&balance, "eth_getBalance", common.Address(addr), s.block); err != nil {
		return 0, figaro.Value{}, nil, err
	}
	var code hexutil.Bytes
	if err := s.client.Call(&code, "eth_getCode", common.Address(addr), s.block); err != nil {
		return 0, figaro.Value{}, nil, err
	}
	var value figaro.Value
	balance.ToInt().FillBytes(value[:])
	return uint64(nonce), value, figaro.Code(code), nil
}

func (s *rpcSource) StorageSlot(addr figaro.Address, key figaro.Key) (figaro.Word, error) {
	var value hexutil.Bytes
	err := s.client.Call(&value, "eth_getStorageAt", common.Address(addr), common.Hash(key), s.block)
	if err != nil {
		return figaro.Word{}, err
	}
	var word figaro.Word
	if len(value) > len(word) {
		return figaro.Word{}, fmt.Errorf("fork source returned oversized storage value of %d bytes", len(value))
	}
	copy(word[len(word)-len(value):], value)
	return word, nil
}

// --- Caching decorator ---

type cachedAccount struct {
	nonce   uint64
	balance figaro.Value
	code    figaro.Code
}

// CachedSource decorates a ForkSource with LRU caches for accounts and
// storage slots. Entries are only ever added, never invalidated, since the
// underlying source is pinned to a fixed block height. Reads are serialized
// through the cache locks, making a CachedSource safe to share across the
// repeated dry runs of one session.
type CachedSource struct {
	source   ForkSource
	accounts *lru.Cache[figaro.Address, cachedAccount]
	slots    *lru.Cache[slotID, figaro.Word]
}

// NewCachedSource wraps the given source with caches of the given
// capacities.
func NewCachedSource(source ForkSource, accountCapacity, slotCapacity int) (*CachedSource, error) {
	accounts, err := lru.New[figaro.Address, cachedAccount](accountCapacity)
	if err != nil {
		return nil, err
	}
	slots, err := lru.New[slotID, figaro.Word](slotCapacity)
	if err != nil {
		return nil, err
	}
	return &CachedSource{
		source:   source,
		accounts: accounts,
		slots:    slots,
	}, nil
}

func (c *CachedSource) Account(addr figaro.Address) (uint64, figaro.Value, figaro.Code, error) {
	if acc, found := c.accounts.Get(addr); found {
		return acc.nonce, acc.balance, acc.code, nil
	}
	nonce, balance, code, err := c.source.Account(addr)
	if err != nil {
		return 0, figaro.Value{}, nil, err
	}
	c.accounts.Add(addr, cachedAccount{nonce: nonce, balance: balance, code: code})
	return nonce, balance, code, nil
}

func (c *CachedSource) StorageSlot(addr figaro.Address, key figaro.Key) (figaro.Word, error) {
	id := slotID{addr, key}
	if value, found := c.slots.Get(id); found {
		return value, nil
	}
	value, err := c.source.StorageSlot(addr, key)
	if err != nil {
		return figaro.Word{}, err
	}
	c.slots.Add(id, value)
	return value, nil
}
