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
	"sync"

	"github.com/Fantom-foundation/Figaro/figaro"
)

// Some chains report block fields under a different name than the execution
// layer expects: pre-merge networks carry a difficulty where post-merge
// semantics read prevrandao, some post-merge RPC endpoints do the inverse,
// and one family of L2 chains reports the logically relevant block number
// through a side channel that must override the primary field. These
// substitutions are modelled as a table of (chain predicate, normalization)
// pairs so new chains can be added without touching the backend; they are
// applied once per block context, not per account read.

// ChainRule is one entry of the normalization table.
type ChainRule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Applies decides, based on the chain id, whether the rule is active.
	Applies func(chainID figaro.Word) bool

	// Normalize rewrites the block parameters in place.
	Normalize func(*figaro.BlockParameters)
}

var (
	chainRules     []ChainRule
	chainRulesLock sync.Mutex
)

// RegisterChainRule adds a rule to the normalization table. Intended for
// package initialization code of chain-specific extensions.
func RegisterChainRule(rule ChainRule) {
	chainRulesLock.Lock()
	defer chainRulesLock.Unlock()
	chainRules = append(chainRules, rule)
}

// NormalizeBlockParameters applies all registered rules matching the block's
// chain id, in registration order. Call once per block context before
// executing against it.
func NormalizeBlockParameters(block *figaro.BlockParameters) {
	chainRulesLock.Lock()
	rules := make([]ChainRule, len(chainRules))
	copy(rules, chainRules)
	chainRulesLock.Unlock()

	for _, rule := range rules {
		if rule.Applies(block.ChainID) {
			rule.Normalize(block)
		}
	}
}

func chainIDIs(ids ...uint64) func(figaro.Word) bool {
	return func(chainID figaro.Word) bool {
		for _, id := range ids {
			if chainID == figaro.Word(figaro.NewValue(id)) {
				return true
			}
		}
		return false
	}
}

func init() {
	// Post-merge semantics on endpoints still reporting difficulty: use the
	// difficulty value as prevrandao when the latter is unset.
	RegisterChainRule(ChainRule{
		Name: "difficulty-as-prevrandao",
		Applies: func(figaro.Word) bool {
			return true
		},
		Normalize: func(block *figaro.BlockParameters) {
			if block.PrevRandao == (figaro.Hash{}) && block.Difficulty != (figaro.Hash{}) {
				block.PrevRandao = block.Difficulty
			}
		},
	})

	// Proof-of-work chains expect the inverse substitution.
	RegisterChainRule(ChainRule{
		Name:    "prevrandao-as-difficulty",
		Applies: chainIDIs(61), // Ethereum Classic
		Normalize: func(block *figaro.BlockParameters) {
			if block.Difficulty == (figaro.Hash{}) && block.PrevRandao != (figaro.Hash{}) {
				block.Difficulty = block.PrevRandao
			}
		},
	})

	// Arbitrum reports the L1 block number in the primary field; the L2
	// number arrives through a side channel and is the one contracts see.
	RegisterChainRule(ChainRule{
		Name:    "alt-block-number",
		Applies: chainIDIs(42161, 42170, 421614), // Arbitrum One, Nova, Sepolia
		Normalize: func(block *figaro.BlockParameters) {
			if block.AltBlockNumber != 0 {
				block.BlockNumber = block.AltBlockNumber
			}
		},
	})
}
