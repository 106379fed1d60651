// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tracing

import (
	"fmt"

	"github.com/Fantom-foundation/Figaro/figaro"
	"github.com/xlab/treeprint"
)

// Render produces a human-readable tree of the arena's call structure with
// logs interleaved in emission order. Labels, when provided, replace the
// hex form of known addresses.
func Render(arena *Arena, labels map[figaro.Address]string) string {
	tree := treeprint.New()
	for i, node := range arena.Nodes {
		if node.Depth == 0 {
			renderNode(arena, i, tree, labels)
		}
	}
	return tree.String()
}

func renderNode(arena *Arena, index int, parent treeprint.Tree, labels map[figaro.Address]string) {
	node := &arena.Nodes[index]

	address := node.Address.String()
	if label, found := labels[node.Address]; found {
		address = label
	}
	branch := parent.AddBranch(fmt.Sprintf("[%s] %s gas=%d %s",
		node.Kind, address, node.GasUsed, node.Status))

	for _, member := range node.Ordering {
		switch member.Kind {
		case LogMember:
			log := node.Logs[member.Index]
			branch.AddNode(fmt.Sprintf("log topics=%d data=0x%x", len(log.Topics), log.Data))
		case CallMember:
			renderNode(arena, member.Index, branch, labels)
		}
	}
	if len(node.Output) > 0 {
		branch.AddNode(fmt.Sprintf("return 0x%x", node.Output))
	}
}
