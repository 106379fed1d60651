// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package figaro

import (
	"testing"
)

func TestGetStorageStatus_CoversAllTransitionClasses(t *testing.T) {
	var (
		zero = Word{}
		x    = Word{31: 1}
		y    = Word{31: 2}
		z    = Word{31: 3}
	)

	tests := map[string]struct {
		original, current, new Word
		want                   StorageStatus
	}{
		"0 -> 0 -> 0": {zero, zero, zero, StorageAssigned},
		"0 -> 0 -> Z": {zero, zero, z, StorageAdded},
		"X -> X -> X": {x, x, x, StorageAssigned},
		"X -> X -> 0": {x, x, zero, StorageDeleted},
		"X -> X -> Z": {x, x, z, StorageModified},
		"X -> 0 -> Z": {x, zero, z, StorageDeletedAdded},
		"X -> Y -> 0": {x, y, zero, StorageModifiedDeleted},
		"X -> 0 -> X": {x, zero, x, StorageDeletedRestored},
		"0 -> Y -> 0": {zero, y, zero, StorageAddedDeleted},
		"X -> Y -> X": {x, y, x, StorageModifiedRestored},
		"0 -> Y -> Z": {zero, y, z, StorageAssigned},
		"X -> Y -> Y": {x, y, y, StorageAssigned},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := GetStorageStatus(test.original, test.current, test.new)
			if got != test.want {
				t.Errorf("wanted %v, got %v", test.want, got)
			}
		})
	}
}

func TestStorageStatus_AllStatusesHaveAPrintableName(t *testing.T) {
	for status := StorageAssigned; status <= StorageModifiedRestored; status++ {
		if name := status.String(); name == "" || name[0] != 'S' {
			t.Errorf("missing name for status %d", int(status))
		}
	}
	if name := StorageStatus(99).String(); name != "StorageStatus(99)" {
		t.Errorf("unexpected fallback name %q", name)
	}
}
