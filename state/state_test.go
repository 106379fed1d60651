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
	"bytes"
	"fmt"
	"testing"

	"github.com/Fantom-foundation/Figaro/figaro"
)

func TestDB_UnseenAccountIsZeroValued(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}

	if db.AccountExists(addr) {
		t.Errorf("unseen account must not exist")
	}
	if got := db.GetBalance(addr); got != (figaro.Value{}) {
		t.Errorf("unexpected balance: %v", got)
	}
	if got := db.GetNonce(addr); got != 0 {
		t.Errorf("unexpected nonce: %d", got)
	}
	if got := db.GetCode(addr); len(got) != 0 {
		t.Errorf("unexpected code: %x", got)
	}
}

func TestDB_WritingMaterializesAccounts(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}

	db.SetBalance(addr, figaro.NewValue(42))
	if !db.AccountExists(addr) {
		t.Errorf("account must exist after receiving a balance")
	}
	if got := db.GetBalance(addr); got != figaro.NewValue(42) {
		t.Errorf("unexpected balance: %v", got)
	}
}

func TestDB_StorageRoundTrip(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}
	key := figaro.Key{0x02}
	value := figaro.Word{0x03}

	db.SetStorage(addr, key, value)
	if got := db.GetStorage(addr, key); got != value {
		t.Errorf("wanted %v, got %v", value, got)
	}
	if got := db.GetStorage(addr, figaro.Key{0xff}); got != (figaro.Word{}) {
		t.Errorf("unset slot must read zero, got %v", got)
	}
}

func TestDB_SnapshotRevertRestoresTouchedState(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}
	key := figaro.Key{0x02}

	db.SetBalance(addr, figaro.NewValue(100))
	db.SetNonce(addr, 7)
	db.SetStorage(addr, key, figaro.Word{0x01})
	db.SetCode(addr, figaro.Code{0x60, 0x00})

	snapshot := db.CreateSnapshot()

	db.SetBalance(addr, figaro.NewValue(999))
	db.SetNonce(addr, 8)
	db.SetStorage(addr, key, figaro.Word{0x02})
	db.SetCode(addr, figaro.Code{0xfe})
	db.EmitLog(figaro.Log{Address: addr})
	db.SetBalance(figaro.Address{0xaa}, figaro.NewValue(1))

	db.RestoreSnapshot(snapshot)

	if got := db.GetBalance(addr); got != figaro.NewValue(100) {
		t.Errorf("balance not restored, got %v", got)
	}
	if got := db.GetNonce(addr); got != 7 {
		t.Errorf("nonce not restored, got %d", got)
	}
	if got := db.GetStorage(addr, key); got != (figaro.Word{0x01}) {
		t.Errorf("storage not restored, got %v", got)
	}
	if got := db.GetCode(addr); !bytes.Equal(got, []byte{0x60, 0x00}) {
		t.Errorf("code not restored, got %x", got)
	}
	if got := db.GetLogs(); len(got) != 0 {
		t.Errorf("logs not restored, got %d entries", len(got))
	}
	if db.AccountExists(figaro.Address{0xaa}) {
		t.Errorf("account created after the snapshot must be gone")
	}
}

func TestDB_RestoringAConsumedTokenPanics(t *testing.T) {
	db := NewDB()
	snapshot := db.CreateSnapshot()
	db.RestoreSnapshot(snapshot)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic on the second restore")
		}
	}()
	db.RestoreSnapshot(snapshot)
}

func TestDB_RevertingInvalidatesYoungerTokens(t *testing.T) {
	db := NewDB()
	older := db.CreateSnapshot()
	younger := db.CreateSnapshot()
	db.RestoreSnapshot(older)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic when restoring an invalidated token")
		}
	}()
	db.RestoreSnapshot(younger)
}

func TestDB_NestedSnapshotsRevertInLayers(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}

	db.SetNonce(addr, 1)
	outer := db.CreateSnapshot()
	db.SetNonce(addr, 2)
	inner := db.CreateSnapshot()
	db.SetNonce(addr, 3)

	db.RestoreSnapshot(inner)
	if got := db.GetNonce(addr); got != 2 {
		t.Fatalf("inner revert: wanted nonce 2, got %d", got)
	}
	db.RestoreSnapshot(outer)
	if got := db.GetNonce(addr); got != 1 {
		t.Fatalf("outer revert: wanted nonce 1, got %d", got)
	}
}

func TestDB_ReleaseKeepsChangesAndConsumesTheToken(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}

	db.SetNonce(addr, 1)
	snapshot := db.CreateSnapshot()
	db.SetNonce(addr, 2)

	db.ReleaseSnapshot(snapshot)
	if got := db.GetNonce(addr); got != 2 {
		t.Fatalf("release must keep changes, wanted nonce 2, got %d", got)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic when restoring a released token")
		}
	}()
	db.RestoreSnapshot(snapshot)
}

func TestDB_ReleaseLeavesOlderTokensUsable(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}

	db.SetNonce(addr, 1)
	older := db.CreateSnapshot()
	db.SetNonce(addr, 2)
	younger := db.CreateSnapshot()
	db.SetNonce(addr, 3)

	db.ReleaseSnapshot(younger)
	db.RestoreSnapshot(older)
	if got := db.GetNonce(addr); got != 1 {
		t.Fatalf("older token must still revert, wanted nonce 1, got %d", got)
	}
}

func TestDB_ReleasingAConsumedTokenPanics(t *testing.T) {
	db := NewDB()
	snapshot := db.CreateSnapshot()
	db.ReleaseSnapshot(snapshot)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic on the second release")
		}
	}()
	db.ReleaseSnapshot(snapshot)
}

func TestDB_SetStorageReportsStorageStatus(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}
	key := figaro.Key{0x02}

	if got := db.SetStorage(addr, key, figaro.Word{0x01}); got != figaro.StorageAdded {
		t.Errorf("wanted StorageAdded, got %v", got)
	}
	if got := db.SetStorage(addr, key, figaro.Word{}); got != figaro.StorageAddedDeleted {
		t.Errorf("wanted StorageAddedDeleted, got %v", got)
	}
	if got := db.SetStorage(addr, key, figaro.Word{}); got != figaro.StorageAssigned {
		t.Errorf("wanted StorageAssigned, got %v", got)
	}
}

func TestDB_CommittedStorageIsTheTransactionStartValue(t *testing.T) {
	db := NewDB()
	addr := figaro.Address{0x01}
	key := figaro.Key{0x02}

	if got := db.GetCommittedStorage(addr, key); got != (figaro.Word{}) {
		t.Errorf("unset slot must have zero committed value, got %v", got)
	}
	db.SetStorage(addr, key, figaro.Word{0x01})
	db.SetStorage(addr, key, figaro.Word{0x02})
	if got := db.GetCommittedStorage(addr, key); got != (figaro.Word{}) {
		t.Errorf("committed value must ignore uncommitted writes, got %v", got)
	}
}

// stubSource is a scripted fork source counting its uses.
type stubSource struct {
	accounts     map[figaro.Address]stubAccount
	slots        map[slotID]figaro.Word
	accountCalls int
	slotCalls    int
	err          error
}

type stubAccount struct {
	nonce   uint64
	balance figaro.Value
	code    figaro.Code
}

func (s *stubSource) Account(addr figaro.Address) (uint64, figaro.Value, figaro.Code, error) {
	s.accountCalls++
	if s.err != nil {
		return 0, figaro.Value{}, nil, s.err
	}
	acc := s.accounts[addr]
	return acc.nonce, acc.balance, acc.code, nil
}

func (s *stubSource) StorageSlot(addr figaro.Address, key figaro.Key) (figaro.Word, error) {
	s.slotCalls++
	if s.err != nil {
		return figaro.Word{}, s.err
	}
	return s.slots[slotID{addr, key}], nil
}

func TestForkedDB_FetchesUnseenAccountsOnce(t *testing.T) {
	addr := figaro.Address{0x01}
	source := &stubSource{
		accounts: map[figaro.Address]stubAccount{
			addr: {nonce: 3, balance: figaro.NewValue(77), code: figaro.Code{0x00}},
		},
	}
	db := NewForkedDB(source)

	for i := 0; i < 3; i++ {
		if got := db.GetBalance(addr); got != figaro.NewValue(77) {
			t.Fatalf("unexpected balance: %v", got)
		}
		if got := db.GetNonce(addr); got != 3 {
			t.Fatalf("unexpected nonce: %d", got)
		}
	}
	if source.accountCalls != 1 {
		t.Errorf("wanted exactly one fork fetch, got %d", source.accountCalls)
	}
	if err := db.Error(); err != nil {
		t.Errorf("unexpected backend error: %v", err)
	}
}

func TestForkedDB_FetchesUnseenSlotsOnce(t *testing.T) {
	addr := figaro.Address{0x01}
	key := figaro.Key{0x02}
	source := &stubSource{
		slots: map[slotID]figaro.Word{{addr, key}: {0x42}},
	}
	db := NewForkedDB(source)

	for i := 0; i < 3; i++ {
		if got := db.GetStorage(addr, key); got != (figaro.Word{0x42}) {
			t.Fatalf("unexpected slot value: %v", got)
		}
	}
	if source.slotCalls != 1 {
		t.Errorf("wanted exactly one fork fetch, got %d", source.slotCalls)
	}
}

func TestForkedDB_LocalWritesShadowTheFork(t *testing.T) {
	addr := figaro.Address{0x01}
	source := &stubSource{
		accounts: map[figaro.Address]stubAccount{
			addr: {balance: figaro.NewValue(10)},
		},
	}
	db := NewForkedDB(source)

	db.SetBalance(addr, figaro.NewValue(20))
	if got := db.GetBalance(addr); got != figaro.NewValue(20) {
		t.Errorf("local write must win, got %v", got)
	}
}

func TestForkedDB_SourceFailuresAreSticky(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("connection refused")}
	db := NewForkedDB(source)

	if got := db.GetBalance(figaro.Address{0x01}); got != (figaro.Value{}) {
		t.Errorf("failed read must report zero, got %v", got)
	}
	if err := db.Error(); err == nil {
		t.Fatalf("expected a sticky backend error")
	}

	// the error survives further, successful operations
	source.err = nil
	db.GetBalance(figaro.Address{0x02})
	if err := db.Error(); err == nil {
		t.Errorf("backend error must stick")
	}
}
