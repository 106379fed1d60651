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

	"github.com/holiman/uint256"
	"pgregory.net/rand"
)

func TestNewValue_ArgumentsAreOrderedMostSignificantFirst(t *testing.T) {
	tests := map[string]struct {
		args []uint64
		want Value
	}{
		"empty":  {nil, Value{}},
		"one":    {[]uint64{1}, Value{31: 1}},
		"two":    {[]uint64{1, 2}, Value{23: 1, 31: 2}},
		"three":  {[]uint64{1, 2, 3}, Value{15: 1, 23: 2, 31: 3}},
		"four":   {[]uint64{1, 2, 3, 4}, Value{7: 1, 15: 2, 23: 3, 31: 4}},
		"spread": {[]uint64{0x0102030405060708}, Value{24: 1, 25: 2, 26: 3, 27: 4, 28: 5, 29: 6, 30: 7, 31: 8}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := NewValue(test.args...); got != test.want {
				t.Errorf("wanted %x, got %x", test.want, got)
			}
		})
	}
}

func TestNewValue_TooManyArgumentsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	NewValue(1, 2, 3, 4, 5)
}

func TestValue_AddMatchesUint256Arithmetic(t *testing.T) {
	rand := rand.New(0)
	for i := 0; i < 1000; i++ {
		a := randomValue(rand)
		b := randomValue(rand)
		want := ValueFromUint256(new(uint256.Int).Add(a.ToUint256(), b.ToUint256()))
		if got := Add(a, b); got != want {
			t.Fatalf("%v + %v: wanted %v, got %v", a, b, want, got)
		}
	}
}

func TestValue_SubMatchesUint256Arithmetic(t *testing.T) {
	rand := rand.New(0)
	for i := 0; i < 1000; i++ {
		a := randomValue(rand)
		b := randomValue(rand)
		want := ValueFromUint256(new(uint256.Int).Sub(a.ToUint256(), b.ToUint256()))
		if got := Sub(a, b); got != want {
			t.Fatalf("%v - %v: wanted %v, got %v", a, b, want, got)
		}
	}
}

func TestValue_AddWrapsAround(t *testing.T) {
	var max Value
	for i := range max {
		max[i] = 0xff
	}
	if got := Add(max, NewValue(1)); got != (Value{}) {
		t.Errorf("wanted zero, got %v", got)
	}
	if got := Sub(Value{}, NewValue(1)); got != max {
		t.Errorf("wanted all-ones, got %v", got)
	}
}

func TestValue_CmpOrdersNumerically(t *testing.T) {
	rand := rand.New(0)
	for i := 0; i < 1000; i++ {
		a := randomValue(rand)
		b := randomValue(rand)
		if want, got := a.ToUint256().Cmp(b.ToUint256()), a.Cmp(b); want != got {
			t.Fatalf("cmp(%v, %v): wanted %d, got %d", a, b, want, got)
		}
	}
}

func TestValue_ScaleMultiplies(t *testing.T) {
	if got := NewValue(21).Scale(2); got != NewValue(42) {
		t.Errorf("wanted 42, got %v", got)
	}
}

func TestAddress_TextMarshalingRoundTrips(t *testing.T) {
	addr := Address{0x01, 0x02, 19: 0xff}
	text, err := addr.MarshalText()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var restored Address
	if err := restored.UnmarshalText(text); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if restored != addr {
		t.Errorf("wanted %v, got %v", addr, restored)
	}
}

func TestAddress_UnmarshalRejectsInvalidInput(t *testing.T) {
	var addr Address
	for _, input := range []string{"1234", "0x12", "0xzz"} {
		if err := addr.UnmarshalText([]byte(input)); err == nil {
			t.Errorf("input %q must be rejected", input)
		}
	}
}

func randomValue(rand *rand.Rand) (value Value) {
	rand.Read(value[:])
	return value
}
